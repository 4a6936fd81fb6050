package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"sigs.k8s.io/yaml"

	"oci-registry-service/internal/adapters/primary/http/dto"
	"oci-registry-service/internal/core/domain"
	"oci-registry-service/pkg/image"
)

// maxDocumentSize bounds request bodies of the helper API.
const maxDocumentSize = 16 << 20

// ValidateDocument decodes and validates the request body as the document
// kind named in the path.
func (h *Handler) ValidateDocument(c *gin.Context) {
	kind := domain.DocumentKind(c.Param("kind"))

	content, err := io.ReadAll(io.LimitReader(c.Request.Body, maxDocumentSize))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc, err := h.validationSvc.Validate(kind, content)
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ValidateResponse{
		Kind:     kind,
		Valid:    true,
		Document: doc,
	})
}

// GenerateSpec returns a default runtime config, optionally rootless.
func (h *Handler) GenerateSpec(c *gin.Context) {
	var q dto.GenerateSpecQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	spec := h.validationSvc.GenerateSpec(q.Rootless, q.UID, q.GID)
	if q.Format != "yaml" {
		c.JSON(http.StatusOK, spec)
		return
	}

	out, err := yaml.Marshal(spec)
	if err != nil {
		log.WithError(err).Error("render spec failed")
		mapDomainError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/yaml", out)
}

// ComputeDigest returns the canonical digest and size of the request body.
func (h *Handler) ComputeDigest(c *gin.Context) {
	content, err := io.ReadAll(io.LimitReader(c.Request.Body, maxDocumentSize))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.ToDigestResponse(image.FromBytes(content), int64(len(content))))
}

func (h *Handler) ParseReference(c *gin.Context) {
	var q dto.ReferenceQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ref, err := h.validationSvc.ParseReference(q.Ref, q.Mirror)
	if err != nil {
		mapDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToReferenceResponse(ref))
}

// VerifyImage checks the layers of a stored image against its config.
func (h *Handler) VerifyImage(c *gin.Context) {
	var q dto.VerifyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	m, err := h.registrySvc.GetManifest(c.Request.Context(), q.Repository, q.Reference)
	if err != nil {
		mapDomainError(c, err)
		return
	}

	result, err := h.validationSvc.VerifyImage(c.Request.Context(), m)
	if err != nil {
		log.WithError(err).Error("verify image failed")
		mapDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToVerifyResponse(result))
}

// ListInventory lists the images running in a namespace and whether this
// registry holds them.
func (h *Handler) ListInventory(c *gin.Context) {
	namespace := c.Query("namespace")

	entries, err := h.inventorySvc.ListImages(c.Request.Context(), namespace)
	if err != nil {
		log.WithError(err).Error("list image inventory failed")
		mapDomainError(c, err)
		return
	}

	items := make([]dto.ImageInventoryResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, dto.ToImageInventoryResponse(e))
	}

	c.JSON(http.StatusOK, dto.ListInventoryResponse{
		Items: items,
		Total: len(items),
	})
}
