package handlers

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"oci-registry-service/pkg/distribution"
	"oci-registry-service/pkg/image"
)

// maxManifestSize is the largest manifest body accepted on push.
const maxManifestSize = 4 << 20

// GetManifest serves a manifest by tag or digest. HEAD answers with headers
// only.
func (h *Handler) GetManifest(c *gin.Context) {
	name, reference := c.Param("name"), c.Param("reference")

	m, err := h.registrySvc.GetManifest(c.Request.Context(), name, reference)
	if err != nil {
		mapRegistryError(c, err)
		return
	}

	c.Header(distribution.HeaderContentDigest, m.Digest.String())
	if c.Request.Method == http.MethodHead {
		c.Header("Content-Type", string(m.MediaType))
		c.Header("Content-Length", strconv.FormatInt(m.Size, 10))
		c.Status(http.StatusOK)
		return
	}
	c.Data(http.StatusOK, string(m.MediaType), m.Content)
}

// PutManifest stores a manifest under a tag or its digest.
func (h *Handler) PutManifest(c *gin.Context) {
	name, reference := c.Param("name"), c.Param("reference")

	content, err := io.ReadAll(io.LimitReader(c.Request.Body, maxManifestSize+1))
	if err != nil {
		writeRegistryError(c, http.StatusBadRequest, distribution.CodeManifestInvalid, err.Error())
		return
	}
	if len(content) > maxManifestSize {
		writeRegistryError(c, http.StatusRequestEntityTooLarge, distribution.CodeManifestInvalid,
			fmt.Sprintf("manifest exceeds %d bytes", maxManifestSize))
		return
	}

	mediaType := image.MediaType(c.ContentType())
	m, err := h.registrySvc.PutManifest(c.Request.Context(), name, reference, mediaType, content)
	if err != nil {
		log.WithError(err).Error("put manifest failed")
		mapRegistryError(c, err)
		return
	}

	c.Header("Location", fmt.Sprintf("/v2/%s/manifests/%s", name, m.Digest))
	c.Header(distribution.HeaderContentDigest, m.Digest.String())
	if m.Subject != nil {
		c.Header("OCI-Subject", m.Subject.String())
	}
	c.Status(http.StatusCreated)
}

// DeleteManifest deletes a manifest by digest, or untags it by tag.
func (h *Handler) DeleteManifest(c *gin.Context) {
	name, reference := c.Param("name"), c.Param("reference")

	if err := h.registrySvc.DeleteManifest(c.Request.Context(), name, reference); err != nil {
		log.WithError(err).Error("delete manifest failed")
		mapRegistryError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

// ListTags lists the tags of a repository, paged by n and last.
func (h *Handler) ListTags(c *gin.Context) {
	name := c.Param("name")
	n, last := pageQuery(c)

	list, more, err := h.registrySvc.ListTags(c.Request.Context(), name, last, n)
	if err != nil {
		mapRegistryError(c, err)
		return
	}

	if more && len(list.Tags) > 0 {
		setNextLink(c, fmt.Sprintf("/v2/%s/tags/list", name), len(list.Tags), list.Tags[len(list.Tags)-1])
	}
	c.JSON(http.StatusOK, list)
}

// Catalog lists repositories, paged by n and last.
func (h *Handler) Catalog(c *gin.Context) {
	n, last := pageQuery(c)

	list, more, err := h.registrySvc.Catalog(c.Request.Context(), last, n)
	if err != nil {
		mapRegistryError(c, err)
		return
	}

	if more && len(list.Repositories) > 0 {
		setNextLink(c, "/v2/_catalog", len(list.Repositories), list.Repositories[len(list.Repositories)-1])
	}
	c.JSON(http.StatusOK, list)
}

// Referrers lists the manifests whose subject is the given digest.
func (h *Handler) Referrers(c *gin.Context) {
	name, digest := c.Param("name"), c.Param("digest")
	artifactType := c.Query("artifactType")

	index, err := h.registrySvc.Referrers(c.Request.Context(), name, digest, image.MediaType(artifactType))
	if err != nil {
		mapRegistryError(c, err)
		return
	}

	body, err := index.ToString()
	if err != nil {
		mapRegistryError(c, err)
		return
	}
	if artifactType != "" {
		c.Header(distribution.HeaderFiltersApplied, "artifactType")
	}
	c.Data(http.StatusOK, string(image.MediaTypeImageIndex), []byte(body))
}

// pageQuery reads n and last. A malformed n falls back to the default page.
func pageQuery(c *gin.Context) (int, string) {
	n, err := strconv.Atoi(c.Query("n"))
	if err != nil {
		n = 0
	}
	return n, c.Query("last")
}

func setNextLink(c *gin.Context, path string, n int, last string) {
	q := url.Values{}
	q.Set("n", strconv.Itoa(n))
	q.Set("last", last)
	c.Header("Link", fmt.Sprintf(`<%s?%s>; rel="next"`, path, q.Encode()))
}
