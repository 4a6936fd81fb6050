package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"oci-registry-service/internal/core/domain"
	"oci-registry-service/pkg/distribution"
)

// GetBlob streams a blob. HEAD answers with its size and digest only.
func (h *Handler) GetBlob(c *gin.Context) {
	name, digest := c.Param("name"), c.Param("digest")

	if c.Request.Method == http.MethodHead {
		blob, err := h.blobSvc.Stat(c.Request.Context(), name, digest)
		if err != nil {
			mapRegistryError(c, err)
			return
		}
		c.Header(distribution.HeaderContentDigest, blob.Digest.String())
		c.Header("Content-Type", "application/octet-stream")
		c.Header("Content-Length", strconv.FormatInt(blob.Size, 10))
		c.Status(http.StatusOK)
		return
	}

	rc, blob, err := h.blobSvc.Open(c.Request.Context(), name, digest)
	if err != nil {
		mapRegistryError(c, err)
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, blob.Size, "application/octet-stream", rc, map[string]string{
		distribution.HeaderContentDigest: blob.Digest.String(),
	})
}

func (h *Handler) DeleteBlob(c *gin.Context) {
	name, digest := c.Param("name"), c.Param("digest")

	if err := h.blobSvc.Delete(c.Request.Context(), name, digest); err != nil {
		log.WithError(err).Error("delete blob failed")
		mapRegistryError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

// StartUpload opens an upload session. With ?mount=&from= it first tries a
// cross-repository mount, and with ?digest= it takes the whole blob in one
// request.
func (h *Handler) StartUpload(c *gin.Context) {
	name := c.Param("name")
	ctx := c.Request.Context()

	if mount, from := c.Query("mount"), c.Query("from"); mount != "" && from != "" {
		blob, err := h.blobSvc.Mount(ctx, name, mount, from)
		if err == nil {
			blobCreated(c, name, blob)
			return
		}
		if !isNotFound(err) {
			log.WithError(err).Error("mount blob failed")
			mapRegistryError(c, err)
			return
		}
		// Fall through to a regular upload when the source is unknown.
	}

	if digest := c.Query("digest"); digest != "" {
		blob, err := h.blobSvc.Upload(ctx, name, digest, c.Request.Body)
		if err != nil {
			log.WithError(err).Error("upload blob failed")
			mapRegistryError(c, err)
			return
		}
		blobCreated(c, name, blob)
		return
	}

	upload, err := h.blobSvc.StartUpload(ctx, name)
	if err != nil {
		log.WithError(err).Error("start upload failed")
		mapRegistryError(c, err)
		return
	}
	uploadHeaders(c, name, upload)
	c.Status(http.StatusAccepted)
}

// GetUpload reports how much of an upload has been received.
func (h *Handler) GetUpload(c *gin.Context) {
	name := c.Param("name")
	id, ok := uploadID(c)
	if !ok {
		return
	}

	upload, err := h.blobSvc.GetUpload(c.Request.Context(), name, id)
	if err != nil {
		mapRegistryError(c, err)
		return
	}
	uploadHeaders(c, name, upload)
	c.Status(http.StatusNoContent)
}

// PatchUpload appends a chunk. A Content-Range header pins the chunk to an
// offset; without it the chunk is appended.
func (h *Handler) PatchUpload(c *gin.Context) {
	name := c.Param("name")
	id, ok := uploadID(c)
	if !ok {
		return
	}

	offset, err := rangeStart(c.GetHeader("Content-Range"))
	if err != nil {
		mapRegistryError(c, err)
		return
	}

	upload, err := h.blobSvc.AppendChunk(c.Request.Context(), name, id, offset, c.Request.Body)
	if err != nil {
		log.WithError(err).Error("append chunk failed")
		mapRegistryError(c, err)
		return
	}
	uploadHeaders(c, name, upload)
	c.Status(http.StatusAccepted)
}

// CompleteUpload takes an optional final chunk and commits the blob under
// the ?digest= it must hash to.
func (h *Handler) CompleteUpload(c *gin.Context) {
	name := c.Param("name")
	id, ok := uploadID(c)
	if !ok {
		return
	}

	digest := c.Query("digest")
	if digest == "" {
		mapRegistryError(c, fmt.Errorf("%w: digest query parameter is required", domain.ErrInvalidDigest))
		return
	}

	var body io.Reader
	if c.Request.ContentLength != 0 {
		body = c.Request.Body
	}

	blob, err := h.blobSvc.CompleteUpload(c.Request.Context(), name, id, digest, body)
	if err != nil {
		log.WithError(err).Error("complete upload failed")
		mapRegistryError(c, err)
		return
	}
	blobCreated(c, name, blob)
}

func (h *Handler) CancelUpload(c *gin.Context) {
	name := c.Param("name")
	id, ok := uploadID(c)
	if !ok {
		return
	}

	if err := h.blobSvc.CancelUpload(c.Request.Context(), name, id); err != nil {
		log.WithError(err).Error("cancel upload failed")
		mapRegistryError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func uploadID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		mapRegistryError(c, domain.ErrUploadNotFound)
		return uuid.Nil, false
	}
	return id, true
}

// rangeStart parses the start of a "<start>-<end>" Content-Range value. An
// empty header yields -1.
func rangeStart(header string) (int64, error) {
	if header == "" {
		return -1, nil
	}
	header = strings.TrimPrefix(header, "bytes ")
	start, _, ok := strings.Cut(header, "-")
	if !ok {
		return 0, fmt.Errorf("%w: malformed Content-Range %q", domain.ErrInvalidUploadRange, header)
	}
	n, err := strconv.ParseInt(start, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: malformed Content-Range %q", domain.ErrInvalidUploadRange, header)
	}
	return n, nil
}

func uploadHeaders(c *gin.Context, name string, upload *domain.Upload) {
	c.Header("Location", fmt.Sprintf("/v2/%s/blobs/uploads/%s", name, upload.ID))
	c.Header(distribution.HeaderUploadUUID, upload.ID.String())
	end := upload.Offset - 1
	if end < 0 {
		end = 0
	}
	c.Header("Range", fmt.Sprintf("0-%d", end))
	c.Header("Content-Length", "0")
}

func blobCreated(c *gin.Context, name string, blob *domain.Blob) {
	c.Header("Location", fmt.Sprintf("/v2/%s/blobs/%s", name, blob.Digest))
	c.Header(distribution.HeaderContentDigest, blob.Digest.String())
	c.Status(http.StatusCreated)
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrRepositoryNotFound) ||
		errors.Is(err, domain.ErrBlobNotFound)
}
