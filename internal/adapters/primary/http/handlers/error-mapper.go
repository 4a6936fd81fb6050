package handlers

import (
	"errors"
	"net/http"

	"oci-registry-service/internal/core/domain"
	"oci-registry-service/pkg/distribution"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// mapDomainError answers the helper API with a plain JSON error.
func mapDomainError(c *gin.Context, err error) {
	switch {
	// Not found errors
	case errors.Is(err, domain.ErrRepositoryNotFound),
		errors.Is(err, domain.ErrManifestNotFound),
		errors.Is(err, domain.ErrTagNotFound),
		errors.Is(err, domain.ErrBlobNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	// Bad request / validation errors
	case errors.Is(err, domain.ErrInvalidName),
		errors.Is(err, domain.ErrInvalidTag),
		errors.Is(err, domain.ErrInvalidDigest),
		errors.Is(err, domain.ErrInvalidManifest),
		errors.Is(err, domain.ErrInvalidDocument),
		errors.Is(err, domain.ErrUnknownDocumentKind),
		errors.Is(err, domain.ErrInvalidReference),
		errors.Is(err, domain.ErrLayerCountMismatch),
		errors.Is(err, domain.ErrUnsupportedCompressor),
		errors.Is(err, domain.ErrUnsupportedOperation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	// Service unavailable errors
	case errors.Is(err, domain.ErrClusterUnavailable),
		errors.Is(err, domain.ErrUpstreamUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// mapRegistryError answers the distribution API with an ErrorResponse
// carrying the matching error code.
func mapRegistryError(c *gin.Context, err error) {
	switch {
	// Not found errors
	case errors.Is(err, domain.ErrRepositoryNotFound):
		writeRegistryError(c, http.StatusNotFound, distribution.CodeNameUnknown, err.Error())
	case errors.Is(err, domain.ErrManifestNotFound),
		errors.Is(err, domain.ErrTagNotFound):
		writeRegistryError(c, http.StatusNotFound, distribution.CodeManifestUnknown, err.Error())
	case errors.Is(err, domain.ErrBlobNotFound):
		writeRegistryError(c, http.StatusNotFound, distribution.CodeBlobUnknown, err.Error())
	case errors.Is(err, domain.ErrUploadNotFound):
		writeRegistryError(c, http.StatusNotFound, distribution.CodeBlobUploadUnknown, err.Error())

	// Conflict errors
	case errors.Is(err, domain.ErrUploadInProgress):
		writeRegistryError(c, http.StatusConflict, distribution.CodeBlobUploadInvalid, err.Error())

	// Bad request / validation errors
	case errors.Is(err, domain.ErrInvalidName):
		writeRegistryError(c, http.StatusBadRequest, distribution.CodeNameInvalid, err.Error())
	case errors.Is(err, domain.ErrInvalidTag),
		errors.Is(err, domain.ErrInvalidManifest),
		errors.Is(err, domain.ErrUnknownMediaType):
		writeRegistryError(c, http.StatusBadRequest, distribution.CodeManifestInvalid, err.Error())
	case errors.Is(err, domain.ErrManifestBlobUnknown):
		writeRegistryError(c, http.StatusBadRequest, distribution.CodeManifestBlobUnknown, err.Error())
	case errors.Is(err, domain.ErrInvalidDigest),
		errors.Is(err, domain.ErrDigestMismatch):
		writeRegistryError(c, http.StatusBadRequest, distribution.CodeDigestInvalid, err.Error())
	case errors.Is(err, domain.ErrInvalidSize):
		writeRegistryError(c, http.StatusBadRequest, distribution.CodeSizeInvalid, err.Error())
	case errors.Is(err, domain.ErrInvalidUploadRange):
		writeRegistryError(c, http.StatusRequestedRangeNotSatisfiable, distribution.CodeBlobUploadInvalid, err.Error())
	case errors.Is(err, domain.ErrUnsupportedOperation):
		writeRegistryError(c, http.StatusMethodNotAllowed, distribution.CodeUnsupported, err.Error())

	// Service unavailable errors
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		c.JSON(http.StatusServiceUnavailable, distribution.NewErrorResponse())

	default:
		log.WithError(err).Error("registry request failed")
		c.JSON(http.StatusInternalServerError, distribution.NewErrorResponse())
	}
}

func writeRegistryError(c *gin.Context, status int, code distribution.ErrorCode, detail string) {
	// HEAD responses carry no body
	if c.Request.Method == http.MethodHead {
		c.Status(status)
		return
	}
	c.JSON(status, distribution.NewErrorResponse(distribution.NewErrorInfo(code, "", detail)))
}
