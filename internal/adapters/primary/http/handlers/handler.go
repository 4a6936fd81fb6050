package handlers

import (
	"oci-registry-service/internal/core/services"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	registrySvc   *services.RegistryService
	blobSvc       *services.BlobService
	validationSvc *services.ValidationService
	inventorySvc  *services.InventoryService
	routes        []route
}

func New(
	registrySvc *services.RegistryService,
	blobSvc *services.BlobService,
	validationSvc *services.ValidationService,
	inventorySvc *services.InventoryService,
) *Handler {
	h := &Handler{
		registrySvc:   registrySvc,
		blobSvc:       blobSvc,
		validationSvc: validationSvc,
		inventorySvc:  inventorySvc,
	}
	h.routes = h.registryRoutes()
	return h
}

// RegisterRoutes mounts the distribution API. Repository names contain
// slashes, so a single catch-all route dispatches on the full path.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.Any("/*path", h.dispatch)
}

// RegisterAPIRoutes mounts the document helper API.
func (h *Handler) RegisterAPIRoutes(r *gin.RouterGroup) {
	// Documents
	r.POST("/validate/:kind", h.ValidateDocument)
	r.GET("/spec", h.GenerateSpec)
	r.POST("/digest", h.ComputeDigest)

	// References
	r.GET("/reference", h.ParseReference)

	// Images
	r.GET("/verify", h.VerifyImage)
	r.GET("/inventory", h.ListInventory)
}
