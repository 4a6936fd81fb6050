package handlers

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"

	"oci-registry-service/pkg/distribution"
)

// route matches a path below /v2 and names its capture groups.
type route struct {
	pattern *regexp.Regexp
	params  []string
	methods map[string]gin.HandlerFunc
}

// registryRoutes is checked in order; the upload routes come before the
// blob route so "uploads" is never taken for a digest.
func (h *Handler) registryRoutes() []route {
	return []route{
		{
			pattern: regexp.MustCompile(`^/?$`),
			methods: map[string]gin.HandlerFunc{
				http.MethodGet:  h.APIVersion,
				http.MethodHead: h.APIVersion,
			},
		},
		{
			pattern: regexp.MustCompile(`^/_catalog$`),
			methods: map[string]gin.HandlerFunc{
				http.MethodGet: h.Catalog,
			},
		},
		{
			pattern: regexp.MustCompile(`^/(.+)/tags/list$`),
			params:  []string{"name"},
			methods: map[string]gin.HandlerFunc{
				http.MethodGet: h.ListTags,
			},
		},
		{
			pattern: regexp.MustCompile(`^/(.+)/manifests/([^/]+)$`),
			params:  []string{"name", "reference"},
			methods: map[string]gin.HandlerFunc{
				http.MethodGet:    h.GetManifest,
				http.MethodHead:   h.GetManifest,
				http.MethodPut:    h.PutManifest,
				http.MethodDelete: h.DeleteManifest,
			},
		},
		{
			pattern: regexp.MustCompile(`^/(.+)/blobs/uploads/?$`),
			params:  []string{"name"},
			methods: map[string]gin.HandlerFunc{
				http.MethodPost: h.StartUpload,
			},
		},
		{
			pattern: regexp.MustCompile(`^/(.+)/blobs/uploads/([^/]+)$`),
			params:  []string{"name", "uuid"},
			methods: map[string]gin.HandlerFunc{
				http.MethodGet:    h.GetUpload,
				http.MethodPatch:  h.PatchUpload,
				http.MethodPut:    h.CompleteUpload,
				http.MethodDelete: h.CancelUpload,
			},
		},
		{
			pattern: regexp.MustCompile(`^/(.+)/blobs/([^/]+)$`),
			params:  []string{"name", "digest"},
			methods: map[string]gin.HandlerFunc{
				http.MethodGet:    h.GetBlob,
				http.MethodHead:   h.GetBlob,
				http.MethodDelete: h.DeleteBlob,
			},
		},
		{
			pattern: regexp.MustCompile(`^/(.+)/referrers/([^/]+)$`),
			params:  []string{"name", "digest"},
			methods: map[string]gin.HandlerFunc{
				http.MethodGet: h.Referrers,
			},
		},
	}
}

func (h *Handler) dispatch(c *gin.Context) {
	c.Header(distribution.HeaderAPIVersion, distribution.APIVersion)

	path := c.Param("path")
	for _, rt := range h.routes {
		match := rt.pattern.FindStringSubmatch(path)
		if match == nil {
			continue
		}
		handler, ok := rt.methods[c.Request.Method]
		if !ok {
			writeRegistryError(c, http.StatusMethodNotAllowed, distribution.CodeUnsupported, "method "+c.Request.Method+" not allowed")
			return
		}
		for i, key := range rt.params {
			c.Params = append(c.Params, gin.Param{Key: key, Value: match[i+1]})
		}
		handler(c)
		return
	}

	writeRegistryError(c, http.StatusNotFound, distribution.CodeNameUnknown, "no route for "+path)
}

// APIVersion answers the base endpoint clients call to check for v2 support.
func (h *Handler) APIVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{})
}
