package domain

import "errors"

// ============================================================================
// Registry Errors
// ============================================================================

// Not found errors
var (
	ErrRepositoryNotFound = errors.New("repository name not known to registry")
	ErrManifestNotFound   = errors.New("manifest unknown")
	ErrTagNotFound        = errors.New("tag unknown")
	ErrBlobNotFound       = errors.New("blob unknown to registry")
	ErrUploadNotFound     = errors.New("blob upload unknown to registry")
)

// Conflict errors
var (
	ErrRepositoryExists = errors.New("repository already exists")
	ErrUploadInProgress = errors.New("blob upload already in progress")
)

// Validation errors
var (
	ErrInvalidName           = errors.New("invalid repository name")
	ErrInvalidTag            = errors.New("invalid tag")
	ErrInvalidDigest         = errors.New("provided digest is invalid")
	ErrDigestMismatch        = errors.New("provided digest did not match uploaded content")
	ErrInvalidManifest       = errors.New("manifest invalid")
	ErrUnknownMediaType      = errors.New("unsupported manifest media type")
	ErrManifestBlobUnknown   = errors.New("manifest references a blob unknown to registry")
	ErrInvalidUploadRange    = errors.New("requested range not satisfiable")
	ErrInvalidSize           = errors.New("provided length did not match content length")
	ErrInvalidDocument       = errors.New("document invalid")
	ErrUnknownDocumentKind   = errors.New("unknown document kind")
	ErrInvalidReference      = errors.New("invalid image reference")
	ErrUnsupportedOperation  = errors.New("the operation is unsupported")
	ErrLayerCountMismatch    = errors.New("layer count does not match rootfs diff_ids")
	ErrUnsupportedCompressor = errors.New("unsupported layer compression")
)

// ============================================================================
// Integration Errors
// ============================================================================

var (
	ErrUpstreamUnavailable = errors.New("upstream registry is not available")
	ErrClusterUnavailable  = errors.New("kubernetes integration is not available")
	ErrCacheMiss           = errors.New("cache miss")
)
