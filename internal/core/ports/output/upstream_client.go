package ports

import (
	"context"
	"io"

	"oci-registry-service/pkg/image"
)

// UpstreamManifest is a manifest fetched from the upstream registry.
type UpstreamManifest struct {
	MediaType image.MediaType
	Digest    image.Digest
	Content   []byte
}

// UpstreamClient defines the contract for pull-through from another registry.
type UpstreamClient interface {
	// FetchManifest resolves a tag or digest in the upstream registry
	FetchManifest(ctx context.Context, repository, reference string) (*UpstreamManifest, error)

	// FetchBlob streams a blob; the caller closes the reader
	FetchBlob(ctx context.Context, repository string, digest image.Digest) (io.ReadCloser, int64, error)

	// IsAvailable checks if pull-through is enabled and configured
	IsAvailable() bool
}
