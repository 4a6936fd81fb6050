package ports

import (
	"context"

	"oci-registry-service/internal/core/domain"
	"oci-registry-service/pkg/image"
)

// ManifestCache caches tag resolution and manifest content. Lookups that
// find nothing return domain.ErrCacheMiss.
type ManifestCache interface {
	GetTag(ctx context.Context, repository, tag string) (image.Digest, error)
	SetTag(ctx context.Context, repository, tag string, digest image.Digest) error
	DeleteTag(ctx context.Context, repository, tag string) error

	GetManifest(ctx context.Context, repository string, digest image.Digest) (*domain.Manifest, error)
	SetManifest(ctx context.Context, manifest *domain.Manifest) error
	DeleteManifest(ctx context.Context, repository string, digest image.Digest) error
}
