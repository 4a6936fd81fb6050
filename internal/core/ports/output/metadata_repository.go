package ports

import (
	"context"

	"github.com/google/uuid"

	"oci-registry-service/internal/core/domain"
	"oci-registry-service/pkg/image"
)

// PageFilter selects the page after Last, lexically ordered.
type PageFilter struct {
	Last  string
	Limit int
}

// ReferrerFilter selects manifests whose subject is Subject.
type ReferrerFilter struct {
	Repository   string
	Subject      image.Digest
	ArtifactType image.MediaType
}

type MetadataRepository interface {
	// Repositories
	CreateRepository(ctx context.Context, repo *domain.Repository) error
	GetRepository(ctx context.Context, name string) (*domain.Repository, error)
	ListRepositories(ctx context.Context, filter PageFilter) ([]string, error)

	// Manifests
	PutManifest(ctx context.Context, manifest *domain.Manifest) error
	GetManifest(ctx context.Context, repository string, digest image.Digest) (*domain.Manifest, error)
	DeleteManifest(ctx context.Context, repository string, digest image.Digest) error
	ListReferrers(ctx context.Context, filter ReferrerFilter) ([]*domain.Manifest, error)

	// Tags
	PutTag(ctx context.Context, tag *domain.Tag) error
	GetTag(ctx context.Context, repository, name string) (*domain.Tag, error)
	DeleteTag(ctx context.Context, repository, name string) error
	ListTags(ctx context.Context, repository string, filter PageFilter) ([]string, error)
	ListTagsByDigest(ctx context.Context, repository string, digest image.Digest) ([]string, error)

	// Blob links record which repositories may serve a blob. The blob file
	// is shared and only removed once CountBlobLinks reaches zero.
	LinkBlob(ctx context.Context, repository string, digest image.Digest) error
	HasBlob(ctx context.Context, repository string, digest image.Digest) (bool, error)
	UnlinkBlob(ctx context.Context, repository string, digest image.Digest) error
	CountBlobLinks(ctx context.Context, digest image.Digest) (int, error)

	// Upload sessions
	CreateUpload(ctx context.Context, upload *domain.Upload) error
	GetUpload(ctx context.Context, id uuid.UUID) (*domain.Upload, error)
	UpdateUpload(ctx context.Context, upload *domain.Upload) error
	DeleteUpload(ctx context.Context, id uuid.UUID) error
}
