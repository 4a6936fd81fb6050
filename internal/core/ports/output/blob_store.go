package ports

import (
	"context"
	"io"

	"github.com/google/uuid"

	"oci-registry-service/internal/core/domain"
	"oci-registry-service/pkg/image"
)

// BlobStore holds content-addressed blobs and the upload data that becomes
// them. Writes are verified against the expected digest before they are
// visible.
type BlobStore interface {
	Stat(ctx context.Context, digest image.Digest) (*domain.Blob, error)
	Open(ctx context.Context, digest image.Digest) (io.ReadCloser, *domain.Blob, error)
	Put(ctx context.Context, expected image.Digest, r io.Reader) (*domain.Blob, error)
	Delete(ctx context.Context, digest image.Digest) error

	// StartUpload creates empty upload data for id.
	StartUpload(ctx context.Context, id uuid.UUID) error

	// AppendUpload appends r and returns the new upload size.
	AppendUpload(ctx context.Context, id uuid.UUID, r io.Reader) (int64, error)

	// CommitUpload moves the upload data into the store if it hashes to expected.
	CommitUpload(ctx context.Context, id uuid.UUID, expected image.Digest) (*domain.Blob, error)

	CancelUpload(ctx context.Context, id uuid.UUID) error

	// Tag records ref in the layout index; Untag removes it.
	Tag(ctx context.Context, ref string, desc image.Descriptor) error
	Untag(ctx context.Context, ref string) error
}
