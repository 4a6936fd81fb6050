package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"oci-registry-service/internal/core/domain"
	ports "oci-registry-service/internal/core/ports/output"
	"oci-registry-service/pkg/image"
)

// BlobService handles blob reads, uploads and cross-repository mounts.
type BlobService struct {
	repo     ports.MetadataRepository
	blobs    ports.BlobStore
	upstream ports.UpstreamClient
}

// NewBlobService creates a new BlobService. upstream is optional.
func NewBlobService(repo ports.MetadataRepository, blobs ports.BlobStore, upstream ports.UpstreamClient) *BlobService {
	return &BlobService{repo: repo, blobs: blobs, upstream: upstream}
}

// Stat answers ErrRepositoryNotFound for an unknown repository and
// ErrBlobNotFound for a blob the repository does not link.
func (s *BlobService) Stat(ctx context.Context, name, digest string) (*domain.Blob, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	d, err := parseDigest(digest)
	if err != nil {
		return nil, err
	}
	if err := checkBlobLink(ctx, s.repo, name, d); err != nil {
		return nil, err
	}
	return s.blobs.Stat(ctx, d)
}

// Open returns the blob content, pulling it from upstream on a miss. The
// caller closes the reader.
func (s *BlobService) Open(ctx context.Context, name, digest string) (io.ReadCloser, *domain.Blob, error) {
	if err := validateName(name); err != nil {
		return nil, nil, err
	}
	d, err := parseDigest(digest)
	if err != nil {
		return nil, nil, err
	}

	rc, blob, err := s.openLinked(ctx, name, d)
	if err == nil || !s.canPullThrough(err) {
		return rc, blob, err
	}
	return s.pullThrough(ctx, name, d)
}

func (s *BlobService) openLinked(ctx context.Context, name string, d image.Digest) (io.ReadCloser, *domain.Blob, error) {
	if err := checkBlobLink(ctx, s.repo, name, d); err != nil {
		return nil, nil, err
	}
	return s.blobs.Open(ctx, d)
}

func (s *BlobService) canPullThrough(err error) bool {
	if !errors.Is(err, domain.ErrBlobNotFound) && !errors.Is(err, domain.ErrRepositoryNotFound) {
		return false
	}
	return s.upstream != nil && s.upstream.IsAvailable()
}

func (s *BlobService) pullThrough(ctx context.Context, name string, d image.Digest) (io.ReadCloser, *domain.Blob, error) {
	body, _, err := s.upstream.FetchBlob(ctx, name, d)
	if err != nil {
		return nil, nil, err
	}
	defer body.Close()

	if _, err := s.blobs.Put(ctx, d, body); err != nil {
		return nil, nil, fmt.Errorf("store upstream blob: %w", err)
	}
	if err := s.link(ctx, name, d); err != nil {
		return nil, nil, err
	}

	log.WithFields(log.Fields{
		"repository": name,
		"digest":     d.String(),
	}).Info("blob pulled from upstream")

	return s.blobs.Open(ctx, d)
}

// Delete unlinks the blob from the named repository. The content is
// removed only when no other repository links it.
func (s *BlobService) Delete(ctx context.Context, name, digest string) error {
	if err := validateName(name); err != nil {
		return err
	}
	d, err := parseDigest(digest)
	if err != nil {
		return err
	}
	if err := checkBlobLink(ctx, s.repo, name, d); err != nil {
		return err
	}
	if err := s.repo.UnlinkBlob(ctx, name, d); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"repository": name,
		"digest":     d.String(),
	}).Info("blob deleted")

	return releaseBlob(ctx, s.repo, s.blobs, d)
}

// Upload stores a whole blob in a single request.
func (s *BlobService) Upload(ctx context.Context, name, digest string, r io.Reader) (*domain.Blob, error) {
	d, err := parseDigest(digest)
	if err != nil {
		return nil, err
	}
	if _, err := ensureRepository(ctx, s.repo, name); err != nil {
		return nil, err
	}
	blob, err := s.blobs.Put(ctx, d, r)
	if err != nil {
		return nil, err
	}
	if err := s.repo.LinkBlob(ctx, name, d); err != nil {
		return nil, err
	}
	return blob, nil
}

// StartUpload opens a resumable upload session in the named repository.
func (s *BlobService) StartUpload(ctx context.Context, name string) (*domain.Upload, error) {
	if _, err := ensureRepository(ctx, s.repo, name); err != nil {
		return nil, err
	}

	upload := &domain.Upload{
		ID:         uuid.New(),
		Repository: name,
		StartedAt:  time.Now().UTC(),
	}
	if err := s.blobs.StartUpload(ctx, upload.ID); err != nil {
		return nil, err
	}
	if err := s.repo.CreateUpload(ctx, upload); err != nil {
		if cerr := s.blobs.CancelUpload(ctx, upload.ID); cerr != nil {
			log.WithError(cerr).Warn("failed to discard upload data")
		}
		return nil, err
	}
	return upload, nil
}

// GetUpload returns the session only if it belongs to the named repository.
func (s *BlobService) GetUpload(ctx context.Context, name string, id uuid.UUID) (*domain.Upload, error) {
	upload, err := s.repo.GetUpload(ctx, id)
	if err != nil {
		return nil, err
	}
	if upload.Repository != name {
		return nil, domain.ErrUploadNotFound
	}
	return upload, nil
}

// AppendChunk writes a chunk that must start at offset. A negative offset
// appends to whatever was received so far.
func (s *BlobService) AppendChunk(ctx context.Context, name string, id uuid.UUID, offset int64, r io.Reader) (*domain.Upload, error) {
	upload, err := s.GetUpload(ctx, name, id)
	if err != nil {
		return nil, err
	}
	if offset >= 0 && offset != upload.Offset {
		return nil, fmt.Errorf("%w: expected offset %d, got %d", domain.ErrInvalidUploadRange, upload.Offset, offset)
	}

	size, err := s.blobs.AppendUpload(ctx, id, r)
	if err != nil {
		return nil, err
	}
	upload.Offset = size
	if err := s.repo.UpdateUpload(ctx, upload); err != nil {
		return nil, err
	}
	return upload, nil
}

// CompleteUpload appends the optional final chunk and commits the upload
// as digest. A digest mismatch ends the session.
func (s *BlobService) CompleteUpload(ctx context.Context, name string, id uuid.UUID, digest string, r io.Reader) (*domain.Blob, error) {
	d, err := parseDigest(digest)
	if err != nil {
		return nil, err
	}
	upload, err := s.GetUpload(ctx, name, id)
	if err != nil {
		return nil, err
	}

	if r != nil {
		if _, err := s.blobs.AppendUpload(ctx, id, r); err != nil {
			return nil, err
		}
	}

	blob, err := s.blobs.CommitUpload(ctx, id, d)
	if err != nil {
		if errors.Is(err, domain.ErrDigestMismatch) {
			s.forgetUpload(ctx, upload.ID)
		}
		return nil, err
	}
	s.forgetUpload(ctx, upload.ID)
	if err := s.repo.LinkBlob(ctx, name, d); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"repository": name,
		"digest":     d.String(),
		"size":       blob.Size,
	}).Info("blob upload completed")

	return blob, nil
}

func (s *BlobService) CancelUpload(ctx context.Context, name string, id uuid.UUID) error {
	upload, err := s.GetUpload(ctx, name, id)
	if err != nil {
		return err
	}
	if err := s.blobs.CancelUpload(ctx, upload.ID); err != nil {
		return err
	}
	return s.repo.DeleteUpload(ctx, upload.ID)
}

// Mount links a blob of repository from into name without copying it.
// The blob must be linked in from.
func (s *BlobService) Mount(ctx context.Context, name, digest, from string) (*domain.Blob, error) {
	d, err := parseDigest(digest)
	if err != nil {
		return nil, err
	}
	if err := validateName(from); err != nil {
		return nil, err
	}
	if err := checkBlobLink(ctx, s.repo, from, d); err != nil {
		return nil, err
	}

	blob, err := s.blobs.Stat(ctx, d)
	if err != nil {
		return nil, err
	}
	if err := s.link(ctx, name, d); err != nil {
		return nil, err
	}
	return blob, nil
}

// link creates the repository if needed and records d in it.
func (s *BlobService) link(ctx context.Context, name string, d image.Digest) error {
	if _, err := ensureRepository(ctx, s.repo, name); err != nil {
		return err
	}
	return s.repo.LinkBlob(ctx, name, d)
}

func (s *BlobService) forgetUpload(ctx context.Context, id uuid.UUID) {
	if err := s.repo.DeleteUpload(ctx, id); err != nil {
		log.WithError(err).Warn("failed to delete upload session")
	}
}
