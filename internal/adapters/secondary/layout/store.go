// Package layout stores blobs on disk as an OCI image layout.
package layout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"oci-registry-service/internal/core/domain"
	ports "oci-registry-service/internal/core/ports/output"
	"oci-registry-service/pkg/image"
)

// uploadsDir holds in-progress uploads next to blobs so commits are a
// rename on the same filesystem.
const uploadsDir = "uploads"

type blobStore struct {
	root string
	mu   sync.Mutex // guards index.json
}

// NewBlobStore opens the image layout at root, creating the oci-layout
// marker and an empty index when they are missing.
func NewBlobStore(root string) (ports.BlobStore, error) {
	for _, dir := range []string{image.ImageBlobsDir, uploadsDir} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("create layout: %w", err)
		}
	}

	layoutPath := filepath.Join(root, image.ImageLayoutFile)
	l, err := image.OciLayoutFromFile(layoutPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := image.NewOciLayout().ToFile(layoutPath); err != nil {
			return nil, fmt.Errorf("write oci-layout: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("read oci-layout: %w", err)
	default:
		if err := l.Validate(); err != nil {
			return nil, fmt.Errorf("read oci-layout: %w", err)
		}
	}

	indexPath := filepath.Join(root, image.ImageIndexFile)
	if _, err := os.Stat(indexPath); errors.Is(err, fs.ErrNotExist) {
		if err := image.NewImageIndex().ToFile(indexPath); err != nil {
			return nil, fmt.Errorf("write index: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("stat index: %w", err)
	}

	log.WithField("root", root).Info("image layout ready")
	return &blobStore{root: root}, nil
}

func (s *blobStore) blobPath(d image.Digest) string {
	return filepath.Join(s.root, image.ImageBlobsDir, d.Algorithm().String(), d.Encoded())
}

func (s *blobStore) uploadPath(id uuid.UUID) string {
	return filepath.Join(s.root, uploadsDir, id.String())
}

func (s *blobStore) Stat(_ context.Context, d image.Digest) (*domain.Blob, error) {
	fi, err := os.Stat(s.blobPath(d))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrBlobNotFound
		}
		return nil, fmt.Errorf("stat blob: %w", err)
	}
	return &domain.Blob{Digest: d, Size: fi.Size()}, nil
}

func (s *blobStore) Open(_ context.Context, d image.Digest) (io.ReadCloser, *domain.Blob, error) {
	f, err := os.Open(s.blobPath(d))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, domain.ErrBlobNotFound
		}
		return nil, nil, fmt.Errorf("open blob: %w", err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("stat blob: %w", err)
	}
	return f, &domain.Blob{Digest: d, Size: fi.Size()}, nil
}

// Put streams r into a temporary file while hashing it and only renames
// the file into place when the content matches expected.
func (s *blobStore) Put(_ context.Context, expected image.Digest, r io.Reader) (*domain.Blob, error) {
	if err := expected.GoDigest().Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidDigest, err)
	}

	tmp, err := os.CreateTemp(filepath.Join(s.root, uploadsDir), "put-*")
	if err != nil {
		return nil, fmt.Errorf("create temp blob: %w", err)
	}
	defer os.Remove(tmp.Name())

	verifier := expected.GoDigest().Verifier()
	n, err := io.Copy(io.MultiWriter(tmp, verifier), r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("write blob: %w", err)
	}
	if !verifier.Verified() {
		return nil, domain.ErrDigestMismatch
	}
	return s.commit(tmp.Name(), expected, n)
}

func (s *blobStore) commit(src string, d image.Digest, size int64) (*domain.Blob, error) {
	dst := s.blobPath(d)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, fmt.Errorf("commit blob: %w", err)
	}
	if err := os.Rename(src, dst); err != nil {
		return nil, fmt.Errorf("commit blob: %w", err)
	}
	return &domain.Blob{Digest: d, Size: size}, nil
}

func (s *blobStore) Delete(_ context.Context, d image.Digest) error {
	if err := os.Remove(s.blobPath(d)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.ErrBlobNotFound
		}
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

func (s *blobStore) StartUpload(_ context.Context, id uuid.UUID) error {
	f, err := os.OpenFile(s.uploadPath(id), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return domain.ErrUploadInProgress
		}
		return fmt.Errorf("start upload: %w", err)
	}
	return f.Close()
}

func (s *blobStore) AppendUpload(_ context.Context, id uuid.UUID, r io.Reader) (int64, error) {
	f, err := os.OpenFile(s.uploadPath(id), os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, domain.ErrUploadNotFound
		}
		return 0, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return 0, fmt.Errorf("append upload: %w", err)
	}
	fi, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat upload: %w", err)
	}
	return fi.Size(), nil
}

// CommitUpload discards the upload data when it does not hash to expected.
func (s *blobStore) CommitUpload(_ context.Context, id uuid.UUID, expected image.Digest) (*domain.Blob, error) {
	if err := expected.GoDigest().Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidDigest, err)
	}

	path := s.uploadPath(id)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrUploadNotFound
		}
		return nil, fmt.Errorf("open upload: %w", err)
	}

	verifier := expected.GoDigest().Verifier()
	n, err := io.Copy(verifier, f)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if !verifier.Verified() {
		if err := os.Remove(path); err != nil {
			log.WithError(err).Warn("failed to remove rejected upload")
		}
		return nil, domain.ErrDigestMismatch
	}
	return s.commit(path, expected, n)
}

func (s *blobStore) CancelUpload(_ context.Context, id uuid.UUID) error {
	if err := os.Remove(s.uploadPath(id)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.ErrUploadNotFound
		}
		return fmt.Errorf("cancel upload: %w", err)
	}
	return nil
}

func (s *blobStore) Tag(_ context.Context, ref string, desc image.Descriptor) error {
	return s.updateIndex(func(ix *image.ImageIndex) {
		ix.SetRef(ref, desc)
	})
}

func (s *blobStore) Untag(_ context.Context, ref string) error {
	return s.updateIndex(func(ix *image.ImageIndex) {
		ix.RemoveRef(ref)
	})
}

func (s *blobStore) updateIndex(fn func(ix *image.ImageIndex)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.root, image.ImageIndexFile)
	ix, err := image.ImageIndexFromFile(path)
	if err != nil {
		return fmt.Errorf("read index: %w", err)
	}
	fn(ix)

	tmp := path + ".tmp"
	if err := ix.ToFile(tmp); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}

var _ ports.BlobStore = (*blobStore)(nil)
