package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"oci-registry-service/internal/core/domain"
	ports "oci-registry-service/internal/core/ports/output"
	"oci-registry-service/pkg/distribution"
	"oci-registry-service/pkg/image"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

func normalizeLimit(n int) int {
	if n <= 0 {
		return defaultPageSize
	}
	if n > maxPageSize {
		return maxPageSize
	}
	return n
}

func validateName(name string) error {
	if len(name) > distribution.NameTotalLengthMax || !distribution.RepositoryRegexp.MatchString(name) {
		return fmt.Errorf("%w: %q", domain.ErrInvalidName, name)
	}
	return nil
}

// parseDigest accepts only digests whose algorithm this process can compute.
func parseDigest(s string) (image.Digest, error) {
	d, err := image.ParseDigest(s)
	if err != nil {
		return image.Digest{}, fmt.Errorf("%w: %v", domain.ErrInvalidDigest, err)
	}
	if err := d.GoDigest().Validate(); err != nil {
		return image.Digest{}, fmt.Errorf("%w: %v", domain.ErrInvalidDigest, err)
	}
	return d, nil
}

// isDigestReference reports whether a manifest reference names a digest
// rather than a tag. Tags cannot contain a colon.
func isDigestReference(reference string) bool {
	return strings.Contains(reference, ":")
}

// ensureRepository returns the named repository, creating it on first push.
func ensureRepository(ctx context.Context, repo ports.MetadataRepository, name string) (*domain.Repository, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	existing, err := repo.GetRepository(ctx, name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrRepositoryNotFound) {
		return nil, err
	}

	created := &domain.Repository{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.CreateRepository(ctx, created); err != nil {
		// Lost a race with a concurrent push.
		if errors.Is(err, domain.ErrRepositoryExists) {
			return repo.GetRepository(ctx, name)
		}
		return nil, err
	}
	return created, nil
}

// checkBlobLink fails unless d was pushed to, mounted into or pulled
// through the named repository.
func checkBlobLink(ctx context.Context, repo ports.MetadataRepository, name string, d image.Digest) error {
	if _, err := repo.GetRepository(ctx, name); err != nil {
		return err
	}
	linked, err := repo.HasBlob(ctx, name, d)
	if err != nil {
		return err
	}
	if !linked {
		return fmt.Errorf("%w: %s in %s", domain.ErrBlobNotFound, d, name)
	}
	return nil
}

// releaseBlob removes the blob file once no repository links it.
func releaseBlob(ctx context.Context, repo ports.MetadataRepository, blobs ports.BlobStore, d image.Digest) error {
	links, err := repo.CountBlobLinks(ctx, d)
	if err != nil {
		return err
	}
	if links > 0 {
		log.WithFields(log.Fields{
			"digest": d.String(),
			"links":  links,
		}).Debug("blob still linked, keeping content")
		return nil
	}
	if err := blobs.Delete(ctx, d); err != nil && !errors.Is(err, domain.ErrBlobNotFound) {
		return err
	}
	return nil
}
