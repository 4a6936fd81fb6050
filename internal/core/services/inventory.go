package services

import (
	"context"
	"errors"

	"oci-registry-service/internal/core/domain"
	ports "oci-registry-service/internal/core/ports/output"
	"oci-registry-service/pkg/distribution"
	"oci-registry-service/pkg/image"
)

// InventoryService reports which images running in the cluster this
// registry holds.
type InventoryService struct {
	cluster ports.ClusterClient
	repo    ports.MetadataRepository
}

// NewInventoryService creates a new InventoryService. cluster is optional.
func NewInventoryService(cluster ports.ClusterClient, repo ports.MetadataRepository) *InventoryService {
	return &InventoryService{cluster: cluster, repo: repo}
}

// ListImages lists the container images of every pod in namespace. Images
// whose reference cannot be parsed are reported with ParseError set.
func (s *InventoryService) ListImages(ctx context.Context, namespace string) ([]*domain.ImageInventoryEntry, error) {
	if s.cluster == nil || !s.cluster.IsAvailable() {
		return nil, domain.ErrClusterUnavailable
	}

	pods, err := s.cluster.ListPodImages(ctx, namespace)
	if err != nil {
		return nil, err
	}

	entries := make([]*domain.ImageInventoryEntry, 0, len(pods))
	for _, p := range pods {
		entry := &domain.ImageInventoryEntry{
			Namespace: p.Namespace,
			Pod:       p.Pod,
			Container: p.Container,
			Image:     p.Image,
			ImageID:   p.ImageID,
		}
		entries = append(entries, entry)

		ref, err := distribution.ParseReference(p.Image)
		if err != nil {
			entry.ParseError = err.Error()
			continue
		}
		entry.Registry = ref.Registry()
		entry.Repository = ref.Repository()
		entry.Identifier = ref.Identifier()

		present, err := s.present(ctx, ref)
		if err != nil {
			return nil, err
		}
		entry.Present = present
	}
	return entries, nil
}

func (s *InventoryService) present(ctx context.Context, ref distribution.Reference) (bool, error) {
	var err error
	if d, ok := ref.Digest(); ok {
		digest, perr := image.ParseDigest(d)
		if perr != nil {
			return false, nil
		}
		_, err = s.repo.GetManifest(ctx, ref.Repository(), digest)
	} else {
		tag, _ := ref.Tag()
		_, err = s.repo.GetTag(ctx, ref.Repository(), tag)
	}

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrManifestNotFound),
		errors.Is(err, domain.ErrTagNotFound),
		errors.Is(err, domain.ErrRepositoryNotFound):
		return false, nil
	}
	return false, err
}
