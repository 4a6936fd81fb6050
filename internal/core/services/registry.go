package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"oci-registry-service/internal/core/domain"
	ports "oci-registry-service/internal/core/ports/output"
	"oci-registry-service/pkg/distribution"
	"oci-registry-service/pkg/image"
)

// RegistryService handles manifests, tags, the catalog and referrers.
type RegistryService struct {
	repo     ports.MetadataRepository
	blobs    ports.BlobStore
	cache    ports.ManifestCache
	upstream ports.UpstreamClient
}

// NewRegistryService creates a new RegistryService. cache and upstream are
// optional.
func NewRegistryService(
	repo ports.MetadataRepository,
	blobs ports.BlobStore,
	cache ports.ManifestCache,
	upstream ports.UpstreamClient,
) *RegistryService {
	return &RegistryService{repo: repo, blobs: blobs, cache: cache, upstream: upstream}
}

// PutManifest stores content under reference, which is either a tag or the
// digest of content. Blobs referenced by image manifests must already be
// linked in the repository.
func (s *RegistryService) PutManifest(ctx context.Context, name, reference string, mediaType image.MediaType, content []byte) (*domain.Manifest, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	parsed, err := parseManifest(mediaType, content)
	if err != nil {
		return nil, err
	}

	digest, tag, err := resolvePushReference(reference, content)
	if err != nil {
		return nil, err
	}

	for _, d := range parsed.blobs {
		// Foreign layers are fetched from their URLs and never pushed.
		if len(d.URLs) > 0 {
			continue
		}
		linked, err := s.repo.HasBlob(ctx, name, d.Digest)
		if err != nil {
			return nil, err
		}
		if !linked {
			return nil, fmt.Errorf("%w: %s", domain.ErrManifestBlobUnknown, d.Digest)
		}
	}

	m := newManifest(name, digest, parsed, content)
	if err := s.store(ctx, m, tag); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"repository": name,
		"digest":     digest.String(),
		"tag":        tag,
	}).Info("manifest pushed")

	return m, nil
}

// GetManifest resolves reference through the cache, the metadata store and,
// when configured, the upstream registry.
func (s *RegistryService) GetManifest(ctx context.Context, name, reference string) (*domain.Manifest, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	digest, err := s.resolve(ctx, name, reference)
	if err != nil {
		if s.canPullThrough(err) {
			return s.pullThrough(ctx, name, reference)
		}
		return nil, err
	}

	m, err := s.lookupManifest(ctx, name, digest)
	if err != nil && s.canPullThrough(err) {
		return s.pullThrough(ctx, name, reference)
	}
	return m, err
}

// DeleteManifest removes a manifest when reference is a digest and only the
// tag otherwise. Deleting a manifest also drops every tag pointing at it.
func (s *RegistryService) DeleteManifest(ctx context.Context, name, reference string) error {
	if err := validateName(name); err != nil {
		return err
	}

	if !isDigestReference(reference) {
		return s.deleteTag(ctx, name, reference)
	}

	digest, err := parseDigest(reference)
	if err != nil {
		return err
	}
	tags, err := s.repo.ListTagsByDigest(ctx, name, digest)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteManifest(ctx, name, digest); err != nil {
		return err
	}
	for _, tag := range tags {
		s.forgetTag(ctx, name, tag)
	}
	if s.cache != nil {
		if err := s.cache.DeleteManifest(ctx, name, digest); err != nil {
			log.WithError(err).Warn("failed to evict manifest from cache")
		}
	}
	s.unlinkManifest(ctx, name, digest)

	log.WithFields(log.Fields{
		"repository": name,
		"digest":     digest.String(),
		"tags":       len(tags),
	}).Info("manifest deleted")

	return nil
}

// ListTags returns up to n tags after last and whether more follow.
func (s *RegistryService) ListTags(ctx context.Context, name, last string, n int) (*distribution.TagList, bool, error) {
	if err := validateName(name); err != nil {
		return nil, false, err
	}
	if _, err := s.repo.GetRepository(ctx, name); err != nil {
		return nil, false, err
	}

	limit := normalizeLimit(n)
	tags, err := s.repo.ListTags(ctx, name, ports.PageFilter{Last: last, Limit: limit + 1})
	if err != nil {
		return nil, false, err
	}

	more := len(tags) > limit
	if more {
		tags = tags[:limit]
	}
	return distribution.NewTagList(name, tags...), more, nil
}

// Catalog returns up to n repository names after last and whether more
// follow.
func (s *RegistryService) Catalog(ctx context.Context, last string, n int) (*distribution.RepositoryList, bool, error) {
	limit := normalizeLimit(n)
	names, err := s.repo.ListRepositories(ctx, ports.PageFilter{Last: last, Limit: limit + 1})
	if err != nil {
		return nil, false, err
	}

	more := len(names) > limit
	if more {
		names = names[:limit]
	}
	return distribution.NewRepositoryList(names...), more, nil
}

// Referrers lists the manifests whose subject is digest as an image index,
// optionally filtered by artifact type.
func (s *RegistryService) Referrers(ctx context.Context, name, digest string, artifactType image.MediaType) (*image.ImageIndex, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	subject, err := parseDigest(digest)
	if err != nil {
		return nil, err
	}

	manifests, err := s.repo.ListReferrers(ctx, ports.ReferrerFilter{
		Repository:   name,
		Subject:      subject,
		ArtifactType: artifactType,
	})
	if err != nil {
		return nil, err
	}

	descriptors := make([]image.Descriptor, 0, len(manifests))
	for _, m := range manifests {
		descriptors = append(descriptors, m.Descriptor())
	}
	return image.NewImageIndex(descriptors...), nil
}

func newManifest(name string, digest image.Digest, parsed *parsedManifest, content []byte) *domain.Manifest {
	m := &domain.Manifest{
		Repository:   name,
		Digest:       digest,
		MediaType:    parsed.mediaType,
		Size:         int64(len(content)),
		Content:      content,
		ArtifactType: parsed.artifactType,
		Annotations:  parsed.annotations,
		CreatedAt:    time.Now().UTC(),
	}
	if parsed.subject != nil {
		subject := parsed.subject.Digest
		m.Subject = &subject
	}
	return m
}

// resolvePushReference returns the digest content is stored under and the
// tag to point at it, if reference is a tag.
func resolvePushReference(reference string, content []byte) (image.Digest, string, error) {
	if !isDigestReference(reference) {
		if !distribution.TagRegexp.MatchString(reference) {
			return image.Digest{}, "", fmt.Errorf("%w: %q", domain.ErrInvalidTag, reference)
		}
		return image.FromBytes(content), reference, nil
	}

	digest, err := parseDigest(reference)
	if err != nil {
		return image.Digest{}, "", err
	}
	v := digest.GoDigest().Verifier()
	_, _ = v.Write(content)
	if !v.Verified() {
		return image.Digest{}, "", domain.ErrDigestMismatch
	}
	return digest, "", nil
}

func (s *RegistryService) store(ctx context.Context, m *domain.Manifest, tag string) error {
	if _, err := ensureRepository(ctx, s.repo, m.Repository); err != nil {
		return err
	}

	// The layout keeps manifests as blobs next to the content they reference.
	if _, err := s.blobs.Put(ctx, m.Digest, bytes.NewReader(m.Content)); err != nil {
		return fmt.Errorf("store manifest blob: %w", err)
	}
	if err := s.repo.LinkBlob(ctx, m.Repository, m.Digest); err != nil {
		return err
	}
	if err := s.repo.PutManifest(ctx, m); err != nil {
		return err
	}
	s.cacheManifest(ctx, m)

	if tag == "" {
		return nil
	}

	t := &domain.Tag{
		Repository: m.Repository,
		Name:       tag,
		Digest:     m.Digest,
		UpdatedAt:  time.Now().UTC(),
	}
	if err := s.repo.PutTag(ctx, t); err != nil {
		return err
	}
	if err := s.blobs.Tag(ctx, layoutRef(m.Repository, tag), m.Descriptor()); err != nil {
		log.WithError(err).Warn("failed to update layout index")
	}
	s.cacheTag(ctx, m.Repository, tag, m.Digest)
	return nil
}

func (s *RegistryService) deleteTag(ctx context.Context, name, tag string) error {
	if err := s.repo.DeleteTag(ctx, name, tag); err != nil {
		return err
	}
	s.forgetTag(ctx, name, tag)
	return nil
}

// forgetTag drops a tag already removed from the metadata store from the
// layout index and the cache.
func (s *RegistryService) forgetTag(ctx context.Context, name, tag string) {
	if err := s.blobs.Untag(ctx, layoutRef(name, tag)); err != nil {
		log.WithError(err).Warn("failed to update layout index")
	}
	if s.cache != nil {
		if err := s.cache.DeleteTag(ctx, name, tag); err != nil {
			log.WithError(err).Warn("failed to evict tag from cache")
		}
	}
}

// unlinkManifest releases the manifest blob of a deleted manifest.
func (s *RegistryService) unlinkManifest(ctx context.Context, name string, digest image.Digest) {
	err := s.repo.UnlinkBlob(ctx, name, digest)
	if err == nil {
		err = releaseBlob(ctx, s.repo, s.blobs, digest)
	}
	if err != nil && !errors.Is(err, domain.ErrBlobNotFound) {
		log.WithError(err).WithField("digest", digest.String()).Warn("failed to release manifest blob")
	}
}

func (s *RegistryService) resolve(ctx context.Context, name, reference string) (image.Digest, error) {
	if isDigestReference(reference) {
		return parseDigest(reference)
	}
	if !distribution.TagRegexp.MatchString(reference) {
		return image.Digest{}, fmt.Errorf("%w: %q", domain.ErrInvalidTag, reference)
	}

	if s.cache != nil {
		digest, err := s.cache.GetTag(ctx, name, reference)
		if err == nil {
			return digest, nil
		}
		if !errors.Is(err, domain.ErrCacheMiss) {
			log.WithError(err).Warn("manifest cache lookup failed")
		}
	}

	tag, err := s.repo.GetTag(ctx, name, reference)
	if err != nil {
		return image.Digest{}, err
	}
	s.cacheTag(ctx, name, reference, tag.Digest)
	return tag.Digest, nil
}

func (s *RegistryService) lookupManifest(ctx context.Context, name string, digest image.Digest) (*domain.Manifest, error) {
	if s.cache != nil {
		m, err := s.cache.GetManifest(ctx, name, digest)
		if err == nil {
			return m, nil
		}
		if !errors.Is(err, domain.ErrCacheMiss) {
			log.WithError(err).Warn("manifest cache lookup failed")
		}
	}

	m, err := s.repo.GetManifest(ctx, name, digest)
	if err != nil {
		return nil, err
	}
	s.cacheManifest(ctx, m)
	return m, nil
}

func (s *RegistryService) canPullThrough(err error) bool {
	if s.upstream == nil || !s.upstream.IsAvailable() {
		return false
	}
	return errors.Is(err, domain.ErrTagNotFound) ||
		errors.Is(err, domain.ErrManifestNotFound) ||
		errors.Is(err, domain.ErrRepositoryNotFound)
}

// pullThrough fetches a manifest from upstream and stores it locally. Its
// blobs are fetched lazily on first read.
func (s *RegistryService) pullThrough(ctx context.Context, name, reference string) (*domain.Manifest, error) {
	um, err := s.upstream.FetchManifest(ctx, name, reference)
	if err != nil {
		return nil, err
	}

	parsed, err := parseManifest(um.MediaType, um.Content)
	if err != nil {
		return nil, err
	}

	digest, tag, err := resolvePushReference(reference, um.Content)
	if err != nil {
		return nil, err
	}
	if !um.Digest.IsZero() && um.Digest.Algorithm() == digest.Algorithm() && um.Digest.String() != digest.String() {
		return nil, fmt.Errorf("%w: upstream sent %s for %s", domain.ErrDigestMismatch, um.Digest, digest)
	}

	m := newManifest(name, digest, parsed, um.Content)
	if err := s.store(ctx, m, tag); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"repository": name,
		"reference":  reference,
		"digest":     digest.String(),
	}).Info("manifest pulled from upstream")

	return m, nil
}

func (s *RegistryService) cacheManifest(ctx context.Context, m *domain.Manifest) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetManifest(ctx, m); err != nil {
		log.WithError(err).Warn("failed to cache manifest")
	}
}

func (s *RegistryService) cacheTag(ctx context.Context, name, tag string, digest image.Digest) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetTag(ctx, name, tag, digest); err != nil {
		log.WithError(err).Warn("failed to cache tag")
	}
}

// layoutRef is the ref name a tag gets in the layout index.
func layoutRef(repository, tag string) string {
	return repository + ":" + tag
}
