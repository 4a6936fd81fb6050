package services

import (
	"context"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	godigest "github.com/opencontainers/go-digest"

	"oci-registry-service/internal/core/domain"
	ports "oci-registry-service/internal/core/ports/output"
	"oci-registry-service/pkg/distribution"
	"oci-registry-service/pkg/image"
	"oci-registry-service/pkg/oci"
	"oci-registry-service/pkg/runtime"
)

// ValidationService checks OCI documents and images held by the registry.
type ValidationService struct {
	blobs ports.BlobStore
}

func NewValidationService(blobs ports.BlobStore) *ValidationService {
	return &ValidationService{blobs: blobs}
}

type validator interface {
	Validate() error
}

// Validate decodes content as kind and runs the checks that document type
// defines. It returns the decoded document.
func (s *ValidationService) Validate(kind domain.DocumentKind, content []byte) (any, error) {
	var doc any
	switch kind {
	case domain.DocumentRuntimeSpec:
		doc = new(runtime.Spec)
	case domain.DocumentRuntimeState:
		doc = new(runtime.State)
	case domain.DocumentRuntimeFeatures:
		doc = new(runtime.Features)
	case domain.DocumentImageConfig:
		doc = new(image.ImageConfiguration)
	case domain.DocumentImageManifest:
		doc = new(image.ImageManifest)
	case domain.DocumentImageIndex:
		doc = new(image.ImageIndex)
	case domain.DocumentArtifactManifest:
		doc = new(image.ArtifactManifest)
	case domain.DocumentImageLayout:
		doc = new(image.OciLayout)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownDocumentKind, kind)
	}

	if err := oci.FromBytes(content, doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidDocument, err)
	}
	if v, ok := doc.(validator); ok {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidDocument, err)
		}
	}
	return doc, nil
}

// ParseReference parses an image reference. A non-empty mirror is used
// as the registry to resolve it against.
func (s *ValidationService) ParseReference(ref, mirror string) (distribution.Reference, error) {
	r, err := distribution.ParseReference(ref)
	if err != nil {
		return distribution.Reference{}, fmt.Errorf("%w: %v", domain.ErrInvalidReference, err)
	}
	if mirror != "" {
		r.SetMirrorRegistry(mirror)
	}
	return r, nil
}

// GenerateSpec returns the default runtime config. When rootless is set it
// is adapted to run as uid:gid in a user namespace.
func (s *ValidationService) GenerateSpec(rootless bool, uid, gid uint32) *runtime.Spec {
	if rootless {
		return runtime.RootlessSpec(uid, gid)
	}
	return runtime.DefaultSpec()
}

// VerifyImage checks that each layer of an image manifest decompresses to
// the diff ID its config declares. Config and layers are read from the
// blob store.
func (s *ValidationService) VerifyImage(ctx context.Context, m *domain.Manifest) (*domain.ImageVerification, error) {
	if !m.MediaType.IsManifest() {
		return nil, fmt.Errorf("%w: %q is not an image manifest", domain.ErrUnsupportedOperation, m.MediaType)
	}
	manifest, err := image.ImageManifestFromBytes(m.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidManifest, err)
	}

	cfg, err := s.readConfig(ctx, manifest.Config)
	if err != nil {
		return nil, err
	}
	if len(cfg.RootFS.DiffIDs) != len(manifest.Layers) {
		return nil, fmt.Errorf("%w: %d layers, %d diff_ids", domain.ErrLayerCountMismatch, len(manifest.Layers), len(cfg.RootFS.DiffIDs))
	}

	result := &domain.ImageVerification{
		Manifest: m.Digest,
		Config:   manifest.Config.Digest,
		Platform: cfg.Platform().String(),
		Layers:   make([]domain.LayerVerification, 0, len(manifest.Layers)),
		Valid:    true,
	}
	for i, layer := range manifest.Layers {
		expected := cfg.RootFS.DiffIDs[i]
		diffID, err := s.diffID(ctx, layer, expected.GoDigest().Algorithm())
		if err != nil {
			return nil, err
		}
		match := diffID.String() == expected.String()
		result.Layers = append(result.Layers, domain.LayerVerification{
			Digest:      layer.Digest,
			MediaType:   layer.MediaType,
			Compression: layer.MediaType.Compression(),
			DiffID:      diffID,
			Expected:    expected,
			Match:       match,
		})
		result.Valid = result.Valid && match
	}
	return result, nil
}

func (s *ValidationService) readConfig(ctx context.Context, desc image.Descriptor) (*image.ImageConfiguration, error) {
	rc, _, err := s.blobs.Open(ctx, desc.Digest)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	cfg, err := image.ImageConfigurationFromReader(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: config %s: %v", domain.ErrInvalidDocument, desc.Digest, err)
	}
	return cfg, nil
}

// diffID hashes the uncompressed content of a layer with alg, the algorithm
// of the diff ID the config expects.
func (s *ValidationService) diffID(ctx context.Context, layer image.Descriptor, alg godigest.Algorithm) (image.Digest, error) {
	if !alg.Available() {
		return image.Digest{}, fmt.Errorf("%w: unsupported diff_id algorithm %q", domain.ErrInvalidDigest, alg)
	}
	rc, _, err := s.blobs.Open(ctx, layer.Digest)
	if err != nil {
		return image.Digest{}, err
	}
	defer rc.Close()

	r, done, err := decompress(layer.MediaType.Compression(), rc)
	if err != nil {
		return image.Digest{}, fmt.Errorf("layer %s: %w", layer.Digest, err)
	}
	defer done()

	digester := alg.Digester()
	if _, err := io.Copy(digester.Hash(), r); err != nil {
		return image.Digest{}, fmt.Errorf("decompress layer %s: %w", layer.Digest, err)
	}
	return image.FromGoDigest(digester.Digest())
}

// decompress wraps r in the reader for c. done releases the decoder.
func decompress(c image.Compression, r io.Reader) (io.Reader, func(), error) {
	switch c {
	case image.CompressionNone:
		return r, func() {}, nil
	case image.CompressionGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, func() { _ = zr.Close() }, nil
	case image.CompressionZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, zr.Close, nil
	}
	return nil, nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedCompressor, c)
}
