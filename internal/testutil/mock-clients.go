package testutil

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"oci-registry-service/internal/core/domain"
	"oci-registry-service/internal/core/ports/output"
	"oci-registry-service/pkg/image"
)

// MockBlobStore is a mock of BlobStore.
type MockBlobStore struct {
	mock.Mock
}

func (m *MockBlobStore) Stat(ctx context.Context, digest image.Digest) (*domain.Blob, error) {
	args := m.Called(ctx, digest)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Blob), args.Error(1)
}

func (m *MockBlobStore) Open(ctx context.Context, digest image.Digest) (io.ReadCloser, *domain.Blob, error) {
	args := m.Called(ctx, digest)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(*domain.Blob), args.Error(2)
}

func (m *MockBlobStore) Put(ctx context.Context, expected image.Digest, r io.Reader) (*domain.Blob, error) {
	args := m.Called(ctx, expected, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Blob), args.Error(1)
}

func (m *MockBlobStore) Delete(ctx context.Context, digest image.Digest) error {
	args := m.Called(ctx, digest)
	return args.Error(0)
}

func (m *MockBlobStore) StartUpload(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBlobStore) AppendUpload(ctx context.Context, id uuid.UUID, r io.Reader) (int64, error) {
	args := m.Called(ctx, id, r)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBlobStore) CommitUpload(ctx context.Context, id uuid.UUID, expected image.Digest) (*domain.Blob, error) {
	args := m.Called(ctx, id, expected)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Blob), args.Error(1)
}

func (m *MockBlobStore) CancelUpload(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBlobStore) Tag(ctx context.Context, ref string, desc image.Descriptor) error {
	args := m.Called(ctx, ref, desc)
	return args.Error(0)
}

func (m *MockBlobStore) Untag(ctx context.Context, ref string) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}

// MockManifestCache is a mock of ManifestCache.
type MockManifestCache struct {
	mock.Mock
}

func (m *MockManifestCache) GetTag(ctx context.Context, repository, tag string) (image.Digest, error) {
	args := m.Called(ctx, repository, tag)
	return args.Get(0).(image.Digest), args.Error(1)
}

func (m *MockManifestCache) SetTag(ctx context.Context, repository, tag string, digest image.Digest) error {
	args := m.Called(ctx, repository, tag, digest)
	return args.Error(0)
}

func (m *MockManifestCache) DeleteTag(ctx context.Context, repository, tag string) error {
	args := m.Called(ctx, repository, tag)
	return args.Error(0)
}

func (m *MockManifestCache) GetManifest(ctx context.Context, repository string, digest image.Digest) (*domain.Manifest, error) {
	args := m.Called(ctx, repository, digest)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Manifest), args.Error(1)
}

func (m *MockManifestCache) SetManifest(ctx context.Context, manifest *domain.Manifest) error {
	args := m.Called(ctx, manifest)
	return args.Error(0)
}

func (m *MockManifestCache) DeleteManifest(ctx context.Context, repository string, digest image.Digest) error {
	args := m.Called(ctx, repository, digest)
	return args.Error(0)
}

// MockUpstreamClient is a mock of UpstreamClient.
type MockUpstreamClient struct {
	mock.Mock
}

func (m *MockUpstreamClient) FetchManifest(ctx context.Context, repository, reference string) (*ports.UpstreamManifest, error) {
	args := m.Called(ctx, repository, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.UpstreamManifest), args.Error(1)
}

func (m *MockUpstreamClient) FetchBlob(ctx context.Context, repository string, digest image.Digest) (io.ReadCloser, int64, error) {
	args := m.Called(ctx, repository, digest)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(int64), args.Error(2)
}

func (m *MockUpstreamClient) IsAvailable() bool {
	args := m.Called()
	return args.Bool(0)
}

// MockClusterClient is a mock of ClusterClient.
type MockClusterClient struct {
	mock.Mock
}

func (m *MockClusterClient) ListPodImages(ctx context.Context, namespace string) ([]ports.PodImage, error) {
	args := m.Called(ctx, namespace)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.PodImage), args.Error(1)
}

func (m *MockClusterClient) IsAvailable() bool {
	args := m.Called()
	return args.Bool(0)
}

var (
	_ ports.BlobStore      = (*MockBlobStore)(nil)
	_ ports.ManifestCache  = (*MockManifestCache)(nil)
	_ ports.UpstreamClient = (*MockUpstreamClient)(nil)
	_ ports.ClusterClient  = (*MockClusterClient)(nil)
)
