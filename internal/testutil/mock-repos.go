package testutil

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"oci-registry-service/internal/core/domain"
	"oci-registry-service/internal/core/ports/output"
	"oci-registry-service/pkg/image"
)

// MockMetadataRepo is a mock of MetadataRepository.
type MockMetadataRepo struct {
	mock.Mock
}

func (m *MockMetadataRepo) CreateRepository(ctx context.Context, repo *domain.Repository) error {
	args := m.Called(ctx, repo)
	return args.Error(0)
}

func (m *MockMetadataRepo) GetRepository(ctx context.Context, name string) (*domain.Repository, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Repository), args.Error(1)
}

func (m *MockMetadataRepo) ListRepositories(ctx context.Context, filter ports.PageFilter) ([]string, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockMetadataRepo) PutManifest(ctx context.Context, manifest *domain.Manifest) error {
	args := m.Called(ctx, manifest)
	return args.Error(0)
}

func (m *MockMetadataRepo) GetManifest(ctx context.Context, repository string, digest image.Digest) (*domain.Manifest, error) {
	args := m.Called(ctx, repository, digest)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Manifest), args.Error(1)
}

func (m *MockMetadataRepo) DeleteManifest(ctx context.Context, repository string, digest image.Digest) error {
	args := m.Called(ctx, repository, digest)
	return args.Error(0)
}

func (m *MockMetadataRepo) ListReferrers(ctx context.Context, filter ports.ReferrerFilter) ([]*domain.Manifest, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Manifest), args.Error(1)
}

func (m *MockMetadataRepo) PutTag(ctx context.Context, tag *domain.Tag) error {
	args := m.Called(ctx, tag)
	return args.Error(0)
}

func (m *MockMetadataRepo) GetTag(ctx context.Context, repository, name string) (*domain.Tag, error) {
	args := m.Called(ctx, repository, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tag), args.Error(1)
}

func (m *MockMetadataRepo) DeleteTag(ctx context.Context, repository, name string) error {
	args := m.Called(ctx, repository, name)
	return args.Error(0)
}

func (m *MockMetadataRepo) ListTags(ctx context.Context, repository string, filter ports.PageFilter) ([]string, error) {
	args := m.Called(ctx, repository, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockMetadataRepo) ListTagsByDigest(ctx context.Context, repository string, digest image.Digest) ([]string, error) {
	args := m.Called(ctx, repository, digest)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockMetadataRepo) LinkBlob(ctx context.Context, repository string, digest image.Digest) error {
	args := m.Called(ctx, repository, digest)
	return args.Error(0)
}

func (m *MockMetadataRepo) HasBlob(ctx context.Context, repository string, digest image.Digest) (bool, error) {
	args := m.Called(ctx, repository, digest)
	return args.Bool(0), args.Error(1)
}

func (m *MockMetadataRepo) UnlinkBlob(ctx context.Context, repository string, digest image.Digest) error {
	args := m.Called(ctx, repository, digest)
	return args.Error(0)
}

func (m *MockMetadataRepo) CountBlobLinks(ctx context.Context, digest image.Digest) (int, error) {
	args := m.Called(ctx, digest)
	return args.Int(0), args.Error(1)
}

func (m *MockMetadataRepo) CreateUpload(ctx context.Context, upload *domain.Upload) error {
	args := m.Called(ctx, upload)
	return args.Error(0)
}

func (m *MockMetadataRepo) GetUpload(ctx context.Context, id uuid.UUID) (*domain.Upload, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Upload), args.Error(1)
}

func (m *MockMetadataRepo) UpdateUpload(ctx context.Context, upload *domain.Upload) error {
	args := m.Called(ctx, upload)
	return args.Error(0)
}

func (m *MockMetadataRepo) DeleteUpload(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var _ ports.MetadataRepository = (*MockMetadataRepo)(nil)
