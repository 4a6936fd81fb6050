package services

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"oci-registry-service/internal/adapters/secondary/layout"
	"oci-registry-service/internal/core/domain"
	"oci-registry-service/internal/testutil"
	"oci-registry-service/pkg/image"
)

func setupBlobs() (*BlobService, *testutil.MockMetadataRepo, *testutil.MockBlobStore) {
	repo := new(testutil.MockMetadataRepo)
	blobs := new(testutil.MockBlobStore)
	return NewBlobService(repo, blobs, nil), repo, blobs
}

// linked makes d visible in the named repository.
func linked(repo *testutil.MockMetadataRepo, name string, d image.Digest) {
	repo.On("GetRepository", mock.Anything, name).Return(&domain.Repository{Name: name}, nil)
	repo.On("HasBlob", mock.Anything, name, d).Return(true, nil)
}

func TestBlobService_Stat(t *testing.T) {
	svc, repo, blobs := setupBlobs()
	d := image.FromBytes(layerBlob)

	linked(repo, "app", d)
	blobs.On("Stat", mock.Anything, d).Return(&domain.Blob{Digest: d, Size: 5}, nil)

	blob, err := svc.Stat(context.Background(), "app", d.String())
	require.NoError(t, err)
	assert.Equal(t, int64(5), blob.Size)

	_, err = svc.Stat(context.Background(), "app", "sha256:short")
	assert.ErrorIs(t, err, domain.ErrInvalidDigest)
}

func TestBlobService_Stat_NotLinked(t *testing.T) {
	svc, repo, blobs := setupBlobs()
	d := image.FromBytes(layerBlob)

	repo.On("GetRepository", mock.Anything, "app").Return(&domain.Repository{Name: "app"}, nil)
	repo.On("HasBlob", mock.Anything, "app", d).Return(false, nil)
	repo.On("GetRepository", mock.Anything, "missing").Return(nil, domain.ErrRepositoryNotFound)

	_, err := svc.Stat(context.Background(), "app", d.String())
	assert.ErrorIs(t, err, domain.ErrBlobNotFound)

	_, err = svc.Stat(context.Background(), "missing", d.String())
	assert.ErrorIs(t, err, domain.ErrRepositoryNotFound)
	blobs.AssertNotCalled(t, "Stat", mock.Anything, mock.Anything)
}

func TestBlobService_Open_PullThrough(t *testing.T) {
	repo := new(testutil.MockMetadataRepo)
	blobs := new(testutil.MockBlobStore)
	upstream := new(testutil.MockUpstreamClient)
	svc := NewBlobService(repo, blobs, upstream)
	d := image.FromBytes(layerBlob)

	repo.On("GetRepository", mock.Anything, "library/alpine").Return(nil, domain.ErrRepositoryNotFound).Once()
	upstream.On("IsAvailable").Return(true)
	upstream.On("FetchBlob", mock.Anything, "library/alpine", d).
		Return(io.NopCloser(strings.NewReader("layer")), int64(5), nil)
	blobs.On("Put", mock.Anything, d, mock.Anything).Return(&domain.Blob{Digest: d, Size: 5}, nil)
	repo.On("GetRepository", mock.Anything, "library/alpine").Return(nil, domain.ErrRepositoryNotFound).Once()
	repo.On("CreateRepository", mock.Anything, mock.AnythingOfType("*domain.Repository")).Return(nil)
	repo.On("LinkBlob", mock.Anything, "library/alpine", d).Return(nil)
	blobs.On("Open", mock.Anything, d).
		Return(io.NopCloser(strings.NewReader("layer")), &domain.Blob{Digest: d, Size: 5}, nil).Once()

	rc, blob, err := svc.Open(context.Background(), "library/alpine", d.String())
	require.NoError(t, err)
	defer rc.Close()

	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "layer", string(body))
	assert.Equal(t, int64(5), blob.Size)
	blobs.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestBlobService_Open_NotFound(t *testing.T) {
	svc, repo, blobs := setupBlobs()
	d := image.FromBytes(layerBlob)

	linked(repo, "app", d)
	blobs.On("Open", mock.Anything, d).Return(nil, nil, domain.ErrBlobNotFound)

	_, _, err := svc.Open(context.Background(), "app", d.String())
	assert.ErrorIs(t, err, domain.ErrBlobNotFound)
}

func TestBlobService_Open_NotLinked(t *testing.T) {
	svc, repo, blobs := setupBlobs()
	d := image.FromBytes(layerBlob)

	repo.On("GetRepository", mock.Anything, "app").Return(&domain.Repository{Name: "app"}, nil)
	repo.On("HasBlob", mock.Anything, "app", d).Return(false, nil)

	_, _, err := svc.Open(context.Background(), "app", d.String())
	assert.ErrorIs(t, err, domain.ErrBlobNotFound)
	blobs.AssertNotCalled(t, "Open", mock.Anything, mock.Anything)
}

func TestBlobService_Upload(t *testing.T) {
	svc, repo, blobs := setupBlobs()
	d := image.FromBytes(layerBlob)

	repo.On("GetRepository", mock.Anything, "app").Return(&domain.Repository{Name: "app"}, nil)
	blobs.On("Put", mock.Anything, d, mock.Anything).Return(&domain.Blob{Digest: d, Size: 5}, nil)
	repo.On("LinkBlob", mock.Anything, "app", d).Return(nil)

	blob, err := svc.Upload(context.Background(), "app", d.String(), strings.NewReader("layer"))
	require.NoError(t, err)
	assert.Equal(t, d, blob.Digest)
	repo.AssertExpectations(t)
}

func TestBlobService_StartUpload(t *testing.T) {
	svc, repo, blobs := setupBlobs()

	repo.On("GetRepository", mock.Anything, "app").Return(&domain.Repository{Name: "app"}, nil)
	blobs.On("StartUpload", mock.Anything, mock.AnythingOfType("uuid.UUID")).Return(nil)
	repo.On("CreateUpload", mock.Anything, mock.AnythingOfType("*domain.Upload")).Return(nil)

	upload, err := svc.StartUpload(context.Background(), "app")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, upload.ID)
	assert.Equal(t, "app", upload.Repository)
	assert.Zero(t, upload.Offset)
}

func TestBlobService_StartUpload_InvalidName(t *testing.T) {
	svc, _, _ := setupBlobs()

	_, err := svc.StartUpload(context.Background(), "-app")
	assert.ErrorIs(t, err, domain.ErrInvalidName)
}

func TestBlobService_GetUpload_OtherRepository(t *testing.T) {
	svc, repo, _ := setupBlobs()
	id := uuid.New()

	repo.On("GetUpload", mock.Anything, id).Return(&domain.Upload{ID: id, Repository: "other"}, nil)

	_, err := svc.GetUpload(context.Background(), "app", id)
	assert.ErrorIs(t, err, domain.ErrUploadNotFound)
}

func TestBlobService_AppendChunk(t *testing.T) {
	svc, repo, blobs := setupBlobs()
	id := uuid.New()

	repo.On("GetUpload", mock.Anything, id).Return(&domain.Upload{ID: id, Repository: "app", Offset: 5}, nil)
	blobs.On("AppendUpload", mock.Anything, id, mock.Anything).Return(int64(10), nil)
	repo.On("UpdateUpload", mock.Anything, mock.MatchedBy(func(u *domain.Upload) bool {
		return u.Offset == 10
	})).Return(nil)

	upload, err := svc.AppendChunk(context.Background(), "app", id, 5, strings.NewReader("chunk"))
	require.NoError(t, err)
	assert.Equal(t, int64(10), upload.Offset)
	repo.AssertExpectations(t)
}

func TestBlobService_AppendChunk_WrongOffset(t *testing.T) {
	svc, repo, blobs := setupBlobs()
	id := uuid.New()

	repo.On("GetUpload", mock.Anything, id).Return(&domain.Upload{ID: id, Repository: "app", Offset: 5}, nil)

	_, err := svc.AppendChunk(context.Background(), "app", id, 0, strings.NewReader("chunk"))
	assert.ErrorIs(t, err, domain.ErrInvalidUploadRange)
	blobs.AssertNotCalled(t, "AppendUpload", mock.Anything, mock.Anything, mock.Anything)
}

func TestBlobService_CompleteUpload(t *testing.T) {
	svc, repo, blobs := setupBlobs()
	id := uuid.New()
	d := image.FromBytes(layerBlob)

	repo.On("GetUpload", mock.Anything, id).Return(&domain.Upload{ID: id, Repository: "app"}, nil)
	blobs.On("AppendUpload", mock.Anything, id, mock.Anything).Return(int64(5), nil)
	blobs.On("CommitUpload", mock.Anything, id, d).Return(&domain.Blob{Digest: d, Size: 5}, nil)
	repo.On("DeleteUpload", mock.Anything, id).Return(nil)
	repo.On("LinkBlob", mock.Anything, "app", d).Return(nil)

	blob, err := svc.CompleteUpload(context.Background(), "app", id, d.String(), strings.NewReader("layer"))
	require.NoError(t, err)
	assert.Equal(t, d, blob.Digest)
	repo.AssertExpectations(t)
}

func TestBlobService_CompleteUpload_Mismatch(t *testing.T) {
	svc, repo, blobs := setupBlobs()
	id := uuid.New()
	d := image.FromBytes([]byte("expected"))

	repo.On("GetUpload", mock.Anything, id).Return(&domain.Upload{ID: id, Repository: "app"}, nil)
	blobs.On("CommitUpload", mock.Anything, id, d).Return(nil, domain.ErrDigestMismatch)
	repo.On("DeleteUpload", mock.Anything, id).Return(nil)

	_, err := svc.CompleteUpload(context.Background(), "app", id, d.String(), nil)
	assert.ErrorIs(t, err, domain.ErrDigestMismatch)
	repo.AssertCalled(t, "DeleteUpload", mock.Anything, id)
	blobs.AssertNotCalled(t, "AppendUpload", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "LinkBlob", mock.Anything, mock.Anything, mock.Anything)
}

func TestBlobService_CancelUpload(t *testing.T) {
	svc, repo, blobs := setupBlobs()
	id := uuid.New()

	repo.On("GetUpload", mock.Anything, id).Return(&domain.Upload{ID: id, Repository: "app"}, nil)
	blobs.On("CancelUpload", mock.Anything, id).Return(nil)
	repo.On("DeleteUpload", mock.Anything, id).Return(nil)

	require.NoError(t, svc.CancelUpload(context.Background(), "app", id))
	blobs.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestBlobService_Mount(t *testing.T) {
	svc, repo, blobs := setupBlobs()
	d := image.FromBytes(layerBlob)

	linked(repo, "base", d)
	repo.On("GetRepository", mock.Anything, "app").Return(&domain.Repository{Name: "app"}, nil)
	blobs.On("Stat", mock.Anything, d).Return(&domain.Blob{Digest: d, Size: 5}, nil)
	repo.On("LinkBlob", mock.Anything, "app", d).Return(nil)

	blob, err := svc.Mount(context.Background(), "app", d.String(), "base")
	require.NoError(t, err)
	assert.Equal(t, int64(5), blob.Size)
	repo.AssertExpectations(t)
}

func TestBlobService_Mount_UnknownSource(t *testing.T) {
	svc, repo, _ := setupBlobs()
	d := image.FromBytes(layerBlob)

	repo.On("GetRepository", mock.Anything, "base").Return(nil, domain.ErrRepositoryNotFound)

	_, err := svc.Mount(context.Background(), "app", d.String(), "base")
	assert.ErrorIs(t, err, domain.ErrRepositoryNotFound)
}

func TestBlobService_Mount_BlobNotInSource(t *testing.T) {
	svc, repo, blobs := setupBlobs()
	d := image.FromBytes(layerBlob)

	repo.On("GetRepository", mock.Anything, "other").Return(&domain.Repository{Name: "other"}, nil)
	repo.On("HasBlob", mock.Anything, "other", d).Return(false, nil)

	_, err := svc.Mount(context.Background(), "app", d.String(), "other")
	assert.ErrorIs(t, err, domain.ErrBlobNotFound)
	blobs.AssertNotCalled(t, "Stat", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "LinkBlob", mock.Anything, mock.Anything, mock.Anything)
}

func TestBlobService_Delete(t *testing.T) {
	svc, repo, blobs := setupBlobs()
	d := image.FromBytes(layerBlob)

	linked(repo, "app", d)
	repo.On("UnlinkBlob", mock.Anything, "app", d).Return(nil)
	repo.On("CountBlobLinks", mock.Anything, d).Return(0, nil)
	blobs.On("Delete", mock.Anything, d).Return(nil)

	require.NoError(t, svc.Delete(context.Background(), "app", d.String()))
	repo.AssertExpectations(t)
	blobs.AssertExpectations(t)
}

func TestBlobService_Delete_UnknownRepository(t *testing.T) {
	svc, repo, blobs := setupBlobs()
	d := image.FromBytes(layerBlob)

	repo.On("GetRepository", mock.Anything, "never/existed").Return(nil, domain.ErrRepositoryNotFound)

	err := svc.Delete(context.Background(), "never/existed", d.String())
	assert.ErrorIs(t, err, domain.ErrRepositoryNotFound)
	blobs.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

// Blob content is shared across repositories and must survive until the
// last repository linking it lets go.
func TestBlobService_Delete_SharedContent(t *testing.T) {
	repo := new(testutil.MockMetadataRepo)
	store, err := layout.NewBlobStore(t.TempDir())
	require.NoError(t, err)
	svc := NewBlobService(repo, store, nil)
	ctx := context.Background()
	d := image.FromBytes(layerBlob)

	_, err = store.Put(ctx, d, bytes.NewReader(layerBlob))
	require.NoError(t, err)

	repo.On("GetRepository", mock.Anything, "never/existed").Return(nil, domain.ErrRepositoryNotFound)
	require.ErrorIs(t, svc.Delete(ctx, "never/existed", d.String()), domain.ErrRepositoryNotFound)
	_, err = store.Stat(ctx, d)
	require.NoError(t, err)

	linked(repo, "team/a", d)
	linked(repo, "team/b", d)
	repo.On("UnlinkBlob", mock.Anything, "team/a", d).Return(nil)
	repo.On("UnlinkBlob", mock.Anything, "team/b", d).Return(nil)
	repo.On("CountBlobLinks", mock.Anything, d).Return(1, nil).Once()
	repo.On("CountBlobLinks", mock.Anything, d).Return(0, nil).Once()

	require.NoError(t, svc.Delete(ctx, "team/a", d.String()))
	_, err = store.Stat(ctx, d)
	require.NoError(t, err, "content removed while team/b still links it")

	require.NoError(t, svc.Delete(ctx, "team/b", d.String()))
	_, err = store.Stat(ctx, d)
	assert.ErrorIs(t, err, domain.ErrBlobNotFound)
	repo.AssertExpectations(t)
}
