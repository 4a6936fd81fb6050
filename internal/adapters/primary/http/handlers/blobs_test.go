package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"oci-registry-service/internal/core/domain"
	"oci-registry-service/pkg/distribution"
	"oci-registry-service/pkg/image"
)

func TestGetBlob(t *testing.T) {
	deps, r := setupRouter()
	d := image.FromBytes([]byte("layer"))

	deps.repo.On("GetRepository", mock.Anything, "team/app").Return(&domain.Repository{Name: "team/app"}, nil)
	deps.repo.On("HasBlob", mock.Anything, "team/app", d).Return(true, nil)
	deps.blobs.On("Open", mock.Anything, d).
		Return(io.NopCloser(strings.NewReader("layer")), &domain.Blob{Digest: d, Size: 5}, nil)

	req, _ := http.NewRequest("GET", "/v2/team/app/blobs/"+d.String(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "layer", w.Body.String())
	assert.Equal(t, d.String(), w.Header().Get(distribution.HeaderContentDigest))
}

func TestHeadBlob(t *testing.T) {
	deps, r := setupRouter()
	d := image.FromBytes([]byte("layer"))
	missing := image.FromBytes([]byte("missing"))

	deps.repo.On("GetRepository", mock.Anything, "team/app").Return(&domain.Repository{Name: "team/app"}, nil)
	deps.repo.On("HasBlob", mock.Anything, "team/app", d).Return(true, nil)
	deps.repo.On("HasBlob", mock.Anything, "team/app", missing).Return(false, nil)
	deps.blobs.On("Stat", mock.Anything, d).Return(&domain.Blob{Digest: d, Size: 5}, nil)

	req, _ := http.NewRequest("HEAD", "/v2/team/app/blobs/"+d.String(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "5", w.Header().Get("Content-Length"))

	req, _ = http.NewRequest("HEAD", "/v2/team/app/blobs/"+missing.String(), nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	deps.blobs.AssertNotCalled(t, "Stat", mock.Anything, missing)
}

func TestDeleteBlob(t *testing.T) {
	deps, r := setupRouter()
	d := image.FromBytes([]byte("layer"))

	deps.repo.On("GetRepository", mock.Anything, "team/app").Return(&domain.Repository{Name: "team/app"}, nil)
	deps.repo.On("HasBlob", mock.Anything, "team/app", d).Return(true, nil)
	deps.repo.On("UnlinkBlob", mock.Anything, "team/app", d).Return(nil)
	deps.repo.On("CountBlobLinks", mock.Anything, d).Return(1, nil)

	req, _ := http.NewRequest("DELETE", "/v2/team/app/blobs/"+d.String(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	deps.blobs.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDeleteBlob_UnknownRepository(t *testing.T) {
	deps, r := setupRouter()
	d := image.FromBytes([]byte("layer"))

	deps.repo.On("GetRepository", mock.Anything, "never/existed").Return(nil, domain.ErrRepositoryNotFound)

	req, _ := http.NewRequest("DELETE", "/v2/never/existed/blobs/"+d.String(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, distribution.CodeNameUnknown, decodeErrors(t, w).Errors[0].Code)
	deps.blobs.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestGetBlob_InvalidDigest(t *testing.T) {
	_, r := setupRouter()

	req, _ := http.NewRequest("GET", "/v2/team/app/blobs/sha256:nothex", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, distribution.CodeDigestInvalid, decodeErrors(t, w).Errors[0].Code)
}

func TestStartUpload(t *testing.T) {
	deps, r := setupRouter()

	deps.repo.On("GetRepository", mock.Anything, "team/app").Return(&domain.Repository{Name: "team/app"}, nil)
	deps.blobs.On("StartUpload", mock.Anything, mock.AnythingOfType("uuid.UUID")).Return(nil)
	deps.repo.On("CreateUpload", mock.Anything, mock.AnythingOfType("*domain.Upload")).Return(nil)

	req, _ := http.NewRequest("POST", "/v2/team/app/blobs/uploads/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	id := w.Header().Get(distribution.HeaderUploadUUID)
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.Equal(t, "/v2/team/app/blobs/uploads/"+id, w.Header().Get("Location"))
	assert.Equal(t, "0-0", w.Header().Get("Range"))
}

func TestStartUpload_Monolithic(t *testing.T) {
	deps, r := setupRouter()
	d := image.FromBytes([]byte("layer"))

	deps.repo.On("GetRepository", mock.Anything, "team/app").Return(&domain.Repository{Name: "team/app"}, nil)
	deps.blobs.On("Put", mock.Anything, d, mock.Anything).Return(&domain.Blob{Digest: d, Size: 5}, nil)
	deps.repo.On("LinkBlob", mock.Anything, "team/app", d).Return(nil)

	req, _ := http.NewRequest("POST", "/v2/team/app/blobs/uploads/?digest="+d.String(), strings.NewReader("layer"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "/v2/team/app/blobs/"+d.String(), w.Header().Get("Location"))
}

func TestStartUpload_Mount(t *testing.T) {
	deps, r := setupRouter()
	d := image.FromBytes([]byte("layer"))

	deps.repo.On("GetRepository", mock.Anything, "base/os").Return(&domain.Repository{Name: "base/os"}, nil)
	deps.repo.On("HasBlob", mock.Anything, "base/os", d).Return(true, nil)
	deps.repo.On("GetRepository", mock.Anything, "team/app").Return(&domain.Repository{Name: "team/app"}, nil)
	deps.blobs.On("Stat", mock.Anything, d).Return(&domain.Blob{Digest: d, Size: 5}, nil)
	deps.repo.On("LinkBlob", mock.Anything, "team/app", d).Return(nil)

	req, _ := http.NewRequest("POST", "/v2/team/app/blobs/uploads/?mount="+d.String()+"&from=base/os", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, d.String(), w.Header().Get(distribution.HeaderContentDigest))
}

func TestStartUpload_MountFallsBack(t *testing.T) {
	deps, r := setupRouter()
	d := image.FromBytes([]byte("layer"))

	deps.repo.On("GetRepository", mock.Anything, "base/os").Return(nil, domain.ErrRepositoryNotFound)
	deps.repo.On("GetRepository", mock.Anything, "team/app").Return(&domain.Repository{Name: "team/app"}, nil)
	deps.blobs.On("StartUpload", mock.Anything, mock.AnythingOfType("uuid.UUID")).Return(nil)
	deps.repo.On("CreateUpload", mock.Anything, mock.AnythingOfType("*domain.Upload")).Return(nil)

	req, _ := http.NewRequest("POST", "/v2/team/app/blobs/uploads/?mount="+d.String()+"&from=base/os", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.NotEmpty(t, w.Header().Get(distribution.HeaderUploadUUID))
}

func TestStartUpload_MountBlobNotInSource(t *testing.T) {
	deps, r := setupRouter()
	d := image.FromBytes([]byte("layer"))

	deps.repo.On("GetRepository", mock.Anything, "base/os").Return(&domain.Repository{Name: "base/os"}, nil)
	deps.repo.On("HasBlob", mock.Anything, "base/os", d).Return(false, nil)
	deps.repo.On("GetRepository", mock.Anything, "team/app").Return(&domain.Repository{Name: "team/app"}, nil)
	deps.blobs.On("StartUpload", mock.Anything, mock.AnythingOfType("uuid.UUID")).Return(nil)
	deps.repo.On("CreateUpload", mock.Anything, mock.AnythingOfType("*domain.Upload")).Return(nil)

	req, _ := http.NewRequest("POST", "/v2/team/app/blobs/uploads/?mount="+d.String()+"&from=base/os", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	deps.repo.AssertNotCalled(t, "LinkBlob", mock.Anything, mock.Anything, mock.Anything)
}

func TestPatchUpload(t *testing.T) {
	deps, r := setupRouter()
	id := uuid.New()

	deps.repo.On("GetUpload", mock.Anything, id).Return(&domain.Upload{ID: id, Repository: "team/app", Offset: 5}, nil)
	deps.blobs.On("AppendUpload", mock.Anything, id, mock.Anything).Return(int64(10), nil)
	deps.repo.On("UpdateUpload", mock.Anything, mock.AnythingOfType("*domain.Upload")).Return(nil)

	req, _ := http.NewRequest("PATCH", "/v2/team/app/blobs/uploads/"+id.String(), strings.NewReader("chunk"))
	req.Header.Set("Content-Range", "5-9")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "0-9", w.Header().Get("Range"))
}

func TestPatchUpload_OutOfOrder(t *testing.T) {
	deps, r := setupRouter()
	id := uuid.New()

	deps.repo.On("GetUpload", mock.Anything, id).Return(&domain.Upload{ID: id, Repository: "team/app", Offset: 5}, nil)

	req, _ := http.NewRequest("PATCH", "/v2/team/app/blobs/uploads/"+id.String(), strings.NewReader("chunk"))
	req.Header.Set("Content-Range", "0-4")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, w.Code)
	assert.Equal(t, distribution.CodeBlobUploadInvalid, decodeErrors(t, w).Errors[0].Code)
}

func TestGetUpload_Unknown(t *testing.T) {
	_, r := setupRouter()

	req, _ := http.NewRequest("GET", "/v2/team/app/blobs/uploads/not-a-uuid", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, distribution.CodeBlobUploadUnknown, decodeErrors(t, w).Errors[0].Code)
}

func TestCompleteUpload(t *testing.T) {
	deps, r := setupRouter()
	id := uuid.New()
	d := image.FromBytes([]byte("layer"))

	deps.repo.On("GetUpload", mock.Anything, id).Return(&domain.Upload{ID: id, Repository: "team/app"}, nil)
	deps.blobs.On("AppendUpload", mock.Anything, id, mock.Anything).Return(int64(5), nil)
	deps.blobs.On("CommitUpload", mock.Anything, id, d).Return(&domain.Blob{Digest: d, Size: 5}, nil)
	deps.repo.On("DeleteUpload", mock.Anything, id).Return(nil)
	deps.repo.On("LinkBlob", mock.Anything, "team/app", d).Return(nil)

	req, _ := http.NewRequest("PUT", "/v2/team/app/blobs/uploads/"+id.String()+"?digest="+d.String(), strings.NewReader("layer"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "/v2/team/app/blobs/"+d.String(), w.Header().Get("Location"))
}

func TestCompleteUpload_MissingDigest(t *testing.T) {
	_, r := setupRouter()

	req, _ := http.NewRequest("PUT", "/v2/team/app/blobs/uploads/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, distribution.CodeDigestInvalid, decodeErrors(t, w).Errors[0].Code)
}

func TestCancelUpload(t *testing.T) {
	deps, r := setupRouter()
	id := uuid.New()

	deps.repo.On("GetUpload", mock.Anything, id).Return(&domain.Upload{ID: id, Repository: "team/app"}, nil)
	deps.blobs.On("CancelUpload", mock.Anything, id).Return(nil)
	deps.repo.On("DeleteUpload", mock.Anything, id).Return(nil)

	req, _ := http.NewRequest("DELETE", "/v2/team/app/blobs/uploads/"+id.String(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRangeStart(t *testing.T) {
	n, err := rangeStart("")
	assert.NoError(t, err)
	assert.Equal(t, int64(-1), n)

	n, err = rangeStart("bytes 10-19")
	assert.NoError(t, err)
	assert.Equal(t, int64(10), n)

	_, err = rangeStart("ten")
	assert.ErrorIs(t, err, domain.ErrInvalidUploadRange)
}
