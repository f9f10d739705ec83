package handlers

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"orangecat/internal/mocks"
	"orangecat/internal/models"
)

func mediaRouter(media *mocks.MockMediaService) http.Handler {
	h := NewMediaHandler(media)
	r := newRouter()
	r.POST("/api/avatar", requireAuth(), h.Avatar)
	r.POST("/api/banner", requireAuth(), h.Banner)
	return r
}

func multipartRequest(t *testing.T, path, field string, content []byte, user uuid.UUID) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, "image.png")
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, user))
	return req
}

func TestAvatarUpload(t *testing.T) {
	media := &mocks.MockMediaService{}
	user := uuid.New()
	content := []byte("fake image bytes")
	media.On("Upload", mock.Anything, mock.Anything, user, models.Avatar, mock.MatchedBy(func(r io.Reader) bool {
		b, _ := io.ReadAll(r)
		return bytes.Equal(b, content)
	})).Return(models.Upload{PublicURL: "https://cdn/avatars/a.png", Size: 16}, nil)

	w := httptest.NewRecorder()
	mediaRouter(media).ServeHTTP(w, multipartRequest(t, "/api/avatar", "file", content, user))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"publicUrl": "https://cdn/avatars/a.png"}, decode(t, w))
}

func TestBannerUpload_ReturnsSize(t *testing.T) {
	media := &mocks.MockMediaService{}
	user := uuid.New()
	media.On("Upload", mock.Anything, mock.Anything, user, models.Banner, mock.Anything).
		Return(models.Upload{PublicURL: "https://cdn/banners/b.png", Size: 2048}, nil)

	w := httptest.NewRecorder()
	mediaRouter(media).ServeHTTP(w, multipartRequest(t, "/api/banner", "file", []byte("x"), user))

	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2048, decode(t, w)["size"])
}

func TestUpload_Errors(t *testing.T) {
	t.Run("no file", func(t *testing.T) {
		media := &mocks.MockMediaService{}
		w := httptest.NewRecorder()
		mediaRouter(media).ServeHTTP(w, multipartRequest(t, "/api/avatar", "", nil, uuid.New()))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		media.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("too large", func(t *testing.T) {
		media := &mocks.MockMediaService{}
		big := bytes.Repeat([]byte{1}, int(models.Avatar.MaxSize)+10)
		w := httptest.NewRecorder()
		mediaRouter(media).ServeHTTP(w, multipartRequest(t, "/api/avatar", "file", big, uuid.New()))
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Equal(t, TypeFileTooLarge, decode(t, w)["type"])
	})

	t.Run("unsupported type", func(t *testing.T) {
		media := &mocks.MockMediaService{}
		media.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(models.Upload{}, models.ErrUnsupportedMedia)
		w := httptest.NewRecorder()
		mediaRouter(media).ServeHTTP(w, multipartRequest(t, "/api/avatar", "file", []byte("%PDF"), uuid.New()))
		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	})
}
