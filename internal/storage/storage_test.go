package storage

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	storage_go "github.com/supabase-community/storage-go"
)

type recorded struct {
	method, path, contentType, upsert string
	body                              string
}

type fakeStorage struct {
	mu       sync.Mutex
	calls    []recorded
	buckets  []storage_go.Bucket
	listCode int
}

func (f *fakeStorage) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.calls = append(f.calls, recorded{
		method:      r.Method,
		path:        r.URL.Path,
		contentType: r.Header.Get("Content-Type"),
		upsert:      r.Header.Get("x-upsert"),
		body:        string(b),
	})
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/bucket":
		if f.listCode != 0 {
			w.WriteHeader(f.listCode)
			_, _ = w.Write([]byte(`{"statusCode":"403","message":"forbidden"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(f.buckets)
	case r.Method == http.MethodPost && r.URL.Path == "/bucket":
		_, _ = w.Write([]byte(`{"name":"avatars"}`))
	case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/object/"):
		_, _ = w.Write([]byte(`{"Key":"` + strings.TrimPrefix(r.URL.Path, "/object/") + `"}`))
	case r.Method == http.MethodDelete:
		_, _ = w.Write([]byte(`[]`))
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"not found"}`))
	}
}

func (f *fakeStorage) paths(method string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		if c.method == method {
			out = append(out, c.path)
		}
	}
	return out
}

func newSupabaseStore(t *testing.T, f *fakeStorage) *SupabaseStore {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return NewSupabaseStore(storage_go.NewClient(srv.URL, "service-key", nil), zerolog.Nop())
}

func TestSupabaseStore_EnsureBucketCreatesOnce(t *testing.T) {
	f := &fakeStorage{}
	s := newSupabaseStore(t, f)
	ctx := context.Background()

	require.NoError(t, s.EnsureBucket(ctx, "avatars", true))
	require.NoError(t, s.EnsureBucket(ctx, "avatars", true))

	assert.Equal(t, []string{"/bucket"}, f.paths(http.MethodPost))
	assert.Len(t, f.paths(http.MethodGet), 1)
	assert.Contains(t, f.calls[1].body, `"public":true`)
}

func TestSupabaseStore_EnsureBucketExisting(t *testing.T) {
	f := &fakeStorage{buckets: []storage_go.Bucket{{Id: "banners", Name: "banners", Public: true}}}
	s := newSupabaseStore(t, f)

	require.NoError(t, s.EnsureBucket(context.Background(), "banners", true))
	assert.Empty(t, f.paths(http.MethodPost))
}

func TestSupabaseStore_ListFailureIsNotFatal(t *testing.T) {
	f := &fakeStorage{listCode: http.StatusForbidden}
	s := newSupabaseStore(t, f)

	assert.NoError(t, s.EnsureBucket(context.Background(), "avatars", true))
	assert.Empty(t, f.paths(http.MethodPost))
}

func TestSupabaseStore_Put(t *testing.T) {
	f := &fakeStorage{}
	s := newSupabaseStore(t, f)

	url, err := s.Put(context.Background(), "avatars", "u1/1700000000000.png", strings.NewReader("png-bytes"), "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(url, "/object/public/avatars/u1/1700000000000.png"), url)

	require.Len(t, f.calls, 1)
	c := f.calls[0]
	assert.Equal(t, "/object/avatars/u1/1700000000000.png", c.path)
	assert.Equal(t, "image/png", c.contentType)
	assert.Equal(t, "true", c.upsert)
	assert.Equal(t, "png-bytes", c.body)
}

func TestSupabaseStore_CanceledContext(t *testing.T) {
	f := &fakeStorage{}
	s := newSupabaseStore(t, f)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Put(ctx, "avatars", "x.png", strings.NewReader(""), "image/png")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.calls)
}

func TestSupabaseStore_Remove(t *testing.T) {
	f := &fakeStorage{}
	s := newSupabaseStore(t, f)

	require.NoError(t, s.Remove(context.Background(), "avatars", []string{"u1/a.png"}))
	assert.Equal(t, []string{"/object/avatars"}, f.paths(http.MethodDelete))
	assert.Contains(t, f.calls[0].body, "u1/a.png")
}

func TestS3Store_PutUsesPathStyle(t *testing.T) {
	var gotPath, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s, err := NewS3Store(context.Background(), S3Options{
		Endpoint:        srv.URL,
		Region:          "us-east-1",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		PublicURL:       "https://cdn.example.com/storage/v1/object/public/",
	}, zerolog.Nop())
	require.NoError(t, err)

	url, err := s.Put(context.Background(), "avatars", "u1/1.png", strings.NewReader("x"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "/avatars/u1/1.png", gotPath)
	assert.Equal(t, "image/png", gotType)
	assert.Equal(t, "https://cdn.example.com/storage/v1/object/public/avatars/u1/1.png", url)
}

func TestS3Store_PublicURLFallsBackToEndpoint(t *testing.T) {
	s, err := NewS3Store(context.Background(), S3Options{
		Endpoint:        "http://localhost:9000",
		Region:          "us-east-1",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
	}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/banners/a/b.webp", s.PublicURL("banners", "/a/b.webp"))
}
