package objectstore

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"practice/internal/domain/image"
)

func newLocalServer(t *testing.T) (*LocalStore, *httptest.Server) {
	t.Helper()
	dir := t.TempDir()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	store := NewLocalStore(dir, srv.URL, []byte("test-signing-key"))
	mux.HandleFunc("PUT /media/upload", store.HandleUpload)
	mux.Handle("GET /media/", store.FileServer())
	return store, srv
}

func TestLocalStore_RoundTrip(t *testing.T) {
	store, srv := newLocalServer(t)
	ctx := context.Background()

	dest, err := store.RequestUpload(ctx, image.FolderAvatar, "acc1", "image/webp")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/media/avatar/"+dest.Key, dest.ViewURL)

	putter := NewHTTPPutter(srv.Client(), nil)
	require.NoError(t, putter.Put(ctx, dest.UploadURL, "image/webp", strings.NewReader("webp-bytes"), 10))

	stored, err := os.ReadFile(filepath.Join(store.dir, "avatar", dest.Key))
	require.NoError(t, err)
	assert.Equal(t, "webp-bytes", string(stored))

	resp, err := srv.Client().Get(dest.ViewURL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "webp-bytes", string(body))
}

func TestLocalStore_NoDirectoryListing(t *testing.T) {
	store, srv := newLocalServer(t)
	ctx := context.Background()

	dest, err := store.RequestUpload(ctx, image.FolderAvatar, "acc1", "image/png")
	require.NoError(t, err)
	require.NoError(t, NewHTTPPutter(srv.Client(), nil).Put(ctx, dest.UploadURL, "image/png", strings.NewReader("png"), 3))

	for _, p := range []string{"/media/", "/media/avatar", "/media/avatar/"} {
		resp, err := srv.Client().Get(srv.URL + p)
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, p)
		assert.NotContains(t, string(body), dest.Key, p)
	}
}

func TestLocalStore_RejectsBadUploads(t *testing.T) {
	store, srv := newLocalServer(t)
	ctx := context.Background()
	putter := NewHTTPPutter(srv.Client(), nil)

	dest, err := store.RequestUpload(ctx, image.FolderAdvice, "a1", "image/png")
	require.NoError(t, err)

	tests := []struct {
		name        string
		url         string
		contentType string
		want        int
	}{
		{"missing token", srv.URL + "/media/upload", "image/png", http.StatusForbidden},
		{"tampered token", dest.UploadURL + "x", "image/png", http.StatusForbidden},
		{"wrong content type", dest.UploadURL, "image/jpeg", http.StatusUnsupportedMediaType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := putter.Put(ctx, tt.url, tt.contentType, strings.NewReader("x"), 1)
			var failed *image.UploadFailedError
			require.ErrorAs(t, err, &failed)
			assert.Equal(t, tt.want, failed.Status)
		})
	}
}

func TestLocalStore_ExpiredToken(t *testing.T) {
	store, srv := newLocalServer(t)
	issued := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return issued }

	dest, err := store.RequestUpload(context.Background(), image.FolderAdvice, "a1", "image/png")
	require.NoError(t, err)

	store.now = func() time.Time { return issued.Add(DefaultPresignExpiry + time.Minute) }
	err = NewHTTPPutter(srv.Client(), nil).Put(context.Background(), dest.UploadURL, "image/png", strings.NewReader("x"), 1)
	var failed *image.UploadFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, http.StatusForbidden, failed.Status)
}
