package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"practice/internal/domain/image"
)

// MaxUploadBytes caps a single image PUT.
const MaxUploadBytes = 10 << 20

// ErrInvalidToken is returned for a missing, expired or tampered upload token.
var ErrInvalidToken = errors.New("invalid upload token")

// uploadClaims authorise exactly one object write.
type uploadClaims struct {
	jwt.RegisteredClaims
	Folder      string `json:"fld"`
	Key         string `json:"key"`
	ContentType string `json:"ct"`
}

// LocalStore is a development object store on the local filesystem.
// It issues upload URLs signed with an HMAC token and serves the stored files,
// so the upload flow runs end to end without a bucket.
type LocalStore struct {
	dir        string
	publicBase string // e.g. http://localhost:8080
	signingKey []byte
	expiry     time.Duration
	now        func() time.Time
}

// NewLocalStore creates a store rooted at dir.
// PRE: signingKey is non-empty
func NewLocalStore(dir, publicBase string, signingKey []byte) *LocalStore {
	return &LocalStore{
		dir:        dir,
		publicBase: strings.TrimRight(publicBase, "/"),
		signingKey: signingKey,
		expiry:     DefaultPresignExpiry,
		now:        time.Now,
	}
}

// CDNBase returns the base URL under which stored files are served.
func (s *LocalStore) CDNBase() string {
	return s.publicBase + "/media"
}

// RequestUpload issues a signed PUT URL for a new object in folder.
func (s *LocalStore) RequestUpload(_ context.Context, folder image.Folder, itemID, contentType string) (image.UploadResponse, error) {
	now := s.now()
	key, err := newKey(folder, itemID, contentType, now)
	if err != nil {
		return image.UploadResponse{}, err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, uploadClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Folder:      string(folder),
		Key:         key,
		ContentType: contentType,
	})
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return image.UploadResponse{}, fmt.Errorf("sign upload token: %w", err)
	}

	return image.UploadResponse{
		UploadURL: s.publicBase + "/media/upload?token=" + url.QueryEscape(signed),
		ViewURL:   image.URL(s.CDNBase(), key, folder),
		Key:       key,
	}, nil
}

func (s *LocalStore) parseToken(raw string) (*uploadClaims, error) {
	claims := &uploadClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return s.signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if _, err := image.ParseFolder(claims.Folder); err != nil || claims.Key == "" || strings.ContainsAny(claims.Key, `/\`) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// HandleUpload is the PUT target of issued upload URLs.
// The request Content-Type must match the type the token was issued for.
func (s *LocalStore) HandleUpload(w http.ResponseWriter, r *http.Request) {
	claims, err := s.parseToken(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	if !strings.EqualFold(r.Header.Get("Content-Type"), claims.ContentType) {
		http.Error(w, "Content-Type does not match upload", http.StatusUnsupportedMediaType)
		return
	}

	if err := s.write(claims.Folder, claims.Key, http.MaxBytesReader(w, r.Body, MaxUploadBytes)); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Upload too large", http.StatusRequestEntityTooLarge)
			return
		}
		slog.Error("upload_event", "event", "local_write_failed", "key", claims.Key, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	slog.Info("upload_event", "event", "local_stored", "folder", claims.Folder, "key", claims.Key)
	w.WriteHeader(http.StatusOK)
}

// write stores the body atomically under dir/folder/key.
func (s *LocalStore) write(folder, key string, body io.Reader) error {
	dir := filepath.Join(s.dir, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(dir, key))
}

// FileServer serves stored objects. Mount it under /media/.
// Directories are reported as missing, so object keys cannot be listed.
func (s *LocalStore) FileServer() http.Handler {
	return http.StripPrefix("/media/", http.FileServer(filesOnly{http.Dir(s.dir)}))
}

// filesOnly is a http.FileSystem that refuses to open directories.
type filesOnly struct {
	fs http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, os.ErrNotExist
	}
	return file, nil
}
