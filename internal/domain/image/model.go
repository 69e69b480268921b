package image

import (
	"crypto/rand"
	"errors"
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Folder is a logical bucket that namespaces uploaded files.
type Folder string

// Upload folders
const (
	FolderAdvice  Folder = "advice"
	FolderAvatar  Folder = "avatar"
	FolderTherapy Folder = "therapy"
)

// ValidFolders contains all valid folder values.
var ValidFolders = []Folder{FolderAdvice, FolderAvatar, FolderTherapy}

// AllowedContentTypes is the allow-list enforced when an upload destination is issued.
var AllowedContentTypes = []string{"image/jpeg", "image/jpg", "image/png", "image/webp", "image/svg"}

// Domain errors
var (
	ErrInvalidFolder      = errors.New("folder must be one of: advice, avatar, therapy")
	ErrInvalidContentType = errors.New("content type is not an allowed image type")
	ErrEmptyItemID        = errors.New("item ID cannot be empty")
)

// UploadFailedError reports a non-success status from the file PUT.
type UploadFailedError struct {
	Status int
}

func (e *UploadFailedError) Error() string {
	return fmt.Sprintf("upload failed with status %d", e.Status)
}

// Info is the canonical reference to an uploaded image.
type Info struct {
	Key string // storage-relative identifier, persisted on the owning record
	URL string // publicly fetchable address derived from Key
}

// UploadResponse is an issued upload destination.
// UploadURL accepts exactly one PUT; Key is the durable reference to persist.
type UploadResponse struct {
	UploadURL string `json:"uploadUrl"`
	ViewURL   string `json:"viewUrl"`
	Key       string `json:"key"`
}

// ParseFolder converts a raw value into a Folder.
// PRE: none
// POST: Returns the folder or ErrInvalidFolder
func ParseFolder(s string) (Folder, error) {
	for _, f := range ValidFolders {
		if string(f) == s {
			return f, nil
		}
	}
	return "", ErrInvalidFolder
}

// URL builds the public address of an object from the CDN base, an optional folder and the key.
// PRE: key is non-empty
// POST: Returns base/folder/key with exactly one slash between segments
func URL(cdnBase, key string, folder Folder) string {
	parts := []string{strings.TrimRight(cdnBase, "/")}
	if folder != "" {
		parts = append(parts, string(folder))
	}
	parts = append(parts, strings.TrimLeft(key, "/"))
	return strings.Join(parts, "/")
}

// NewInfo returns the image reference for key, or nil when key is empty.
// INVARIANT: a non-nil Info always carries a non-empty Key
func NewInfo(cdnBase, key string, folder Folder) *Info {
	if strings.TrimSpace(key) == "" {
		return nil
	}
	return &Info{Key: key, URL: URL(cdnBase, key, folder)}
}

// IsAllowedContentType reports whether ct is in AllowedContentTypes.
// Parameters such as charset are ignored and the comparison is case-insensitive.
func IsAllowedContentType(ct string) bool {
	mediaType := normalizeContentType(ct)
	for _, allowed := range AllowedContentTypes {
		if mediaType == allowed {
			return true
		}
	}
	return false
}

// NewObjectKey creates a unique, time-sortable key for an item's upload.
// PRE: itemID is non-empty, contentType is allowed
// POST: Returns "<itemID>-<ulid><ext>"
func NewObjectKey(itemID, contentType string, now time.Time) (string, error) {
	if strings.TrimSpace(itemID) == "" {
		return "", ErrEmptyItemID
	}
	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return "", fmt.Errorf("generate object key: %w", err)
	}
	return strings.ToLower(itemID) + "-" + strings.ToLower(id.String()) + extensionFor(contentType), nil
}

func extensionFor(ct string) string {
	switch normalizeContentType(ct) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/svg":
		return ".svg"
	}
	return ""
}

func normalizeContentType(ct string) string {
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		mediaType = ct
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}
