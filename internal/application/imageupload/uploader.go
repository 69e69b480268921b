// Package imageupload coordinates edit forms that attach an optional image.
//
// A form is validated, a pending file (if any) is uploaded through a
// presigned destination, and the resulting image reference is merged into the
// edited item by the form itself. Persisting the item stays with the caller.
package imageupload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"

	"practice/internal/domain/image"
)

// ErrUpload marks every failure of the upload step, whatever its cause.
var ErrUpload = errors.New("image upload failed")

// Form is a validatable set of named fields.
type Form interface {
	Valid() bool
	Values() url.Values
}

// Target is the capability an editable-item form exposes to the uploader.
type Target[T any] interface {
	Form() Form
	CurrentItem() T
	ItemID() string
	UploadFolder() image.Folder
	CurrentImageKey() string
	// BuildUpdatedItem merges the resolved image (nil when there is none) and the raw form values.
	BuildUpdatedItem(img *image.Info, values url.Values) T
}

// Requester issues upload destinations.
// It returns image.ErrInvalidContentType when contentType is not allowed.
type Requester interface {
	RequestUpload(ctx context.Context, folder image.Folder, itemID, contentType string) (image.UploadResponse, error)
}

// Putter sends file bytes to an upload destination.
// A non-success status is reported as *image.UploadFailedError.
type Putter interface {
	Put(ctx context.Context, uploadURL, contentType string, body io.Reader, size int64) error
}

// Uploader runs the shared upload-and-submit algorithm for all image forms.
type Uploader struct {
	requester Requester
	putter    Putter
	cdnBase   string
	logger    *slog.Logger
}

// NewUploader creates an Uploader. cdnBase prefixes derived image URLs.
// PRE: requester and putter are non-nil
func NewUploader(requester Requester, putter Putter, cdnBase string, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{requester: requester, putter: putter, cdnBase: cdnBase, logger: logger}
}

// CDNBase returns the base used to derive image URLs.
func (u *Uploader) CDNBase() string {
	return u.cdnBase
}

// Submit validates the form, uploads the pending file if there is one, and builds the updated item.
// An invalid form yields (nil, nil) without any network call. An upload error aborts the
// submission before the item is built and is returned wrapped in ErrUpload; errors.Is/As
// still match the cause, e.g. image.ErrInvalidContentType or *image.UploadFailedError.
// PRE: target and session are non-nil
// POST: on success returns the item built by the target; nothing is persisted
func Submit[T any](ctx context.Context, u *Uploader, target Target[T], session *Session) (*T, error) {
	form := target.Form()
	if !form.Valid() {
		return nil, nil
	}

	folder := target.UploadFolder()
	img := image.NewInfo(u.cdnBase, target.CurrentImageKey(), folder)

	if file := session.File(); file != nil {
		session.setState(StateUploading)
		key, err := u.upload(ctx, folder, target.ItemID(), file)
		if err != nil {
			session.setState(StateFailed)
			u.logger.ErrorContext(ctx, "upload_event", "event", "upload_failed", "folder", string(folder), "item_id", target.ItemID(), "error", err)
			return nil, fmt.Errorf("%w: %s: %w", ErrUpload, folder, err)
		}
		img = image.NewInfo(u.cdnBase, key, folder)
		u.logger.InfoContext(ctx, "upload_event", "event", "upload_complete", "folder", string(folder), "item_id", target.ItemID(), "key", key)
	}

	item := target.BuildUpdatedItem(img, form.Values())
	session.setState(StateBuilt)
	return &item, nil
}

// upload performs the two sequential steps: request a destination, then PUT the bytes.
func (u *Uploader) upload(ctx context.Context, folder image.Folder, itemID string, file *File) (string, error) {
	dest, err := u.requester.RequestUpload(ctx, folder, itemID, file.ContentType)
	if err != nil {
		return "", err
	}

	body, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", file.Name, err)
	}
	defer body.Close()

	if err := u.putter.Put(ctx, dest.UploadURL, file.ContentType, body, file.Size); err != nil {
		return "", err
	}
	return dest.Key, nil
}
