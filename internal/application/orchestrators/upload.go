package orchestrators

import (
	"context"
	"log/slog"

	"practice/internal/domain/image"
)

// UploadIssuer issues upload destinations (S3 presigner or local store).
type UploadIssuer interface {
	RequestUpload(ctx context.Context, folder image.Folder, itemID, contentType string) (image.UploadResponse, error)
}

// IssueUploadInput is the presign request body.
type IssueUploadInput struct {
	Folder      string
	ItemID      string
	ContentType string
}

// IssueUploadDeps holds dependencies for IssueUploadDestination.
type IssueUploadDeps struct {
	Issuer UploadIssuer
}

// ExecuteIssueUploadDestination authorises and issues a single-use upload URL.
// Admins may upload to any folder; clients only to avatar with their own account ID.
// POST: image.ErrInvalidFolder / image.ErrInvalidContentType / ErrForbidden, or a destination
func ExecuteIssueUploadDestination(ctx context.Context, actor Actor, input IssueUploadInput, deps IssueUploadDeps) (image.UploadResponse, error) {
	folder, err := image.ParseFolder(input.Folder)
	if err != nil {
		return image.UploadResponse{}, err
	}
	if !actor.IsAdmin() && (folder != image.FolderAvatar || input.ItemID != actor.AccountID) {
		slog.Warn("upload_event", "event", "presign_forbidden", "folder", input.Folder, "actor", actor.AccountID)
		return image.UploadResponse{}, ErrForbidden
	}
	if !image.IsAllowedContentType(input.ContentType) {
		return image.UploadResponse{}, image.ErrInvalidContentType
	}

	resp, err := deps.Issuer.RequestUpload(ctx, folder, input.ItemID, input.ContentType)
	if err != nil {
		return image.UploadResponse{}, err
	}
	slog.Info("upload_event", "event", "presign_issued", "folder", string(folder), "item_id", input.ItemID, "key", resp.Key)
	return resp, nil
}
