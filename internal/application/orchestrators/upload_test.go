package orchestrators

import (
	"context"
	"errors"
	"testing"

	"practice/internal/domain/image"
)

type stubIssuer struct {
	calls int
	err   error
}

func (s *stubIssuer) RequestUpload(_ context.Context, folder image.Folder, itemID, _ string) (image.UploadResponse, error) {
	s.calls++
	if s.err != nil {
		return image.UploadResponse{}, s.err
	}
	key := itemID + "-k.png"
	return image.UploadResponse{Key: key, UploadURL: "https://up/" + string(folder) + "/" + key}, nil
}

// TestExecuteIssueUploadDestination tests folder authorisation and content type checks.
func TestExecuteIssueUploadDestination(t *testing.T) {
	tests := []struct {
		name  string
		actor Actor
		input IssueUploadInput
		want  error
	}{
		{"admin therapy image", admin, IssueUploadInput{Folder: "therapy", ItemID: "t1", ContentType: "image/png"}, nil},
		{"admin advice image", admin, IssueUploadInput{Folder: "advice", ItemID: "a1", ContentType: "image/webp"}, nil},
		{"client own avatar", client, IssueUploadInput{Folder: "avatar", ItemID: "client-1", ContentType: "image/jpeg"}, nil},
		{"client other avatar", client, IssueUploadInput{Folder: "avatar", ItemID: "client-2", ContentType: "image/jpeg"}, ErrForbidden},
		{"client therapy image", client, IssueUploadInput{Folder: "therapy", ItemID: "t1", ContentType: "image/png"}, ErrForbidden},
		{"unknown folder", admin, IssueUploadInput{Folder: "../etc", ItemID: "x", ContentType: "image/png"}, image.ErrInvalidFolder},
		{"pdf", admin, IssueUploadInput{Folder: "advice", ItemID: "a1", ContentType: "application/pdf"}, image.ErrInvalidContentType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issuer := &stubIssuer{}
			resp, err := ExecuteIssueUploadDestination(context.Background(), tt.actor, tt.input, IssueUploadDeps{Issuer: issuer})
			if tt.want != nil {
				if !errors.Is(err, tt.want) {
					t.Fatalf("err = %v, want %v", err, tt.want)
				}
				if issuer.calls != 0 {
					t.Error("issuer called for a rejected request")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if resp.Key != tt.input.ItemID+"-k.png" || resp.UploadURL == "" {
				t.Errorf("resp = %+v", resp)
			}
		})
	}
}

// TestExecuteIssueUploadDestination_IssuerError tests that issuer failures pass through.
func TestExecuteIssueUploadDestination_IssuerError(t *testing.T) {
	boom := errors.New("presign failed")
	_, err := ExecuteIssueUploadDestination(context.Background(), admin,
		IssueUploadInput{Folder: "therapy", ItemID: "t1", ContentType: "image/png"},
		IssueUploadDeps{Issuer: &stubIssuer{err: boom}})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
}
