package imageupload

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"log/slog"
	"mime/multipart"
	"sync"
)

// State is the position of an edit session in its upload lifecycle.
type State string

// Session states
const (
	StateIdle         State = "idle"
	StateFileSelected State = "file_selected"
	StateUploading    State = "uploading"
	StateBuilt        State = "built"
	StateFailed       State = "failed"
)

// maxPreviewBytes bounds how much of a file is inlined as a data URL preview.
const maxPreviewBytes = 5 << 20

// File is a user-selected binary waiting to be uploaded.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// FileFromHeader adapts a multipart form part into a File.
// Returns nil for a nil header or an empty part (no file chosen).
func FileFromHeader(fh *multipart.FileHeader) *File {
	if fh == nil || fh.Size == 0 {
		return nil
	}
	return &File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// BytesFile wraps in-memory content as a File.
func BytesFile(name, contentType string, data []byte) *File {
	return &File{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// Session holds the pending file and preview of one edit session.
// It is owned by a single form and never shared across edits.
// INVARIANT: at most one file is pending
type Session struct {
	mu         sync.Mutex
	itemID     string
	file       *File
	previewURL string
	state      State
	generation int
	previewWG  sync.WaitGroup
}

// NewSession starts an Idle session for itemID, seeding the preview with the current image.
func NewSession(itemID, currentImageURL string) *Session {
	return &Session{itemID: itemID, previewURL: currentImageURL, state: StateIdle}
}

// Reset reacts to the edited item changing.
// PRE: none
// POST: if itemID differs, the pending file is dropped and the preview reseeded; otherwise no-op
func (s *Session) Reset(itemID, currentImageURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.itemID == itemID {
		return
	}
	s.itemID = itemID
	s.file = nil
	s.previewURL = currentImageURL
	s.state = StateIdle
	s.generation++
}

// HandleFileChange records the selected file and renders its preview in the background.
// The last selection wins. A nil file is ignored.
// POST: File() returns f immediately; PreviewURL() updates once the read completes
func (s *Session) HandleFileChange(f *File) {
	if f == nil {
		return
	}
	s.mu.Lock()
	s.file = f
	s.state = StateFileSelected
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	s.previewWG.Add(1)
	go func() {
		defer s.previewWG.Done()
		preview, err := dataURL(f)
		if err != nil {
			slog.Warn("upload_event", "event", "preview_failed", "file", f.Name, "error", err)
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		// A newer selection or an item change supersedes this preview.
		if s.generation == gen {
			s.previewURL = preview
		}
	}()
}

// WaitPreview blocks until pending preview renders finish or ctx is done.
func (s *Session) WaitPreview(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.previewWG.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// File returns the pending file or nil.
func (s *Session) File() *File {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file
}

// PreviewURL returns the locally renderable preview.
func (s *Session) PreviewURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.previewURL
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Clear drops the pending file after a successful create.
// POST: File() is nil, preview cleared, state Idle
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.file = nil
	s.previewURL = ""
	s.state = StateIdle
	s.generation++
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func dataURL(f *File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, maxPreviewBytes))
	if err != nil {
		return "", err
	}
	return "data:" + f.ContentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
