package objectstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"practice/internal/adapters/http/perf"
	"practice/internal/domain/image"
)

// PresignRequest is the JSON body of POST /api/uploads/presign.
type PresignRequest struct {
	Folder      string `json:"folder"`
	ItemID      string `json:"itemId"`
	ContentType string `json:"contentType"`
}

// APIClient requests upload destinations from a remote presign endpoint.
type APIClient struct {
	endpoint string
	client   *http.Client
}

// NewAPIClient creates a client for endpoint (the full presign URL).
// A nil httpClient uses a client with a 10 second timeout.
func NewAPIClient(endpoint string, httpClient *http.Client) *APIClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &APIClient{endpoint: endpoint, client: httpClient}
}

// RequestUpload posts the request and decodes the issued destination.
// A 415 response maps to image.ErrInvalidContentType.
func (c *APIClient) RequestUpload(ctx context.Context, folder image.Folder, itemID, contentType string) (image.UploadResponse, error) {
	body, err := json.Marshal(PresignRequest{Folder: string(folder), ItemID: itemID, ContentType: contentType})
	if err != nil {
		return image.UploadResponse{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return image.UploadResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return image.UploadResponse{}, fmt.Errorf("request upload destination: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnsupportedMediaType:
		return image.UploadResponse{}, image.ErrInvalidContentType
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return image.UploadResponse{}, fmt.Errorf("request upload destination: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out image.UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return image.UploadResponse{}, fmt.Errorf("decode upload destination: %w", err)
	}
	if out.Key == "" || out.UploadURL == "" {
		return image.UploadResponse{}, fmt.Errorf("decode upload destination: missing key or url")
	}
	return out, nil
}

// HTTPPutter sends file bytes with a single PUT and times each transfer.
type HTTPPutter struct {
	client    *http.Client
	collector *perf.Collector
}

// NewHTTPPutter creates a putter. collector may be nil.
func NewHTTPPutter(httpClient *http.Client, collector *perf.Collector) *HTTPPutter {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	return &HTTPPutter{client: httpClient, collector: collector}
}

// Put uploads body to uploadURL with the given Content-Type.
// POST: A non-2xx response returns *image.UploadFailedError carrying the status
func (p *HTTPPutter) Put(ctx context.Context, uploadURL, contentType string, body io.Reader, size int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	if size > 0 {
		req.ContentLength = size
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	p.record(req.URL.Host, status, err != nil || status < 200 || status > 299, start)
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if status < 200 || status > 299 {
		return &image.UploadFailedError{Status: status}
	}
	return nil
}

func (p *HTTPPutter) record(host string, status int, failed bool, start time.Time) {
	if p.collector == nil {
		return
	}
	p.collector.Record(perf.Entry{
		Kind:       perf.KindUpload,
		Path:       "PUT " + host,
		StatusCode: status,
		Failed:     failed,
		DurationMs: float64(time.Since(start).Microseconds()) / 1000.0,
		Timestamp:  start,
	})
}
