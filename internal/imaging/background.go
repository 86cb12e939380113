package imaging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const (
	rembgPath        = "/api/remove"
	rembgField       = "file"
	maxRembgResponse = 32 << 20
)

// NoopRemover returns images unchanged.
type NoopRemover struct{}

// RemoveBackground returns img as is
func (NoopRemover) RemoveBackground(_ context.Context, img []byte) ([]byte, error) {
	return img, nil
}

// RembgRemover removes portrait backgrounds through a rembg HTTP server
// (`rembg s`), which answers POST /api/remove with a PNG.
type RembgRemover struct {
	endpoint string
	client   *http.Client
}

// NewRembgRemover creates a remover for the rembg server at baseURL.
func NewRembgRemover(baseURL string, timeout time.Duration) *RembgRemover {
	return &RembgRemover{
		endpoint: strings.TrimRight(baseURL, "/") + rembgPath,
		client:   &http.Client{Timeout: timeout},
	}
}

// RemoveBackground uploads img and returns the background-free PNG.
func (r *RembgRemover) RemoveBackground(ctx context.Context, img []byte) ([]byte, error) {
	if len(img) == 0 {
		return nil, fmt.Errorf("image cannot be empty")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(rembgField, "portrait")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := fw.Write(img); err != nil {
		return nil, fmt.Errorf("failed to write form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rembg request failed: %w", err)
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(io.LimitReader(resp.Body, maxRembgResponse))
	if err != nil {
		return nil, fmt.Errorf("failed to read rembg response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rembg returned status %d: %s", resp.StatusCode, truncate(string(out), 200))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("rembg returned an empty body")
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
