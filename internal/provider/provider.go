// Package provider talks to the HTTP sources the pipelines read from:
// the content API (course and content metadata) and the asset host that
// serves existing thumbnails.
package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fleveque/thumbnail-service/internal/model"
)

const (
	userAgent = "thumbnail-service/1.0"

	// maxBodyBytes caps every response body we read into memory.
	maxBodyBytes = 10 << 20
)

// newHTTPClient returns a client whose Timeout mirrors the per-call
// timeout. A zero timeout falls back to 30s.
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// fetch performs a single GET and returns the response with an unread body
// when the status is 2xx. Network failures are wrapped as ErrTransport; the
// caller decides how to classify a bad status.
func fetch(ctx context.Context, client *http.Client, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", model.ErrTransport, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", model.ErrTransport, url, err)
	}
	return resp, nil
}

// readBody reads the whole body and closes it. Bodies larger than
// maxBodyBytes are rejected rather than truncated.
func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	if resp.ContentLength > maxBodyBytes {
		return nil, fmt.Errorf("%w: body of %d bytes exceeds the %d byte limit",
			model.ErrTransport, resp.ContentLength, maxBodyBytes)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", model.ErrTransport, err)
	}
	if len(data) > maxBodyBytes {
		return nil, fmt.Errorf("%w: body exceeds the %d byte limit", model.ErrTransport, maxBodyBytes)
	}
	return data, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
