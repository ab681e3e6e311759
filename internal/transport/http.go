// Package transport provides the concrete net/http implementation of
// the timestamp package's Transport collaborator (spec §1: "an HTTP
// transport that issues a POST with a content type and body and
// returns a status and body").
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTP is a timestamp.Transport backed by net/http. Timeouts are the
// transport's own responsibility (spec §5): the builder never imposes
// one of its own.
type HTTP struct {
	Client  *http.Client
	Timeout time.Duration
}

// NewHTTP returns an HTTP transport that bounds each request by
// timeout; pass timeout <= 0 to rely solely on the context the caller
// supplies.
func NewHTTP(timeout time.Duration) *HTTP {
	return &HTTP{Client: &http.Client{}, Timeout: timeout}
}

// Post issues the POST, returning the response status, body, and
// content type.
func (t *HTTP) Post(ctx context.Context, url, contentType string, body []byte) (int, []byte, string, error) {
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, "", fmt.Errorf("transport: building request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, "", fmt.Errorf("transport: posting to %q: %w", url, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, "", fmt.Errorf("transport: reading response from %q: %w", url, err)
	}

	return resp.StatusCode, respBody, resp.Header.Get("Content-Type"), nil
}
