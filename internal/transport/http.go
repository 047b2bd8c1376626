package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxResponseSize caps how much of a response body is read. Device listings
// with several displays stay well under this.
const maxResponseSize = 4 << 20

// DefaultRequestTimeout bounds one request when no timeout is configured.
const DefaultRequestTimeout = 5 * time.Second

// StatusError is returned for responses outside the 2xx range.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// HTTPSender sends requests with a shared http.Client.
type HTTPSender struct {
	client *http.Client
}

// NewHTTPSender creates a sender whose requests time out after timeout.
func NewHTTPSender(timeout time.Duration) *HTTPSender {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &HTTPSender{client: &http.Client{Timeout: timeout}}
}

// NewHTTPSenderWithClient wraps an existing client.
func NewHTTPSenderWithClient(client *http.Client) *HTTPSender {
	return &HTTPSender{client: client}
}

// Send issues one request with a JSON body and returns the response body.
func (s *HTTPSender) Send(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(data)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: snippet}
	}
	return data, nil
}
