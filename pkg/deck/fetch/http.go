package fetch

import (
	"context"
	"fmt"
	"net/http"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.Code, http.StatusText(e.Code))
}

// HTTP fetches http and https locators.
type HTTP struct {
	Client    *http.Client
	MaxBytes  int64
	UserAgent string
}

// NewHTTP returns an HTTP fetcher. A nil client uses http.DefaultClient;
// deadlines come from the context.
func NewHTTP(client *http.Client, maxBytes int64) *HTTP {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTP{Client: client, MaxBytes: maxBytes, UserAgent: "go-deck"}
}

// Fetch performs a GET and returns the body.
func (h *HTTP) Fetch(ctx context.Context, locator string) (*Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, fail(locator, fmt.Errorf("%w: %v", ErrInvalidLocator, err))
	}
	req.Header.Set("Accept", "image/*")
	if h.UserAgent != "" {
		req.Header.Set("User-Agent", h.UserAgent)
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, fail(locator, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fail(locator, fmt.Errorf("%w: %w", ErrNotFound, &StatusError{Code: resp.StatusCode}))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fail(locator, &StatusError{Code: resp.StatusCode})
	}
	if resp.ContentLength > 0 && h.MaxBytes > 0 && resp.ContentLength > h.MaxBytes {
		return nil, fail(locator, fmt.Errorf("%w (%d bytes)", ErrTooLarge, h.MaxBytes))
	}

	data, err := readLimited(resp.Body, h.MaxBytes)
	if err != nil {
		return nil, fail(locator, err)
	}
	return &Image{Data: data, ContentType: resp.Header.Get("Content-Type"), Locator: locator}, nil
}
