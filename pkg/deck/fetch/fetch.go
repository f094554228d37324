// Package fetch resolves image locators to bytes.
//
// A locator is whatever a content unit names as its image: an http(s) URL,
// a base64 data URI, an s3://bucket/key object or a path under a configured
// media root. Mux dispatches on the scheme; Cache memoizes any Fetcher.
//
// Fetch failures are never fatal to a presentation. Callers drop the picture
// and keep the slide, so every error here is an *Error carrying the locator.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/benjaminschreck/go-deck/pkg/deck/media"
)

// DefaultMaxBytes caps a single image when no limit is configured.
const DefaultMaxBytes int64 = 10 << 20

var (
	// ErrUnsupportedScheme is returned for locators no fetcher handles.
	ErrUnsupportedScheme = errors.New("unsupported locator scheme")
	// ErrTooLarge is returned when an image exceeds the byte limit.
	ErrTooLarge = errors.New("image exceeds size limit")
	// ErrNotFound is returned when the locator names nothing.
	ErrNotFound = errors.New("image not found")
	// ErrInvalidLocator is returned for malformed locators.
	ErrInvalidLocator = errors.New("invalid locator")
)

// Image is a fetched image.
type Image struct {
	Data []byte
	// ContentType is what the source reported, possibly empty.
	ContentType string
	// Locator is the locator the image was fetched from.
	Locator string
}

// FormatHint returns the best hint for media.Store.Add: the locator when
// its path names a known format, else the reported content type.
func (i *Image) FormatHint() string {
	if _, ok := media.ExtensionFromHint(i.Locator); ok {
		return i.Locator
	}
	return i.ContentType
}

// Fetcher resolves a locator to image bytes.
type Fetcher interface {
	Fetch(ctx context.Context, locator string) (*Image, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, locator string) (*Image, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, locator string) (*Image, error) {
	return f(ctx, locator)
}

// Error describes a failed fetch.
type Error struct {
	Locator string
	Cause   error
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("fetch %s: %v", shorten(e.Locator), e.Cause)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

func fail(locator string, cause error) error {
	return &Error{Locator: locator, Cause: cause}
}

// shorten keeps data URIs out of log lines.
func shorten(locator string) string {
	if strings.HasPrefix(locator, "data:") && len(locator) > 48 {
		return locator[:48] + "..."
	}
	return locator
}

// readLimited reads at most limit bytes and fails with ErrTooLarge beyond.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w (%d bytes)", ErrTooLarge, limit)
	}
	return data, nil
}
