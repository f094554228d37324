package fetch

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
)

// DataURI decodes base64 data URIs ("data:image/png;base64,...").
type DataURI struct {
	MaxBytes int64
}

// Fetch decodes the URI payload.
func (d DataURI) Fetch(_ context.Context, locator string) (*Image, error) {
	mimeType, data, err := parseDataURI(locator)
	if err != nil {
		return nil, fail(locator, fmt.Errorf("%w: %v", ErrInvalidLocator, err))
	}
	limit := d.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	if int64(len(data)) > limit {
		return nil, fail(locator, fmt.Errorf("%w (%d bytes)", ErrTooLarge, limit))
	}
	return &Image{Data: data, ContentType: mimeType, Locator: locator}, nil
}

// parseDataURI parses data:[<mediatype>];base64,<data>. Only image media
// types are accepted; which image formats can be embedded is decided later.
func parseDataURI(dataURI string) (string, []byte, error) {
	if dataURI == "" {
		return "", nil, fmt.Errorf("empty data URI")
	}

	if len(dataURI) < 5 || !strings.EqualFold(dataURI[:5], "data:") {
		return "", nil, fmt.Errorf("invalid data URI format")
	}
	rest := dataURI[5:]

	metadata, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("invalid data URI format")
	}
	if payload == "" {
		return "", nil, fmt.Errorf("no image data")
	}

	metadata = strings.ToLower(metadata)
	mimeType, ok := strings.CutSuffix(metadata, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("missing base64 marker")
	}
	mimeType = strings.TrimSpace(mimeType)
	if !strings.HasPrefix(mimeType, "image/") {
		return "", nil, fmt.Errorf("unsupported media type: %q", mimeType)
	}

	// tolerate line-wrapped payloads
	payload = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, payload)

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("invalid base64 data: %w", err)
	}
	return mimeType, data, nil
}
