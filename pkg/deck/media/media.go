// Package media holds the images embedded in one generated presentation.
//
// A Store hands out archive names (ppt/media/image1.png, image2.jpeg, ...)
// from a counter shared by the whole presentation, so two slides embedding
// the same picture still get distinct entries.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF for Sniff
	_ "image/jpeg" // register JPEG for Sniff
	_ "image/png"  // register PNG for Sniff
	"mime"
	"net/url"
	"path"
	"strings"

	_ "golang.org/x/image/bmp"  // register BMP for Sniff
	_ "golang.org/x/image/tiff" // register TIFF for Sniff
	_ "golang.org/x/image/webp" // detected so it can be rejected
)

// Dir is the archive directory media parts live in.
const Dir = "ppt/media"

// DefaultExtension is used when neither the hint nor the bytes identify the
// format.
const DefaultExtension = "jpeg"

var (
	// ErrEmpty is returned for zero-length image data.
	ErrEmpty = errors.New("empty image data")
	// ErrUnsupportedFormat is returned for images office viewers cannot embed.
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

var contentTypes = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
}

// ContentTypeFor returns the MIME type of an archive extension.
func ContentTypeFor(ext string) (string, bool) {
	ct, ok := contentTypes[ext]
	return ct, ok
}

// Ref is one stored image.
type Ref struct {
	Index       int
	Ext         string
	ContentType string
	Data        []byte
	PartName    string
}

// FileName returns the base name of the media part, e.g. "image1.png".
func (r *Ref) FileName() string {
	return path.Base(r.PartName)
}

// Store allocates media parts for one presentation. It is not safe for
// concurrent use.
type Store struct {
	refs []*Ref
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Add registers already-fetched image bytes. The extension comes from hint
// when it names a known format, else from the bytes, else DefaultExtension.
func (s *Store) Add(data []byte, hint string) (*Ref, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}

	ext, ok := ExtensionFromHint(hint)
	if !ok {
		sniffed, err := Sniff(data)
		switch {
		case errors.Is(err, ErrUnsupportedFormat):
			return nil, err
		case err == nil:
			ext = sniffed
		default:
			ext = DefaultExtension
		}
	}

	index := len(s.refs) + 1
	ref := &Ref{
		Index:       index,
		Ext:         ext,
		ContentType: contentTypes[ext],
		Data:        data,
		PartName:    fmt.Sprintf("%s/image%d.%s", Dir, index, ext),
	}
	s.refs = append(s.refs, ref)
	return ref, nil
}

// Refs returns every stored image in allocation order.
func (s *Store) Refs() []*Ref {
	out := make([]*Ref, len(s.refs))
	copy(out, s.refs)
	return out
}

// Len returns the number of stored images.
func (s *Store) Len() int { return len(s.refs) }

var suffixes = map[string]string{
	".png":  "png",
	".gif":  "gif",
	".jpg":  "jpeg",
	".jpeg": "jpeg",
	".jpe":  "jpeg",
	".jfif": "jpeg",
	".bmp":  "bmp",
	".tif":  "tiff",
	".tiff": "tiff",
}

// ExtensionFromHint maps a locator or MIME type to an archive extension.
// Accepted hints are URLs or paths ("https://x/tokyo.png?w=800"), data URIs
// ("data:image/png;base64,...") and MIME types ("image/gif").
func ExtensionFromHint(hint string) (string, bool) {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return "", false
	}

	if len(hint) >= 5 && strings.EqualFold(hint[:5], "data:") {
		mediaType, _, _ := strings.Cut(hint[5:], ",")
		mediaType, _, _ = strings.Cut(mediaType, ";")
		return extensionFromMIME(mediaType)
	}
	if strings.HasPrefix(strings.ToLower(hint), "image/") {
		return extensionFromMIME(hint)
	}

	p := hint
	if u, err := url.Parse(hint); err == nil && u.Path != "" {
		p = u.Path
	}
	ext, ok := suffixes[strings.ToLower(path.Ext(p))]
	return ext, ok
}

func extensionFromMIME(value string) (string, bool) {
	mediaType, _, err := mime.ParseMediaType(value)
	if err != nil {
		return "", false
	}
	switch mediaType {
	case "image/png":
		return "png", true
	case "image/gif":
		return "gif", true
	case "image/jpeg", "image/jpg", "image/pjpeg":
		return "jpeg", true
	case "image/bmp", "image/x-ms-bmp":
		return "bmp", true
	case "image/tiff":
		return "tiff", true
	}
	return "", false
}

// Sniff identifies the image format from its header. Formats that decode
// but cannot be embedded return ErrUnsupportedFormat.
func Sniff(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("unrecognized image data: %w", err)
	}
	if _, ok := contentTypes[format]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	return format, nil
}
