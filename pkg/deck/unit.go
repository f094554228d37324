package deck

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/benjaminschreck/go-deck/pkg/deck/pml"
)

// ContentUnit is the content of one slide.
type ContentUnit struct {
	Title     string   `json:"title"`
	BodyLines []string `json:"bodyLines,omitempty"`
	// ImageReference is an image locator, empty for a text-only slide.
	ImageReference string `json:"imageReference,omitempty"`
}

// Options tune one Generate call. Zero values fall back to the engine's
// configuration.
type Options struct {
	Style    string
	FileName string
	// Cover and Closing add a first and a last slide around the units.
	Cover   *ContentUnit
	Closing *ContentUnit
}

// Request is the JSON envelope accepted by DecodeUnits and the HTTP API.
type Request struct {
	Units    []ContentUnit `json:"units"`
	Style    string        `json:"style,omitempty"`
	FileName string        `json:"fileName,omitempty"`
	Cover    *ContentUnit  `json:"cover,omitempty"`
	Closing  *ContentUnit  `json:"closing,omitempty"`
}

// Options returns the request's generation options.
func (r *Request) Options() Options {
	return Options{
		Style:    r.Style,
		FileName: r.FileName,
		Cover:    r.Cover,
		Closing:  r.Closing,
	}
}

// maxFileNameLength bounds the attachment name.
const maxFileNameLength = 128

// DecodeUnits reads either a bare JSON array of content units or a Request
// object. Malformed input is reported as a *ValidationError.
func DecodeUnits(r io.Reader) (*Request, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read units: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, &ValidationError{Issues: []ValidationIssue{{Field: "body", Message: "empty input"}}}
	}

	var req Request
	switch data[0] {
	case '[':
		err = decodeStrict(data, &req.Units)
	case '{':
		err = decodeStrict(data, &req)
		// {} and {"units":null} name no units; {"units":[]} does
		if err == nil && req.Units == nil {
			return nil, &ValidationError{Issues: []ValidationIssue{{Field: "units", Message: "missing units"}}}
		}
	default:
		return nil, &ValidationError{Issues: []ValidationIssue{{Field: "body", Message: shapeMessage}}}
	}
	if err != nil {
		return nil, decodeError(err)
	}
	return &req, nil
}

const shapeMessage = "expected a JSON array of units or an object with a units field"

// decodeStrict rejects unknown fields and trailing values.
func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("unexpected data after the top-level value")
	}
	return nil
}

func decodeError(err error) error {
	if name, ok := strings.CutPrefix(err.Error(), "json: unknown field "); ok {
		return &ValidationError{Issues: []ValidationIssue{{
			Field:   "body",
			Message: fmt.Sprintf("%s (unknown field %s)", shapeMessage, name),
		}}}
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return &ValidationError{Issues: []ValidationIssue{{
			Field:   field,
			Message: fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value),
		}}}
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return &ValidationError{Issues: []ValidationIssue{{
			Field:   "body",
			Message: fmt.Sprintf("invalid JSON at offset %d: %v", syntaxErr.Offset, syntaxErr),
		}}}
	}
	return &ValidationError{Issues: []ValidationIssue{{Field: "body", Message: err.Error()}}}
}

// validate checks everything that would make the request unrenderable.
func validate(units []ContentUnit, opts Options, maxUnits int) error {
	verr := &ValidationError{}
	if maxUnits > 0 && len(units) > maxUnits {
		verr.add("units", "%d units exceed the limit of %d", len(units), maxUnits)
	}
	if opts.Style != "" {
		if _, ok := pml.StyleByName(opts.Style); !ok {
			verr.add("style", "unknown style %q (available: %v)", opts.Style, pml.StyleNames())
		}
	}
	if opts.FileName != "" {
		if msg := checkFileName(opts.FileName); msg != "" {
			verr.add("fileName", "%s", msg)
		}
	}
	return verr.err()
}

// checkFileName returns why name cannot be an attachment name, or "".
func checkFileName(name string) string {
	base := strings.TrimSuffix(name, ".pptx")
	switch {
	case strings.TrimSpace(base) == "":
		return "file name is empty"
	case utf8.RuneCountInString(base) > maxFileNameLength:
		return fmt.Sprintf("file name longer than %d characters", maxFileNameLength)
	case !utf8.ValidString(base):
		return "file name is not valid UTF-8"
	case strings.ContainsAny(base, `/\"`):
		return `file name contains one of / \ "`
	}
	for _, r := range base {
		if r < 0x20 || r == 0x7f {
			return "file name contains control characters"
		}
	}
	return ""
}

// attachmentName returns name with the .pptx extension.
func attachmentName(name string) string {
	return strings.TrimSuffix(name, ".pptx") + ".pptx"
}

// normalizeUnit cleans a unit for XML output. Titles are trimmed and
// single-line; body lines containing line breaks are split.
func normalizeUnit(u ContentUnit) ContentUnit {
	out := ContentUnit{
		Title:          strings.Join(strings.Fields(cleanText(u.Title)), " "),
		ImageReference: strings.TrimSpace(u.ImageReference),
	}
	for _, line := range u.BodyLines {
		line = strings.ReplaceAll(cleanText(line), "\r\n", "\n")
		line = strings.ReplaceAll(line, "\r", "\n")
		for _, part := range strings.Split(line, "\n") {
			out.BodyLines = append(out.BodyLines, strings.TrimRightFunc(part, isSpace))
		}
	}
	return out
}

// cleanText makes s valid XML 1.0 character data in NFC.
func cleanText(s string) string {
	s = strings.ToValidUTF8(s, "�")
	s = strings.Map(func(r rune) rune {
		if !isXMLChar(r) {
			return -1
		}
		return r
	}, s)
	return norm.NFC.String(s)
}

func isXMLChar(r rune) bool {
	switch {
	case r == '\t' || r == '\n' || r == '\r':
		return true
	case r < 0x20:
		return false
	case r >= 0xD800 && r <= 0xDFFF:
		return false
	case r == 0xFFFE || r == 0xFFFF:
		return false
	}
	return r <= utf8.MaxRune
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t'
}
