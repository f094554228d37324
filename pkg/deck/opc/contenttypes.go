package opc

import (
	"encoding/xml"
	"errors"
	"fmt"
	"path"
	"strings"
)

const (
	// ContentTypesPartName is the archive entry holding the manifest.
	ContentTypesPartName = "[Content_Types].xml"

	// XMLHeader prefixes every XML part. Office viewers expect standalone="yes".
	XMLHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

	contentTypesNamespace = "http://schemas.openxmlformats.org/package/2006/content-types"
)

// Content types known to the package layer.
const (
	ContentTypeRelationships      = "application/vnd.openxmlformats-package.relationships+xml"
	ContentTypeXML                = "application/xml"
	ContentTypeCoreProperties     = "application/vnd.openxmlformats-package.core-properties+xml"
	ContentTypeExtendedProperties = "application/vnd.openxmlformats-officedocument.extended-properties+xml"
	ContentTypeJPEG               = "image/jpeg"
	ContentTypePNG                = "image/png"
	ContentTypeGIF                = "image/gif"
)

// Default maps a file extension to a content type package-wide.
type Default struct {
	Extension   string `xml:"Extension,attr"`
	ContentType string `xml:"ContentType,attr"`
}

// Override maps a single part to a content type.
type Override struct {
	PartName    string `xml:"PartName,attr"`
	ContentType string `xml:"ContentType,attr"`
}

// Types is the XML form of "[Content_Types].xml".
type Types struct {
	XMLName   xml.Name   `xml:"Types"`
	Namespace string     `xml:"xmlns,attr"`
	Defaults  []Default  `xml:"Default"`
	Overrides []Override `xml:"Override"`
}

// ContentTypes is the content-type registry of one package. Defaults and
// overrides keep their registration order.
type ContentTypes struct {
	defaults  []Default
	overrides []Override
	byExt     map[string]string
	byPart    map[string]string
}

// NewContentTypes returns a registry with the defaults every generated
// package emits already registered.
func NewContentTypes() *ContentTypes {
	ct := &ContentTypes{
		byExt:  make(map[string]string),
		byPart: make(map[string]string),
	}
	for _, d := range []Default{
		{Extension: "rels", ContentType: ContentTypeRelationships},
		{Extension: "xml", ContentType: ContentTypeXML},
		{Extension: "jpeg", ContentType: ContentTypeJPEG},
		{Extension: "png", ContentType: ContentTypePNG},
		{Extension: "gif", ContentType: ContentTypeGIF},
	} {
		// cannot conflict on a fresh registry
		_ = ct.RegisterDefault(d.Extension, d.ContentType)
	}
	return ct
}

func normalizeExtension(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

func normalizePartName(name string) string {
	return strings.TrimPrefix(name, "/")
}

// RegisterDefault registers mime for every part with the given extension.
// Registering the same pair twice is a no-op; a different mime for a known
// extension is a *ConflictError.
func (c *ContentTypes) RegisterDefault(ext, mime string) error {
	ext = normalizeExtension(ext)
	if ext == "" {
		return errors.New("content type default requires an extension")
	}
	if mime == "" {
		return fmt.Errorf("content type default for %q requires a content type", ext)
	}
	if existing, ok := c.byExt[ext]; ok {
		if existing == mime {
			return nil
		}
		return &ConflictError{Kind: "extension", Key: ext, Existing: existing, Requested: mime}
	}
	c.byExt[ext] = mime
	c.defaults = append(c.defaults, Default{Extension: ext, ContentType: mime})
	return nil
}

// RegisterOverride registers mime for one part whose type cannot be derived
// from its extension.
func (c *ContentTypes) RegisterOverride(partName, mime string) error {
	partName = normalizePartName(partName)
	if partName == "" {
		return errors.New("content type override requires a part name")
	}
	if mime == "" {
		return fmt.Errorf("content type override for %q requires a content type", partName)
	}
	if existing, ok := c.byPart[partName]; ok {
		if existing == mime {
			return nil
		}
		return &ConflictError{Kind: "part", Key: partName, Existing: existing, Requested: mime}
	}
	c.byPart[partName] = mime
	c.overrides = append(c.overrides, Override{PartName: partName, ContentType: mime})
	return nil
}

// HasDefault reports whether ext has a registered default.
func (c *ContentTypes) HasDefault(ext string) bool {
	_, ok := c.byExt[normalizeExtension(ext)]
	return ok
}

// Resolve returns the content type of a part: its override if any, else the
// default for its extension.
func (c *ContentTypes) Resolve(partName string) (string, bool) {
	partName = normalizePartName(partName)
	if mime, ok := c.byPart[partName]; ok {
		return mime, true
	}
	ext := normalizeExtension(path.Ext(partName))
	if ext == "" {
		return "", false
	}
	mime, ok := c.byExt[ext]
	return mime, ok
}

// Manifest returns the defaults followed by the overrides, in registration
// order. Override part names carry the leading slash the format requires.
func (c *ContentTypes) Manifest() Types {
	types := Types{
		Namespace: contentTypesNamespace,
		Defaults:  make([]Default, len(c.defaults)),
		Overrides: make([]Override, len(c.overrides)),
	}
	copy(types.Defaults, c.defaults)
	for i, o := range c.overrides {
		types.Overrides[i] = Override{PartName: "/" + o.PartName, ContentType: o.ContentType}
	}
	return types
}

// Marshal renders the manifest as the content of "[Content_Types].xml".
func (c *ContentTypes) Marshal() ([]byte, error) {
	types := c.Manifest()
	out, err := xml.Marshal(&types)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal content types: %w", err)
	}
	return append([]byte(XMLHeader), out...), nil
}

// ParseContentTypes rebuilds a registry from manifest XML.
func ParseContentTypes(data []byte) (*ContentTypes, error) {
	var types Types
	if err := xml.Unmarshal(data, &types); err != nil {
		return nil, fmt.Errorf("failed to parse content types: %w", err)
	}
	ct := &ContentTypes{
		byExt:  make(map[string]string),
		byPart: make(map[string]string),
	}
	for _, d := range types.Defaults {
		if err := ct.RegisterDefault(d.Extension, d.ContentType); err != nil {
			return nil, err
		}
	}
	for _, o := range types.Overrides {
		if err := ct.RegisterOverride(o.PartName, o.ContentType); err != nil {
			return nil, err
		}
	}
	return ct, nil
}
