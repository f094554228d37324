package opc

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
)

// Reader handles reading and checking a serialized package
type Reader struct {
	reader *zip.Reader
	Parts  map[string]*zip.File
	names  []string
}

// NewReader creates a new package reader
func NewReader(r io.ReaderAt, size int64) (*Reader, error) {
	zipReader, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read zip file: %w", err)
	}

	pr := &Reader{
		reader: zipReader,
		Parts:  make(map[string]*zip.File),
	}

	// Index all parts by name, keeping archive order
	for _, file := range zipReader.File {
		pr.Parts[file.Name] = file
		pr.names = append(pr.names, file.Name)
	}

	if _, ok := pr.Parts[ContentTypesPartName]; !ok {
		return nil, fmt.Errorf("not a valid package: missing %s", ContentTypesPartName)
	}

	return pr, nil
}

// ReaderFromFile creates a Reader from a file path
func ReaderFromFile(path string) (*Reader, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return NewReader(bytes.NewReader(content), int64(len(content)))
}

// Part retrieves the content of a specific part
func (r *Reader) Part(partName string) ([]byte, error) {
	file, ok := r.Parts[normalizePartName(partName)]
	if !ok {
		return nil, fmt.Errorf("part %s not found", partName)
	}

	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open part %s: %w", partName, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read part %s: %w", partName, err)
	}

	return content, nil
}

// ListParts returns every entry name in archive order
func (r *Reader) ListParts() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Relationships retrieves the relationships owned by a part. A missing
// relationships part is not an error.
func (r *Reader) Relationships(partName string) ([]Relationship, error) {
	relPath := RelsPartName(partName)
	if _, ok := r.Parts[relPath]; !ok {
		return []Relationship{}, nil
	}
	content, err := r.Part(relPath)
	if err != nil {
		return nil, err
	}
	return ParseRelationships(content)
}

// ContentTypes parses the package manifest.
func (r *Reader) ContentTypes() (*ContentTypes, error) {
	content, err := r.Part(ContentTypesPartName)
	if err != nil {
		return nil, err
	}
	return ParseContentTypes(content)
}

// Validate checks the same invariants as Package.Validate against the
// archive as written.
func (r *Reader) Validate() error {
	types, err := r.ContentTypes()
	if err != nil {
		return err
	}

	scopes := make(map[string][]Relationship)
	var names []string
	for _, name := range r.names {
		if name == ContentTypesPartName {
			continue
		}
		if owner, ok := OwnerOfRelsPart(name); ok {
			rels, err := r.Relationships(owner)
			if err != nil {
				return fmt.Errorf("part %s: %w", name, err)
			}
			scopes[owner] = rels
		}
		names = append(names, name)
	}

	exists := func(name string) bool {
		_, ok := r.Parts[name]
		return ok
	}
	return check(names, nil, types, scopes, exists).err()
}
