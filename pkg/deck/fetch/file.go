package fetch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// File reads images from a local media root. Locators are file:// URLs or
// bare paths; both are resolved inside the root, and paths that escape it
// are rejected.
type File struct {
	root     string
	maxBytes int64
}

// NewFile returns a fetcher confined to root.
func NewFile(root string, maxBytes int64) (*File, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid media root %q: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("invalid media root %q: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("media root %q is not a directory", root)
	}
	return &File{root: abs, maxBytes: maxBytes}, nil
}

// Root returns the absolute media root.
func (f *File) Root() string { return f.root }

// Fetch reads the file.
func (f *File) Fetch(ctx context.Context, locator string) (*Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, fail(locator, err)
	}
	rel, err := f.relative(locator)
	if err != nil {
		return nil, fail(locator, err)
	}

	root, err := os.OpenRoot(f.root)
	if err != nil {
		return nil, fail(locator, err)
	}
	defer root.Close()

	file, err := root.Open(rel)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fail(locator, fmt.Errorf("%w: %v", ErrNotFound, err))
		}
		return nil, fail(locator, err)
	}
	defer file.Close()

	data, err := readLimited(file, f.maxBytes)
	if err != nil {
		return nil, fail(locator, err)
	}
	return &Image{Data: data, Locator: locator}, nil
}

// relative maps a locator to a slash-free path relative to the root.
func (f *File) relative(locator string) (string, error) {
	p := locator
	if strings.HasPrefix(locator, "file:") {
		u, err := url.Parse(locator)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidLocator, err)
		}
		if u.Host != "" && u.Host != "localhost" {
			return "", fmt.Errorf("%w: remote file host %q", ErrInvalidLocator, u.Host)
		}
		p = u.Path
	}
	if p == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidLocator)
	}

	p = filepath.FromSlash(p)
	if filepath.IsAbs(p) {
		rel, err := filepath.Rel(f.root, p)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidLocator, err)
		}
		p = rel
	}
	p = filepath.Clean(p)
	if p == "." || p == ".." || strings.HasPrefix(p, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: path escapes media root", ErrInvalidLocator)
	}
	return p, nil
}
