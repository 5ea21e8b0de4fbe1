// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package storage

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MaxUploadSize caps every stored image
const MaxUploadSize = 2 << 20

// URLPrefix is where stored files are served from
const URLPrefix = "/uploads/"

var (
	ErrTooLarge        = errors.New("file exceeds 2MB")
	ErrUnsupportedType = errors.New("only JPEG, PNG and WebP images are allowed")
	ErrEmpty           = errors.New("file is empty")
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Store writes uploaded images under a local directory
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir is the root served under URLPrefix
func (s *Store) Dir() string {
	return s.dir
}

// SaveImage validates r by content sniffing and stores it as
// <folder>/<prefix>-<uuid><ext>. Returns the public URL.
func (s *Store) SaveImage(folder, prefix string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) == 0 {
		return "", ErrEmpty
	}
	if len(data) > MaxUploadSize {
		return "", ErrTooLarge
	}

	ext, ok := imageExtensions[http.DetectContentType(data)]
	if !ok {
		return "", ErrUnsupportedType
	}

	if err := os.MkdirAll(filepath.Join(s.dir, folder), 0755); err != nil {
		return "", fmt.Errorf("failed to create upload folder: %w", err)
	}

	name := prefix + "-" + uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(s.dir, folder, name), data, 0644); err != nil {
		return "", fmt.Errorf("failed to save upload: %w", err)
	}

	return URLPrefix + path.Join(folder, name), nil
}

// Remove deletes a file previously returned by SaveImage. A missing file is
// not an error.
func (s *Store) Remove(url string) error {
	rel, ok := strings.CutPrefix(url, URLPrefix)
	if !ok {
		return fmt.Errorf("not a stored upload: %q", url)
	}
	rel = path.Clean("/" + rel)[1:]
	if rel == "" {
		return fmt.Errorf("not a stored upload: %q", url)
	}

	if err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(rel))); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove upload: %w", err)
	}
	return nil
}
