// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var (
	pngHeader  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	jpegHeader = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00")
	webpHeader = []byte("RIFF\x24\x00\x00\x00WEBPVP8 ")
)

func TestSaveImage(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	tests := []struct {
		name    string
		data    []byte
		wantExt string
		wantErr error
	}{
		{"png", pngHeader, ".png", nil},
		{"jpeg", jpegHeader, ".jpg", nil},
		{"webp", webpHeader, ".webp", nil},
		{"plain text", []byte("hello, not an image"), "", ErrUnsupportedType},
		{"html disguised", []byte("<html><body>hi</body></html>"), "", ErrUnsupportedType},
		{"empty", nil, "", ErrEmpty},
		{"too large", append(append([]byte{}, pngHeader...), make([]byte, MaxUploadSize)...), "", ErrTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url, err := store.SaveImage("payment-proofs", "payment-proof-7", bytes.NewReader(tt.data))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("SaveImage() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}

			if !strings.HasPrefix(url, "/uploads/payment-proofs/payment-proof-7-") || !strings.HasSuffix(url, tt.wantExt) {
				t.Errorf("SaveImage() url = %q", url)
			}

			stored, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(url, URLPrefix)))
			if err != nil {
				t.Fatalf("stored file missing: %v", err)
			}
			if !bytes.Equal(stored, tt.data) {
				t.Error("stored file content differs from upload")
			}
		})
	}
}

func TestSaveImageUniqueNames(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	first, err := store.SaveImage("candidates", "candidate", bytes.NewReader(pngHeader))
	if err != nil {
		t.Fatal(err)
	}
	second, err := store.SaveImage("candidates", "candidate", bytes.NewReader(pngHeader))
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Errorf("two uploads share a url: %s", first)
	}
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	url, err := store.SaveImage("payment-proofs", "payment-proof-1", bytes.NewReader(pngHeader))
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Remove(url); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, strings.TrimPrefix(url, URLPrefix))); !os.IsNotExist(err) {
		t.Errorf("file still present after Remove(): %v", err)
	}

	// Already gone
	if err := store.Remove(url); err != nil {
		t.Errorf("Remove() of a missing file = %v, want nil", err)
	}

	outside := filepath.Join(filepath.Dir(dir), filepath.Base(dir)+"-keep.txt")
	if err := os.WriteFile(outside, []byte("keep"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Remove(outside) })

	for _, bad := range []string{"", "/elsewhere/a.png", URLPrefix, URLPrefix + "../" + filepath.Base(outside)} {
		store.Remove(bad)
	}
	if _, err := os.Stat(outside); err != nil {
		t.Errorf("Remove() reached outside the upload dir: %v", err)
	}
}
