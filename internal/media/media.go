// Package media stores uploaded product images on local disk.
package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrTooLarge        = errors.New("file too large")
)

var allowedExt = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

type Store struct {
	dir      string
	baseURL  string
	maxBytes int64
}

func NewStore(dir, baseURL string, maxBytes int64) *Store {
	return &Store{dir: dir, baseURL: strings.TrimRight(baseURL, "/"), maxBytes: maxBytes}
}

// Dir is the directory served under /uploads.
func (s *Store) Dir() string { return s.dir }

// MaxBytes is the upload size limit.
func (s *Store) MaxBytes() int64 { return s.maxBytes }

// Image is a stored upload.
type Image struct {
	Name string `json:"name"`
	Path string `json:"path"`
	URL  string `json:"url"`
}

// Save writes r under a fresh uuid name that keeps the original extension.
// At most maxBytes are accepted; anything longer is removed again.
func (s *Store) Save(filename string, r io.Reader) (Image, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExt[ext] {
		return Image{}, fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return Image{}, fmt.Errorf("create upload dir: %w", err)
	}

	name := uuid.NewString() + ext
	path := filepath.Join(s.dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return Image{}, fmt.Errorf("create file: %w", err)
	}

	n, err := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > s.maxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		os.Remove(path)
		return Image{}, err
	}

	ref := "uploads/" + name
	return Image{Name: name, Path: ref, URL: s.baseURL + "/" + ref}, nil
}
