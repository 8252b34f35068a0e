package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Store keeps product images outside the relational records. Paths are
// opaque to callers; PublicURL resolves one to an address a browser can
// fetch.
type Store interface {
	Upload(ctx context.Context, path string, r io.Reader) error
	PublicURL(path string) string
	Remove(ctx context.Context, path string) error
}

// DiskStore writes blobs under Root and serves them from BaseURL/media.
type DiskStore struct {
	Root    string
	BaseURL string
}

func NewDiskStore(root, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &DiskStore{Root: root, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *DiskStore) Upload(ctx context.Context, path string, r io.Reader) error {
	full := filepath.Join(s.Root, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create blob dir: %w", err)
	}

	f, err := os.Create(full)
	if err != nil {
		return fmt.Errorf("create blob: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("write blob: %w", err)
	}
	return nil
}

func (s *DiskStore) PublicURL(path string) string {
	if path == "" {
		return ""
	}
	return s.BaseURL + "/media/" + path
}

func (s *DiskStore) Remove(ctx context.Context, path string) error {
	return os.Remove(filepath.Join(s.Root, filepath.FromSlash(path)))
}
