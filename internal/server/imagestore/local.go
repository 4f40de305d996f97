package imagestore

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// PublicPath is the URL prefix under which LocalStore files are served.
const PublicPath = "/images"

// LocalStore writes images into a directory on disk.
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore creates dir if needed.
func NewLocalStore(dir, publicBaseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create images dir: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(publicBaseURL, "/")}, nil
}

// Dir is the directory images are written to.
func (s *LocalStore) Dir() string {
	return s.dir
}

// Save writes r to Dir under the base name of name and returns its public URL.
func (s *LocalStore) Save(ctx context.Context, name, _ string, r io.Reader, _ int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	base, err := cleanName(name)
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, base)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", base, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write %s: %w", base, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", base, err)
	}

	return s.baseURL + PublicPath + "/" + url.PathEscape(base), nil
}
