// Package imagestore persists uploaded product images and returns the
// public location of each stored file.
package imagestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/listings/internal/server/config"
)

// Store saves one image under name and returns its public location.
type Store interface {
	Save(ctx context.Context, name, contentType string, r io.Reader, size int64) (string, error)
}

var ErrInvalidName = errors.New("invalid image name")

var allowedTypes = map[string]struct{}{
	"image/png":  {},
	"image/jpg":  {},
	"image/jpeg": {},
}

// AllowedImageType reports whether the client-declared content type is
// accepted for upload.
func AllowedImageType(contentType string) bool {
	_, ok := allowedTypes[strings.ToLower(strings.TrimSpace(contentType))]
	return ok
}

// cleanName strips any directory part from a client-supplied file name.
func cleanName(name string) (string, error) {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == ".." || base == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return base, nil
}

// New builds the store selected by cfg.ImageStorage.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.ImageStorage {
	case config.ImageStorageS3:
		return NewS3Store(ctx, cfg)
	case config.ImageStorageLocal:
		return NewLocalStore(cfg.ImagesDir, cfg.PublicBaseURL)
	default:
		return nil, fmt.Errorf("unknown image storage %q", cfg.ImageStorage)
	}
}
