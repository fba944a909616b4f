// Package upload is the multipart file boundary: allow-listed content types,
// a 10MB ceiling and an object store behind an interface.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// MaxFileSize is the per-file ceiling.
const MaxFileSize = 10 << 20

var (
	ErrFileTooLarge   = errors.New("file exceeds size limit")
	ErrTypeNotAllowed = errors.New("file type not allowed")
)

var allowedTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"application/pdf": ".pdf",
}

// ObjectStore persists uploaded blobs under opaque keys.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64) error
	URL(key string) string
}

type Service struct {
	store ObjectStore
}

func New(store ObjectStore) *Service {
	return &Service{store: store}
}

type Result struct {
	Key string
	URL string
}

// Save stores one uploaded file and returns its key and public URL.
func (s *Service) Save(ctx context.Context, contentType string, size int64, r io.Reader) (*Result, error) {
	ext, ok := allowedTypes[contentType]
	if !ok {
		return nil, ErrTypeNotAllowed
	}
	if size > MaxFileSize {
		return nil, ErrFileTooLarge
	}

	key := uuid.NewString() + ext

	err := s.store.Put(ctx, key, io.LimitReader(r, MaxFileSize), size)
	if err != nil {
		return nil, fmt.Errorf("store object: %w", err)
	}

	return &Result{Key: key, URL: s.store.URL(key)}, nil
}
