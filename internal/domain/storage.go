package domain

import (
	"context"
	"errors"
)

// ErrUnsupportedImage is returned for uploads that are not an accepted image type.
var ErrUnsupportedImage = errors.New("unsupported image type")

// Image is an uploaded image file held in memory.
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

// StoredImage is where an uploaded image ended up.
type StoredImage struct {
	URL string
	Key string
}

// ImageStore persists event images in an external object store.
type ImageStore interface {
	Upload(ctx context.Context, img *Image) (*StoredImage, error)
	Delete(ctx context.Context, key string) error
}
