package service

import (
	"context"
	"io"
)

// Uploader stores a file under folder/publicID and returns a URL clients can
// download it from.
type Uploader interface {
	Upload(ctx context.Context, file io.Reader, folder string, publicID string) (string, error)
	Delete(ctx context.Context, publicID string) error
}

// ImageVariants derives transformed URLs from an uploaded original.
type ImageVariants interface {
	ThumbnailURL(publicID string) (string, error)
}
