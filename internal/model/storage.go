package model

import (
	"context"
	"io"
)

// Object describes a stored blob.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// Storage keeps binary objects such as profile pictures.
type Storage interface {
	Upload(ctx context.Context, key, contentType string, reader io.Reader, size int64) error
	Download(ctx context.Context, key string) (Object, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
