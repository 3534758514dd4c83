package storage

import (
	"context"
	"io"
)

// Storage uploads images to a public object store.
type Storage interface {
	// Upload stores the object under bucket/key and returns its public URL.
	Upload(ctx context.Context, input *UploadInput) (*UploadResult, error)

	// Delete removes an object.
	Delete(ctx context.Context, bucket, key string) error

	// PublicURL returns the URL an uploaded object is served from.
	PublicURL(bucket, key string) string
}

// UploadInput holds the parameters for uploading a file.
type UploadInput struct {
	Bucket      string
	Key         string
	ContentType string
	Size        int64
	Data        io.Reader
}

// UploadResult holds the result of a successful upload.
type UploadResult struct {
	Bucket string
	Key    string
	URL    string
}
