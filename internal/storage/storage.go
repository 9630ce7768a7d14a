package storage

import (
	"context"
	"time"
)

// ObjectInfo represents metadata for a stored object.
type ObjectInfo struct {
	Bucket string
	Key    string
	Size   int64
}

// ObjectStorage captures the S3-compatible operations the upload endpoints need.
type ObjectStorage interface {
	// PresignPut returns a URL that accepts a single PUT of key until expiry.
	PresignPut(ctx context.Context, key string, expiry time.Duration) (string, error)
	PutObject(ctx context.Context, key string, data []byte, contentType string) (ObjectInfo, error)
	ObjectURL(key string) string
	Bucket() string
}
