package storage

import (
	"context"
	"io"
	"time"
)

// Storage defines read access to object storage. The service only pulls
// assets such as message templates, it never writes.
type Storage interface {
	io.Closer

	// GetObject retrieves the object's contents.
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	// StatObject returns object metadata without reading its contents.
	StatObject(ctx context.Context, bucket, key string) (ObjectInfo, error)
}

// ObjectInfo describes object metadata.
type ObjectInfo struct {
	// Bucket is the bucket name.
	Bucket string
	// Key is the object key.
	Key string
	// Size is the object size in bytes.
	Size int64
	// ETag is the object ETag when provided.
	ETag string
	// ContentType is the object MIME type.
	ContentType string
	// UpdatedAt is the last modified time.
	UpdatedAt time.Time
}
