// Package storage uploads user media to a public object store.
package storage

import (
	"context"
	"io"
)

// BlobStore is the minimal object store surface the media service needs.
type BlobStore interface {
	// EnsureBucket creates the bucket when it does not exist yet.
	EnsureBucket(ctx context.Context, bucket string, public bool) error
	// Put stores the object, replacing any existing one, and returns its public URL.
	Put(ctx context.Context, bucket, path string, r io.Reader, contentType string) (string, error)
	Remove(ctx context.Context, bucket string, paths []string) error
}

const cacheControl = "3600"
