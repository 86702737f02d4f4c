package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// Package storage contains blob storage abstractions for document content.
// Keys are opaque strings chosen by the caller; writing an existing key overwrites it.

// ErrNotFound is returned by Get and Delete when no blob exists under the key.
// A zero-length blob is not an error.
var ErrNotFound = errors.New("storage: object not found")

// ErrInvalidConfig is returned by Open and the driver constructors for unusable settings.
var ErrInvalidConfig = errors.New("invalid storage config")

// PutObjectOptions describe a blob being written. Size is -1 when the upload length is unknown.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo is what a driver knows about a stored blob.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is the blob store used for document content.
type Storage interface {
	// Put writes r under key, replacing any previous blob.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get streams the blob stored under key, or returns ErrNotFound.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes key, or returns ErrNotFound when nothing was stored there.
	Delete(ctx context.Context, key string) error
}
