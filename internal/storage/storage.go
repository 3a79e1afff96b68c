// Package storage provides durable blob storage for service state.
// It defines the Storage interface (port) and implementations for local
// disk and S3.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound is returned by Load when no object exists for the key.
var ErrObjectNotFound = errors.New("storage: object not found")

// Storage defines the interface for keyed blob storage.
type Storage interface {
	// Save writes data under key, replacing any previous object.
	Save(ctx context.Context, key string, data io.Reader) error

	// Load returns a reader for the object stored under key.
	// The caller is responsible for closing the returned ReadCloser.
	// Returns ErrObjectNotFound if the key does not exist.
	Load(ctx context.Context, key string) (io.ReadCloser, error)
}
