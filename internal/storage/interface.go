package storage

import (
	"context"
	"io"
)

// DocumentStorage is the backend for loan application documents.
// Supports local filesystem for single-node deployments; the interface
// leaves room for a cloud blob backend later.
type DocumentStorage interface {
	// Save writes the document body under key and returns the public URL
	// the API should hand back to clients.
	Save(ctx context.Context, key string, contentType string, body io.Reader) (string, error)

	// Open returns a reader over the stored document.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists reports whether a document is present and its size in bytes.
	Exists(ctx context.Context, key string) (bool, int64, error)

	// Delete removes the document from storage.
	Delete(ctx context.Context, key string) error
}
