// Package objectstore wraps the blob store behind a narrow gateway interface.
// The store is treated as eventually-available network storage; presigned
// URLs are its own capability mechanism and carry their own expiry.
package objectstore

import (
	"context"
	"io"
	"time"
)

// Gateway is the contract the rest of the subsystem depends on. A single
// implementation is constructed at process start and injected everywhere.
type Gateway interface {
	// Put streams size bytes from r into the store under path.
	Put(ctx context.Context, path string, r io.Reader, size int64, contentType string) error

	// PresignGet returns a time-limited capability URL for reading path.
	PresignGet(ctx context.Context, path string, ttl time.Duration) (string, error)

	// Remove deletes the object at path. Used only by operational tooling;
	// normal file deletion is a soft delete on the database row.
	Remove(ctx context.Context, path string) error

	// EnsureBucket verifies the configured bucket exists, creating it if
	// necessary.
	EnsureBucket(ctx context.Context) error
}
