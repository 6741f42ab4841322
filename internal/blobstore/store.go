// Package blobstore abstracts opaque byte storage keyed by logical path, so
// that the event log, manifest service, and runner can write artefact
// payloads without depending on a specific storage backend. Two concrete
// backends are provided: an in-memory backend for tests, and a local
// filesystem backend for real runs.
package blobstore

import (
	"context"
	"errors"
)

// ErrNotExist is returned by ReadToBytes/ReadRange when the path has no blob.
var ErrNotExist = errors.New("blobstore: path does not exist")

// Store is the capability set every blob store backend must provide. It is
// intentionally small and storage-agnostic: callers address blobs purely by
// logical path, the same layout used by the local filesystem backend
// (<movie>/blobs/<first-two-hex>/<hash>[.ext]).
//
// Implementations must be safe for concurrent use. WriteBytes must be atomic
// for a given path: concurrent writers, or a writer racing a reader, must
// never expose a partially written file.
type Store interface {
	// FileExists reports whether path has a blob.
	FileExists(ctx context.Context, path string) (bool, error)

	// ReadToBytes reads the full contents of path. Returns ErrNotExist if
	// the path has no blob.
	ReadToBytes(ctx context.Context, path string) ([]byte, error)

	// ReadRange reads the half-open byte range [start, end) of path. Returns
	// ErrNotExist if the path has no blob.
	ReadRange(ctx context.Context, path string, start, end int64) ([]byte, error)

	// WriteBytes stores data at path, replacing any existing blob. Writers
	// may stage-then-rename internally, but callers observe either the old
	// content or the new content in full, never a partial write.
	WriteBytes(ctx context.Context, path string, data []byte) error

	// List enumerates paths under prefix. There are no directory semantics
	// beyond "starts with prefix"; order is unspecified.
	List(ctx context.Context, prefix string) ([]string, error)
}
