// Package recordstore abstracts the key-value record backend seengo
// persists into.
//
// A record is a small named byte payload (the index, one chunk, a
// snapshot). Backends provide per-record get/put/delete plus a prefix
// listing; there are no multi-record transactions, which is why the
// store layers above commit through a single index write.
package recordstore

import (
	"context"
	"os"
)

// ErrNotFound is returned when a record does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Store is an abstraction for accessing named data records.
//
// Put must be atomic per record: a reader never observes a partially
// written payload. Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the full payload of the named record.
	Get(ctx context.Context, name string) ([]byte, error)

	// Put writes the record atomically, replacing any previous payload.
	Put(ctx context.Context, name string, data []byte) error

	// Delete removes the record. Deleting a missing record is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the names of all records with the given prefix.
	// Order is unspecified.
	List(ctx context.Context, prefix string) ([]string, error)
}
