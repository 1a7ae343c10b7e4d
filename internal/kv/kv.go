// Package kv provides single-slot string storage with pluggable backends.
//
// Supported drivers:
//   - memory (in-process, for development and tests)
//   - file (one file per key under a directory)
//   - redis (shared instance)
//
// SQL-backed slots live in the database package and satisfy the same interface.
package kv

import (
	"context"
	"errors"
)

// Store reads and writes whole values under string keys. Set always replaces
// the previous value in full.
type Store interface {
	// Get returns the value at key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set overwrites the value at key.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("kv: key not found")

// IsNotFound reports whether err means the key does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
