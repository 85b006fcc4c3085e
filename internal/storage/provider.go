// Package storage provides the local key-value stores Inkwell persists to.
package storage

import (
	"context"
	"log/slog"
)

// AnyKey is reported by a watcher that cannot tell which key changed.
const AnyKey = ""

// Provider is a flat key-value store. Every Set replaces the whole value of
// its key in a single write.
type Provider interface {
	// Get returns the value stored under key. A missing key yields an error
	// matching fs.ErrNotExist.
	Get(key string) ([]byte, error)
	// Set atomically replaces the value stored under key.
	Set(key string, value []byte) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(key string) error
}

// ChangeFunc receives the key touched by a write. key is AnyKey when the
// backend cannot attribute the write to a single key.
type ChangeFunc func(key string)

// Watcher is implemented by providers whose backing files can be observed
// for writes made by other processes. Watch blocks until ctx is cancelled.
type Watcher interface {
	Watch(ctx context.Context, logger *slog.Logger, cb ChangeFunc) error
}
