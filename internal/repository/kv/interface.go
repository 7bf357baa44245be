// File: internal/repository/kv/interface.go
package kv

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Get when no value is stored under the key.
var ErrKeyNotFound = errors.New("key not found")

// Store is a minimal string key-value store. The app persists whole JSON
// snapshots under a handful of well-known keys, so this surface stays small.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
