package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("storage: key not found")

// Storage is a durable string key-value store, the client-side equivalent of
// browser local storage.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	Remove(ctx context.Context, keys ...string) error
}
