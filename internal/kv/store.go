// Package kv provides the durable string key/value store backing cart
// snapshots and session state. Backends are interchangeable; callers that
// need best-effort semantics are expected to swallow errors themselves.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound indicates the key has no stored value.
var ErrNotFound = errors.New("kv: key not found")

type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}
