// internal/kv/kv.go
// Package kv abstracts the host-provided persistent key-value text store the
// client runs against. Each slot holds one UTF-8 encoded collection blob.
// Backends are interchangeable: in-memory, single-file, PostgreSQL, or Redis.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when a slot has never been written
// or has been deleted.
var ErrNotFound = errors.New("slot not found")

// Store is the contract every backend implements. A successful Set or
// Delete is durable before the call returns; there is no write-behind.
// Delete of an absent slot is a no-op.
type Store interface {
	Get(ctx context.Context, slot string) (string, error)
	Set(ctx context.Context, slot, value string) error
	Delete(ctx context.Context, slot string) error
}
