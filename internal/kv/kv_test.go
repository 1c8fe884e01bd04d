// Package kv provides tests for the slot store backends.
package kv

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

// TestMemoryStore tests get/set/delete over the in-memory backend.
func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}

	if err := s.Set(ctx, "content-items", `[{"id":"v1"}]`); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := s.Get(ctx, "content-items")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != `[{"id":"v1"}]` {
		t.Errorf("Get() = %q, want %q", got, `[{"id":"v1"}]`)
	}

	if err := s.Delete(ctx, "content-items"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get(ctx, "content-items"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}

	// Deleting an absent slot is a no-op.
	if err := s.Delete(ctx, "content-items"); err != nil {
		t.Errorf("Delete(absent) error = %v, want nil", err)
	}
}

// TestFileStorePersistence tests that the file backend survives a reopen.
func TestFileStorePersistence(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.json")

	s, err := NewFile(path)
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}
	if err := s.Set(ctx, "history", `[]`); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Set(ctx, "liked", `[{"id":"v2"}]`); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Delete(ctx, "history"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	reopened, err := NewFile(path)
	if err != nil {
		t.Fatalf("NewFile() reopen error = %v", err)
	}
	if _, err := reopened.Get(ctx, "history"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(history) after reopen error = %v, want ErrNotFound", err)
	}
	got, err := reopened.Get(ctx, "liked")
	if err != nil {
		t.Fatalf("Get(liked) after reopen error = %v", err)
	}
	if got != `[{"id":"v2"}]` {
		t.Errorf("Get(liked) = %q, want %q", got, `[{"id":"v2"}]`)
	}
}

// TestFileStoreMissingFile tests that a missing file means an empty store.
func TestFileStoreMissingFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "absent.json")

	s, err := NewFile(path)
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}
	if _, err := s.Get(ctx, "anything"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}
