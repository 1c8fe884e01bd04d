// internal/kv/file.go
package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// file implements the Store interface with a single JSON file on disk.
// The whole slot map is loaded at open and rewritten on every mutation,
// which keeps the durable-before-return guarantee without a database.
// This is the closest analog of the local store the client originally
// ran against.
type file struct {
	mu    sync.Mutex
	path  string
	slots map[string]string
}

// NewFile creates a file-backed store at the given path. The file is
// created on first write; a missing file means an empty store.
func NewFile(path string) (Store, error) {
	f := &file{path: path, slots: make(map[string]string)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, &f.slots); err != nil {
			return nil, fmt.Errorf("failed to parse store file: %w", err)
		}
	}
	return f, nil
}

func (f *file) Get(ctx context.Context, slot string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	value, exists := f.slots[slot]
	if !exists {
		return "", ErrNotFound
	}
	return value, nil
}

func (f *file) Set(ctx context.Context, slot, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	previous, existed := f.slots[slot]
	f.slots[slot] = value
	if err := f.flush(); err != nil {
		// Roll the in-memory map back so it keeps matching the disk state.
		if existed {
			f.slots[slot] = previous
		} else {
			delete(f.slots, slot)
		}
		return err
	}
	return nil
}

func (f *file) Delete(ctx context.Context, slot string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	previous, existed := f.slots[slot]
	if !existed {
		return nil
	}
	delete(f.slots, slot)
	if err := f.flush(); err != nil {
		f.slots[slot] = previous
		return err
	}
	return nil
}

// flush writes the slot map to a temp file and renames it over the store
// file, so a crash mid-write never leaves a truncated store behind.
func (f *file) flush() error {
	data, err := json.Marshal(f.slots)
	if err != nil {
		return fmt.Errorf("failed to encode store file: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write store file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	return nil
}
