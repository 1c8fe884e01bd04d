// internal/store/store.go
// Package store implements the collection store: typed get/put/delete over
// named collections, each persisted as one slot in the key-value store.
// All mutations are whole-collection read-modify-write; a successful call
// is durable before it returns. A blob that fails to decode is absorbed as
// an empty collection, logged, and counted — never surfaced as a fatal
// error to the caller.
package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cliphaven/cliphaven-go/internal/codec"
	"github.com/cliphaven/cliphaven-go/internal/kv"
	"github.com/cliphaven/cliphaven-go/internal/metrics"
)

// Store wraps a key-value backend with the typed collection operations the
// rest of the service uses. It carries no entity knowledge of its own; the
// consistency engine layers cascade rules on top.
type Store struct {
	kv  kv.Store
	log *slog.Logger
	m   *metrics.Metrics
}

// New creates a collection store over the given backend.
func New(backend kv.Store, log *slog.Logger) *Store {
	return &Store{
		kv:  backend,
		log: log,
		m:   metrics.NewMetrics(),
	}
}

// List reads a collection. A missing slot yields an empty (non-nil) slice.
// A malformed slot also yields an empty slice: the corruption is logged and
// counted, and the caller proceeds as if the collection were absent.
func List[T any](ctx context.Context, s *Store, slot string) ([]T, error) {
	start := time.Now()

	raw, err := s.kv.Get(ctx, slot)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			s.observe("list", slot, "ok", start)
			return []T{}, nil
		}
		s.observe("list", slot, "error", start)
		return nil, err
	}

	items, err := codec.DecodeList[T](raw)
	if err != nil {
		s.absorbMalformed(slot, err)
		s.observe("list", slot, "malformed", start)
		return []T{}, nil
	}

	s.observe("list", slot, "ok", start)
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// Put replaces a collection wholesale and persists it immediately.
func Put[T any](ctx context.Context, s *Store, slot string, items []T) error {
	start := time.Now()

	raw, err := codec.EncodeList(items)
	if err != nil {
		s.observe("put", slot, "error", start)
		return err
	}
	if err := s.kv.Set(ctx, slot, raw); err != nil {
		s.observe("put", slot, "error", start)
		return err
	}
	s.observe("put", slot, "ok", start)
	return nil
}

// Filter rewrites a collection keeping only records the predicate accepts,
// and reports how many records were removed. When nothing matches, the slot
// is left untouched, which makes deletes of missing records no-ops.
func Filter[T any](ctx context.Context, s *Store, slot string, keep func(T) bool) (int, error) {
	items, err := List[T](ctx, s, slot)
	if err != nil {
		return 0, err
	}

	kept := items[:0]
	for _, item := range items {
		if keep(item) {
			kept = append(kept, item)
		}
	}

	removed := len(items) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := Put(ctx, s, slot, kept); err != nil {
		return 0, err
	}
	return removed, nil
}

// Upsert inserts a record or replaces the first record the match predicate
// accepts, then persists the collection.
func Upsert[T any](ctx context.Context, s *Store, slot string, match func(T) bool, item T) error {
	items, err := List[T](ctx, s, slot)
	if err != nil {
		return err
	}

	replaced := false
	for i, existing := range items {
		if match(existing) {
			items[i] = item
			replaced = true
			break
		}
	}
	if !replaced {
		items = append(items, item)
	}
	return Put(ctx, s, slot, items)
}

// GetValue reads a single-record slot (the active identity pointer, one
// ledger entry, the profile-details map). The second return is false when
// the slot is absent or malformed.
func GetValue[T any](ctx context.Context, s *Store, slot string) (T, bool, error) {
	var zero T
	start := time.Now()

	raw, err := s.kv.Get(ctx, slot)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			s.observe("get", slot, "ok", start)
			return zero, false, nil
		}
		s.observe("get", slot, "error", start)
		return zero, false, err
	}

	v, err := codec.Decode[T](raw)
	if err != nil {
		s.absorbMalformed(slot, err)
		s.observe("get", slot, "malformed", start)
		return zero, false, nil
	}

	s.observe("get", slot, "ok", start)
	return v, true, nil
}

// SetValue writes a single-record slot.
func SetValue[T any](ctx context.Context, s *Store, slot string, v T) error {
	start := time.Now()

	raw, err := codec.Encode(v)
	if err != nil {
		s.observe("set", slot, "error", start)
		return err
	}
	if err := s.kv.Set(ctx, slot, raw); err != nil {
		s.observe("set", slot, "error", start)
		return err
	}
	s.observe("set", slot, "ok", start)
	return nil
}

// DeleteSlot removes a slot entirely. Deleting an absent slot is a no-op.
func (s *Store) DeleteSlot(ctx context.Context, slot string) error {
	start := time.Now()

	if err := s.kv.Delete(ctx, slot); err != nil {
		s.observe("delete", slot, "error", start)
		return err
	}
	s.observe("delete", slot, "ok", start)
	return nil
}

// absorbMalformed records a decode failure so an operator can see the data
// loss that the empty-collection fallback would otherwise hide.
func (s *Store) absorbMalformed(slot string, err error) {
	s.log.Error("malformed collection blob absorbed as empty", "slot", slot, "error", err)
	s.m.MalformedRecordTotal.WithLabelValues(slot).Inc()
}

func (s *Store) observe(op, slot, status string, start time.Time) {
	s.m.StoreOperationTotal.WithLabelValues(op, slot, status).Inc()
	s.m.StoreOperationDuration.WithLabelValues(op, slot, status).Observe(time.Since(start).Seconds())
}
