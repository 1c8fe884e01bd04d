// Package store provides tests for the typed collection operations.
package store

import (
	"context"
	"log/slog"
	"testing"

	"github.com/cliphaven/cliphaven-go/internal/kv"
	"github.com/cliphaven/cliphaven-go/internal/model"
)

func newTestStore() (*Store, kv.Store) {
	backend := kv.NewMemory()
	return New(backend, slog.Default()), backend
}

// TestListAbsentSlot tests that a missing slot reads as an empty collection.
func TestListAbsentSlot(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	items, err := List[model.ContentItem](ctx, s, model.SlotContentItems)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if items == nil {
		t.Fatal("List() returned nil, want empty slice")
	}
	if len(items) != 0 {
		t.Errorf("List() returned %d items, want 0", len(items))
	}
}

// TestListMalformedSlot tests that a corrupt blob is absorbed as an empty
// collection rather than surfaced as an error.
func TestListMalformedSlot(t *testing.T) {
	ctx := context.Background()
	s, backend := newTestStore()

	if err := backend.Set(ctx, model.SlotContentItems, "{corrupt"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	items, err := List[model.ContentItem](ctx, s, model.SlotContentItems)
	if err != nil {
		t.Fatalf("List() error = %v, want absorbed", err)
	}
	if len(items) != 0 {
		t.Errorf("List() returned %d items, want 0", len(items))
	}

	// A write after absorption replaces the corrupt blob.
	if err := Put(ctx, s, model.SlotContentItems, []model.ContentItem{{ID: "v1"}}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	items, err = List[model.ContentItem](ctx, s, model.SlotContentItems)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(items) != 1 || items[0].ID != "v1" {
		t.Errorf("List() = %+v, want single v1", items)
	}
}

// TestFilterNoMatchLeavesSlotUntouched tests that filtering out nothing does
// not rewrite the slot.
func TestFilterNoMatchLeavesSlotUntouched(t *testing.T) {
	ctx := context.Background()
	s, backend := newTestStore()

	if err := Put(ctx, s, model.SlotContentItems, []model.ContentItem{{ID: "v1"}}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	before, err := backend.Get(ctx, model.SlotContentItems)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	removed, err := Filter(ctx, s, model.SlotContentItems, func(item model.ContentItem) bool {
		return item.ID != "no-such-id"
	})
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	if removed != 0 {
		t.Errorf("Filter() removed = %d, want 0", removed)
	}

	after, err := backend.Get(ctx, model.SlotContentItems)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if before != after {
		t.Errorf("slot rewritten on no-op filter: before %q, after %q", before, after)
	}
}

// TestFilterRemoves tests that matching records are removed and counted.
func TestFilterRemoves(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	seed := []model.ContentItem{{ID: "v1"}, {ID: "v2"}, {ID: "v1"}}
	if err := Put(ctx, s, model.SlotHistory, seed); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	removed, err := Filter(ctx, s, model.SlotHistory, func(item model.ContentItem) bool {
		return item.ID != "v1"
	})
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	if removed != 2 {
		t.Errorf("Filter() removed = %d, want 2", removed)
	}

	items, err := List[model.ContentItem](ctx, s, model.SlotHistory)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(items) != 1 || items[0].ID != "v2" {
		t.Errorf("List() = %+v, want single v2", items)
	}
}

// TestUpsert tests insert and replace behavior.
func TestUpsert(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	match := func(i model.Identity) bool { return i.Email == "ann@example.com" }

	if err := Upsert(ctx, s, model.SlotAllIdentities, match, model.Identity{Email: "ann@example.com", Name: "Ann"}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := Upsert(ctx, s, model.SlotAllIdentities, match, model.Identity{Email: "ann@example.com", Name: "Annie"}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	identities, err := List[model.Identity](ctx, s, model.SlotAllIdentities)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(identities) != 1 {
		t.Fatalf("List() returned %d identities, want 1", len(identities))
	}
	if identities[0].Name != "Annie" {
		t.Errorf("Name = %q, want %q", identities[0].Name, "Annie")
	}
}

// TestGetValue tests single-record slots including the malformed fallback.
func TestGetValue(t *testing.T) {
	ctx := context.Background()
	s, backend := newTestStore()

	_, exists, err := GetValue[model.Identity](ctx, s, model.SlotActiveIdentity)
	if err != nil {
		t.Fatalf("GetValue() error = %v", err)
	}
	if exists {
		t.Error("GetValue() exists = true for absent slot, want false")
	}

	if err := SetValue(ctx, s, model.SlotActiveIdentity, model.Identity{Email: "ann@example.com"}); err != nil {
		t.Fatalf("SetValue() error = %v", err)
	}
	got, exists, err := GetValue[model.Identity](ctx, s, model.SlotActiveIdentity)
	if err != nil {
		t.Fatalf("GetValue() error = %v", err)
	}
	if !exists || got.Email != "ann@example.com" {
		t.Errorf("GetValue() = %+v exists=%v, want ann@example.com", got, exists)
	}

	// Corrupt slot reads as absent.
	if err := backend.Set(ctx, model.SlotActiveIdentity, "not json"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	_, exists, err = GetValue[model.Identity](ctx, s, model.SlotActiveIdentity)
	if err != nil {
		t.Fatalf("GetValue() error = %v, want absorbed", err)
	}
	if exists {
		t.Error("GetValue() exists = true for malformed slot, want false")
	}
}
