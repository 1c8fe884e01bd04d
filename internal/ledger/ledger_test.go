// Package ledger provides tests for the promotional credit counters.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/cliphaven/cliphaven-go/internal/kv"
	"github.com/cliphaven/cliphaven-go/internal/model"
	"github.com/cliphaven/cliphaven-go/internal/store"
)

func newTestLedger() *Ledger {
	s := store.New(kv.NewMemory(), slog.Default())
	return New(s, slog.Default())
}

// TestEnsureCreatesStartingGrant tests lazy creation with the fixed grant.
func TestEnsureCreatesStartingGrant(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger()

	entry, err := l.Ensure(ctx, "ann@example.com")
	if err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if entry.SkippableCount != StartingGrant {
		t.Errorf("SkippableCount = %d, want %d", entry.SkippableCount, StartingGrant)
	}
	if entry.UnskippableCount != StartingGrant {
		t.Errorf("UnskippableCount = %d, want %d", entry.UnskippableCount, StartingGrant)
	}
	if entry.OwnerEmail != "ann@example.com" {
		t.Errorf("OwnerEmail = %q, want %q", entry.OwnerEmail, "ann@example.com")
	}
}

// TestEnsureIdempotent tests that Ensure never alters an existing entry.
func TestEnsureIdempotent(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger()

	if _, err := l.Ensure(ctx, "ann@example.com"); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if _, err := l.Decrement(ctx, "ann@example.com", model.CampaignSkippable); err != nil {
		t.Fatalf("Decrement() error = %v", err)
	}

	entry, err := l.Ensure(ctx, "ann@example.com")
	if err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if entry.SkippableCount != StartingGrant-1 {
		t.Errorf("SkippableCount = %d after re-Ensure, want %d", entry.SkippableCount, StartingGrant-1)
	}
}

// TestDecrementGuard tests that a counter at zero rejects the spend and is
// left unchanged.
func TestDecrementGuard(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger()

	for i := 0; i < StartingGrant; i++ {
		if _, err := l.Decrement(ctx, "ann@example.com", model.CampaignUnskippable); err != nil {
			t.Fatalf("Decrement() #%d error = %v", i, err)
		}
	}

	entry, err := l.Decrement(ctx, "ann@example.com", model.CampaignUnskippable)
	if !errors.Is(err, ErrInsufficientCredit) {
		t.Fatalf("Decrement() error = %v, want ErrInsufficientCredit", err)
	}
	if entry.UnskippableCount != 0 {
		t.Errorf("UnskippableCount = %d, want 0", entry.UnskippableCount)
	}

	// The other counter is unaffected by the exhausted one.
	entry, err = l.Decrement(ctx, "ann@example.com", model.CampaignSkippable)
	if err != nil {
		t.Fatalf("Decrement(skippable) error = %v", err)
	}
	if entry.SkippableCount != StartingGrant-1 {
		t.Errorf("SkippableCount = %d, want %d", entry.SkippableCount, StartingGrant-1)
	}
}

// TestDecrementUnknownKind tests that an unrecognized kind is rejected.
func TestDecrementUnknownKind(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger()

	if _, err := l.Decrement(ctx, "ann@example.com", model.CampaignKind("banner")); err == nil {
		t.Error("Decrement() with unknown kind succeeded, want error")
	}
}

// TestGrantOnUpgradeClobbers tests that the upgrade grant resets both
// counters even when the ledger is partially spent.
func TestGrantOnUpgradeClobbers(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger()

	for i := 0; i < 3; i++ {
		if _, err := l.Decrement(ctx, "ann@example.com", model.CampaignSkippable); err != nil {
			t.Fatalf("Decrement() error = %v", err)
		}
	}

	entry, err := l.GrantOnUpgrade(ctx, "ann@example.com")
	if err != nil {
		t.Fatalf("GrantOnUpgrade() error = %v", err)
	}
	if entry.SkippableCount != StartingGrant || entry.UnskippableCount != StartingGrant {
		t.Errorf("counters = %d/%d after upgrade, want %d/%d",
			entry.SkippableCount, entry.UnskippableCount, StartingGrant, StartingGrant)
	}
}

// TestDecrementNegativeCount tests that a stored entry carrying a negative
// count refuses to spend instead of drifting further negative.
func TestDecrementNegativeCount(t *testing.T) {
	ctx := context.Background()
	s := store.New(kv.NewMemory(), slog.Default())
	l := New(s, slog.Default())

	if err := store.SetValue(ctx, s, model.CreditLedgerSlot("ann@example.com"), model.LedgerEntry{
		OwnerEmail:       "ann@example.com",
		SkippableCount:   -2,
		UnskippableCount: StartingGrant,
	}); err != nil {
		t.Fatalf("seed entry: %v", err)
	}

	entry, err := l.Decrement(ctx, "ann@example.com", model.CampaignSkippable)
	if !errors.Is(err, ErrInsufficientCredit) {
		t.Fatalf("Decrement() error = %v, want ErrInsufficientCredit", err)
	}
	if entry.SkippableCount != -2 {
		t.Errorf("SkippableCount = %d, want -2 (unchanged)", entry.SkippableCount)
	}

	stored, _, err := l.Get(ctx, "ann@example.com")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if stored.SkippableCount != -2 {
		t.Errorf("stored SkippableCount = %d, want -2 (never auto-corrected)", stored.SkippableCount)
	}
}

// TestRemove tests that the erasure path deletes the entry and that Get
// reports it gone.
func TestRemove(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger()

	if _, err := l.Ensure(ctx, "ann@example.com"); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if err := l.Remove(ctx, "ann@example.com"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	_, exists, err := l.Get(ctx, "ann@example.com")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if exists {
		t.Error("Get() exists = true after Remove, want false")
	}

	// Removing again is a no-op.
	if err := l.Remove(ctx, "ann@example.com"); err != nil {
		t.Errorf("Remove() second call error = %v, want nil", err)
	}
}
