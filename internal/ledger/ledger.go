// internal/ledger/ledger.go
// Package ledger manages the per-identity promotional credit counters.
// Entries are created lazily with a fixed starting grant, decremented under
// a non-negativity guard, and stored one slot per email.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cliphaven/cliphaven-go/internal/model"
	"github.com/cliphaven/cliphaven-go/internal/store"
)

// StartingGrant is the number of credits of each kind a fresh ledger
// entry carries.
const StartingGrant = 5

// ErrInsufficientCredit is returned when a decrement targets a counter
// with no positive balance. The counter is left unchanged; the condition
// is reported to the caller and never auto-corrected.
var ErrInsufficientCredit = errors.New("insufficient credit")

// Ledger provides the credit operations over the collection store.
type Ledger struct {
	store *store.Store
	log   *slog.Logger
}

// New creates a ledger over the given collection store.
func New(s *store.Store, log *slog.Logger) *Ledger {
	return &Ledger{store: s, log: log}
}

// Ensure returns the existing entry for the email, or creates one with the
// starting grant, persists it, and returns it. Calling it repeatedly never
// alters an existing entry.
func (l *Ledger) Ensure(ctx context.Context, email string) (model.LedgerEntry, error) {
	slot := model.CreditLedgerSlot(email)

	entry, exists, err := store.GetValue[model.LedgerEntry](ctx, l.store, slot)
	if err != nil {
		return model.LedgerEntry{}, err
	}
	if exists {
		return entry, nil
	}

	entry = model.LedgerEntry{
		OwnerEmail:       email,
		SkippableCount:   StartingGrant,
		UnskippableCount: StartingGrant,
	}
	if err := store.SetValue(ctx, l.store, slot, entry); err != nil {
		return model.LedgerEntry{}, err
	}
	l.log.Info("ledger entry created", "email", email, "grant", StartingGrant)
	return entry, nil
}

// Decrement spends one credit of the given kind. It fails with
// ErrInsufficientCredit when the relevant counter is already zero.
func (l *Ledger) Decrement(ctx context.Context, email string, kind model.CampaignKind) (model.LedgerEntry, error) {
	entry, err := l.Ensure(ctx, email)
	if err != nil {
		return model.LedgerEntry{}, err
	}

	switch kind {
	// A negative count, however it got into storage, spends like zero.
	case model.CampaignSkippable:
		if entry.SkippableCount <= 0 {
			return entry, ErrInsufficientCredit
		}
		entry.SkippableCount--
	case model.CampaignUnskippable:
		if entry.UnskippableCount <= 0 {
			return entry, ErrInsufficientCredit
		}
		entry.UnskippableCount--
	default:
		return entry, fmt.Errorf("unknown campaign kind %q", kind)
	}

	if err := store.SetValue(ctx, l.store, model.CreditLedgerSlot(email), entry); err != nil {
		return model.LedgerEntry{}, err
	}
	return entry, nil
}

// GrantOnUpgrade unconditionally resets both counters to the starting
// grant. Used when an identity becomes premium. A partially-spent ledger is
// clobbered on purpose; the behavior is pinned by tests.
func (l *Ledger) GrantOnUpgrade(ctx context.Context, email string) (model.LedgerEntry, error) {
	entry := model.LedgerEntry{
		OwnerEmail:       email,
		SkippableCount:   StartingGrant,
		UnskippableCount: StartingGrant,
	}
	if err := store.SetValue(ctx, l.store, model.CreditLedgerSlot(email), entry); err != nil {
		return model.LedgerEntry{}, err
	}
	l.log.Info("ledger reset on premium upgrade", "email", email)
	return entry, nil
}

// Get returns the entry for the email without creating one.
func (l *Ledger) Get(ctx context.Context, email string) (model.LedgerEntry, bool, error) {
	return store.GetValue[model.LedgerEntry](ctx, l.store, model.CreditLedgerSlot(email))
}

// Remove deletes the entry for the email. Used by the identity-erasure
// cascade; removing an absent entry is a no-op.
func (l *Ledger) Remove(ctx context.Context, email string) error {
	return l.store.DeleteSlot(ctx, model.CreditLedgerSlot(email))
}
