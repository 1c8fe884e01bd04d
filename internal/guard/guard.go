// internal/guard/guard.go
// Package guard evaluates the moderation block list at identity-assertion
// time. A temporary block whose expiry has elapsed is removed from storage
// as a side effect of evaluation, not merely ignored, so a lapsed block
// never needs a separate cleanup pass.
package guard

import (
	"context"
	"log/slog"
	"time"

	"github.com/cliphaven/cliphaven-go/internal/model"
	"github.com/cliphaven/cliphaven-go/internal/store"
)

// Outcome is the login decision for an email.
type Outcome int

const (
	Allow Outcome = iota
	DenyPermanent
	DenyTemporary
)

// Decision carries the outcome and, for temporary denials, the deadline.
type Decision struct {
	Outcome Outcome
	Until   time.Time
}

// Guard consults the blocked-identities collection.
type Guard struct {
	store *store.Store
	log   *slog.Logger
	now   func() time.Time
}

// New creates a guard over the given collection store.
func New(s *store.Store, log *slog.Logger) *Guard {
	return &Guard{store: s, log: log, now: time.Now}
}

// NewWithClock creates a guard with an injected clock for tests.
func NewWithClock(s *store.Store, log *slog.Logger, now func() time.Time) *Guard {
	return &Guard{store: s, log: log, now: now}
}

// Evaluate returns the login decision for the email. Evaluation happens
// once, at login, never mid-session. An elapsed temporary block is deleted
// before the decision is made and the login is allowed.
func (g *Guard) Evaluate(ctx context.Context, email string) (Decision, error) {
	entries, err := store.List[model.BlockEntry](ctx, g.store, model.SlotBlockedIdentities)
	if err != nil {
		return Decision{}, err
	}

	for _, entry := range entries {
		if entry.Email != email {
			continue
		}
		if entry.BlockType == model.BlockPermanent || entry.ExpiresAt == nil {
			return Decision{Outcome: DenyPermanent}, nil
		}
		if g.now().Before(*entry.ExpiresAt) {
			return Decision{Outcome: DenyTemporary, Until: *entry.ExpiresAt}, nil
		}

		// Lapsed temporary block: self-heal the collection, then allow.
		if _, err := store.Filter(ctx, g.store, model.SlotBlockedIdentities, func(e model.BlockEntry) bool {
			return e.Email != email
		}); err != nil {
			return Decision{}, err
		}
		g.log.Info("expired temporary block removed", "email", email)
		return Decision{Outcome: Allow}, nil
	}

	return Decision{Outcome: Allow}, nil
}

// Block adds or replaces the block entry for an email.
func (g *Guard) Block(ctx context.Context, entry model.BlockEntry) error {
	return store.Upsert(ctx, g.store, model.SlotBlockedIdentities, func(e model.BlockEntry) bool {
		return e.Email == entry.Email
	}, entry)
}

// Unblock removes any block entry for the email. Removing an absent entry
// is a no-op.
func (g *Guard) Unblock(ctx context.Context, email string) error {
	_, err := store.Filter(ctx, g.store, model.SlotBlockedIdentities, func(e model.BlockEntry) bool {
		return e.Email != email
	})
	return err
}

// List returns all current block entries.
func (g *Guard) List(ctx context.Context) ([]model.BlockEntry, error) {
	return store.List[model.BlockEntry](ctx, g.store, model.SlotBlockedIdentities)
}
