// internal/session/session.go
// Package session drives the login/logout flow: guard evaluation, identity
// upsert, the active-identity pointer, lazy ledger initialization for
// premium identities, and session token issuance.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cliphaven/cliphaven-go/internal/auth"
	"github.com/cliphaven/cliphaven-go/internal/guard"
	"github.com/cliphaven/cliphaven-go/internal/ledger"
	"github.com/cliphaven/cliphaven-go/internal/model"
	"github.com/cliphaven/cliphaven-go/internal/store"
)

// ErrIdentityNotFound is returned by Upgrade when the email has no record
// in all-identities.
var ErrIdentityNotFound = errors.New("identity not found")

// BlockedError is returned by Login when the guard denies the assertion.
// The caller must not create a session.
type BlockedError struct {
	Permanent bool
	Until     time.Time
}

func (e *BlockedError) Error() string {
	if e.Permanent {
		return "identity is permanently blocked"
	}
	return fmt.Sprintf("identity is blocked until %s", e.Until.Format(time.RFC3339))
}

// Manager owns the session lifecycle over the collection store.
type Manager struct {
	store  *store.Store
	guard  *guard.Guard
	ledger *ledger.Ledger
	tokens *auth.Tokens
	log    *slog.Logger
	now    func() time.Time
}

// New creates a session manager.
func New(s *store.Store, g *guard.Guard, l *ledger.Ledger, t *auth.Tokens, log *slog.Logger) *Manager {
	return &Manager{store: s, guard: g, ledger: l, tokens: t, log: log, now: time.Now}
}

// Login evaluates the block list, upserts the identity into all-identities
// (keyed by email), sets the active-identity pointer, ensures a ledger
// entry for premium identities, and issues a session token.
func (m *Manager) Login(ctx context.Context, a auth.Assertion) (model.Identity, string, error) {
	decision, err := m.guard.Evaluate(ctx, a.Email)
	if err != nil {
		return model.Identity{}, "", err
	}
	switch decision.Outcome {
	case guard.DenyPermanent:
		return model.Identity{}, "", &BlockedError{Permanent: true}
	case guard.DenyTemporary:
		return model.Identity{}, "", &BlockedError{Until: decision.Until}
	}

	identity := model.Identity{
		Email:      a.Email,
		Name:       a.Name,
		Avatar:     a.Avatar,
		JoinedDate: m.now().UTC(),
	}

	// Preserve premium status and the original join date across logins.
	existing, err := store.List[model.Identity](ctx, m.store, model.SlotAllIdentities)
	if err != nil {
		return model.Identity{}, "", err
	}
	for _, e := range existing {
		if e.Email == a.Email {
			identity.IsPremium = e.IsPremium
			identity.JoinedDate = e.JoinedDate
			break
		}
	}

	if err := store.Upsert(ctx, m.store, model.SlotAllIdentities, func(e model.Identity) bool {
		return e.Email == a.Email
	}, identity); err != nil {
		return model.Identity{}, "", err
	}
	if err := store.SetValue(ctx, m.store, model.SlotActiveIdentity, identity); err != nil {
		return model.Identity{}, "", err
	}

	if identity.IsPremium {
		if _, err := m.ledger.Ensure(ctx, identity.Email); err != nil {
			return model.Identity{}, "", err
		}
	}

	token, err := m.tokens.Issue(identity.Email, identity.Name)
	if err != nil {
		return model.Identity{}, "", err
	}

	m.log.Info("identity logged in", "email", identity.Email, "premium", identity.IsPremium)
	return identity, token, nil
}

// Logout clears the active-identity pointer. Logging out with no active
// identity is a no-op.
func (m *Manager) Logout(ctx context.Context) error {
	return m.store.DeleteSlot(ctx, model.SlotActiveIdentity)
}

// Active returns the currently signed-in identity, if any.
func (m *Manager) Active(ctx context.Context) (model.Identity, bool, error) {
	return store.GetValue[model.Identity](ctx, m.store, model.SlotActiveIdentity)
}

// Upgrade marks an identity premium and resets its credit grant. The grant
// reset is unconditional, clobbering any partially-spent ledger.
func (m *Manager) Upgrade(ctx context.Context, email string) (model.Identity, error) {
	var upgraded model.Identity
	found := false

	identities, err := store.List[model.Identity](ctx, m.store, model.SlotAllIdentities)
	if err != nil {
		return model.Identity{}, err
	}
	for _, identity := range identities {
		if identity.Email == email {
			identity.IsPremium = true
			upgraded = identity
			found = true
			break
		}
	}
	if !found {
		return model.Identity{}, fmt.Errorf("identity %s: %w", email, ErrIdentityNotFound)
	}

	if err := store.Upsert(ctx, m.store, model.SlotAllIdentities, func(e model.Identity) bool {
		return e.Email == email
	}, upgraded); err != nil {
		return model.Identity{}, err
	}

	active, exists, err := m.Active(ctx)
	if err != nil {
		return model.Identity{}, err
	}
	if exists && active.Email == email {
		if err := store.SetValue(ctx, m.store, model.SlotActiveIdentity, upgraded); err != nil {
			return model.Identity{}, err
		}
	}

	if _, err := m.ledger.GrantOnUpgrade(ctx, email); err != nil {
		return model.Identity{}, err
	}
	return upgraded, nil
}
