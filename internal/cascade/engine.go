// internal/cascade/engine.go
// Package cascade implements the consistency engine: the dependent-collection
// mutations that run when a primary entity is deleted, keeping the stored
// collections referentially consistent.
//
// Ordering is deliberate: dependents are cleaned first and the primary
// record is deleted last, so a crash mid-cascade leaves the item still
// discoverable rather than silently half-orphaned. When any dependent step
// fails, the remaining steps are still attempted, the failures are reported
// in aggregate, and the primary record is left in place.
package cascade

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/cliphaven/cliphaven-go/internal/bus"
	"github.com/cliphaven/cliphaven-go/internal/ledger"
	"github.com/cliphaven/cliphaven-go/internal/metrics"
	"github.com/cliphaven/cliphaven-go/internal/model"
	"github.com/cliphaven/cliphaven-go/internal/store"
)

// simpleListSlots are the unkeyed snapshot lists. They are stored without an
// owner key, so identity erasure clears them wholesale; this assumes a
// single active identity (see DESIGN.md for the unresolved per-owner
// question).
var simpleListSlots = []string{
	model.SlotHistory,
	model.SlotLiked,
	model.SlotWatchLater,
}

// PartialCascadeError aggregates the dependent-step failures of one cascade.
// When it is returned, the primary record was NOT deleted.
type PartialCascadeError struct {
	Op   string
	Errs []error
}

func (e *PartialCascadeError) Error() string {
	return fmt.Sprintf("%s: %d cascade step(s) failed: %v", e.Op, len(e.Errs), errors.Join(e.Errs...))
}

func (e *PartialCascadeError) Unwrap() []error {
	return e.Errs
}

// Engine executes cascades over the collection store and publishes the
// affected topics on the notification bus afterwards.
type Engine struct {
	store  *store.Store
	bus    *bus.Bus
	ledger *ledger.Ledger
	log    *slog.Logger
	m      *metrics.Metrics
}

// New creates an engine over the given store, bus, and ledger.
func New(s *store.Store, b *bus.Bus, l *ledger.Ledger, log *slog.Logger) *Engine {
	return &Engine{
		store:  s,
		bus:    b,
		ledger: l,
		log:    log,
		m:      metrics.NewMetrics(),
	}
}

// DeleteContentItem removes a content item and every snapshot or report
// that references it. Deleting an id absent from the collection is a no-op.
func (e *Engine) DeleteContentItem(ctx context.Context, id string) error {
	ctx, span := otel.Tracer("cliphaven").Start(ctx, "cascade.DeleteContentItem")
	defer span.End()
	span.SetAttributes(attribute.String("content_id", id))

	var errs []error
	step := func(name string, err error) {
		if err != nil {
			e.m.CascadeStepFailures.WithLabelValues("delete-content-item", name).Inc()
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	changed := false

	for _, slot := range simpleListSlots {
		removed, err := store.Filter(ctx, e.store, slot, func(item model.ContentItem) bool {
			return item.ID != id
		})
		step(slot, err)
		changed = changed || removed > 0
	}

	playlistsChanged, err := e.purgePlaylistSnapshots(ctx, func(item model.ContentItem) bool {
		return item.ID != id
	})
	step(model.SlotPlaylists, err)

	removedReports, err := store.Filter(ctx, e.store, model.SlotReports, func(r model.Report) bool {
		return r.Video.ID != id
	})
	step(model.SlotReports, err)
	changed = changed || removedReports > 0

	if len(errs) > 0 {
		// Dependents still reference the item; keep it discoverable.
		span.SetStatus(codes.Error, "cascade steps failed")
		e.m.CascadeTotal.WithLabelValues("delete-content-item", "partial").Inc()
		return &PartialCascadeError{Op: "delete content item", Errs: errs}
	}

	removed, err := store.Filter(ctx, e.store, model.SlotContentItems, func(item model.ContentItem) bool {
		return item.ID != id
	})
	if err != nil {
		span.SetStatus(codes.Error, "primary delete failed")
		e.m.CascadeTotal.WithLabelValues("delete-content-item", "partial").Inc()
		return &PartialCascadeError{Op: "delete content item", Errs: []error{fmt.Errorf("%s: %w", model.SlotContentItems, err)}}
	}
	changed = changed || removed > 0

	e.m.CascadeTotal.WithLabelValues("delete-content-item", "ok").Inc()
	if changed || removed > 0 {
		e.bus.Publish(bus.TopicContentChanged)
	}
	if playlistsChanged {
		e.bus.Publish(bus.TopicPlaylistsChanged)
	}
	e.log.Info("content item cascade complete", "id", id, "removed", removed)
	return nil
}

// DeleteIdentity erases an identity and every record keyed by its email or
// display name: its content items, reports it filed and reports against its
// items, its campaigns, communities, ledger entry, profile details, block
// entry, and the unkeyed snapshot lists. The identity record itself and the
// active-identity pointer go last.
func (e *Engine) DeleteIdentity(ctx context.Context, email, name string) error {
	ctx, span := otel.Tracer("cliphaven").Start(ctx, "cascade.DeleteIdentity")
	defer span.End()
	span.SetAttributes(attribute.String("email", email))

	var errs []error
	step := func(stepName string, err error) {
		if err != nil {
			e.m.CascadeStepFailures.WithLabelValues("delete-identity", stepName).Inc()
			errs = append(errs, fmt.Errorf("%s: %w", stepName, err))
		}
	}

	// Compute the owned id set before touching anything, so reports against
	// the identity's items can be matched even after the items are gone.
	items, err := store.List[model.ContentItem](ctx, e.store, model.SlotContentItems)
	if err != nil {
		span.SetStatus(codes.Error, "failed to read content items")
		e.m.CascadeTotal.WithLabelValues("delete-identity", "partial").Inc()
		return &PartialCascadeError{Op: "delete identity", Errs: []error{fmt.Errorf("%s: %w", model.SlotContentItems, err)}}
	}
	ownedIDs := make(map[string]bool)
	for _, item := range items {
		if item.OwnedBy(email, name) {
			ownedIDs[item.ID] = true
		}
	}

	// Reports: filed by the identity, or against one of its items.
	_, err = store.Filter(ctx, e.store, model.SlotReports, func(r model.Report) bool {
		return r.ReporterEmail != email && !ownedIDs[r.Video.ID]
	})
	step(model.SlotReports, err)

	// Ad campaigns owned by the identity.
	_, err = store.Filter(ctx, e.store, model.SlotAdCampaigns, func(c model.AdCampaign) bool {
		return !c.OwnedBy(email, name)
	})
	step(model.SlotAdCampaigns, err)

	// Communities owned by the identity.
	_, err = store.Filter(ctx, e.store, model.SlotCommunities, func(c model.Community) bool {
		return c.OwnerEmail != email
	})
	step(model.SlotCommunities, err)

	// Credit ledger entry.
	step("credit-ledger", e.ledger.Remove(ctx, email))

	// Moderation block entry keyed by the email. Erasure wins over block
	// retention; the record must not outlive the identity.
	_, err = store.Filter(ctx, e.store, model.SlotBlockedIdentities, func(b model.BlockEntry) bool {
		return b.Email != email
	})
	step(model.SlotBlockedIdentities, err)

	// Profile details map: drop the email key.
	details, exists, err := store.GetValue[map[string]model.ProfileDetails](ctx, e.store, model.SlotProfileDetails)
	if err != nil {
		step(model.SlotProfileDetails, err)
	} else if exists {
		if _, present := details[email]; present {
			delete(details, email)
			step(model.SlotProfileDetails, store.SetValue(ctx, e.store, model.SlotProfileDetails, details))
		}
	}

	// The unkeyed lists are cleared wholesale (single-active-identity
	// semantics), subscriptions included.
	for _, slot := range simpleListSlots {
		step(slot, e.store.DeleteSlot(ctx, slot))
	}
	step(model.SlotSubscriptions, e.store.DeleteSlot(ctx, model.SlotSubscriptions))

	// Playlist snapshots of the identity's items.
	_, err = e.purgePlaylistSnapshots(ctx, func(item model.ContentItem) bool {
		return !ownedIDs[item.ID]
	})
	step(model.SlotPlaylists, err)

	if len(errs) > 0 {
		span.SetStatus(codes.Error, "cascade steps failed")
		e.m.CascadeTotal.WithLabelValues("delete-identity", "partial").Inc()
		return &PartialCascadeError{Op: "delete identity", Errs: errs}
	}

	// Dependents are clean; now the primary records, active pointer last.
	var primaryErrs []error
	if _, err := store.Filter(ctx, e.store, model.SlotContentItems, func(item model.ContentItem) bool {
		return !ownedIDs[item.ID]
	}); err != nil {
		primaryErrs = append(primaryErrs, fmt.Errorf("%s: %w", model.SlotContentItems, err))
	}
	if _, err := store.Filter(ctx, e.store, model.SlotAllIdentities, func(i model.Identity) bool {
		return i.Email != email
	}); err != nil {
		primaryErrs = append(primaryErrs, fmt.Errorf("%s: %w", model.SlotAllIdentities, err))
	}
	active, exists, err := store.GetValue[model.Identity](ctx, e.store, model.SlotActiveIdentity)
	if err != nil {
		primaryErrs = append(primaryErrs, fmt.Errorf("%s: %w", model.SlotActiveIdentity, err))
	} else if exists && active.Email == email {
		if err := e.store.DeleteSlot(ctx, model.SlotActiveIdentity); err != nil {
			primaryErrs = append(primaryErrs, fmt.Errorf("%s: %w", model.SlotActiveIdentity, err))
		}
	}
	if len(primaryErrs) > 0 {
		span.SetStatus(codes.Error, "primary delete failed")
		e.m.CascadeTotal.WithLabelValues("delete-identity", "partial").Inc()
		return &PartialCascadeError{Op: "delete identity", Errs: primaryErrs}
	}

	e.m.CascadeTotal.WithLabelValues("delete-identity", "ok").Inc()
	e.bus.Publish(bus.TopicContentChanged)
	e.bus.Publish(bus.TopicPlaylistsChanged)
	e.bus.Publish(bus.TopicSubscriptionsChanged)
	e.log.Info("identity cascade complete", "email", email, "owned_items", len(ownedIDs))
	return nil
}

// purgePlaylistSnapshots rewrites the playlists collection keeping only the
// embedded snapshots the predicate accepts. Playlists themselves survive,
// possibly empty. Reports whether anything changed.
func (e *Engine) purgePlaylistSnapshots(ctx context.Context, keep func(model.ContentItem) bool) (bool, error) {
	playlists, err := store.List[model.Playlist](ctx, e.store, model.SlotPlaylists)
	if err != nil {
		return false, err
	}

	changed := false
	for i, playlist := range playlists {
		kept := make([]model.ContentItem, 0, len(playlist.Items))
		for _, item := range playlist.Items {
			if keep(item) {
				kept = append(kept, item)
			}
		}
		if len(kept) != len(playlist.Items) {
			playlists[i].Items = kept
			changed = true
		}
	}
	if !changed {
		return false, nil
	}
	return true, store.Put(ctx, e.store, model.SlotPlaylists, playlists)
}
