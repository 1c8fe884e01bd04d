// internal/server/handlers_content.go
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/cliphaven/cliphaven-go/internal/bus"
	"github.com/cliphaven/cliphaven-go/internal/cascade"
	errordefs "github.com/cliphaven/cliphaven-go/internal/errors"
	"github.com/cliphaven/cliphaven-go/internal/model"
	"github.com/cliphaven/cliphaven-go/internal/store"
)

// decodeValidated reads a request body, validates it against the named
// payload schema, and decodes it into out.
func (m *Mux) decodeValidated(r *http.Request, kind string, out interface{}) *errordefs.Error {
	defer r.Body.Close()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return errordefs.New(errordefs.CH_VALIDATION, "failed to read request body", correlationID(r.Context()))
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return errordefs.New(errordefs.CH_VALIDATION, "invalid JSON", correlationID(r.Context()))
	}
	if err := m.validator.Validate(kind, payload); err != nil {
		return errordefs.NewWithDetails(errordefs.CH_SCHEMA_REJECT, "payload validation failed", correlationID(r.Context()), err.Error())
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errordefs.New(errordefs.CH_VALIDATION, "invalid JSON", correlationID(r.Context()))
	}
	return nil
}

type createContentRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Thumbnail     string `json:"thumbnail"`
	IsShort       bool   `json:"isShort"`
	CommunityName string `json:"communityName"`
}

// handleContentCreate handles POST /v1/content.
func (m *Mux) handleContentCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("cliphaven").Start(r.Context(), "handleContentCreate")
	defer span.End()

	var req createContentRequest
	if errDef := m.decodeValidated(r, "content", &req); errDef != nil {
		span.SetStatus(codes.Error, "invalid payload")
		m.writeErrorDef(w, errDef)
		return
	}

	email, name := claimsFrom(ctx)
	item := model.ContentItem{
		ID:            ulid.Make().String(),
		Title:         req.Title,
		Description:   req.Description,
		ThumbnailRef:  req.Thumbnail,
		IsShort:       req.IsShort,
		UploaderEmail: email,
		UploaderName:  name,
		CommunityName: req.CommunityName,
		UploadedAt:    time.Now().UTC(),
	}
	span.SetAttributes(attribute.String("content_id", item.ID))

	items, err := store.List[model.ContentItem](ctx, m.s, model.SlotContentItems)
	if err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_INTERNAL, "failed to read content items", correlationID(ctx)))
		return
	}
	items = append(items, item)
	if err := store.Put(ctx, m.s, model.SlotContentItems, items); err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_INTERNAL, "failed to store content item", correlationID(ctx)))
		return
	}

	m.b.Publish(bus.TopicContentChanged)
	m.writeSuccess(w, http.StatusCreated, item)
}

// handleContentRecord handles POST /v1/content/record. It captures a media
// blob from the attached device and stores a content item carrying the
// blob's opaque reference; the media bytes themselves never enter the store.
func (m *Mux) handleContentRecord(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("cliphaven").Start(r.Context(), "handleContentRecord")
	defer span.End()

	var req createContentRequest
	if errDef := m.decodeValidated(r, "content", &req); errDef != nil {
		span.SetStatus(codes.Error, "invalid payload")
		m.writeErrorDef(w, errDef)
		return
	}

	blob, err := m.capture.Capture(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "capture failed")
		m.writeErrorDef(w, errordefs.New(errordefs.CH_UNAVAILABLE, "capture failed: "+err.Error(), correlationID(ctx)))
		return
	}

	email, name := claimsFrom(ctx)
	item := model.ContentItem{
		ID:            ulid.Make().String(),
		Title:         req.Title,
		Description:   req.Description,
		ThumbnailRef:  req.Thumbnail,
		MediaRef:      blob.Ref,
		IsShort:       req.IsShort,
		UploaderEmail: email,
		UploaderName:  name,
		CommunityName: req.CommunityName,
		UploadedAt:    time.Now().UTC(),
	}
	span.SetAttributes(attribute.String("content_id", item.ID))

	items, err := store.List[model.ContentItem](ctx, m.s, model.SlotContentItems)
	if err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_INTERNAL, "failed to read content items", correlationID(ctx)))
		return
	}
	items = append(items, item)
	if err := store.Put(ctx, m.s, model.SlotContentItems, items); err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_INTERNAL, "failed to store content item", correlationID(ctx)))
		return
	}

	m.b.Publish(bus.TopicContentChanged)
	m.writeSuccess(w, http.StatusCreated, item)
}

type updateContentRequest struct {
	ID            string  `json:"id"`
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	Thumbnail     *string `json:"thumbnail"`
	CommunityName *string `json:"communityName"`
}

// handleContentUpdate handles POST /v1/content/update. Playlist snapshots of
// the item are intentionally left stale; only deletion purges them.
func (m *Mux) handleContentUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	defer r.Body.Close()

	var req updateContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_VALIDATION, "invalid JSON", correlationID(ctx)))
		return
	}
	if req.ID == "" {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_VALIDATION, "id is required", correlationID(ctx)))
		return
	}

	items, err := store.List[model.ContentItem](ctx, m.s, model.SlotContentItems)
	if err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_INTERNAL, "failed to read content items", correlationID(ctx)))
		return
	}

	var updated model.ContentItem
	found := false
	for i, item := range items {
		if item.ID != req.ID {
			continue
		}
		if req.Title != nil {
			item.Title = *req.Title
		}
		if req.Description != nil {
			item.Description = *req.Description
		}
		if req.Thumbnail != nil {
			item.ThumbnailRef = *req.Thumbnail
		}
		if req.CommunityName != nil {
			item.CommunityName = *req.CommunityName
		}
		items[i] = item
		updated = item
		found = true
		break
	}
	if !found {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_NOT_FOUND, "content item not found", correlationID(ctx)))
		return
	}

	if err := store.Put(ctx, m.s, model.SlotContentItems, items); err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_INTERNAL, "failed to store content item", correlationID(ctx)))
		return
	}

	m.b.Publish(bus.TopicContentChanged)
	m.writeSuccess(w, http.StatusOK, updated)
}

// handleContentDelete handles POST /v1/content/delete. The consistency
// engine removes the item and every snapshot and report referencing it.
func (m *Mux) handleContentDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	defer r.Body.Close()

	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_VALIDATION, "id is required", correlationID(ctx)))
		return
	}

	if err := m.engine.DeleteContentItem(ctx, req.ID); err != nil {
		var partial *cascade.PartialCascadeError
		if errors.As(err, &partial) {
			m.writeErrorDef(w, errordefs.NewWithDetails(errordefs.CH_PARTIAL_CASCADE,
				"deletion incomplete, the item was preserved", correlationID(ctx), partial.Error()))
			return
		}
		m.writeErrorDef(w, errordefs.New(errordefs.CH_INTERNAL, "deletion failed", correlationID(ctx)))
		return
	}

	m.writeSuccess(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleContentList handles GET /v1/content.
func (m *Mux) handleContentList(w http.ResponseWriter, r *http.Request) {
	items, err := store.List[model.ContentItem](r.Context(), m.s, model.SlotContentItems)
	if err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_INTERNAL, "failed to read content items", correlationID(r.Context())))
		return
	}
	m.writeSuccess(w, http.StatusOK, items)
}

// handleContentSuggest handles POST /v1/content/suggest. It forwards the
// prompt to the generative service for a title and description.
func (m *Mux) handleContentSuggest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	defer r.Body.Close()

	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Prompt == "" {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_VALIDATION, "prompt is required", correlationID(ctx)))
		return
	}

	meta, err := m.gen.SuggestMetadata(ctx, req.Prompt)
	if err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_UNAVAILABLE, "metadata suggestion failed", correlationID(ctx)))
		return
	}
	m.writeSuccess(w, http.StatusOK, meta)
}

// handleContentThumbnail handles POST /v1/content/thumbnail.
func (m *Mux) handleContentThumbnail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	defer r.Body.Close()

	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Prompt == "" {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_VALIDATION, "prompt is required", correlationID(ctx)))
		return
	}

	url, err := m.gen.GenerateThumbnail(ctx, req.Prompt)
	if err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_UNAVAILABLE, "thumbnail generation failed", correlationID(ctx)))
		return
	}
	m.writeSuccess(w, http.StatusOK, map[string]string{"url": url})
}

type createCommunityRequest struct {
	Name        string `json:"name"`
	Avatar      string `json:"avatar"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// handleCommunityCreate handles POST /v1/communities. Community names are
// unique; creating an existing name is a conflict.
func (m *Mux) handleCommunityCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createCommunityRequest
	if errDef := m.decodeValidated(r, "community", &req); errDef != nil {
		m.writeErrorDef(w, errDef)
		return
	}

	communities, err := store.List[model.Community](ctx, m.s, model.SlotCommunities)
	if err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_INTERNAL, "failed to read communities", correlationID(ctx)))
		return
	}
	for _, c := range communities {
		if c.Name == req.Name {
			m.writeErrorDef(w, errordefs.New(errordefs.CH_CONFLICT, "community name already exists", correlationID(ctx)))
			return
		}
	}

	email, _ := claimsFrom(ctx)
	community := model.Community{
		ID:          ulid.Make().String(),
		Name:        req.Name,
		OwnerEmail:  email,
		MemberCount: 1,
		Avatar:      req.Avatar,
		Location:    req.Location,
	}
	communities = append(communities, community)
	if err := store.Put(ctx, m.s, model.SlotCommunities, communities); err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_INTERNAL, "failed to store community", correlationID(ctx)))
		return
	}

	m.writeSuccess(w, http.StatusCreated, community)
}

// handleCommunityDelete handles POST /v1/communities/delete. Deleting an
// absent community is a no-op.
func (m *Mux) handleCommunityDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	defer r.Body.Close()

	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_VALIDATION, "id is required", correlationID(ctx)))
		return
	}

	if _, err := store.Filter(ctx, m.s, model.SlotCommunities, func(c model.Community) bool {
		return c.ID != req.ID
	}); err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_INTERNAL, "failed to delete community", correlationID(ctx)))
		return
	}

	m.writeSuccess(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleCommunityList handles GET /v1/communities.
func (m *Mux) handleCommunityList(w http.ResponseWriter, r *http.Request) {
	communities, err := store.List[model.Community](r.Context(), m.s, model.SlotCommunities)
	if err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_INTERNAL, "failed to read communities", correlationID(r.Context())))
		return
	}
	m.writeSuccess(w, http.StatusOK, communities)
}

// handleSubscriptionAdd handles POST /v1/subscriptions. The subscriptions
// slot stores community names, not snapshots; the referenced community is
// resolved and its name recorded, deduplicated.
func (m *Mux) handleSubscriptionAdd(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	defer r.Body.Close()

	var req struct {
		CommunityID string `json:"communityId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CommunityID == "" {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_VALIDATION, "communityId is required", correlationID(ctx)))
		return
	}

	communities, err := store.List[model.Community](ctx, m.s, model.SlotCommunities)
	if err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_INTERNAL, "failed to read communities", correlationID(ctx)))
		return
	}
	var target model.Community
	found := false
	for _, c := range communities {
		if c.ID == req.CommunityID {
			target = c
			found = true
			break
		}
	}
	if !found {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_NOT_FOUND, "community not found", correlationID(ctx)))
		return
	}

	if err := store.Upsert(ctx, m.s, model.SlotSubscriptions, func(name string) bool {
		return name == target.Name
	}, target.Name); err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_INTERNAL, "failed to store subscription", correlationID(ctx)))
		return
	}

	m.b.Publish(bus.TopicSubscriptionsChanged)
	m.writeSuccess(w, http.StatusOK, target)
}

// handleSubscriptionRemove handles POST /v1/subscriptions/remove. Removing
// an absent subscription is a no-op.
func (m *Mux) handleSubscriptionRemove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	defer r.Body.Close()

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_VALIDATION, "name is required", correlationID(ctx)))
		return
	}

	removed, err := store.Filter(ctx, m.s, model.SlotSubscriptions, func(name string) bool {
		return name != req.Name
	})
	if err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_INTERNAL, "failed to remove subscription", correlationID(ctx)))
		return
	}

	if removed > 0 {
		m.b.Publish(bus.TopicSubscriptionsChanged)
	}
	m.writeSuccess(w, http.StatusOK, map[string]string{"status": "removed"})
}

// handleSubscriptionList handles GET /v1/subscriptions. Returns the
// subscribed community names.
func (m *Mux) handleSubscriptionList(w http.ResponseWriter, r *http.Request) {
	subs, err := store.List[string](r.Context(), m.s, model.SlotSubscriptions)
	if err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_INTERNAL, "failed to read subscriptions", correlationID(r.Context())))
		return
	}
	m.writeSuccess(w, http.StatusOK, subs)
}

type createPlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// handlePlaylistCreate handles POST /v1/playlists.
func (m *Mux) handlePlaylistCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createPlaylistRequest
	if errDef := m.decodeValidated(r, "playlist", &req); errDef != nil {
		m.writeErrorDef(w, errDef)
		return
	}

	playlist := model.Playlist{
		ID:          ulid.Make().String(),
		Name:        req.Name,
		Description: req.Description,
		Items:       []model.ContentItem{},
	}

	playlists, err := store.List[model.Playlist](ctx, m.s, model.SlotPlaylists)
	if err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_INTERNAL, "failed to read playlists", correlationID(ctx)))
		return
	}
	playlists = append(playlists, playlist)
	if err := store.Put(ctx, m.s, model.SlotPlaylists, playlists); err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_INTERNAL, "failed to store playlist", correlationID(ctx)))
		return
	}

	m.b.Publish(bus.TopicPlaylistsChanged)
	m.writeSuccess(w, http.StatusCreated, playlist)
}

// handlePlaylistDelete handles POST /v1/playlists/delete.
func (m *Mux) handlePlaylistDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	defer r.Body.Close()

	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_VALIDATION, "id is required", correlationID(ctx)))
		return
	}

	removed, err := store.Filter(ctx, m.s, model.SlotPlaylists, func(p model.Playlist) bool {
		return p.ID != req.ID
	})
	if err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_INTERNAL, "failed to delete playlist", correlationID(ctx)))
		return
	}

	if removed > 0 {
		m.b.Publish(bus.TopicPlaylistsChanged)
	}
	m.writeSuccess(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handlePlaylistAdd handles POST /v1/playlists/add. The current state of the
// content item is snapshotted into the playlist; later edits to the item do
// not propagate.
func (m *Mux) handlePlaylistAdd(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	defer r.Body.Close()

	var req struct {
		PlaylistID string `json:"playlistId"`
		VideoID    string `json:"videoId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlaylistID == "" || req.VideoID == "" {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_VALIDATION, "playlistId and videoId are required", correlationID(ctx)))
		return
	}

	item, found, errDef := m.lookupContentItem(r, req.VideoID)
	if errDef != nil {
		m.writeErrorDef(w, errDef)
		return
	}
	if !found {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_NOT_FOUND, "content item not found", correlationID(ctx)))
		return
	}

	playlists, err := store.List[model.Playlist](ctx, m.s, model.SlotPlaylists)
	if err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_INTERNAL, "failed to read playlists", correlationID(ctx)))
		return
	}

	var updated model.Playlist
	playlistFound := false
	for i, playlist := range playlists {
		if playlist.ID != req.PlaylistID {
			continue
		}
		playlistFound = true
		duplicate := false
		for _, existing := range playlist.Items {
			if existing.ID == item.ID {
				duplicate = true
				break
			}
		}
		if !duplicate {
			playlists[i].Items = append(playlists[i].Items, item)
		}
		updated = playlists[i]
		break
	}
	if !playlistFound {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_NOT_FOUND, "playlist not found", correlationID(ctx)))
		return
	}

	if err := store.Put(ctx, m.s, model.SlotPlaylists, playlists); err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_INTERNAL, "failed to store playlist", correlationID(ctx)))
		return
	}

	m.b.Publish(bus.TopicPlaylistsChanged)
	m.writeSuccess(w, http.StatusOK, updated)
}

// handlePlaylistRemove handles POST /v1/playlists/remove.
func (m *Mux) handlePlaylistRemove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	defer r.Body.Close()

	var req struct {
		PlaylistID string `json:"playlistId"`
		VideoID    string `json:"videoId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlaylistID == "" || req.VideoID == "" {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_VALIDATION, "playlistId and videoId are required", correlationID(ctx)))
		return
	}

	playlists, err := store.List[model.Playlist](ctx, m.s, model.SlotPlaylists)
	if err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_INTERNAL, "failed to read playlists", correlationID(ctx)))
		return
	}

	changed := false
	for i, playlist := range playlists {
		if playlist.ID != req.PlaylistID {
			continue
		}
		kept := make([]model.ContentItem, 0, len(playlist.Items))
		for _, item := range playlist.Items {
			if item.ID != req.VideoID {
				kept = append(kept, item)
			}
		}
		if len(kept) != len(playlist.Items) {
			playlists[i].Items = kept
			changed = true
		}
		break
	}

	if changed {
		if err := store.Put(ctx, m.s, model.SlotPlaylists, playlists); err != nil {
			m.writeErrorDef(w, errordefs.New(errordefs.CH_INTERNAL, "failed to store playlist", correlationID(ctx)))
			return
		}
		m.b.Publish(bus.TopicPlaylistsChanged)
	}
	m.writeSuccess(w, http.StatusOK, map[string]string{"status": "removed"})
}

// handlePlaylistList handles GET /v1/playlists.
func (m *Mux) handlePlaylistList(w http.ResponseWriter, r *http.Request) {
	playlists, err := store.List[model.Playlist](r.Context(), m.s, model.SlotPlaylists)
	if err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_INTERNAL, "failed to read playlists", correlationID(r.Context())))
		return
	}
	m.writeSuccess(w, http.StatusOK, playlists)
}

// lookupContentItem finds a content item by id.
func (m *Mux) lookupContentItem(r *http.Request, id string) (model.ContentItem, bool, *errordefs.Error) {
	items, err := store.List[model.ContentItem](r.Context(), m.s, model.SlotContentItems)
	if err != nil {
		return model.ContentItem{}, false, errordefs.New(errordefs.CH_INTERNAL, "failed to read content items", correlationID(r.Context()))
	}
	for _, item := range items {
		if item.ID == id {
			return item, true, nil
		}
	}
	return model.ContentItem{}, false, nil
}

// handleSimpleListAdd adds a content item snapshot to one of the unkeyed
// lists, deduplicated by id.
func (m *Mux) handleSimpleListAdd(slot string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		defer r.Body.Close()

		var req struct {
			VideoID string `json:"videoId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VideoID == "" {
			m.writeErrorDef(w, errordefs.New(errordefs.CH_VALIDATION, "videoId is required", correlationID(ctx)))
			return
		}

		item, found, errDef := m.lookupContentItem(r, req.VideoID)
		if errDef != nil {
			m.writeErrorDef(w, errDef)
			return
		}
		if !found {
			m.writeErrorDef(w, errordefs.New(errordefs.CH_NOT_FOUND, "content item not found", correlationID(ctx)))
			return
		}

		if err := store.Upsert(ctx, m.s, slot, func(existing model.ContentItem) bool {
			return existing.ID == item.ID
		}, item); err != nil {
			m.writeErrorDef(w, errordefs.New(errordefs.CH_INTERNAL, "failed to store list entry", correlationID(ctx)))
			return
		}

		m.b.Publish(bus.TopicContentChanged)
		m.writeSuccess(w, http.StatusOK, item)
	}
}

// handleSimpleListRemove removes one item from an unkeyed list; removing an
// absent item is a no-op.
func (m *Mux) handleSimpleListRemove(slot string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		defer r.Body.Close()

		var req struct {
			VideoID string `json:"videoId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VideoID == "" {
			m.writeErrorDef(w, errordefs.New(errordefs.CH_VALIDATION, "videoId is required", correlationID(ctx)))
			return
		}

		removed, err := store.Filter(ctx, m.s, slot, func(item model.ContentItem) bool {
			return item.ID != req.VideoID
		})
		if err != nil {
			m.writeErrorDef(w, errordefs.New(errordefs.CH_INTERNAL, "failed to update list", correlationID(ctx)))
			return
		}

		if removed > 0 {
			m.b.Publish(bus.TopicContentChanged)
		}
		m.writeSuccess(w, http.StatusOK, map[string]string{"status": "removed"})
	}
}

// handleSimpleListClear drops an unkeyed list wholesale.
func (m *Mux) handleSimpleListClear(slot string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if err := m.s.DeleteSlot(ctx, slot); err != nil {
			m.writeErrorDef(w, errordefs.New(errordefs.CH_INTERNAL, "failed to clear list", correlationID(ctx)))
			return
		}
		m.b.Publish(bus.TopicContentChanged)
		m.writeSuccess(w, http.StatusOK, map[string]string{"status": "cleared"})
	}
}

// handleSimpleListGet lists the entries of an unkeyed list.
func (m *Mux) handleSimpleListGet(slot string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := store.List[model.ContentItem](r.Context(), m.s, slot)
		if err != nil {
			m.writeErrorDef(w, errordefs.New(errordefs.CH_INTERNAL, "failed to read list", correlationID(r.Context())))
			return
		}
		m.writeSuccess(w, http.StatusOK, items)
	}
}
