package conformance

import (
	"context"
	"net/http"
	"testing"

	"github.com/cliphaven/cliphaven-go/internal/model"
	"github.com/cliphaven/cliphaven-go/internal/store"
)

// TestContentDeletionConsistency exercises the content cascade end to end:
// after deleting an item over HTTP, no snapshot list, playlist, or report
// still references it.
func TestContentDeletionConsistency(t *testing.T) {
	h, err := NewHarness()
	if err != nil {
		t.Fatalf("NewHarness() error = %v", err)
	}
	defer h.Close()

	ann, err := h.Login("ann@example.com", "Ann")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	// Upload two clips, snapshot the first everywhere, then report it.
	_, body, _ := h.Do("POST", "/v1/content", ann, map[string]interface{}{"title": "doomed clip"})
	doomed := Data(body)["id"].(string)
	_, body, _ = h.Do("POST", "/v1/content", ann, map[string]interface{}{"title": "surviving clip"})
	survivor := Data(body)["id"].(string)

	for _, path := range []string{"/v1/history", "/v1/liked", "/v1/watch-later"} {
		if status, _, _ := h.Do("POST", path, ann, map[string]string{"videoId": doomed}); status != http.StatusOK {
			t.Fatalf("add to %s status = %d", path, status)
		}
	}
	_, body, _ = h.Do("POST", "/v1/playlists", ann, map[string]interface{}{"name": "mix"})
	playlistID := Data(body)["id"].(string)
	for _, id := range []string{doomed, survivor} {
		if status, _, _ := h.Do("POST", "/v1/playlists/add", ann, map[string]string{
			"playlistId": playlistID, "videoId": id,
		}); status != http.StatusOK {
			t.Fatalf("playlist add status = %d", status)
		}
	}
	if status, _, _ := h.Do("POST", "/v1/reports", ann, map[string]string{
		"videoId": doomed, "reason": "spam",
	}); status != http.StatusCreated {
		t.Fatalf("report status = %d", status)
	}

	if status, _, _ := h.Do("POST", "/v1/content/delete", ann, map[string]string{"id": doomed}); status != http.StatusOK {
		t.Fatalf("delete status = %d", status)
	}

	// Nothing may still reference the deleted id.
	for _, path := range []string{"/v1/history", "/v1/liked", "/v1/watch-later", "/v1/reports"} {
		_, body, _ := h.Do("GET", path, ann, nil)
		for _, entry := range List(body) {
			record := entry.(map[string]interface{})
			if record["id"] == doomed {
				t.Errorf("%s still holds the deleted item", path)
			}
			if video, ok := record["video"].(map[string]interface{}); ok && video["id"] == doomed {
				t.Errorf("%s still holds a report against the deleted item", path)
			}
		}
	}
	_, body, _ = h.Do("GET", "/v1/playlists", ann, nil)
	playlists := List(body)
	if len(playlists) != 1 {
		t.Fatalf("playlists = %d, want 1 (playlists survive their snapshots)", len(playlists))
	}
	items := playlists[0].(map[string]interface{})["items"].([]interface{})
	if len(items) != 1 || items[0].(map[string]interface{})["id"] != survivor {
		t.Errorf("playlist items = %v, want only the survivor", items)
	}

	// Deleting again is a no-op, not an error.
	if status, _, _ := h.Do("POST", "/v1/content/delete", ann, map[string]string{"id": doomed}); status != http.StatusOK {
		t.Errorf("repeat delete status = %d, want 200", status)
	}
}

// TestIdentityErasureConsistency exercises account deletion end to end:
// afterwards no collection holds a record keyed by the erased email or name.
func TestIdentityErasureConsistency(t *testing.T) {
	h, err := NewHarness()
	if err != nil {
		t.Fatalf("NewHarness() error = %v", err)
	}
	defer h.Close()

	bob, err := h.Login("bob@example.com", "Bob")
	if err != nil {
		t.Fatalf("login bob: %v", err)
	}
	_, body, _ := h.Do("POST", "/v1/content", bob, map[string]interface{}{"title": "bobs clip"})
	bobsClip := Data(body)["id"].(string)

	ann, err := h.Login("ann@example.com", "Ann")
	if err != nil {
		t.Fatalf("login ann: %v", err)
	}
	_, body, _ = h.Do("POST", "/v1/content", ann, map[string]interface{}{"title": "anns clip"})
	annsClip := Data(body)["id"].(string)

	if status, _, _ := h.Do("POST", "/v1/credits/upgrade", ann, nil); status != http.StatusOK {
		t.Fatalf("upgrade status = %d", status)
	}
	if status, _, _ := h.Do("POST", "/v1/campaigns", ann, map[string]interface{}{
		"name": "anns promo", "kind": "skippable",
	}); status != http.StatusCreated {
		t.Fatalf("campaign status = %d", status)
	}
	if status, _, _ := h.Do("POST", "/v1/communities", ann, map[string]interface{}{"name": "anns-corner"}); status != http.StatusCreated {
		t.Fatalf("community status = %d", status)
	}
	// Ann reports Bob's clip; Bob reports Ann's clip. Both must vanish with
	// Ann: one by reporter, one by reported item.
	if status, _, _ := h.Do("POST", "/v1/reports", ann, map[string]string{
		"videoId": bobsClip, "reason": "noise",
	}); status != http.StatusCreated {
		t.Fatalf("ann report status = %d", status)
	}
	if status, _, _ := h.Do("POST", "/v1/reports", bob, map[string]string{
		"videoId": annsClip, "reason": "spam",
	}); status != http.StatusCreated {
		t.Fatalf("bob report status = %d", status)
	}
	if status, _, _ := h.Do("POST", "/v1/profile", ann, map[string]string{"city": "Lyon"}); status != http.StatusOK {
		t.Fatalf("profile status = %d", status)
	}
	// Bob blocks Ann after her login; the entry is keyed by her email and
	// must not outlive her account.
	if status, _, _ := h.Do("POST", "/v1/blocks", bob, map[string]string{
		"email": "ann@example.com", "type": "permanent",
	}); status != http.StatusCreated {
		t.Fatalf("block status = %d", status)
	}

	if status, body, _ := h.Do("POST", "/v1/account/delete", ann, nil); status != http.StatusOK {
		t.Fatalf("account delete status = %d, body %v", status, body)
	}

	// Inspect the store directly: HTTP listing would itself be a view, and
	// the erasure property is about what is persisted.
	ctx := context.Background()
	items, _ := store.List[model.ContentItem](ctx, h.Store, model.SlotContentItems)
	for _, item := range items {
		if item.UploaderEmail == "ann@example.com" || item.UploaderName == "Ann" {
			t.Errorf("content item %s still keyed by erased identity", item.ID)
		}
	}
	if len(items) != 1 || items[0].ID != bobsClip {
		t.Errorf("content items = %+v, want only bob's clip", items)
	}
	reports, _ := store.List[model.Report](ctx, h.Store, model.SlotReports)
	if len(reports) != 0 {
		t.Errorf("reports = %+v, want none (both referenced the erased identity)", reports)
	}
	campaigns, _ := store.List[model.AdCampaign](ctx, h.Store, model.SlotAdCampaigns)
	if len(campaigns) != 0 {
		t.Errorf("campaigns = %+v, want none", campaigns)
	}
	communities, _ := store.List[model.Community](ctx, h.Store, model.SlotCommunities)
	if len(communities) != 0 {
		t.Errorf("communities = %+v, want none", communities)
	}
	identities, _ := store.List[model.Identity](ctx, h.Store, model.SlotAllIdentities)
	if len(identities) != 1 || identities[0].Email != "bob@example.com" {
		t.Errorf("identities = %+v, want only bob", identities)
	}
	if _, exists, _ := store.GetValue[model.Identity](ctx, h.Store, model.SlotActiveIdentity); exists {
		t.Error("active identity still set after erasure")
	}
	if _, exists, _ := store.GetValue[model.LedgerEntry](ctx, h.Store, model.CreditLedgerSlot("ann@example.com")); exists {
		t.Error("ledger entry still present after erasure")
	}
	details, _, _ := store.GetValue[map[string]model.ProfileDetails](ctx, h.Store, model.SlotProfileDetails)
	if _, present := details["ann@example.com"]; present {
		t.Error("profile details still keyed by erased email")
	}
	blocks, _ := store.List[model.BlockEntry](ctx, h.Store, model.SlotBlockedIdentities)
	for _, b := range blocks {
		if b.Email == "ann@example.com" {
			t.Error("block entry still keyed by erased email")
		}
	}
}

// TestMalformedSlotRecovery seeds a corrupt blob and verifies the service
// serves the collection as empty and recovers on the next write.
func TestMalformedSlotRecovery(t *testing.T) {
	h, err := NewHarness()
	if err != nil {
		t.Fatalf("NewHarness() error = %v", err)
	}
	defer h.Close()

	ann, err := h.Login("ann@example.com", "Ann")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	// Corrupt the collection behind the store's back.
	ctx := context.Background()
	if err := store.Put(ctx, h.Store, model.SlotContentItems, []model.ContentItem{{ID: "v1", Title: "old"}}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := store.SetValue(ctx, h.Store, model.SlotContentItems, ""); err != nil {
		t.Fatalf("corrupt: %v", err)
	}

	status, body, _ := h.Do("GET", "/v1/content", ann, nil)
	if status != http.StatusOK {
		t.Fatalf("list over corrupt slot status = %d, want 200", status)
	}
	if entries := List(body); len(entries) != 0 {
		t.Errorf("corrupt slot served %d entries, want 0", len(entries))
	}

	if status, _, _ := h.Do("POST", "/v1/content", ann, map[string]interface{}{"title": "fresh"}); status != http.StatusCreated {
		t.Fatalf("create over corrupt slot status = %d", status)
	}
	_, body, _ = h.Do("GET", "/v1/content", ann, nil)
	if entries := List(body); len(entries) != 1 {
		t.Errorf("list after recovery = %d entries, want 1", len(entries))
	}
}
