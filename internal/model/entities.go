// internal/model/entities.go
// Package model defines the record types held in the ClipHaven collection
// store and the slot names under which each collection is persisted.
package model

import (
	"time"
)

// Slot names for the persisted collections. Each slot holds one encoded
// collection in the key-value store (§ external interface of the host store).
const (
	SlotActiveIdentity    = "active-identity"
	SlotAllIdentities     = "all-identities"
	SlotContentItems      = "content-items"
	SlotCommunities       = "communities"
	SlotSubscriptions     = "subscriptions"
	SlotPlaylists         = "playlists"
	SlotHistory           = "history"
	SlotLiked             = "liked"
	SlotWatchLater        = "watch-later"
	SlotReports           = "reports"
	SlotAdCampaigns       = "user-ad-campaigns"
	SlotBlockedIdentities = "blocked-identities"
	SlotProfileDetails    = "profile-details"

	creditLedgerPrefix = "credit-ledger:"
)

// CreditLedgerSlot returns the slot name for one identity's ledger entry.
// Ledger entries are stored one slot per email, not as a single collection.
func CreditLedgerSlot(email string) string {
	return creditLedgerPrefix + email
}

// Identity is a signed-in account. Email is the stable key every other
// collection references; Name is display-only and may change.
type Identity struct {
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Avatar     string    `json:"avatar"`
	IsPremium  bool      `json:"isPremium"`
	JoinedDate time.Time `json:"joinedDate"`
}

// ContentItem is a video or short. UploaderEmail is the authoritative owner
// key; UploaderName is carried for display and for matching records written
// before email keying was introduced.
type ContentItem struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	ThumbnailRef  string    `json:"thumbnailRef"`
	MediaRef      string    `json:"mediaRef,omitempty"`
	IsShort       bool      `json:"isShort"`
	UploaderEmail string    `json:"uploaderEmail"`
	UploaderName  string    `json:"uploaderName"`
	CommunityName string    `json:"communityName,omitempty"`
	Views         int64     `json:"views"`
	UploadedAt    time.Time `json:"uploadedAt"`
}

// OwnedBy reports whether the item belongs to the identity with the given
// email and display name. Email wins; the name comparison only applies to
// records that predate email keying.
func (c ContentItem) OwnedBy(email, name string) bool {
	if c.UploaderEmail != "" {
		return c.UploaderEmail == email
	}
	return c.UploaderName == name
}

// Community is a named group of uploaders. Name is unique and is what
// content items reference, not the id.
type Community struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	OwnerEmail  string `json:"ownerEmail"`
	MemberCount int    `json:"memberCount"`
	Avatar      string `json:"avatar"`
	Location    string `json:"location"`
}

// Playlist embeds content item snapshots, not ids. A snapshot does not
// update when its source item is edited; it is purged when the source
// item is deleted.
type Playlist struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Items       []ContentItem `json:"items"`
}

// ReportStatus is the moderation state of a report.
type ReportStatus string

const (
	ReportInReview    ReportStatus = "InReview"
	ReportActionTaken ReportStatus = "ActionTaken"
	ReportDismissed   ReportStatus = "Dismissed"
)

// Report is a user complaint about a content item. Video is an embedded
// snapshot of the reported item at filing time.
type Report struct {
	ID            string       `json:"id"`
	Video         ContentItem  `json:"video"`
	ReporterEmail string       `json:"reporterEmail"`
	Reason        string       `json:"reason"`
	Status        ReportStatus `json:"status"`
	ReportedAt    time.Time    `json:"reportedAt"`
}

// CampaignKind is the explicit discriminant of the ad campaign union.
// The two variants were historically distinguished only by which fields
// happened to be present; the tag makes the split exhaustive.
type CampaignKind string

const (
	CampaignSkippable   CampaignKind = "skippable"
	CampaignUnskippable CampaignKind = "unskippable"
)

// CampaignStatus is the lifecycle state of an ad campaign.
type CampaignStatus string

const (
	CampaignActive CampaignStatus = "active"
	CampaignPaused CampaignStatus = "paused"
	CampaignEnded  CampaignStatus = "ended"
)

// CampaignMetrics holds the delivery counters for a campaign.
type CampaignMetrics struct {
	Impressions int64 `json:"impressions"`
	Clicks      int64 `json:"clicks"`
	Skips       int64 `json:"skips"`
}

// AdCampaign is a promoted placement. OwnerEmail is the authoritative owner
// key; OwnerName is display-only. SkipAfterSeconds is meaningful only for
// the skippable variant, DurationSeconds for both.
type AdCampaign struct {
	ID               string          `json:"id"`
	Kind             CampaignKind    `json:"kind"`
	Title            string          `json:"title"`
	Status           CampaignStatus  `json:"status"`
	OwnerEmail       string          `json:"ownerEmail"`
	OwnerName        string          `json:"ownerName"`
	ThumbnailRef     string          `json:"thumbnailRef"`
	Metrics          CampaignMetrics `json:"metrics"`
	SkipAfterSeconds int             `json:"skipAfterSeconds,omitempty"`
	DurationSeconds  int             `json:"durationSeconds"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// OwnedBy reports whether the campaign belongs to the identity with the
// given email and display name.
func (a AdCampaign) OwnedBy(email, name string) bool {
	if a.OwnerEmail != "" {
		return a.OwnerEmail == email
	}
	return a.OwnerName == name
}

// LedgerEntry tracks the promotional credits remaining for one premium
// identity. Counts never go below zero.
type LedgerEntry struct {
	OwnerEmail       string `json:"ownerEmail"`
	SkippableCount   int    `json:"skippableCount"`
	UnskippableCount int    `json:"unskippableCount"`
}

// BlockType distinguishes permanent from time-limited blocks.
type BlockType string

const (
	BlockPermanent BlockType = "permanent"
	BlockTemporary BlockType = "temporary"
)

// BlockEntry bars an identity from logging in. ExpiresAt is set only for
// temporary blocks.
type BlockEntry struct {
	Email     string     `json:"email"`
	BlockType BlockType  `json:"blockType"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// ProfileDetails is the sparse per-identity settings record, stored as a
// map keyed by email rather than a flat collection.
type ProfileDetails struct {
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
}
