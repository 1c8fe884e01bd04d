// internal/server/handlers_moderation.go
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	errordefs "github.com/cliphaven/cliphaven-go/internal/errors"
	"github.com/cliphaven/cliphaven-go/internal/ledger"
	"github.com/cliphaven/cliphaven-go/internal/model"
	"github.com/cliphaven/cliphaven-go/internal/session"
	"github.com/cliphaven/cliphaven-go/internal/store"
)

type createReportRequest struct {
	VideoID string `json:"videoId"`
	Reason  string `json:"reason"`
}

// handleReportCreate handles POST /v1/reports. The reported item is
// snapshotted into the report at filing time.
func (m *Mux) handleReportCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createReportRequest
	if errDef := m.decodeValidated(r, "report", &req); errDef != nil {
		m.writeErrorDef(w, errDef)
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

	email, _ := claimsFrom(ctx)
	report := model.Report{
		ID:            ulid.Make().String(),
		Video:         item,
		ReporterEmail: email,
		Reason:        req.Reason,
		Status:        model.ReportInReview,
		ReportedAt:    time.Now().UTC(),
	}

	reports, err := store.List[model.Report](ctx, m.s, model.SlotReports)
	if err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_INTERNAL, "failed to read reports", correlationID(ctx)))
		return
	}
	reports = append(reports, report)
	if err := store.Put(ctx, m.s, model.SlotReports, reports); err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_INTERNAL, "failed to store report", correlationID(ctx)))
		return
	}

	m.writeSuccess(w, http.StatusCreated, report)
}

// handleReportStatus handles POST /v1/reports/status.
func (m *Mux) handleReportStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	defer r.Body.Close()

	var req struct {
		ID     string             `json:"id"`
		Status model.ReportStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_VALIDATION, "id is required", correlationID(ctx)))
		return
	}
	switch req.Status {
	case model.ReportInReview, model.ReportActionTaken, model.ReportDismissed:
	default:
		m.writeErrorDef(w, errordefs.New(errordefs.CH_VALIDATION, "unknown report status", correlationID(ctx)))
		return
	}

	reports, err := store.List[model.Report](ctx, m.s, model.SlotReports)
	if err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_INTERNAL, "failed to read reports", correlationID(ctx)))
		return
	}

	var updated model.Report
	found := false
	for i, report := range reports {
		if report.ID == req.ID {
			reports[i].Status = req.Status
			updated = reports[i]
			found = true
			break
		}
	}
	if !found {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_NOT_FOUND, "report not found", correlationID(ctx)))
		return
	}

	if err := store.Put(ctx, m.s, model.SlotReports, reports); err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_INTERNAL, "failed to store report", correlationID(ctx)))
		return
	}

	m.writeSuccess(w, http.StatusOK, updated)
}

// handleReportList handles GET /v1/reports.
func (m *Mux) handleReportList(w http.ResponseWriter, r *http.Request) {
	reports, err := store.List[model.Report](r.Context(), m.s, model.SlotReports)
	if err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_INTERNAL, "failed to read reports", correlationID(r.Context())))
		return
	}
	m.writeSuccess(w, http.StatusOK, reports)
}

type createCampaignRequest struct {
	Name             string             `json:"name"`
	Kind             model.CampaignKind `json:"kind"`
	Thumbnail        string             `json:"thumbnail"`
	SkipAfterSeconds int                `json:"skipAfterSeconds"`
	DurationSeconds  int                `json:"durationSeconds"`
}

// handleCampaignCreate handles POST /v1/campaigns. Creating a campaign
// spends one credit of the matching kind; a counter at zero rejects the
// campaign and nothing is stored.
func (m *Mux) handleCampaignCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("cliphaven").Start(r.Context(), "handleCampaignCreate")
	defer span.End()

	var req createCampaignRequest
	if errDef := m.decodeValidated(r, "campaign", &req); errDef != nil {
		span.SetStatus(codes.Error, "invalid payload")
		m.writeErrorDef(w, errDef)
		return
	}
	span.SetAttributes(attribute.String("kind", string(req.Kind)))

	email, name := claimsFrom(ctx)
	if _, err := m.ledger.Decrement(ctx, email, req.Kind); err != nil {
		if errors.Is(err, ledger.ErrInsufficientCredit) {
			span.SetStatus(codes.Error, "insufficient credit")
			m.writeErrorDef(w, errordefs.New(errordefs.CH_INSUFFICIENT_CREDIT, "no credit remaining for this campaign kind", correlationID(ctx)))
			return
		}
		m.writeErrorDef(w, errordefs.New(errordefs.CH_INTERNAL, "failed to spend credit", correlationID(ctx)))
		return
	}

	campaign := model.AdCampaign{
		ID:              ulid.Make().String(),
		Kind:            req.Kind,
		Title:           req.Name,
		Status:          model.CampaignActive,
		OwnerEmail:      email,
		OwnerName:       name,
		ThumbnailRef:    req.Thumbnail,
		DurationSeconds: req.DurationSeconds,
		CreatedAt:       time.Now().UTC(),
	}
	if req.Kind == model.CampaignSkippable {
		campaign.SkipAfterSeconds = req.SkipAfterSeconds
	}

	campaigns, err := store.List[model.AdCampaign](ctx, m.s, model.SlotAdCampaigns)
	if err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_INTERNAL, "failed to read campaigns", correlationID(ctx)))
		return
	}
	campaigns = append(campaigns, campaign)
	if err := store.Put(ctx, m.s, model.SlotAdCampaigns, campaigns); err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_INTERNAL, "failed to store campaign", correlationID(ctx)))
		return
	}

	m.writeSuccess(w, http.StatusCreated, campaign)
}

// handleCampaignList handles GET /v1/campaigns.
func (m *Mux) handleCampaignList(w http.ResponseWriter, r *http.Request) {
	campaigns, err := store.List[model.AdCampaign](r.Context(), m.s, model.SlotAdCampaigns)
	if err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_INTERNAL, "failed to read campaigns", correlationID(r.Context())))
		return
	}
	m.writeSuccess(w, http.StatusOK, campaigns)
}

// handleCampaignAnalytics handles GET /v1/campaigns/analytics?id=...
// The figures come from the generative service.
func (m *Mux) handleCampaignAnalytics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := r.URL.Query().Get("id")
	if id == "" {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_VALIDATION, "id is required", correlationID(ctx)))
		return
	}

	analytics, err := m.gen.CampaignAnalytics(ctx, id)
	if err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_UNAVAILABLE, "analytics unavailable", correlationID(ctx)))
		return
	}
	m.writeSuccess(w, http.StatusOK, analytics)
}

// handleCreditsGet handles GET /v1/credits for the authenticated identity.
func (m *Mux) handleCreditsGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	email, _ := claimsFrom(ctx)

	entry, exists, err := m.ledger.Get(ctx, email)
	if err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_INTERNAL, "failed to read ledger", correlationID(ctx)))
		return
	}
	if !exists {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_NOT_FOUND, "no ledger entry for identity", correlationID(ctx)))
		return
	}
	m.writeSuccess(w, http.StatusOK, entry)
}

// handleCreditsUpgrade handles POST /v1/credits/upgrade. The identity
// becomes premium and both credit counters reset to the starting grant.
func (m *Mux) handleCreditsUpgrade(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	email, _ := claimsFrom(ctx)

	identity, err := m.sessions.Upgrade(ctx, email)
	if err != nil {
		if errors.Is(err, session.ErrIdentityNotFound) {
			m.writeErrorDef(w, errordefs.New(errordefs.CH_NOT_FOUND, "identity not found", correlationID(ctx)))
			return
		}
		m.writeErrorDef(w, errordefs.New(errordefs.CH_INTERNAL, "upgrade failed", correlationID(ctx)))
		return
	}
	m.writeSuccess(w, http.StatusOK, identity)
}

type createBlockRequest struct {
	Email     string          `json:"email"`
	Type      model.BlockType `json:"type"`
	ExpiresAt string          `json:"expiresAt"`
}

// handleBlockCreate handles POST /v1/blocks.
func (m *Mux) handleBlockCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createBlockRequest
	if errDef := m.decodeValidated(r, "block", &req); errDef != nil {
		m.writeErrorDef(w, errDef)
		return
	}

	entry := model.BlockEntry{
		Email:     req.Email,
		BlockType: req.Type,
	}
	if req.Type == model.BlockTemporary {
		if req.ExpiresAt == "" {
			m.writeErrorDef(w, errordefs.New(errordefs.CH_VALIDATION, "expiresAt is required for temporary blocks", correlationID(ctx)))
			return
		}
		t, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			m.writeErrorDef(w, errordefs.New(errordefs.CH_VALIDATION, "expiresAt must be RFC 3339", correlationID(ctx)))
			return
		}
		entry.ExpiresAt = &t
	}

	if err := m.guard.Block(ctx, entry); err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_INTERNAL, "failed to store block", correlationID(ctx)))
		return
	}
	m.writeSuccess(w, http.StatusCreated, entry)
}

// handleBlockRemove handles POST /v1/blocks/remove.
func (m *Mux) handleBlockRemove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	defer r.Body.Close()

	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_VALIDATION, "email is required", correlationID(ctx)))
		return
	}

	if err := m.guard.Unblock(ctx, req.Email); err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_INTERNAL, "failed to remove block", correlationID(ctx)))
		return
	}
	m.writeSuccess(w, http.StatusOK, map[string]string{"status": "removed"})
}

// handleBlockList handles GET /v1/blocks.
func (m *Mux) handleBlockList(w http.ResponseWriter, r *http.Request) {
	entries, err := m.guard.List(r.Context())
	if err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_INTERNAL, "failed to read blocks", correlationID(r.Context())))
		return
	}
	m.writeSuccess(w, http.StatusOK, entries)
}

// handleProfileSet handles POST /v1/profile for the authenticated identity.
func (m *Mux) handleProfileSet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.ProfileDetails
	if errDef := m.decodeValidated(r, "profile", &req); errDef != nil {
		m.writeErrorDef(w, errDef)
		return
	}

	email, _ := claimsFrom(ctx)
	details, _, err := store.GetValue[map[string]model.ProfileDetails](ctx, m.s, model.SlotProfileDetails)
	if err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_INTERNAL, "failed to read profile details", correlationID(ctx)))
		return
	}
	if details == nil {
		details = make(map[string]model.ProfileDetails)
	}
	details[email] = req

	if err := store.SetValue(ctx, m.s, model.SlotProfileDetails, details); err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_INTERNAL, "failed to store profile details", correlationID(ctx)))
		return
	}
	m.writeSuccess(w, http.StatusOK, req)
}

// handleProfileGet handles GET /v1/profile. An identity with no stored
// details receives an empty record, not an error.
func (m *Mux) handleProfileGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	email, _ := claimsFrom(ctx)

	details, _, err := store.GetValue[map[string]model.ProfileDetails](ctx, m.s, model.SlotProfileDetails)
	if err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_INTERNAL, "failed to read profile details", correlationID(ctx)))
		return
	}
	m.writeSuccess(w, http.StatusOK, details[email])
}
