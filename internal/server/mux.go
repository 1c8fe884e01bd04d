// internal/server/mux.go
// Package server implements the HTTP handlers and routing for the cliphaven
// service: session endpoints, collection CRUD, cascading deletes, credit
// operations, and moderation, with JWT session authentication and schema
// validation on mutating payloads.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cliphaven/cliphaven-go/internal/auth"
	"github.com/cliphaven/cliphaven-go/internal/bus"
	"github.com/cliphaven/cliphaven-go/internal/capture"
	"github.com/cliphaven/cliphaven-go/internal/cascade"
	errordefs "github.com/cliphaven/cliphaven-go/internal/errors"
	"github.com/cliphaven/cliphaven-go/internal/gen"
	"github.com/cliphaven/cliphaven-go/internal/guard"
	"github.com/cliphaven/cliphaven-go/internal/ledger"
	"github.com/cliphaven/cliphaven-go/internal/metrics"
	"github.com/cliphaven/cliphaven-go/internal/model"
	"github.com/cliphaven/cliphaven-go/internal/schema"
	"github.com/cliphaven/cliphaven-go/internal/session"
	"github.com/cliphaven/cliphaven-go/internal/store"
)

// ContextKey is used for context values to avoid collisions
// when storing values in request context
type ContextKey string

const (
	// Context keys for storing request-scoped values
	ContextKeyEmail         ContextKey = "email"
	ContextKeyName          ContextKey = "name"
	ContextKeyCorrelationID ContextKey = "correlationId"
)

// Mux handles HTTP requests for the cliphaven service. It owns no state of
// its own; everything flows through the collection store, the consistency
// engine, and their collaborators.
type Mux struct {
	mux       *http.ServeMux
	s         *store.Store
	b         *bus.Bus
	sessions  *session.Manager
	engine    *cascade.Engine
	guard     *guard.Guard
	ledger    *ledger.Ledger
	tokens    *auth.Tokens
	gen       gen.Service
	capture   capture.Service
	validator *schema.Validator
	metrics   *metrics.Metrics

	// CORS configuration
	corsAllowedOrigins []string // Allowed origins for CORS (empty means deny all)
}

// NewMux creates a new HTTP mux with all cliphaven endpoints registered.
func NewMux(s *store.Store, b *bus.Bus, sessions *session.Manager, engine *cascade.Engine, g *guard.Guard, l *ledger.Ledger, tokens *auth.Tokens, genSvc gen.Service, captureSvc capture.Service, corsAllowedOrigins []string) *http.ServeMux {
	validator, err := schema.NewValidator()
	if err != nil {
		slog.Error("failed to initialize schema validator", "error", err)
		os.Exit(1)
	}

	if genSvc == nil {
		genSvc = gen.Noop{}
	}
	if captureSvc == nil {
		captureSvc = capture.Noop{}
	}

	m := &Mux{
		mux:                http.NewServeMux(),
		s:                  s,
		b:                  b,
		sessions:           sessions,
		engine:             engine,
		guard:              g,
		ledger:             l,
		tokens:             tokens,
		gen:                genSvc,
		capture:            captureSvc,
		validator:          validator,
		metrics:            metrics.NewMetrics(),
		corsAllowedOrigins: corsAllowedOrigins,
	}

	// Health endpoints
	m.mux.HandleFunc("/healthz", m.handleHealthz)
	m.mux.HandleFunc("/readyz", m.handleReadyz)
	m.mux.Handle("/metrics", promhttp.Handler())

	// Session endpoints; login is the only unauthenticated route.
	m.mux.HandleFunc("/v1/session/login", m.method("POST", m.withMiddleware(m.handleLogin)))
	m.mux.HandleFunc("/v1/session/logout", m.method("POST", m.withAuth(m.handleLogout)))
	m.mux.HandleFunc("/v1/account/delete", m.method("POST", m.withAuth(m.handleAccountDelete)))

	// Content
	m.mux.HandleFunc("/v1/content", m.dispatch(m.withAuth(m.handleContentList), m.withAuth(m.handleContentCreate)))
	m.mux.HandleFunc("/v1/content/update", m.method("POST", m.withAuth(m.handleContentUpdate)))
	m.mux.HandleFunc("/v1/content/delete", m.method("POST", m.withAuth(m.handleContentDelete)))
	m.mux.HandleFunc("/v1/content/record", m.method("POST", m.withAuth(m.handleContentRecord)))
	m.mux.HandleFunc("/v1/content/suggest", m.method("POST", m.withAuth(m.handleContentSuggest)))
	m.mux.HandleFunc("/v1/content/thumbnail", m.method("POST", m.withAuth(m.handleContentThumbnail)))

	// Communities and subscriptions
	m.mux.HandleFunc("/v1/communities", m.dispatch(m.withAuth(m.handleCommunityList), m.withAuth(m.handleCommunityCreate)))
	m.mux.HandleFunc("/v1/communities/delete", m.method("POST", m.withAuth(m.handleCommunityDelete)))
	m.mux.HandleFunc("/v1/subscriptions", m.dispatch(m.withAuth(m.handleSubscriptionList), m.withAuth(m.handleSubscriptionAdd)))
	m.mux.HandleFunc("/v1/subscriptions/remove", m.method("POST", m.withAuth(m.handleSubscriptionRemove)))

	// Playlists
	m.mux.HandleFunc("/v1/playlists", m.dispatch(m.withAuth(m.handlePlaylistList), m.withAuth(m.handlePlaylistCreate)))
	m.mux.HandleFunc("/v1/playlists/delete", m.method("POST", m.withAuth(m.handlePlaylistDelete)))
	m.mux.HandleFunc("/v1/playlists/add", m.method("POST", m.withAuth(m.handlePlaylistAdd)))
	m.mux.HandleFunc("/v1/playlists/remove", m.method("POST", m.withAuth(m.handlePlaylistRemove)))

	// Simple snapshot lists
	for path, slot := range map[string]string{
		"history":     model.SlotHistory,
		"liked":       model.SlotLiked,
		"watch-later": model.SlotWatchLater,
	} {
		slot := slot
		m.mux.HandleFunc("/v1/"+path, m.dispatch(m.withAuth(m.handleSimpleListGet(slot)), m.withAuth(m.handleSimpleListAdd(slot))))
		m.mux.HandleFunc("/v1/"+path+"/remove", m.method("POST", m.withAuth(m.handleSimpleListRemove(slot))))
		m.mux.HandleFunc("/v1/"+path+"/clear", m.method("POST", m.withAuth(m.handleSimpleListClear(slot))))
	}

	// Reports
	m.mux.HandleFunc("/v1/reports", m.dispatch(m.withAuth(m.handleReportList), m.withAuth(m.handleReportCreate)))
	m.mux.HandleFunc("/v1/reports/status", m.method("POST", m.withAuth(m.handleReportStatus)))

	// Campaigns and credits
	m.mux.HandleFunc("/v1/campaigns", m.dispatch(m.withAuth(m.handleCampaignList), m.withAuth(m.handleCampaignCreate)))
	m.mux.HandleFunc("/v1/campaigns/analytics", m.method("GET", m.withAuth(m.handleCampaignAnalytics)))
	m.mux.HandleFunc("/v1/credits", m.method("GET", m.withAuth(m.handleCreditsGet)))
	m.mux.HandleFunc("/v1/credits/upgrade", m.method("POST", m.withAuth(m.handleCreditsUpgrade)))

	// Moderation
	m.mux.HandleFunc("/v1/blocks", m.dispatch(m.withAuth(m.handleBlockList), m.withAuth(m.handleBlockCreate)))
	m.mux.HandleFunc("/v1/blocks/remove", m.method("POST", m.withAuth(m.handleBlockRemove)))

	// Profile details
	m.mux.HandleFunc("/v1/profile", m.dispatch(m.withAuth(m.handleProfileGet), m.withAuth(m.handleProfileSet)))

	return m.mux
}

// method ensures the HTTP method matches the expected method
func (m *Mux) method(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method && r.Method != "OPTIONS" {
			err := errordefs.New(errordefs.CH_BAD_REQUEST, "method not allowed", "")
			m.writeErrorDef(w, err)
			return
		}
		h(w, r)
	}
}

// dispatch routes GET and POST on the same path to different handlers.
func (m *Mux) dispatch(get, post http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case "GET":
			get(w, r)
		case "POST", "OPTIONS":
			post(w, r)
		default:
			err := errordefs.New(errordefs.CH_BAD_REQUEST, "method not allowed", "")
			m.writeErrorDef(w, err)
		}
	}
}

// statusRecorder captures the status code written by a handler so the
// middleware can log and meter the request afterwards.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// withMiddleware applies CORS handling, correlation IDs, request logging,
// and request metrics.
func (m *Mux) withMiddleware(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		if r.Method == "OPTIONS" {
			m.setCORSHeaders(w, r, true)
			w.WriteHeader(http.StatusOK)
			return
		}
		m.setCORSHeaders(w, r, false)

		correlationID := r.Header.Get("X-Correlation-Id")
		if correlationID == "" {
			correlationID = uuid.New().String()
		}
		r = r.WithContext(context.WithValue(r.Context(), ContextKeyCorrelationID, correlationID))
		w.Header().Set("X-Correlation-Id", correlationID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)

		duration := time.Since(start)
		status := httpStatusLabel(rec.status)
		m.metrics.HTTPRequestTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		m.metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path, status).Observe(duration.Seconds())
		m.logRequest(r, rec.status, duration, correlationID)
	}
}

// withAuth applies the common middleware plus session token validation.
// The token's email and name claims are placed on the request context.
func (m *Mux) withAuth(h http.HandlerFunc) http.HandlerFunc {
	return m.withMiddleware(func(w http.ResponseWriter, r *http.Request) {
		claims, err := m.validateSession(r)
		if err != nil {
			errorDef, ok := err.(*errordefs.Error)
			if !ok {
				errorDef = errordefs.New(errordefs.CH_AUTHZ, err.Error(), "")
			}
			errorDef.CorrelationID = correlationID(r.Context())
			m.writeErrorDef(w, errorDef)
			return
		}
		ctx := context.WithValue(r.Context(), ContextKeyEmail, claims.Email)
		ctx = context.WithValue(ctx, ContextKeyName, claims.Name)
		h(w, r.WithContext(ctx))
	})
}

// validateSession checks the bearer token and returns its claims.
func (m *Mux) validateSession(r *http.Request) (*auth.Claims, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, errordefs.New(errordefs.CH_AUTHN, "missing Authorization header", "")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, errordefs.New(errordefs.CH_AUTHN, "invalid Authorization header format", "")
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")

	claims, err := m.tokens.Validate(tokenString)
	if err != nil {
		if strings.Contains(err.Error(), "expired") {
			return nil, errordefs.New(errordefs.CH_JWT_EXPIRED, "session token expired", "")
		}
		return nil, errordefs.New(errordefs.CH_JWT_INVALID, "invalid session token", "")
	}
	if claims.Email == "" {
		return nil, errordefs.New(errordefs.CH_JWT_INVALID, "missing email claim", "")
	}
	return claims, nil
}

func (m *Mux) setCORSHeaders(w http.ResponseWriter, r *http.Request, preflight bool) {
	if len(m.corsAllowedOrigins) == 0 {
		return
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	allowed := false
	for _, allowedOrigin := range m.corsAllowedOrigins {
		if allowedOrigin == "*" || allowedOrigin == origin {
			allowed = true
			break
		}
	}
	if !allowed {
		return
	}
	w.Header().Set("Access-Control-Allow-Origin", origin)
	if preflight {
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Correlation-Id")
		w.Header().Set("Access-Control-Max-Age", "86400")
	}
}

// writeSuccess writes a successful response
func (m *Mux) writeSuccess(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	response := map[string]interface{}{
		"data": data,
	}
	_ = json.NewEncoder(w).Encode(response)
}

// writeError writes an error response following the error taxonomy
func (m *Mux) writeError(w http.ResponseWriter, statusCode int, code, message, correlationID string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	response := map[string]interface{}{
		"error": map[string]interface{}{
			"code":          code,
			"message":       message,
			"correlationId": correlationID,
		},
	}

	if details != nil {
		response["error"].(map[string]interface{})["details"] = details
	}

	_ = json.NewEncoder(w).Encode(response)
}

// writeErrorDef writes an error response using the error definitions package
func (m *Mux) writeErrorDef(w http.ResponseWriter, err *errordefs.Error) {
	m.writeError(w, err.HTTPStatus, string(err.Code), err.Message, err.CorrelationID, err.Details)
}

// logRequest logs request details
func (m *Mux) logRequest(r *http.Request, status int, duration time.Duration, correlationID string) {
	attrs := []slog.Attr{
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.Duration("duration", duration),
		slog.String("remote_addr", r.RemoteAddr),
	}

	if correlationID != "" {
		attrs = append(attrs, slog.String("correlation_id", correlationID))
	}

	if email, ok := r.Context().Value(ContextKeyEmail).(string); ok && email != "" {
		attrs = append(attrs, slog.String("email", email))
	}

	if status >= 500 {
		slog.LogAttrs(r.Context(), slog.LevelError, "request completed with error", attrs...)
	} else {
		slog.LogAttrs(r.Context(), slog.LevelInfo, "request completed", attrs...)
	}
}

// correlationID extracts the correlation ID from a request context.
func correlationID(ctx context.Context) string {
	if v, ok := ctx.Value(ContextKeyCorrelationID).(string); ok {
		return v
	}
	return ""
}

// claimsFrom extracts the authenticated email and name from a request context.
func claimsFrom(ctx context.Context) (email, name string) {
	if v, ok := ctx.Value(ContextKeyEmail).(string); ok {
		email = v
	}
	if v, ok := ctx.Value(ContextKeyName).(string); ok {
		name = v
	}
	return email, name
}

func httpStatusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	default:
		return "2xx"
	}
}

// handleHealthz handles liveness health check requests
func (m *Mux) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReadyz handles readiness health check requests
func (m *Mux) handleReadyz(w http.ResponseWriter, r *http.Request) {
	// A successful read of any slot means the backing store is reachable.
	// An absent slot still counts as reachable.
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := store.List[model.Identity](ctx, m.s, model.SlotAllIdentities); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
