// internal/server/handlers_session.go
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/cliphaven/cliphaven-go/internal/auth"
	"github.com/cliphaven/cliphaven-go/internal/cascade"
	errordefs "github.com/cliphaven/cliphaven-go/internal/errors"
	"github.com/cliphaven/cliphaven-go/internal/session"
)

// handleLogin handles POST /v1/session/login. The request body is the
// identity assertion produced by the external authentication provider.
func (m *Mux) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("cliphaven").Start(r.Context(), "handleLogin")
	defer span.End()
	defer r.Body.Close()

	var assertion auth.Assertion
	if err := json.NewDecoder(r.Body).Decode(&assertion); err != nil {
		span.SetStatus(codes.Error, "invalid JSON")
		m.writeErrorDef(w, errordefs.New(errordefs.CH_VALIDATION, "invalid JSON", correlationID(ctx)))
		return
	}
	if assertion.Email == "" {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_VALIDATION, "email is required", correlationID(ctx)))
		return
	}
	span.SetAttributes(attribute.String("email", assertion.Email))

	identity, token, err := m.sessions.Login(ctx, assertion)
	if err != nil {
		var blocked *session.BlockedError
		if errors.As(err, &blocked) {
			code := errordefs.CH_BLOCKED_TEMPORARY
			var details interface{}
			if blocked.Permanent {
				code = errordefs.CH_BLOCKED_PERMANENT
			} else {
				details = map[string]string{"until": blocked.Until.Format(time.RFC3339)}
			}
			span.SetStatus(codes.Error, "identity blocked")
			m.writeErrorDef(w, errordefs.NewWithDetails(code, blocked.Error(), correlationID(ctx), details))
			return
		}
		span.SetStatus(codes.Error, "login failed")
		m.writeErrorDef(w, errordefs.New(errordefs.CH_INTERNAL, "login failed", correlationID(ctx)))
		return
	}

	m.writeSuccess(w, http.StatusOK, map[string]interface{}{
		"identity": identity,
		"token":    token,
	})
}

// handleLogout handles POST /v1/session/logout.
func (m *Mux) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := m.sessions.Logout(r.Context()); err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.CH_INTERNAL, "logout failed", correlationID(r.Context())))
		return
	}
	m.writeSuccess(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// handleAccountDelete handles POST /v1/account/delete. It runs the full
// identity-erasure cascade for the authenticated identity.
func (m *Mux) handleAccountDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	email, name := claimsFrom(ctx)

	if err := m.engine.DeleteIdentity(ctx, email, name); err != nil {
		var partial *cascade.PartialCascadeError
		if errors.As(err, &partial) {
			m.writeErrorDef(w, errordefs.NewWithDetails(errordefs.CH_PARTIAL_CASCADE,
				"account deletion incomplete, the account was preserved", correlationID(ctx), partial.Error()))
			return
		}
		m.writeErrorDef(w, errordefs.New(errordefs.CH_INTERNAL, "account deletion failed", correlationID(ctx)))
		return
	}

	m.writeSuccess(w, http.StatusOK, map[string]string{"status": "deleted"})
}
