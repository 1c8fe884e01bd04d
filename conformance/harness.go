// Package conformance provides a test harness that exercises the service
// end to end over HTTP and checks the cross-collection consistency
// guarantees: cascade completeness on deletes and identity erasure.
package conformance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/cliphaven/cliphaven-go/internal/auth"
	"github.com/cliphaven/cliphaven-go/internal/bus"
	"github.com/cliphaven/cliphaven-go/internal/cascade"
	"github.com/cliphaven/cliphaven-go/internal/guard"
	"github.com/cliphaven/cliphaven-go/internal/kv"
	"github.com/cliphaven/cliphaven-go/internal/ledger"
	"github.com/cliphaven/cliphaven-go/internal/server"
	"github.com/cliphaven/cliphaven-go/internal/session"
	"github.com/cliphaven/cliphaven-go/internal/store"
)

// Harness runs the full service over an in-memory backend behind a test
// HTTP server.
type Harness struct {
	server *httptest.Server
	Store  *store.Store
	Bus    *bus.Bus
}

// NewHarness creates a harness with every component wired the way the
// production binary wires them, minus external collaborators.
func NewHarness() (*Harness, error) {
	log := slog.Default()
	s := store.New(kv.NewMemory(), log)
	b := bus.New(log)
	l := ledger.New(s, log)
	g := guard.New(s, log)
	engine := cascade.New(s, b, l, log)
	tokens := auth.NewTokens("conformance-secret", "cliphaven", "cliphaven-client", time.Hour)
	sessions := session.New(s, g, l, tokens, log)

	mux := server.NewMux(s, b, sessions, engine, g, l, tokens, nil, nil, nil)

	return &Harness{
		server: httptest.NewServer(mux),
		Store:  s,
		Bus:    b,
	}, nil
}

// URL returns the base URL of the test server.
func (h *Harness) URL() string {
	return h.server.URL
}

// Close shuts down the test server.
func (h *Harness) Close() {
	h.server.Close()
}

// Login signs in an identity and returns its session token.
func (h *Harness) Login(email, name string) (string, error) {
	status, body, err := h.Do("POST", "/v1/session/login", "", map[string]string{
		"email": email, "name": name,
	})
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("login returned status %d: %v", status, body)
	}
	data, ok := body["data"].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("login response missing data: %v", body)
	}
	token, ok := data["token"].(string)
	if !ok || token == "" {
		return "", fmt.Errorf("login response missing token: %v", data)
	}
	return token, nil
}

// Do issues a JSON request against the harness server and decodes the
// response envelope.
func (h *Harness) Do(method, path, token string, payload interface{}) (int, map[string]interface{}, error) {
	var buf bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&buf).Encode(payload); err != nil {
			return 0, nil, err
		}
	}
	req, err := http.NewRequest(method, h.server.URL+path, &buf)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	var body map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp.StatusCode, body, nil
}

// Data extracts the data field of a response envelope as a map.
func Data(body map[string]interface{}) map[string]interface{} {
	data, _ := body["data"].(map[string]interface{})
	return data
}

// List extracts the data field of a response envelope as a list.
func List(body map[string]interface{}) []interface{} {
	list, _ := body["data"].([]interface{})
	return list
}
