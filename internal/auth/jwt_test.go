// Package auth provides tests for session token issuance and validation.
package auth

import (
	"testing"
	"time"
)

// TestIssueValidateRoundTrip tests that an issued token validates with the
// same claims.
func TestIssueValidateRoundTrip(t *testing.T) {
	tokens := NewTokens("secret", "cliphaven", "cliphaven-client", time.Hour)

	signed, err := tokens.Issue("ann@example.com", "Ann")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	claims, err := tokens.Validate(signed)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if claims.Email != "ann@example.com" {
		t.Errorf("Email = %q, want ann@example.com", claims.Email)
	}
	if claims.Name != "Ann" {
		t.Errorf("Name = %q, want Ann", claims.Name)
	}
	if claims.Subject != "ann@example.com" {
		t.Errorf("Subject = %q, want ann@example.com", claims.Subject)
	}
}

// TestValidateWrongSecret tests that a token signed with a different secret
// is rejected.
func TestValidateWrongSecret(t *testing.T) {
	issuer := NewTokens("secret-a", "cliphaven", "cliphaven-client", time.Hour)
	verifier := NewTokens("secret-b", "cliphaven", "cliphaven-client", time.Hour)

	signed, err := issuer.Issue("ann@example.com", "Ann")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, err := verifier.Validate(signed); err == nil {
		t.Error("Validate() accepted token signed with a different secret")
	}
}

// TestValidateWrongIssuerAudience tests issuer and audience claims checks.
func TestValidateWrongIssuerAudience(t *testing.T) {
	issuer := NewTokens("secret", "other-service", "cliphaven-client", time.Hour)
	verifier := NewTokens("secret", "cliphaven", "cliphaven-client", time.Hour)

	signed, err := issuer.Issue("ann@example.com", "Ann")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, err := verifier.Validate(signed); err == nil {
		t.Error("Validate() accepted token with wrong issuer")
	}

	issuer = NewTokens("secret", "cliphaven", "other-audience", time.Hour)
	signed, err = issuer.Issue("ann@example.com", "Ann")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, err := verifier.Validate(signed); err == nil {
		t.Error("Validate() accepted token with wrong audience")
	}
}

// TestValidateExpired tests that an expired token is rejected.
func TestValidateExpired(t *testing.T) {
	tokens := NewTokens("secret", "cliphaven", "cliphaven-client", -time.Minute)

	signed, err := tokens.Issue("ann@example.com", "Ann")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, err := tokens.Validate(signed); err == nil {
		t.Error("Validate() accepted expired token")
	}
}

// TestValidateGarbage tests that a non-token string is rejected.
func TestValidateGarbage(t *testing.T) {
	tokens := NewTokens("secret", "cliphaven", "cliphaven-client", time.Hour)
	if _, err := tokens.Validate("not.a.token"); err == nil {
		t.Error("Validate() accepted garbage")
	}
}
