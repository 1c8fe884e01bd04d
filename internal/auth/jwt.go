// internal/auth/jwt.go
// Package auth issues and validates the HS256 session tokens handed out at
// login. The external authentication provider supplies the identity
// assertion; this package only binds it to a bearer token the HTTP layer
// can check without re-consulting the provider.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Assertion is what the external authentication provider yields for a
// signed-in person. The provider itself is out of scope; anything that can
// produce one of these can drive a login.
type Assertion struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
}

// Provider is the external authentication collaborator.
type Provider interface {
	// Assert exchanges provider-specific credentials for an identity
	// assertion.
	Assert(credential string) (Assertion, error)
}

// Claims is the payload inside every session token.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// Tokens issues and validates session tokens with a shared HMAC secret.
type Tokens struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
}

// NewTokens creates a token issuer/validator.
func NewTokens(secret, issuer, audience string, ttl time.Duration) *Tokens {
	return &Tokens{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
	}
}

// Issue creates a signed session token for an identity.
func (t *Tokens) Issue(email, name string) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		Name:  name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			Issuer:    t.issuer,
			Audience:  jwt.ClaimStrings{t.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate parses a session token and returns its claims. It rejects
// non-HMAC signing methods, wrong issuer/audience, and expired tokens.
func (t *Tokens) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return t.secret, nil
		},
		jwt.WithIssuer(t.issuer),
		jwt.WithAudience(t.audience),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
