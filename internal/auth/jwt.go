// Package auth issues and verifies the bearer credentials the core trusts.
// The rest of the system only ever sees the user id a token resolves to.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthorized is returned for a missing, malformed, or expired credential.
var ErrUnauthorized = errors.New("invalid or expired token")

// Provider authenticates a credential token to a user ID.
type Provider interface {
	// Issue creates a signed credential for the given user.
	Issue(userID string) (string, error)

	// Authenticate resolves a credential to the user ID it was issued for.
	Authenticate(token string) (string, error)
}

// JWTProvider implements Provider with HS256-signed JWTs.
type JWTProvider struct {
	secret []byte
	ttl    time.Duration
}

// NewJWTProvider creates a JWTProvider. The secret must not be empty.
func NewJWTProvider(secret string, ttl time.Duration) (*JWTProvider, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWTProvider{secret: []byte(secret), ttl: ttl}, nil
}

// Issue creates a signed token with the user id as subject.
func (p *JWTProvider) Issue(userID string) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(p.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

// Authenticate parses and validates a raw token, returning its subject.
func (p *JWTProvider) Authenticate(raw string) (string, error) {
	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrUnauthorized
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrUnauthorized
	}
	return claims.Subject, nil
}

var _ Provider = (*JWTProvider)(nil)
