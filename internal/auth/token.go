// Package auth issues and verifies bearer tokens and hashes passwords.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"spenny/internal/core"
	"spenny/internal/store"
)

// TokenType is returned alongside issued tokens.
const TokenType = "bearer"

var ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")

// SigningMethod resolves an HMAC algorithm name.
func SigningMethod(name string) (*jwt.SigningMethodHMAC, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "HS256", "":
		return jwt.SigningMethodHS256, nil
	case "HS384":
		return jwt.SigningMethodHS384, nil
	case "HS512":
		return jwt.SigningMethodHS512, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, name)
	}
}

// Tokens signs and checks HMAC JWTs whose subject is a user ID.
type Tokens struct {
	secret   []byte
	method   *jwt.SigningMethodHMAC
	lifetime time.Duration
	now      func() time.Time
}

func NewTokens(secret, algorithm string, lifetime time.Duration) (*Tokens, error) {
	if secret == "" {
		return nil, errors.New("token secret is required")
	}
	method, err := SigningMethod(algorithm)
	if err != nil {
		return nil, err
	}
	if lifetime <= 0 {
		lifetime = 30 * time.Minute
	}
	return &Tokens{secret: []byte(secret), method: method, lifetime: lifetime, now: time.Now}, nil
}

// Issue returns a token for userID expiring after the configured lifetime.
func (t *Tokens) Issue(userID string) (string, error) {
	now := t.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.lifetime)),
	}
	signed, err := jwt.NewWithClaims(t.method, claims).SignedString(t.secret)
	if err != nil {
		return "", core.Internal(fmt.Errorf("sign token: %w", err))
	}
	return signed, nil
}

// Subject validates signature, algorithm and expiry and returns the sub claim.
func (t *Tokens) Subject(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{t.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !token.Valid {
		return "", core.Unauthenticated("Could not validate credentials")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", core.Unauthenticated("Could not validate credentials")
	}
	return claims.Subject, nil
}

// Verifier turns a bearer credential into the ID of an existing user.
type Verifier struct {
	tokens *Tokens
	users  store.UserStore
}

func NewVerifier(tokens *Tokens, users store.UserStore) *Verifier {
	return &Verifier{tokens: tokens, users: users}
}

// Verify fails with Unauthenticated for a missing, malformed, expired or
// wrongly signed token and for a subject that no longer exists. Store
// failures surface as Unavailable.
func (v *Verifier) Verify(ctx context.Context, bearer string) (string, error) {
	raw := strings.TrimSpace(bearer)
	if raw == "" {
		return "", core.Unauthenticated("Not authenticated")
	}
	userID, err := v.tokens.Subject(raw)
	if err != nil {
		return "", err
	}
	if _, err := v.users.GetUser(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", core.Unauthenticated("Could not validate credentials")
		}
		return "", store.Classify(err, core.ResourceUser)
	}
	return userID, nil
}
