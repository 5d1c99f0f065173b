package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"spenny/internal/core"
	"spenny/internal/store"
	"spenny/internal/store/memory"
)

func newTokens(t *testing.T, alg string) *Tokens {
	t.Helper()
	tokens, err := NewTokens("test-secret", alg, time.Minute)
	if err != nil {
		t.Fatalf("new tokens: %v", err)
	}
	return tokens
}

func TestSigningMethod(t *testing.T) {
	for _, alg := range []string{"HS256", "hs384", "HS512", ""} {
		if _, err := SigningMethod(alg); err != nil {
			t.Errorf("%q: %v", alg, err)
		}
	}
	if _, err := SigningMethod("RS256"); !errors.Is(err, ErrUnsupportedAlgorithm) {
		t.Errorf("RS256: want ErrUnsupportedAlgorithm, got %v", err)
	}
}

func TestIssueAndSubject(t *testing.T) {
	tokens := newTokens(t, "HS384")
	raw, err := tokens.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	sub, err := tokens.Subject(raw)
	if err != nil || sub != "user-1" {
		t.Fatalf("subject = %q err=%v", sub, err)
	}
}

func TestSubjectRejects(t *testing.T) {
	tokens := newTokens(t, "HS256")
	valid, _ := tokens.Issue("user-1")

	expired := newTokens(t, "HS256")
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expiredRaw, _ := expired.Issue("user-1")

	otherKey, _ := NewTokens("other-secret", "HS256", time.Minute)
	forged, _ := otherKey.Issue("user-1")

	otherAlg := newTokens(t, "HS512")
	wrongAlg, _ := otherAlg.Issue("user-1")

	noSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString([]byte("test-secret"))

	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "user-1"}).
		SignedString([]byte("test-secret"))

	tests := map[string]string{
		"garbage":    "not.a.token",
		"expired":    expiredRaw,
		"forged":     forged,
		"wrong alg":  wrongAlg,
		"no subject": noSubject,
		"no expiry":  noExpiry,
		"truncated":  valid[:len(valid)-4],
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := tokens.Subject(raw); !core.Is(err, core.KindUnauthenticated) {
				t.Fatalf("want Unauthenticated, got %v", err)
			}
		})
	}
}

type failingUsers struct{ store.UserStore }

func (failingUsers) GetUser(context.Context, string) (core.User, error) {
	return core.User{}, core.Unavailable(errors.New("connection refused"))
}

func TestVerify(t *testing.T) {
	ctx := context.Background()
	users := memory.New()
	users.CreateUser(ctx, core.User{ID: "user-1", Email: "a@example.com"})
	tokens := newTokens(t, "HS256")
	v := NewVerifier(tokens, users)

	good, _ := tokens.Issue("user-1")
	if id, err := v.Verify(ctx, good); err != nil || id != "user-1" {
		t.Fatalf("verify = %q err=%v", id, err)
	}

	orphan, _ := tokens.Issue("deleted-user")
	if _, err := v.Verify(ctx, orphan); !core.Is(err, core.KindUnauthenticated) {
		t.Fatalf("orphaned subject: want Unauthenticated, got %v", err)
	}
	if _, err := v.Verify(ctx, ""); !core.Is(err, core.KindUnauthenticated) {
		t.Fatalf("empty: want Unauthenticated, got %v", err)
	}

	down := NewVerifier(tokens, failingUsers{})
	if _, err := down.Verify(ctx, good); !core.Is(err, core.KindUnavailable) {
		t.Fatalf("store down: want Unavailable, got %v", err)
	}
}

func TestPasswords(t *testing.T) {
	p := NewPasswords(4)
	hash, err := p.Hash("correct horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !p.Matches(hash, "correct horse") {
		t.Fatal("expected match")
	}
	if p.Matches(hash, "wrong") || p.Matches("not-a-hash", "correct horse") {
		t.Fatal("unexpected match")
	}
}
