package store

import (
	"strings"
	"testing"
	"time"
)

func TestGenerateAndVerifyToken(t *testing.T) {
	s := newTestStore(t)

	u, err := s.CreateUser("tok@example.com", strPtr("h"), nil, "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	plaintext, tok, err := s.GenerateToken(u.ID, "cli", 7*24*time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if !strings.HasPrefix(plaintext, "ts_live_") {
		t.Fatalf("unexpected token format: %s", plaintext)
	}
	if tok.ExpiresAt == nil {
		t.Fatal("expected expiry to be set")
	}
	if !strings.HasPrefix(plaintext, tok.TokenPrefix) {
		t.Fatalf("prefix %s does not match token", tok.TokenPrefix)
	}

	gotTok, gotUser, err := s.VerifyToken(plaintext)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if gotTok == nil || gotUser == nil {
		t.Fatal("expected token to verify")
	}
	if gotUser.ID != u.ID {
		t.Fatalf("verified wrong user: %s", gotUser.ID)
	}
	if gotTok.LastUsedAt == nil {
		t.Fatal("last_used_at not touched on verify")
	}
}

func TestVerifyUnknownToken(t *testing.T) {
	s := newTestStore(t)

	tok, user, err := s.VerifyToken("ts_live_definitelynotarealtoken00000000")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if tok != nil || user != nil {
		t.Fatal("expected nil for unknown token")
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	s := newTestStore(t)

	u, err := s.CreateUser("exp@example.com", strPtr("h"), nil, "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	plaintext, _, err := s.GenerateToken(u.ID, "short", time.Nanosecond)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	time.Sleep(time.Millisecond)

	tok, user, err := s.VerifyToken(plaintext)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if tok != nil || user != nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestGenerateTokenUnknownUser(t *testing.T) {
	s := newTestStore(t)

	if _, _, err := s.GenerateToken("u_missing", "x", 0); err == nil {
		t.Fatal("expected error for unknown user")
	}
}

func TestPurgeExpiredTokens(t *testing.T) {
	s := newTestStore(t)

	u, err := s.CreateUser("purge@example.com", strPtr("h"), nil, "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, _, err := s.GenerateToken(u.ID, "old", time.Nanosecond); err != nil {
		t.Fatalf("generate expired: %v", err)
	}
	keep, _, err := s.GenerateToken(u.ID, "keep", time.Hour)
	if err != nil {
		t.Fatalf("generate live: %v", err)
	}
	forever, _, err := s.GenerateToken(u.ID, "forever", 0)
	if err != nil {
		t.Fatalf("generate non-expiring: %v", err)
	}
	time.Sleep(time.Millisecond)

	n, err := s.PurgeExpiredTokens(time.Now().UTC())
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n != 1 {
		t.Fatalf("purged %d tokens, want 1", n)
	}

	if tok, _, _ := s.VerifyToken(keep); tok == nil {
		t.Fatal("live token was purged")
	}
	if tok, _, _ := s.VerifyToken(forever); tok == nil {
		t.Fatal("non-expiring token was purged")
	}
}
