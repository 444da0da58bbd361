package auth

import (
	"testing"
	"time"

	"github.com/spec-kit/flashdash-service/internal/domain"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 24*time.Hour)

	token, expiresAt, err := tm.GenerateToken(42, domain.RoleAgent)
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}
	if until := time.Until(expiresAt); until < 23*time.Hour || until > 24*time.Hour {
		t.Fatalf("unexpected expiry %v", expiresAt)
	}

	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken returned error: %v", err)
	}
	if claims.UserID != 42 {
		t.Fatalf("expected user id 42, got %d", claims.UserID)
	}
	if claims.Role != domain.RoleAgent {
		t.Fatalf("expected role agent, got %s", claims.Role)
	}
}

func TestTokenManager_RejectsExpired(t *testing.T) {
	tm := &TokenManager{secret: []byte("secret"), ttl: -time.Minute}

	token, _, err := tm.GenerateToken(1, domain.RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}

	if _, err := tm.ParseToken(token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestTokenManager_RejectsTampered(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)

	token, _, err := tm.GenerateToken(1, domain.RoleViewer)
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := tm.ParseToken(tampered); err == nil {
		t.Fatal("expected tampered token to be rejected")
	}
}

func TestTokenManager_RejectsForeignSecret(t *testing.T) {
	other := NewTokenManager("other-secret", time.Hour)
	token, _, err := other.GenerateToken(1, domain.RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}

	tm := NewTokenManager("secret", time.Hour)
	if _, err := tm.ParseToken(token); err == nil {
		t.Fatal("expected token signed with another secret to be rejected")
	}
}
