package auth

import (
	"strings"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	token, expiresAt, err := GenerateToken("AB23CD", "player-1", "alice", secret, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if time.Until(expiresAt) < 59*time.Minute {
		t.Errorf("expiry %v, want about an hour out", expiresAt)
	}

	claims, err := VerifyToken(token, secret)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.RoomCode != "AB23CD" || claims.PlayerID != "player-1" || claims.PlayerName != "alice" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestTokenRejectsTampering(t *testing.T) {
	secret := []byte("test-secret")
	token, _, err := GenerateToken("AB23CD", "player-1", "alice", secret, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := VerifyToken(token, []byte("other-secret")); err == nil {
		t.Error("token verified with the wrong secret")
	}
	if _, err := VerifyToken("not-a-token", secret); err == nil {
		t.Error("malformed token verified")
	}
	parts := strings.SplitN(token, ".", 2)
	forged := parts[0] + "x." + parts[1]
	if _, err := VerifyToken(forged, secret); err == nil {
		t.Error("tampered payload verified")
	}
}

func TestTokenExpiry(t *testing.T) {
	secret := []byte("test-secret")
	token, _, err := GenerateToken("AB23CD", "player-1", "alice", secret, -time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := VerifyToken(token, secret); err == nil {
		t.Error("expired token verified")
	}
}

func TestTokenRequiresSecret(t *testing.T) {
	if _, _, err := GenerateToken("AB23CD", "player-1", "alice", nil, time.Hour); err == nil {
		t.Error("token generated without a secret")
	}
	if _, err := VerifyToken("a.b", nil); err == nil {
		t.Error("token verified without a secret")
	}
}
