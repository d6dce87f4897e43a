package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"spendtrack/internal/core"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("test-secret-at-least-32-bytes-long")

	token, err := m.Issue("user-123", "a@b.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := m.Decode(token)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if claims.UserID != "user-123" {
		t.Errorf("UserID = %q, want user-123", claims.UserID)
	}
	if claims.Email != "a@b.com" {
		t.Errorf("Email = %q, want a@b.com", claims.Email)
	}

	ttl := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	if ttl != time.Hour {
		t.Errorf("validity window = %v, want 1h", ttl)
	}
}

func TestDecode_WrongSecret(t *testing.T) {
	token, err := NewTokenManager("secret-one-one-one-one-one-one-1").Issue("u1", "a@b.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	_, err = NewTokenManager("secret-two-two-two-two-two-two-2").Decode(token)
	if !errors.Is(err, core.ErrInvalidToken) {
		t.Errorf("Decode with wrong secret: got %v, want ErrInvalidToken", err)
	}
}

func TestDecode_Expired(t *testing.T) {
	secret := "test-secret-at-least-32-bytes-long"

	// Sign an already-expired token with the same method and claims shape.
	now := time.Now()
	claims := &Claims{
		UserID: "u1",
		Email:  "a@b.com",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
		},
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	_, err = NewTokenManager(secret).Decode(expired)
	if !errors.Is(err, core.ErrInvalidToken) {
		t.Errorf("Decode expired: got %v, want ErrInvalidToken", err)
	}
}

func TestDecode_Garbage(t *testing.T) {
	m := NewTokenManager("test-secret-at-least-32-bytes-long")
	for _, bad := range []string{"", "not.a.jwt", "aaaa.bbbb.cccc"} {
		if _, err := m.Decode(bad); !errors.Is(err, core.ErrInvalidToken) {
			t.Errorf("Decode(%q): got %v, want ErrInvalidToken", bad, err)
		}
	}
}
