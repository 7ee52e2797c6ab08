package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	ti := NewTokenIssuer("s3cret", time.Hour)

	token, err := ti.Issue(42, "ada@example.com")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	claims, err := ti.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if claims.ID != 42 || claims.Email != "ada@example.com" {
		t.Errorf("claims = %+v", claims)
	}
	if claims.ExpiresAt.Sub(claims.IssuedAt.Time) != time.Hour {
		t.Errorf("lifetime = %v, want 1h", claims.ExpiresAt.Sub(claims.IssuedAt.Time))
	}
}

func TestTokenIssuer_Rejects(t *testing.T) {
	ti := NewTokenIssuer("s3cret", time.Hour)
	valid, _ := ti.Issue(1, "a@b.co")

	expiredIssuer := NewTokenIssuer("s3cret", time.Hour)
	expiredIssuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _ := expiredIssuer.Issue(1, "a@b.co")

	otherKey, _ := NewTokenIssuer("other", time.Hour).Issue(1, "a@b.co")

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{ID: 1}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{ID: 1}).SignedString([]byte("s3cret"))

	tests := map[string]string{
		"garbage":     "not.a.token",
		"tampered":    valid[:len(valid)-2] + "xx",
		"expired":     expired,
		"wrong key":   otherKey,
		"alg none":    none,
		"no expiry":   noExpiry,
		"empty":       "",
		"extra parts": valid + ".x",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ti.Verify(token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(1)

	hash, err := h.Hash("hunter2")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$2a$04$") {
		t.Errorf("hash %q was not produced at the minimum cost", hash)
	}
	if !h.Check(hash, "hunter2") {
		t.Error("Check() rejected the right password")
	}
	if h.Check(hash, "hunter3") {
		t.Error("Check() accepted the wrong password")
	}
	if h.Check("", "") {
		t.Error("Check() accepted an empty hash")
	}
}
