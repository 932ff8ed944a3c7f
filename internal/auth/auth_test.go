// internal/auth/auth_test.go
package auth

import (
	"strings"
	"testing"
	"time"
)

func testConfig() *TokenConfig {
	return &TokenConfig{
		Secret:     []byte("0123456789abcdef0123456789abcdef"),
		Expiration: time.Hour,
	}
}

func TestTokenRoundTrip(t *testing.T) {
	cfg := testConfig()

	tokenString, err := GenerateToken("user-42", cfg)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	token, err := ParseToken(tokenString, cfg)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}

	if token.UserID != "user-42" {
		t.Errorf("UserID = %q, want user-42", token.UserID)
	}
	if token.ExpiresAt <= token.IssuedAt {
		t.Error("expiry should be after issue time")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	cfg := testConfig()
	cfg.Expiration = -time.Minute

	tokenString, err := GenerateToken("user-42", cfg)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, err := ParseToken(tokenString, cfg); err == nil {
		t.Fatal("expected an error for an expired token")
	}
}

func TestWrongSecretRejected(t *testing.T) {
	cfg := testConfig()

	tokenString, err := GenerateToken("user-42", cfg)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	other := testConfig()
	other.Secret = []byte("ffffffffffffffffffffffffffffffff")

	if _, err := ParseToken(tokenString, other); err == nil {
		t.Fatal("expected an error for a token signed with a different secret")
	}
}

func TestTamperedTokenRejected(t *testing.T) {
	cfg := testConfig()

	tokenString, err := GenerateToken("user-42", cfg)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	cases := []string{
		"not-a-token",
		tokenString + "x",
		strings.Replace(tokenString, ".", "", 1),
	}

	for _, tampered := range cases {
		if _, err := ParseToken(tampered, cfg); err == nil {
			t.Errorf("ParseToken(%q) should have failed", tampered)
		}
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	if !CheckPassword(hash, "correct horse battery staple") {
		t.Error("CheckPassword should accept the original password")
	}
	if CheckPassword(hash, "wrong password") {
		t.Error("CheckPassword should reject a different password")
	}
}

func TestEmptyPasswordRejected(t *testing.T) {
	if _, err := HashPassword(""); err == nil {
		t.Fatal("expected an error for an empty password")
	}
}

func TestGenerateSecureKey(t *testing.T) {
	key, err := GenerateSecureKey(32)
	if err != nil {
		t.Fatalf("GenerateSecureKey: %v", err)
	}
	if len(key) != 32 {
		t.Errorf("key length = %d, want 32", len(key))
	}

	// Non-positive lengths fall back to the default.
	key, err = GenerateSecureKey(0)
	if err != nil {
		t.Fatalf("GenerateSecureKey(0): %v", err)
	}
	if len(key) != 32 {
		t.Errorf("fallback key length = %d, want 32", len(key))
	}
}
