package security_test

import (
	"encoding/base64"
	"testing"

	"github.com/loussodesigns/opts/pkg/config"
	"github.com/loussodesigns/opts/pkg/security"
)

func TestHashAndVerifyPassword(t *testing.T) {
	cfg := config.PasswordConfig{
		ArgonMemoryKB:    32768,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}

	hash, err := security.HashPassword("very-secure-password", cfg)
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if hash == "" {
		t.Fatal("HashPassword returned empty string")
	}

	ok, err := security.VerifyPassword("very-secure-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for valid hash: %v", err)
	}
	if !ok {
		t.Fatal("VerifyPassword failed for the correct password")
	}

	ok, err = security.VerifyPassword("bogus-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for invalid password: %v", err)
	}
	if ok {
		t.Fatal("VerifyPassword returned true for incorrect password")
	}
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	if _, err := security.HashPassword("", config.PasswordConfig{}); err == nil {
		t.Fatal("expected error for empty password")
	}
}

func TestVerifyPasswordBadHash(t *testing.T) {
	if _, err := security.VerifyPassword("irrelevant", "not-a-hash"); err == nil {
		t.Fatal("expected error for malformed hash")
	}
}

func TestGenerateRegisterToken(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 50; i++ {
		token, err := security.GenerateRegisterToken()
		if err != nil {
			t.Fatalf("GenerateRegisterToken returned error: %v", err)
		}
		raw, err := base64.RawURLEncoding.DecodeString(token)
		if err != nil {
			t.Fatalf("token is not base64url: %v", err)
		}
		if len(raw) != security.RegisterTokenBytes {
			t.Fatalf("expected %d bytes of entropy, got %d", security.RegisterTokenBytes, len(raw))
		}
		if _, dup := seen[token]; dup {
			t.Fatalf("duplicate token generated")
		}
		seen[token] = struct{}{}
	}
}

func TestFingerprintTokenIsStableAndShort(t *testing.T) {
	a := security.FingerprintToken("abc")
	if a != security.FingerprintToken("abc") {
		t.Fatal("fingerprint should be deterministic")
	}
	if a == security.FingerprintToken("abd") {
		t.Fatal("different tokens should not share a fingerprint")
	}
	if len(a) != 16 {
		t.Fatalf("expected 16 hex chars, got %d", len(a))
	}
}
