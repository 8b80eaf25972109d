package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// RegisterTokenBytes is the entropy of a registration token (256 bits).
const RegisterTokenBytes = 32

// GenerateRegisterToken returns a URL-safe random token for one-time
// registration links.
func GenerateRegisterToken() (string, error) {
	buf := make([]byte, RegisterTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate register token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// FingerprintToken hashes a token so it can be used in cache keys and logs
// without exposing the secret.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}
