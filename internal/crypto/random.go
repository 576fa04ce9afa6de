package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// TokenBytes is the amount of entropy behind every token this package mints.
const TokenBytes = 32

// GenerateSecureToken creates a cryptographically secure random token.
// Returns a base64 URL-encoded string suitable for sign-in state values and
// pre-session identifiers.
func GenerateSecureToken() (string, error) {
	b := make([]byte, TokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
