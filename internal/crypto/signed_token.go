package crypto

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// TokenSigner binds an opaque value to an expiry and an HMAC signature so it
// can round-trip through a cookie without server state.
type TokenSigner struct {
	signingKey []byte
	ttl        time.Duration
	now        func() time.Time
}

// NewTokenSigner creates a new token signer
func NewTokenSigner(signingKey []byte, ttl time.Duration) TokenSigner {
	return TokenSigner{
		signingKey: signingKey,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Sign returns "<base64(value|expiry)>.<signature>".
func (ts *TokenSigner) Sign(value string) string {
	payload := value + "|" + strconv.FormatInt(ts.now().Add(ts.ttl).Unix(), 10)
	return base64.RawURLEncoding.EncodeToString([]byte(payload)) + "." + SignData(payload, ts.signingKey)
}

// Verify checks the signature and expiry and returns the signed value.
func (ts *TokenSigner) Verify(token string) (string, error) {
	encoded, signature, ok := strings.Cut(token, ".")
	if !ok {
		return "", ErrInvalidToken
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	payload := string(raw)

	if !ValidateSignedData(payload, signature, ts.signingKey) {
		return "", ErrInvalidToken
	}

	i := strings.LastIndexByte(payload, '|')
	if i < 0 {
		return "", ErrInvalidToken
	}
	expiry, err := strconv.ParseInt(payload[i+1:], 10, 64)
	if err != nil {
		return "", fmt.Errorf("%w: bad expiry", ErrInvalidToken)
	}
	if ts.now().After(time.Unix(expiry, 0)) {
		return "", ErrTokenExpired
	}

	return payload[:i], nil
}
