package crypto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignData_RoundTrip(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")

	sig := SignData("presession-1", key)

	assert.True(t, ValidateSignedData("presession-1", sig, key))
	assert.False(t, ValidateSignedData("presession-2", sig, key))
	assert.False(t, ValidateSignedData("presession-1", sig, []byte("another-key")))
	assert.False(t, ValidateSignedData("presession-1", "!!not-base64", key))
}

func TestDeriveKey(t *testing.T) {
	secret := []byte("a-long-configured-signing-secret-value")

	k1, err := DeriveKey(secret, "presession")
	require.NoError(t, err)
	assert.Len(t, k1, 32)

	again, err := DeriveKey(secret, "presession")
	require.NoError(t, err)
	assert.Equal(t, k1, again)

	other, err := DeriveKey(secret, "something-else")
	require.NoError(t, err)
	assert.NotEqual(t, k1, other)

	_, err = DeriveKey(nil, "presession")
	assert.Error(t, err)
}

func TestTokenSigner(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	now := time.Unix(1_700_000_000, 0)

	signer := NewTokenSigner(key, 10*time.Minute)
	signer.now = func() time.Time { return now }

	token := signer.Sign("id-with|pipe")

	t.Run("valid", func(t *testing.T) {
		value, err := signer.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, "id-with|pipe", value)
	})

	t.Run("tampered", func(t *testing.T) {
		_, err := signer.Verify("x" + token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong key", func(t *testing.T) {
		other := NewTokenSigner([]byte("ffffffffffffffffffffffffffffffff"), 10*time.Minute)
		_, err := other.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing separator", func(t *testing.T) {
		_, err := signer.Verify("nodot")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		later := signer
		later.now = func() time.Time { return now.Add(11 * time.Minute) }
		_, err := later.Verify(token)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})
}
