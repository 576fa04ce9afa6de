package storage

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pending(id, state string, now time.Time, ttl time.Duration) PendingSignIn {
	return PendingSignIn{ID: id, State: state, CreatedAt: now, ExpiresAt: now.Add(ttl)}
}

func TestMemoryStorage_ConsumeOnce(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()
	now := time.Now()

	require.NoError(t, s.SavePendingSignIn(ctx, pending("ps-1", "nonce", now, time.Minute)))

	p, err := s.ConsumePendingSignIn(ctx, "ps-1", "nonce")
	require.NoError(t, err)
	assert.Equal(t, "nonce", p.State)

	_, err = s.ConsumePendingSignIn(ctx, "ps-1", "nonce")
	assert.ErrorIs(t, err, ErrSignInNotFound)
}

func TestMemoryStorage_MismatchBurnsRecord(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	require.NoError(t, s.SavePendingSignIn(ctx, pending("ps-1", "nonce", time.Now(), time.Minute)))

	_, err := s.ConsumePendingSignIn(ctx, "ps-1", "forged")
	assert.ErrorIs(t, err, ErrStateMismatch)

	_, err = s.ConsumePendingSignIn(ctx, "ps-1", "nonce")
	assert.ErrorIs(t, err, ErrSignInNotFound)
}

func TestMemoryStorage_Expired(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()
	now := time.Now()
	s.now = func() time.Time { return now.Add(2 * time.Minute) }

	require.NoError(t, s.SavePendingSignIn(ctx, pending("ps-1", "nonce", now, time.Minute)))

	_, err := s.ConsumePendingSignIn(ctx, "ps-1", "nonce")
	assert.ErrorIs(t, err, ErrSignInNotFound)
}

func TestMemoryStorage_DuplicateID(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()
	now := time.Now()

	require.NoError(t, s.SavePendingSignIn(ctx, pending("ps-1", "a", now, time.Minute)))
	assert.ErrorIs(t, s.SavePendingSignIn(ctx, pending("ps-1", "b", now, time.Minute)), ErrSignInExists)
}

func TestMemoryStorage_CleanupExpired(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()
	now := time.Now()
	s.now = func() time.Time { return now }

	require.NoError(t, s.SavePendingSignIn(ctx, pending("old", "a", now.Add(-time.Hour), time.Minute)))
	require.NoError(t, s.SavePendingSignIn(ctx, pending("live", "b", now, time.Minute)))

	count, err := s.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStorage_ConcurrentConsume(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()
	require.NoError(t, s.SavePendingSignIn(ctx, pending("ps-1", "nonce", time.Now(), time.Minute)))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.ConsumePendingSignIn(ctx, "ps-1", "nonce"); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}
