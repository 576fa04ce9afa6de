package storage

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"
)

var (
	// ErrSignInNotFound is returned when no live pending sign-in has the given ID
	ErrSignInNotFound = errors.New("pending sign-in not found")

	// ErrStateMismatch is returned when the echoed state differs from the
	// recorded one. The record is consumed either way.
	ErrStateMismatch = errors.New("sign-in state mismatch")

	// ErrSignInExists is returned when saving a record whose ID is taken
	ErrSignInExists = errors.New("pending sign-in already exists")
)

// PendingSignIn is the server-held copy of a sign-in nonce, keyed by the
// pre-session identifier carried in the browser's signed cookie.
type PendingSignIn struct {
	ID        string    `json:"id" firestore:"id"`
	State     string    `json:"state" firestore:"state"`
	CreatedAt time.Time `json:"created_at" firestore:"created_at"`
	ExpiresAt time.Time `json:"expires_at" firestore:"expires_at"`
}

// IsExpired reports whether the record is past its expiry at now
func (p *PendingSignIn) IsExpired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

// Storage holds pending sign-ins. Every implementation must make Consume
// atomic: two concurrent consumers of one ID cannot both succeed.
type Storage interface {
	// SavePendingSignIn records a new pending sign-in
	SavePendingSignIn(ctx context.Context, p PendingSignIn) error

	// ConsumePendingSignIn removes the record for id and checks its state.
	// Returns ErrSignInNotFound or ErrStateMismatch on failure.
	ConsumePendingSignIn(ctx context.Context, id, state string) (*PendingSignIn, error)

	// CleanupExpired removes expired records and returns how many it removed
	CleanupExpired(ctx context.Context) (int, error)

	// Close releases backend connections
	Close() error
}

// statesMatch compares in constant time
func statesMatch(recorded, echoed string) bool {
	return subtle.ConstantTimeCompare([]byte(recorded), []byte(echoed)) == 1
}
