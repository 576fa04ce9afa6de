// Package signin starts sign-in attempts and, in strict mode, binds the
// callback to the attempt that started it.
package signin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/save2win/save2win-front/internal/config"
	"github.com/save2win/save2win-front/internal/cookie"
	"github.com/save2win/save2win-front/internal/crypto"
	"github.com/save2win/save2win-front/internal/idp"
	"github.com/save2win/save2win-front/internal/log"
	"github.com/save2win/save2win-front/internal/storage"
)

// ErrNoPreSession is returned in strict mode when the callback arrives
// without a valid pre-session cookie.
var ErrNoPreSession = errors.New("missing or invalid pre-session cookie")

// Options configures an Initiator
type Options struct {
	Provider idp.Provider
	Mode     config.StateValidation

	// Strict mode only
	Storage      storage.Storage
	SigningKey   []byte
	NonceTTL     time.Duration
	SecureCookie bool
}

// Initiator builds authorization URLs and tracks pending sign-ins
type Initiator struct {
	provider idp.Provider
	mode     config.StateValidation
	store    storage.Storage
	signer   crypto.TokenSigner
	ttl      time.Duration
	secure   bool
}

// NewInitiator validates opts. Strict mode needs a storage backend and a
// signing key for the pre-session cookie.
func NewInitiator(opts Options) (*Initiator, error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("identity provider is required")
	}

	i := &Initiator{
		provider: opts.Provider,
		mode:     opts.Mode,
		ttl:      opts.NonceTTL,
		secure:   opts.SecureCookie,
	}
	if i.mode == "" {
		i.mode = config.StateValidationRelay
	}
	if i.ttl <= 0 {
		i.ttl = config.DefaultNonceTTL
	}

	if i.mode != config.StateValidationStrict {
		return i, nil
	}

	if opts.Storage == nil {
		return nil, fmt.Errorf("strict state validation requires a storage backend")
	}
	key, err := crypto.DeriveKey(opts.SigningKey, "save2win-presession")
	if err != nil {
		return nil, fmt.Errorf("deriving pre-session key: %w", err)
	}
	i.store = opts.Storage
	i.signer = crypto.NewTokenSigner(key, i.ttl)
	return i, nil
}

// Strict reports whether callbacks are checked against server-side records
func (i *Initiator) Strict() bool {
	return i.mode == config.StateValidationStrict
}

// Begin generates a nonce and returns the authorization URL carrying it.
// In strict mode it also records the pending sign-in and sets the
// pre-session cookie on w.
func (i *Initiator) Begin(ctx context.Context, w http.ResponseWriter, r *http.Request) (string, Nonce, error) {
	nonce, err := GenerateNonce()
	if err != nil {
		return "", Nonce{}, err
	}

	if i.Strict() {
		if err := i.recordPending(ctx, w, nonce); err != nil {
			return "", Nonce{}, err
		}
	}

	return i.provider.AuthURL(nonce.Value), nonce, nil
}

func (i *Initiator) recordPending(ctx context.Context, w http.ResponseWriter, nonce Nonce) error {
	id, err := crypto.GenerateSecureToken()
	if err != nil {
		return fmt.Errorf("generating pre-session id: %w", err)
	}

	err = i.store.SavePendingSignIn(ctx, storage.PendingSignIn{
		ID:        id,
		State:     nonce.Value,
		CreatedAt: nonce.CreatedAt,
		ExpiresAt: nonce.CreatedAt.Add(i.ttl),
	})
	if err != nil {
		return fmt.Errorf("saving pending sign-in: %w", err)
	}

	cookie.Set(w, i.preSessionCookie(i.signer.Sign(id), i.ttl))
	return nil
}

// preSessionCookie must survive a cross-site form POST back from the
// identity provider, which SameSite=Lax blocks, so it is SameSite=None
// whenever it can be Secure.
func (i *Initiator) preSessionCookie(value string, maxAge time.Duration) *http.Cookie {
	c := cookie.New(cookie.PreSessionCookie, value, maxAge, i.secure)
	if i.secure {
		c.SameSite = http.SameSiteNoneMode
	}
	return c
}

// Complete checks the echoed state against the pending record in strict
// mode and clears the pre-session cookie. In relay mode it accepts every
// state; the signing-in tab does its own comparison.
func (i *Initiator) Complete(ctx context.Context, w http.ResponseWriter, r *http.Request, state string) error {
	if !i.Strict() {
		return nil
	}

	raw, err := cookie.Get(r, cookie.PreSessionCookie)
	if err != nil {
		return ErrNoPreSession
	}
	expired := i.preSessionCookie("", 0)
	expired.MaxAge = -1
	cookie.Set(w, expired)

	id, err := i.signer.Verify(raw)
	if err != nil {
		log.LogDebugWithFields("signin", "Rejected pre-session cookie", map[string]any{
			"error": err.Error(),
		})
		return ErrNoPreSession
	}

	if _, err := i.store.ConsumePendingSignIn(ctx, id, state); err != nil {
		return err
	}
	return nil
}
