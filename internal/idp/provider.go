package idp

import (
	"context"
	"errors"
)

// ErrExchangeUnavailable is returned by Exchange when no token endpoint is
// configured. The authorization code is then used as the artifact as-is.
var ErrExchangeUnavailable = errors.New("code exchange not configured")

// Provider abstracts the external identity provider the relay signs users in
// with. The relay never verifies what the provider returns; artifacts are
// opaque and are only forwarded.
type Provider interface {
	// AuthURL generates the authorization URL carrying state.
	AuthURL(state string) string

	// CanExchange reports whether Exchange talks to a token endpoint.
	CanExchange() bool

	// Exchange trades an authorization code for the artifact that becomes the
	// session: the id_token when the provider returns one, else the access token.
	Exchange(ctx context.Context, code string) (string, error)
}
