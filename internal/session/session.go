// Package session turns an identity provider artifact into a first-party
// browser session. The cookie is the session: nothing is kept server-side,
// so revocation only affects the browser that receives the expiring cookie.
package session

import (
	"net/http"
	"net/url"
	"time"

	"github.com/save2win/save2win-front/internal/cookie"
)

// DefaultMaxAge is the absolute lifetime of a session.
const DefaultMaxAge = 8 * time.Hour

// Session is what a validated request carries.
type Session struct {
	Artifact string
}

// Config controls the session cookie.
type Config struct {
	CookieName string
	MaxAge     time.Duration
	Secure     bool
}

// Store issues, validates and revokes session cookies.
type Store struct {
	name   string
	maxAge time.Duration
	secure bool
}

// NewStore fills unset fields with defaults.
func NewStore(cfg Config) *Store {
	s := &Store{name: cfg.CookieName, maxAge: cfg.MaxAge, secure: cfg.Secure}
	if s.name == "" {
		s.name = cookie.SessionCookie
	}
	if s.maxAge <= 0 {
		s.maxAge = DefaultMaxAge
	}
	return s
}

// CookieName returns the name of the session cookie.
func (s *Store) CookieName() string {
	return s.name
}

// Issue returns the cookie that establishes a session holding artifact.
func (s *Store) Issue(artifact string) *http.Cookie {
	return cookie.New(s.name, url.QueryEscape(artifact), s.maxAge, s.secure)
}

// Validate reports whether r carries a non-empty session cookie. Expiry is
// left to the user agent via Max-Age.
func (s *Store) Validate(r *http.Request) (Session, bool) {
	raw, err := cookie.Get(r, s.name)
	if err != nil || raw == "" {
		return Session{}, false
	}
	artifact, err := url.QueryUnescape(raw)
	if err != nil {
		artifact = raw
	}
	if artifact == "" {
		return Session{}, false
	}
	return Session{Artifact: artifact}, true
}

// Revoke returns a cookie that expires the session immediately.
func (s *Store) Revoke() *http.Cookie {
	return cookie.Expired(s.name, s.secure)
}
