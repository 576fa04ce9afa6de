package gateway

import (
	"net/http"
	"strings"

	"github.com/save2win/save2win-front/internal/session"
)

// ResolveCredential returns the caller's artifact: the session cookie first,
// then an "Authorization: Bearer" header for non-browser callers.
func ResolveCredential(r *http.Request, sessions *session.Store) (string, bool) {
	if sessions != nil {
		if s, ok := sessions.Validate(r); ok {
			return s.Artifact, true
		}
	}

	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}
