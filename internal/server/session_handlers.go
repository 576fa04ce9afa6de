package server

import (
	"net/http"

	"github.com/save2win/save2win-front/internal/cookie"
	jsonwriter "github.com/save2win/save2win-front/internal/json"
	"github.com/save2win/save2win-front/internal/session"
)

// SessionHandlers answers session checks and logout
type SessionHandlers struct {
	sessions *session.Store
}

func NewSessionHandlers(sessions *session.Store) *SessionHandlers {
	return &SessionHandlers{sessions: sessions}
}

// SessionStatus is the body of GET /api/session
type SessionStatus struct {
	Authenticated bool `json:"authenticated"`
}

// StatusHandler reports whether the request carries a session. Absence is a
// 401, never an empty 200.
func (h *SessionHandlers) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.sessions.Validate(r); ok {
		_ = jsonwriter.WriteResponse(w, http.StatusOK, SessionStatus{Authenticated: true})
		return
	}
	_ = jsonwriter.WriteResponse(w, http.StatusUnauthorized, SessionStatus{Authenticated: false})
}

// LogoutHandler expires the session cookie in this browser
func (h *SessionHandlers) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	cookie.Set(w, h.sessions.Revoke())
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusNoContent)
}
