package cookie

import (
	"net/http"
	"time"

	"github.com/save2win/save2win-front/internal/log"
)

// Common cookie names used in save2win-front
const (
	SessionCookie    = "boa_id_token"
	PreSessionCookie = "save2win_presession"
)

// New builds an HttpOnly, SameSite=Lax cookie scoped to the whole origin.
// Secure is left to the caller since plain-HTTP deployments must still work.
func New(name, value string, maxAge time.Duration, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(maxAge.Seconds()),
	}
}

// Expired builds a cookie that removes name from the user agent.
// MaxAge -1 is rendered as "Max-Age=0".
func Expired(name string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	}
}

// Set writes c to the response
func Set(w http.ResponseWriter, c *http.Cookie) {
	http.SetCookie(w, c)

	log.LogTraceWithFields("cookie", "Cookie set", map[string]any{
		"name":   c.Name,
		"maxAge": c.MaxAge,
		"secure": c.Secure,
	})
}

// Get retrieves a cookie value from the request
func Get(r *http.Request, name string) (string, error) {
	c, err := r.Cookie(name)
	if err != nil {
		return "", err
	}
	return c.Value, nil
}
