package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/save2win/save2win-front/internal/cookie"
	"github.com/save2win/save2win-front/internal/session"
)

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestStatusHandler(t *testing.T) {
	store := session.NewStore(session.Config{})
	h := NewSessionHandlers(store)

	t.Run("with cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
		req.AddCookie(store.Issue("artifact"))
		rec := httptest.NewRecorder()
		h.StatusHandler(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"authenticated":true}`, rec.Body.String())
	})

	t.Run("without cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.StatusHandler(rec, httptest.NewRequest(http.MethodGet, "/api/session", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"authenticated":false}`, rec.Body.String())
	})

	t.Run("empty cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
		req.AddCookie(&http.Cookie{Name: cookie.SessionCookie, Value: ""})
		rec := httptest.NewRecorder()
		h.StatusHandler(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestLogoutHandler(t *testing.T) {
	h := NewSessionHandlers(session.NewStore(session.Config{}))

	rec := httptest.NewRecorder()
	h.LogoutHandler(rec, httptest.NewRequest(http.MethodPost, "/api/logout", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	setCookie := rec.Header().Get("Set-Cookie")
	assert.Contains(t, setCookie, cookie.SessionCookie+"=;")
	assert.Contains(t, setCookie, "Max-Age=0")
}
