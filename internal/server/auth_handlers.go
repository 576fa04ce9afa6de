package server

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/save2win/save2win-front/internal/cookie"
	"github.com/save2win/save2win-front/internal/idp"
	jsonwriter "github.com/save2win/save2win-front/internal/json"
	"github.com/save2win/save2win-front/internal/log"
	"github.com/save2win/save2win-front/internal/session"
	"github.com/save2win/save2win-front/internal/signin"
	"github.com/save2win/save2win-front/internal/storage"
)

// maxCallbackBody bounds a form_post callback body
const maxCallbackBody = 64 << 10

// AuthHandlers serves the sign-in flow: starting it, receiving the identity
// provider's callback and turning the artifact into a session.
type AuthHandlers struct {
	initiator *signin.Initiator
	provider  idp.Provider
	sessions  *session.Store
}

// NewAuthHandlers creates new auth handlers with dependency injection
func NewAuthHandlers(initiator *signin.Initiator, provider idp.Provider, sessions *session.Store) *AuthHandlers {
	return &AuthHandlers{
		initiator: initiator,
		provider:  provider,
		sessions:  sessions,
	}
}

// SignInURLResponse is the body of GET /auth/signin-url
type SignInURLResponse struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

// SignInURLHandler hands the shell page a fresh authorization URL and the
// state it should keep for comparison.
func (h *AuthHandlers) SignInURLHandler(w http.ResponseWriter, r *http.Request) {
	authURL, nonce, err := h.initiator.Begin(r.Context(), w, r)
	if err != nil {
		log.LogCtx(r.Context(), slog.LevelError, "auth", "Failed to begin sign-in", map[string]any{
			"error": err.Error(),
		})
		jsonwriter.WriteInternalServerError(w, "Failed to start sign-in")
		return
	}

	_ = jsonwriter.Write(w, SignInURLResponse{URL: authURL, State: nonce.Value})
}

// LoginHandler is the no-script path: a plain redirect to the provider
func (h *AuthHandlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	authURL, _, err := h.initiator.Begin(r.Context(), w, r)
	if err != nil {
		log.LogCtx(r.Context(), slog.LevelError, "auth", "Failed to begin sign-in", map[string]any{
			"error": err.Error(),
		})
		jsonwriter.WriteInternalServerError(w, "Failed to start sign-in")
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, authURL, http.StatusFound)
}

// callbackParams picks the transport the provider used. A form body wins
// over the query string when it carries anything.
func callbackParams(w http.ResponseWriter, r *http.Request) url.Values {
	if r.Method == http.MethodPost {
		r.Body = http.MaxBytesReader(w, r.Body, maxCallbackBody)
		if err := r.ParseForm(); err == nil && len(r.PostForm) > 0 {
			return r.PostForm
		}
	}
	return r.URL.Query()
}

// CallbackHandler receives the provider's redirect. In relay mode it only
// threads the state through; in strict mode it consumes the pending
// sign-in first and issues the session itself.
func (h *AuthHandlers) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params := callbackParams(w, r)

	state := params.Get("state")
	artifact := params.Get("id_token")
	fromCode := false
	if artifact == "" {
		artifact = params.Get("code")
		fromCode = artifact != ""
	}

	if artifact == "" {
		fields := map[string]any{"method": r.Method}
		if e := params.Get("error"); e != "" {
			fields["idp_error"] = e
			fields["idp_error_description"] = params.Get("error_description")
		}
		log.LogCtx(ctx, slog.LevelInfo, "auth", "Callback without artifact", fields)
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	if err := h.initiator.Complete(ctx, w, r, state); err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, signin.ErrNoPreSession) && !errors.Is(err, storage.ErrStateMismatch) && !errors.Is(err, storage.ErrSignInNotFound) {
			level = slog.LevelError
		}
		log.LogCtx(ctx, level, "auth", "Rejected sign-in callback", map[string]any{
			"error": err.Error(),
		})
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	if fromCode && h.provider.CanExchange() {
		exchanged, err := h.provider.Exchange(ctx, artifact)
		if err != nil {
			log.LogCtx(ctx, slog.LevelWarn, "auth", "Code exchange failed", map[string]any{
				"error": err.Error(),
			})
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		artifact = exchanged
	}

	log.LogCtx(ctx, slog.LevelInfo, "auth", "Sign-in callback accepted", map[string]any{
		"artifact_length": len(artifact),
		"from_code":       fromCode,
		"strict":          h.initiator.Strict(),
	})

	if h.initiator.Strict() {
		cookie.Set(w, h.sessions.Issue(artifact))
		http.Redirect(w, r, finishURL(state), http.StatusFound)
		return
	}

	q := url.Values{}
	q.Set("token", artifact)
	q.Set("state", state)
	http.Redirect(w, r, "/auth/session?"+q.Encode(), http.StatusFound)
}

// IssueSessionHandler sets the session cookie for the artifact in the query
// and sends the browser on to the finishing page. In strict mode sessions
// are only issued by the checked callback, so this just goes home.
func (h *AuthHandlers) IssueSessionHandler(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" || h.initiator.Strict() {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	cookie.Set(w, h.sessions.Issue(token))
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, finishURL(r.URL.Query().Get("state")), http.StatusFound)
}

func finishURL(state string) string {
	return "/signin/finish?state=" + url.QueryEscape(state)
}

// FinishHandler renders the page that signals the opener and closes itself
func (h *AuthHandlers) FinishHandler(w http.ResponseWriter, r *http.Request) {
	renderPage(w, r, finishPageTemplate, FinishPageData{State: r.URL.Query().Get("state")})
}

// ShellHandler renders the sign-in shell page
func (h *AuthHandlers) ShellHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		jsonwriter.WriteNotFound(w, "Not found")
		return
	}
	renderPage(w, r, signInPageTemplate, SignInPageData{})
}
