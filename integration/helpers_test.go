package integration

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/save2win/save2win-front/internal"
	"github.com/save2win/save2win-front/internal/config"
	"github.com/save2win/save2win-front/internal/testutil"
)

const (
	testSigningKey = "integration-signing-key-0123456789abcdef"
	testCookieName = "boa_id_token"
)

// fakeIdP is the bank identity provider. Only its token endpoint is ever
// called; the authorization page is simulated by posting to /callback.
type fakeIdP struct {
	*httptest.Server

	mu    sync.Mutex
	codes map[string]string
}

func newFakeIdP(t *testing.T) *fakeIdP {
	t.Helper()
	idp := &fakeIdP{codes: make(map[string]string)}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", idp.token)
	idp.Server = httptest.NewServer(mux)
	t.Cleanup(idp.Close)
	return idp
}

// issueCode makes code exchangeable for artifact, once
func (p *fakeIdP) issueCode(code, artifact string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.codes[code] = artifact
}

func (p *fakeIdP) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	p.mu.Lock()
	artifact, ok := p.codes[r.PostForm.Get("code")]
	delete(p.codes, r.PostForm.Get("code"))
	p.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"access_token": "access-" + artifact,
		"token_type":   "Bearer",
		"expires_in":   3600,
		"id_token":     artifact,
	})
}

// relay is a running relay wired to a stub engine and a fake IdP
type relay struct {
	*httptest.Server
	engine *testutil.StubEngine
	idp    *fakeIdP
	app    *internal.Save2WinFront
}

func baseConfig(idp *fakeIdP, engine *testutil.StubEngine) config.Config {
	return config.Config{
		Version: config.VersionPrefix,
		Identity: config.IdentityConfig{
			BaseURL:     idp.URL + "/authorize",
			ClientID:    "save2win-client",
			RedirectURI: "http://relay.test/callback",
			AppName:     "Save2Win",
		},
		Session: config.SessionConfig{
			CookieName: testCookieName,
			MaxAge:     time.Hour,
		},
		Engine: config.EngineConfig{
			BaseURL: engine.URL,
			Timeout: 2 * time.Second,
			Reshape: true,
		},
	}
}

func startRelay(t *testing.T, mutate func(*config.Config)) *relay {
	t.Helper()

	engine := testutil.NewStubEngine()
	t.Cleanup(engine.Close)
	idp := newFakeIdP(t)

	cfg := baseConfig(idp, engine)
	if mutate != nil {
		mutate(&cfg)
	}

	app, err := internal.NewSave2WinFront(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(app.Close)

	srv := httptest.NewServer(app.Handler())
	t.Cleanup(srv.Close)

	return &relay{Server: srv, engine: engine, idp: idp, app: app}
}

func strictMode(c *config.Config) {
	c.SignIn.StateValidation = config.StateValidationStrict
	c.SignIn.SigningKey = testSigningKey
	c.SignIn.Storage = config.StorageMemory
}

// browser is a cookie-keeping client that never follows redirects, so each
// hop of the sign-in can be checked.
type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func (r *relay) newBrowser(t *testing.T) *browser {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &browser{
		t:    t,
		base: r.URL,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
			Timeout: 10 * time.Second,
		},
	}
}

func (b *browser) do(method, path string, body io.Reader, header http.Header) (*http.Response, string) {
	b.t.Helper()
	req, err := http.NewRequest(method, b.base+path, body)
	require.NoError(b.t, err)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	resp, err := b.client.Do(req)
	require.NoError(b.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	return resp, string(raw)
}

func (b *browser) get(path string) (*http.Response, string) {
	return b.do(http.MethodGet, path, nil, nil)
}

func (b *browser) post(path string) (*http.Response, string) {
	return b.do(http.MethodPost, path, nil, nil)
}

// postForm mimics the IdP's form_post back to the relay
func (b *browser) postForm(path string, form url.Values) (*http.Response, string) {
	return b.do(http.MethodPost, path, strings.NewReader(form.Encode()), http.Header{
		"Content-Type": {"application/x-www-form-urlencoded"},
	})
}

// cookie returns the jar's value for name, or ""
func (b *browser) cookie(name string) string {
	u, err := url.Parse(b.base)
	require.NoError(b.t, err)
	for _, c := range b.client.Jar.Cookies(u) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// beginSignIn calls /auth/signin-url and returns the parsed authorization
// URL and state.
func (b *browser) beginSignIn() (*url.URL, string) {
	b.t.Helper()
	resp, body := b.get("/auth/signin-url")
	require.Equal(b.t, http.StatusOK, resp.StatusCode, body)

	var out struct {
		URL   string `json:"url"`
		State string `json:"state"`
	}
	require.NoError(b.t, json.Unmarshal([]byte(body), &out))
	require.NotEmpty(b.t, out.State)

	authURL, err := url.Parse(out.URL)
	require.NoError(b.t, err)
	return authURL, out.State
}

func location(t *testing.T, resp *http.Response) string {
	t.Helper()
	require.Equal(t, http.StatusFound, resp.StatusCode)
	return resp.Header.Get("Location")
}

func decodeError(t *testing.T, body string) (string, string) {
	t.Helper()
	var out struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &out), body)
	return out.Error, out.Details
}
