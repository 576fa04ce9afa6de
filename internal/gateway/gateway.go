// Package gateway forwards authenticated calls to the game-state engine and
// classifies its failures into a fixed set of kinds.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/save2win/save2win-front/internal/ioutil"
	"github.com/save2win/save2win-front/internal/log"
	"github.com/save2win/save2win-front/internal/urlutil"
)

const (
	// DefaultTimeout bounds one forwarded call end to end
	DefaultTimeout = 12 * time.Second

	// detailsLimit caps how much of a failed response ends up in details
	detailsLimit = 4 << 10
	// bodyLimit caps a successful response body
	bodyLimit = 8 << 20
)

// Config configures a Gateway
type Config struct {
	BaseURL string
	Timeout time.Duration
	// Transport overrides the pooled transport, mainly for tests
	Transport http.RoundTripper
}

// Request is one call to forward
type Request struct {
	Method     string
	Path       string
	Query      url.Values
	Credential string
	RequestID  string
}

// Gateway forwards requests to the engine over a shared connection pool
type Gateway struct {
	baseURL   string
	timeout   time.Duration
	client    *http.Client
	transport *http.Transport
}

// NewTransport returns the pooled transport used for engine calls.
// ResponseHeaderTimeout is bounded by the per-call timeout.
func NewTransport(timeout time.Duration) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   32,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// New creates a Gateway for the engine at cfg.BaseURL
func New(cfg Config) (*Gateway, error) {
	if _, err := urlutil.JoinPath(cfg.BaseURL, "/"); err != nil {
		return nil, fmt.Errorf("invalid engine base URL: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	g := &Gateway{baseURL: cfg.BaseURL, timeout: timeout}

	rt := cfg.Transport
	if rt == nil {
		g.transport = NewTransport(timeout)
		rt = g.transport
	}

	g.client = &http.Client{
		Transport: otelhttp.NewTransport(rt),
		// The engine answers directly; a redirect is reported as an upstream error.
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return g, nil
}

// Timeout returns the per-call deadline
func (g *Gateway) Timeout() time.Duration {
	return g.timeout
}

// Forward performs req against the engine and returns the raw JSON body of a
// 2xx answer. Every failure is a *Error. A request without a credential
// never reaches the engine.
func (g *Gateway) Forward(ctx context.Context, req Request) (json.RawMessage, error) {
	if req.Credential == "" {
		return nil, &Error{Kind: KindUnauthenticated, Details: "no session or bearer credential"}
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	target, err := urlutil.WithQuery(g.baseURL, req.Path, req.Query)
	if err != nil {
		return nil, &Error{Kind: KindInternal, Details: "invalid engine path", Err: err}
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(callCtx, method, target, nil)
	if err != nil {
		return nil, &Error{Kind: KindInternal, Details: "failed to build engine request", Err: err}
	}
	httpReq.Header.Set("Authorization", "Bearer "+req.Credential)
	httpReq.Header.Set("Accept", "application/json")
	requestID := req.RequestID
	if requestID == "" {
		requestID = log.RequestID(ctx)
	}
	if requestID != "" {
		httpReq.Header.Set("X-Request-ID", requestID)
	}

	start := time.Now()
	fields := map[string]any{
		"method":            method,
		"path":              req.Path,
		"credential_length": len(req.Credential),
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		gerr := classifyTransportError(ctx, callCtx, err)
		fields["error"] = err.Error()
		fields["kind"] = string(gerr.Kind)
		fields["duration_ms"] = time.Since(start).Milliseconds()
		log.LogCtx(ctx, slog.LevelWarn, "gateway", "Engine call failed", fields)
		return nil, gerr
	}
	defer ioutil.DrainAndClose(resp.Body)

	fields["status"] = resp.StatusCode
	fields["duration_ms"] = time.Since(start).Milliseconds()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		gerr := classifyStatus(resp.StatusCode, ioutil.ReadLimited(resp.Body, detailsLimit))
		fields["kind"] = string(gerr.Kind)
		log.LogCtx(ctx, slog.LevelWarn, "gateway", "Engine returned an error", fields)
		return nil, gerr
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, bodyLimit+1))
	if err != nil {
		gerr := classifyTransportError(ctx, callCtx, err)
		fields["error"] = err.Error()
		log.LogCtx(ctx, slog.LevelWarn, "gateway", "Failed to read engine response", fields)
		return nil, gerr
	}
	if len(body) > bodyLimit {
		return nil, &Error{Kind: KindInternal, Status: resp.StatusCode, Details: "engine response too large"}
	}
	if len(body) == 0 {
		body = []byte("{}")
	}
	if !json.Valid(body) {
		log.LogCtx(ctx, slog.LevelWarn, "gateway", "Engine returned invalid JSON", fields)
		return nil, &Error{Kind: KindInternal, Status: resp.StatusCode, Details: "engine returned invalid JSON"}
	}

	log.LogCtx(ctx, slog.LevelDebug, "gateway", "Engine call succeeded", fields)
	return json.RawMessage(body), nil
}

// Close releases idle pooled connections
func (g *Gateway) Close() {
	if g.transport != nil {
		g.transport.CloseIdleConnections()
	}
}

func classifyStatus(status int, body string) *Error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &Error{Kind: KindUpstreamUnauthorized, Status: status, Details: body}
	default:
		return &Error{Kind: KindUpstreamError, Status: status, Details: body}
	}
}

// classifyTransportError separates our own deadline from everything else.
// A caller that went away is not an upstream timeout.
func classifyTransportError(parent, call context.Context, err error) *Error {
	if parent.Err() == nil && errors.Is(call.Err(), context.DeadlineExceeded) {
		return &Error{Kind: KindUpstreamTimeout, Details: "engine did not respond in time", Err: err}
	}
	var netErr net.Error
	if parent.Err() == nil && errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindUpstreamTimeout, Details: "engine did not respond in time", Err: err}
	}
	if parent.Err() != nil {
		return &Error{Kind: KindInternal, Details: "request cancelled", Err: err}
	}
	return &Error{Kind: KindInternal, Details: "failed to reach engine", Err: err}
}
