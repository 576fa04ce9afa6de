package idp

import (
	"net/http"
	"time"

	"github.com/save2win/save2win-front/internal/config"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewProvider creates a Provider from the identity configuration.
func NewProvider(cfg config.IdentityConfig) (Provider, error) {
	return NewOAuthProvider(OAuthConfig{
		AuthorizationURL: cfg.BaseURL,
		TokenURL:         cfg.TokenURL,
		ClientID:         cfg.ClientID,
		ClientSecret:     string(cfg.ClientSecret),
		RedirectURI:      cfg.RedirectURI,
		AppName:          cfg.AppName,
		Scopes:           cfg.Scopes,
		HTTPClient: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	})
}
