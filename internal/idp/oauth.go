package idp

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/save2win/save2win-front/internal/log"
	"golang.org/x/oauth2"
)

// OAuthConfig configures the authorization-code provider.
type OAuthConfig struct {
	// AuthorizationURL is the identity provider page the browser is sent to.
	AuthorizationURL string

	// TokenURL is optional. Without it the relay never calls the provider.
	TokenURL string

	ClientID     string
	ClientSecret string
	RedirectURI  string

	// AppName is sent as the provider-specific app_name display parameter.
	AppName string
	Scopes  []string

	// HTTPClient is used for code exchange. Defaults to a 10s-timeout client.
	HTTPClient *http.Client
}

// OAuthProvider implements Provider on top of oauth2.Config.
type OAuthProvider struct {
	config     oauth2.Config
	appName    string
	httpClient *http.Client
}

// NewOAuthProvider creates a new authorization-code provider.
func NewOAuthProvider(cfg OAuthConfig) (*OAuthProvider, error) {
	if cfg.AuthorizationURL == "" {
		return nil, fmt.Errorf("authorization URL is required")
	}
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("client ID is required")
	}
	if cfg.RedirectURI == "" {
		return nil, fmt.Errorf("redirect URI is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &OAuthProvider{
		config: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthorizationURL,
				TokenURL: cfg.TokenURL,
			},
		},
		appName:    cfg.AppName,
		httpClient: httpClient,
	}, nil
}

// AuthURL generates the authorization URL.
// The URL carries response_type=code, client_id, redirect_uri, state and,
// when configured, app_name and scope.
func (p *OAuthProvider) AuthURL(state string) string {
	var opts []oauth2.AuthCodeOption
	if p.appName != "" {
		opts = append(opts, oauth2.SetAuthURLParam("app_name", p.appName))
	}
	return p.config.AuthCodeURL(state, opts...)
}

// CanExchange reports whether a token endpoint is configured.
func (p *OAuthProvider) CanExchange() bool {
	return p.config.Endpoint.TokenURL != ""
}

// Exchange exchanges an authorization code for the session artifact.
func (p *OAuthProvider) Exchange(ctx context.Context, code string) (string, error) {
	if !p.CanExchange() {
		return "", ErrExchangeUnavailable
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("failed to exchange code: %w", err)
	}

	if idToken, ok := token.Extra("id_token").(string); ok && idToken != "" {
		return idToken, nil
	}

	log.LogDebugWithFields("idp", "Token response has no id_token, using access token", map[string]any{
		"token_type": token.TokenType,
	})
	if token.AccessToken == "" {
		return "", fmt.Errorf("token response carried no usable token")
	}
	return token.AccessToken, nil
}
