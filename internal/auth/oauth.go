package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/nikitatsym/ticktick-mcp/internal/logging"
)

// TickTick identity provider endpoints and client registration constants.
const (
	DefaultAuthURL  = "https://ticktick.com/oauth/authorize"
	DefaultTokenURL = "https://ticktick.com/oauth/token"

	// HostedRedirectURI is the registered redirect page used by the
	// non-interactive authorization code flow. Users visit it in any
	// browser, authorize, and copy the code it displays.
	HostedRedirectURI = "https://nikitatsym.github.io/ticktick-mcp/"

	// defaultExpiresIn is assumed when the provider omits expires_in.
	defaultExpiresIn = 3600 * time.Second
)

// Scopes is the fixed scope set requested on every authorization.
var Scopes = []string{"tasks:read", "tasks:write"}

// Endpoints overrides the identity provider URLs, primarily for tests.
type Endpoints struct {
	AuthURL  string
	TokenURL string
}

// oauthConfig builds the oauth2 configuration for the given redirect URI.
// AuthStyleInHeader yields the form-encoded POST with HTTP Basic
// authentication that the TickTick token endpoint requires.
func (m *Manager) oauthConfig(redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     m.clientID,
		ClientSecret: m.clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   m.endpoints.AuthURL,
			TokenURL:  m.endpoints.TokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
}

// httpContext routes oauth2's internal HTTP calls through the manager's
// client so tests and timeouts apply to token endpoint traffic too.
func (m *Manager) httpContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
}

// ExchangeCode exchanges a one-time authorization code obtained through the
// hosted redirect page for a full token record.
func (m *Manager) ExchangeCode(ctx context.Context, code string) (*TokenRecord, error) {
	return m.exchange(ctx, code, m.redirectURI)
}

func (m *Manager) exchange(ctx context.Context, code, redirectURI string) (*TokenRecord, error) {
	conf := m.oauthConfig(redirectURI)
	tok, err := conf.Exchange(m.httpContext(ctx), code,
		oauth2.SetAuthURLParam("scope", strings.Join(Scopes, " ")))
	if err != nil {
		return nil, tokenEndpointError("code exchange", err)
	}
	return recordFromToken(tok, ""), nil
}

// Refresh exchanges a refresh token for a new token record. When the
// provider reuses a long-lived refresh token and omits it from the
// response, the prior refresh token is carried forward.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (*TokenRecord, error) {
	start := time.Now()
	conf := m.oauthConfig(m.redirectURI)
	src := conf.TokenSource(m.httpContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		if m.metrics != nil {
			m.metrics.RecordTokenRefresh(ctx, logging.StatusError, time.Since(start))
		}
		return nil, tokenEndpointError("token refresh", err)
	}
	if m.metrics != nil {
		m.metrics.RecordTokenRefresh(ctx, logging.StatusSuccess, time.Since(start))
	}
	return recordFromToken(tok, refreshToken), nil
}

// tokenEndpointError converts an oauth2 failure into an AuthError,
// surfacing the HTTP status and response body when the token endpoint
// answered with a non-success status.
func tokenEndpointError(op string, err error) *AuthError {
	authErr := &AuthError{Op: op, Hint: remediationHint, Err: err}
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) && rerr.Response != nil {
		authErr.Status = rerr.Response.StatusCode
		authErr.Body = string(rerr.Body)
	}
	return authErr
}

// recordFromToken converts an oauth2 token into a persisted record.
// Expiry defaults to now + 3600s when the provider omits expires_in.
func recordFromToken(tok *oauth2.Token, priorRefreshToken string) *TokenRecord {
	rec := &TokenRecord{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		ExpiresAt:    tok.Expiry,
	}
	if rec.RefreshToken == "" {
		rec.RefreshToken = priorRefreshToken
	}
	if rec.ExpiresAt.IsZero() {
		rec.ExpiresAt = time.Now().Add(defaultExpiresIn)
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		rec.Scope = scope
	}
	return rec
}
