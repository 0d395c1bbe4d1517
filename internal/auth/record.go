package auth

import (
	"time"
)

// expiryBuffer is subtracted from the recorded expiry so a token is
// refreshed slightly before the provider would start rejecting it.
const expiryBuffer = 60 * time.Second

// TokenRecord is the persisted credential state. A record is either fully
// absent or carries a non-empty access token; the refresh token may be
// absent even when the access token is present (env-injected tokens without
// a refresh token cannot be refreshed, which is a valid terminal state).
type TokenRecord struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitzero"`
	Scope        string    `json:"scope,omitempty"`
}

// NeedsRefresh reports whether now is within the expiry buffer of, or past,
// the recorded expiry. Records without an expiry never need a proactive
// refresh; they are only recovered reactively on an unauthorized response.
func (r *TokenRecord) NeedsRefresh(now time.Time) bool {
	if r.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(r.ExpiresAt.Add(-expiryBuffer))
}
