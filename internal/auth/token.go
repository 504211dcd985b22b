package auth

import (
	"time"

	"golang.org/x/oauth2"
)

const (
	// RefreshMargin is how close to expiry a token may get before it is refreshed.
	RefreshMargin = 60 * time.Second

	// defaultExpiresIn applies when the token endpoint omits expires_in.
	defaultExpiresIn = 3600 * time.Second
)

// TokenRecord is the persisted credential set. ExpiresAt is a unix timestamp in seconds; zero means unknown.
type TokenRecord struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
}

// Stale reports whether the record must be refreshed before use: it has a refresh token and
// its expiry is unknown, past, or within margin of now.
func (t *TokenRecord) Stale(now time.Time, margin time.Duration) bool {
	if t == nil || t.RefreshToken == "" {
		return false
	}
	return t.ExpiresAt == 0 || t.ExpiresAt < now.Add(margin).Unix()
}

// Expiry returns ExpiresAt as a [time.Time], or the zero time when unknown.
func (t *TokenRecord) Expiry() time.Time {
	if t == nil || t.ExpiresAt == 0 {
		return time.Time{}
	}
	return time.Unix(t.ExpiresAt, 0)
}

// recordFromToken converts an [oauth2.Token] into a TokenRecord, defaulting the expiry to an hour from now.
func recordFromToken(tok *oauth2.Token, now time.Time) *TokenRecord {
	expiry := tok.Expiry
	if expiry.IsZero() {
		expiry = now.Add(defaultExpiresIn)
	}
	return &TokenRecord{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    expiry.Unix(),
	}
}
