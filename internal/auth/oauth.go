package auth

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
)

const (
	SpotifyAuthURL  = "https://accounts.spotify.com/authorize"
	SpotifyTokenURL = "https://accounts.spotify.com/api/token"
)

// DefaultScopes is the scope set requested at login.
var DefaultScopes = []string{
	"user-read-playback-state",
	"user-modify-playback-state",
	"user-read-currently-playing",
	"streaming",
	"playlist-read-private",
	"playlist-read-collaborative",
}

// Credentials identify the registered Spotify application.
type Credentials struct {
	ClientID     string
	ClientSecret string
	AuthURL      string // defaults to [SpotifyAuthURL]
	TokenURL     string // defaults to [SpotifyTokenURL]
	Scopes       []string
}

// Configured reports whether both client id and secret are set.
func (c Credentials) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// OAuthConfig builds the [oauth2.Config] for redirectURI.
//
// Client credentials are always sent as an HTTP Basic Authorization header.
func (c Credentials) OAuthConfig(redirectURI string) *oauth2.Config {
	authURL, tokenURL := c.AuthURL, c.TokenURL
	if authURL == "" {
		authURL = SpotifyAuthURL
	}
	if tokenURL == "" {
		tokenURL = SpotifyTokenURL
	}

	scopes := c.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes:       scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   authURL,
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
}

// withHTTPClient makes oauth2 use client for token endpoint calls.
func withHTTPClient(ctx context.Context, client *http.Client) context.Context {
	if client == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, client)
}
