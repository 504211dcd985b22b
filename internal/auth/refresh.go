package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotx/internal/shared"
	"golang.org/x/oauth2"
)

// Refresher exchanges refresh tokens for new access tokens and persists the result.
type Refresher struct {
	config     *oauth2.Config
	store      *Store
	httpClient *http.Client
	logger     *log.Logger
	now        func() time.Time
}

// NewRefresher creates a refresher. httpClient may be nil to use [http.DefaultClient].
func NewRefresher(creds Credentials, store *Store, httpClient *http.Client, logger *log.Logger) *Refresher {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Refresher{
		config:     creds.OAuthConfig(""),
		store:      store,
		httpClient: httpClient,
		logger:     logger,
		now:        time.Now,
	}
}

// EnsureValid returns rec unchanged unless it is stale, in which case it is refreshed.
//
// A failed refresh is logged and the old record returned: the API call that follows will fail
// with the provider's own error, which is more useful than the refresh error.
func (r *Refresher) EnsureValid(ctx context.Context, rec *TokenRecord) *TokenRecord {
	if !rec.Stale(r.now(), RefreshMargin) {
		return rec
	}

	updated, err := r.Refresh(ctx, rec)
	if err != nil {
		r.logger.Warn("continuing with stored token", "error", err)
		return rec
	}
	return updated
}

// Refresh performs the refresh_token grant. The refresh token is kept unless the provider rotates it.
func (r *Refresher) Refresh(ctx context.Context, rec *TokenRecord) (*TokenRecord, error) {
	if rec == nil || rec.RefreshToken == "" {
		return nil, fmt.Errorf("%w: no refresh token", shared.ErrTokenRefreshFailed)
	}

	src := r.config.TokenSource(withHTTPClient(ctx, r.httpClient), &oauth2.Token{RefreshToken: rec.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrTokenRefreshFailed, err)
	}

	updated := recordFromToken(tok, r.now())
	if updated.RefreshToken == "" {
		updated.RefreshToken = rec.RefreshToken
	}

	if r.store != nil {
		if err := r.store.Save(updated); err != nil {
			r.logger.Warn("refreshed token not persisted", "error", err)
		}
	}

	r.logger.Debug("access token refreshed", "expires_at", updated.Expiry())
	return updated, nil
}
