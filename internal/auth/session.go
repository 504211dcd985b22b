package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/spotx/internal/shared"
)

// Session supplies a valid bearer token to API clients for the duration of one command.
type Session struct {
	store     *Store
	refresher *Refresher

	mu      sync.Mutex
	loaded  bool
	current *TokenRecord
}

// NewSession creates a session backed by store. refresher may be nil to disable refresh.
func NewSession(store *Store, refresher *Refresher) *Session {
	return &Session{store: store, refresher: refresher}
}

// Record loads the stored token on first use and refreshes it when stale.
func (s *Session) Record(ctx context.Context) (*TokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		rec, err := s.store.Load()
		if err != nil {
			return nil, err
		}
		s.current, s.loaded = rec, true
	}

	if s.current == nil {
		return nil, fmt.Errorf("%w: run `spotx login` first", shared.ErrNotAuthenticated)
	}

	if s.refresher != nil {
		s.current = s.refresher.EnsureValid(ctx, s.current)
	}
	return s.current, nil
}

// AccessToken returns the bearer token for the next API call.
func (s *Session) AccessToken(ctx context.Context) (string, error) {
	rec, err := s.Record(ctx)
	if err != nil {
		return "", err
	}
	if rec.AccessToken == "" {
		return "", fmt.Errorf("%w: stored token has no access token, run `spotx login`", shared.ErrNotAuthenticated)
	}
	return rec.AccessToken, nil
}

// Reset forgets the cached record so the next call reloads from disk.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded, s.current = false, nil
}

// Status describes the stored credentials without contacting the provider.
type Status struct {
	Authenticated   bool
	HasRefreshToken bool
	ExpiresAt       time.Time
	Expired         bool
	TokenPath       string
}

// Status reports the state of the stored token. It never refreshes.
func (s *Session) Status() (Status, error) {
	status := Status{TokenPath: s.store.Path()}

	rec, err := s.store.Load()
	if err != nil || rec == nil {
		return status, err
	}

	status.Authenticated = rec.AccessToken != ""
	status.HasRefreshToken = rec.RefreshToken != ""
	status.ExpiresAt = rec.Expiry()
	status.Expired = !status.ExpiresAt.IsZero() && status.ExpiresAt.Before(time.Now())
	return status, nil
}
