package auth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/spotx/internal/shared"
)

type tokenEndpoint struct {
	hits   atomic.Int32
	status int
	body   string
	check  func(t *testing.T, r *http.Request)
}

func newTokenServer(t *testing.T, ep *tokenEndpoint) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ep.hits.Add(1)
		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse form: %v", err)
		}
		if ep.check != nil {
			ep.check(t, r)
		}
		w.Header().Set("Content-Type", "application/json")
		if ep.status != 0 {
			w.WriteHeader(ep.status)
		}
		io.WriteString(w, ep.body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testCredentials(tokenURL string) Credentials {
	return Credentials{ClientID: "client-id", ClientSecret: "client-secret", TokenURL: tokenURL}
}

func checkBasicAuth(t *testing.T, r *http.Request) {
	t.Helper()
	id, secret, ok := r.BasicAuth()
	if !ok || id != "client-id" || secret != "client-secret" {
		t.Errorf("expected basic auth with client credentials, got %q %q %v", id, secret, ok)
	}
}

func TestRefresher(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	t.Run("refreshes with basic auth and keeps the refresh token", func(t *testing.T) {
		ep := &tokenEndpoint{
			body: `{"access_token":"new-access","token_type":"Bearer","expires_in":3600}`,
			check: func(t *testing.T, r *http.Request) {
				checkBasicAuth(t, r)
				if got := r.PostForm.Get("grant_type"); got != "refresh_token" {
					t.Errorf("expected refresh_token grant, got %s", got)
				}
				if got := r.PostForm.Get("refresh_token"); got != "old-refresh" {
					t.Errorf("expected old-refresh, got %s", got)
				}
			},
		}
		srv := newTokenServer(t, ep)
		store, _, _ := newTestStore(t)
		r := NewRefresher(testCredentials(srv.URL), store, srv.Client(), shared.NewLogger(io.Discard))

		updated, err := r.Refresh(context.Background(), &TokenRecord{AccessToken: "old", RefreshToken: "old-refresh"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if updated.AccessToken != "new-access" {
			t.Errorf("expected new-access, got %s", updated.AccessToken)
		}
		if updated.RefreshToken != "old-refresh" {
			t.Errorf("expected refresh token to be kept, got %s", updated.RefreshToken)
		}
		if time.Until(updated.Expiry()) < 50*time.Minute {
			t.Errorf("expected expiry about an hour out, got %v", updated.Expiry())
		}

		stored, _ := store.Load()
		if stored == nil || stored.AccessToken != "new-access" {
			t.Errorf("expected refreshed token to be persisted, got %+v", stored)
		}
	})

	t.Run("adopts a rotated refresh token", func(t *testing.T) {
		srv := newTokenServer(t, &tokenEndpoint{
			body: `{"access_token":"a2","refresh_token":"r2","token_type":"Bearer","expires_in":60}`,
		})
		r := NewRefresher(testCredentials(srv.URL), nil, srv.Client(), shared.NewLogger(io.Discard))

		updated, err := r.Refresh(context.Background(), &TokenRecord{RefreshToken: "r1"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if updated.RefreshToken != "r2" {
			t.Errorf("expected rotated refresh token, got %s", updated.RefreshToken)
		}
	})

	t.Run("defaults expiry when expires_in is missing", func(t *testing.T) {
		srv := newTokenServer(t, &tokenEndpoint{body: `{"access_token":"a2","token_type":"Bearer"}`})
		r := NewRefresher(testCredentials(srv.URL), nil, srv.Client(), shared.NewLogger(io.Discard))
		r.now = func() time.Time { return now }

		updated, err := r.Refresh(context.Background(), &TokenRecord{RefreshToken: "r1"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if want := now.Unix() + 3600; updated.ExpiresAt != want {
			t.Errorf("expected expires_at %d, got %d", want, updated.ExpiresAt)
		}
	})

	t.Run("provider error wraps ErrTokenRefreshFailed", func(t *testing.T) {
		srv := newTokenServer(t, &tokenEndpoint{status: http.StatusBadRequest, body: `{"error":"invalid_grant"}`})
		r := NewRefresher(testCredentials(srv.URL), nil, srv.Client(), shared.NewLogger(io.Discard))

		_, err := r.Refresh(context.Background(), &TokenRecord{RefreshToken: "r1"})
		if !errors.Is(err, shared.ErrTokenRefreshFailed) {
			t.Errorf("expected ErrTokenRefreshFailed, got %v", err)
		}
	})

	t.Run("no refresh token is an error without a request", func(t *testing.T) {
		ep := &tokenEndpoint{body: `{}`}
		srv := newTokenServer(t, ep)
		r := NewRefresher(testCredentials(srv.URL), nil, srv.Client(), shared.NewLogger(io.Discard))

		if _, err := r.Refresh(context.Background(), &TokenRecord{AccessToken: "a"}); !errors.Is(err, shared.ErrTokenRefreshFailed) {
			t.Errorf("expected ErrTokenRefreshFailed, got %v", err)
		}
		if ep.hits.Load() != 0 {
			t.Errorf("expected no token requests, got %d", ep.hits.Load())
		}
	})
}

func TestRefresherEnsureValid(t *testing.T) {
	t.Run("fresh token passes through without a request", func(t *testing.T) {
		ep := &tokenEndpoint{body: `{}`}
		srv := newTokenServer(t, ep)
		r := NewRefresher(testCredentials(srv.URL), nil, srv.Client(), shared.NewLogger(io.Discard))

		rec := &TokenRecord{AccessToken: "a", RefreshToken: "r", ExpiresAt: time.Now().Add(time.Hour).Unix()}
		if got := r.EnsureValid(context.Background(), rec); got != rec {
			t.Errorf("expected same record back, got %+v", got)
		}
		if ep.hits.Load() != 0 {
			t.Errorf("expected no token requests, got %d", ep.hits.Load())
		}
	})

	t.Run("stale token is refreshed", func(t *testing.T) {
		srv := newTokenServer(t, &tokenEndpoint{body: `{"access_token":"fresh","token_type":"Bearer","expires_in":3600}`})
		r := NewRefresher(testCredentials(srv.URL), nil, srv.Client(), shared.NewLogger(io.Discard))

		rec := &TokenRecord{AccessToken: "a", RefreshToken: "r", ExpiresAt: time.Now().Add(30 * time.Second).Unix()}
		if got := r.EnsureValid(context.Background(), rec); got.AccessToken != "fresh" {
			t.Errorf("expected fresh token, got %s", got.AccessToken)
		}
	})

	t.Run("failed refresh keeps the old record", func(t *testing.T) {
		srv := newTokenServer(t, &tokenEndpoint{status: http.StatusUnauthorized, body: `{"error":"invalid_client"}`})
		r := NewRefresher(testCredentials(srv.URL), nil, srv.Client(), shared.NewLogger(io.Discard))

		rec := &TokenRecord{AccessToken: "old", RefreshToken: "r"}
		if got := r.EnsureValid(context.Background(), rec); got.AccessToken != "old" {
			t.Errorf("expected old token, got %s", got.AccessToken)
		}
	})
}

func TestSession(t *testing.T) {
	t.Run("no stored token is ErrNotAuthenticated", func(t *testing.T) {
		store, _, _ := newTestStore(t)
		s := NewSession(store, nil)

		if _, err := s.AccessToken(context.Background()); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("returns the stored access token", func(t *testing.T) {
		store, _, _ := newTestStore(t)
		if err := store.Save(&TokenRecord{AccessToken: "stored"}); err != nil {
			t.Fatal(err)
		}

		token, err := NewSession(store, nil).AccessToken(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if token != "stored" {
			t.Errorf("expected stored, got %s", token)
		}
	})

	t.Run("refreshes a stale token once", func(t *testing.T) {
		ep := &tokenEndpoint{body: `{"access_token":"fresh","token_type":"Bearer","expires_in":3600}`}
		srv := newTokenServer(t, ep)
		store, _, _ := newTestStore(t)
		if err := store.Save(&TokenRecord{AccessToken: "old", RefreshToken: "r"}); err != nil {
			t.Fatal(err)
		}
		s := NewSession(store, NewRefresher(testCredentials(srv.URL), store, srv.Client(), shared.NewLogger(io.Discard)))

		for range 3 {
			token, err := s.AccessToken(context.Background())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if token != "fresh" {
				t.Errorf("expected fresh, got %s", token)
			}
		}
		if ep.hits.Load() != 1 {
			t.Errorf("expected one refresh, got %d", ep.hits.Load())
		}
	})

	t.Run("status reports stored token details", func(t *testing.T) {
		store, path, _ := newTestStore(t)
		expiry := time.Now().Add(-time.Minute).Unix()
		if err := store.Save(&TokenRecord{AccessToken: "a", RefreshToken: "r", ExpiresAt: expiry}); err != nil {
			t.Fatal(err)
		}

		status, err := NewSession(store, nil).Status()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !status.Authenticated || !status.HasRefreshToken || !status.Expired {
			t.Errorf("unexpected status %+v", status)
		}
		if status.TokenPath != path {
			t.Errorf("expected path %s, got %s", path, status.TokenPath)
		}
	})
}
