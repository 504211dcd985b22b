package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/spotx/internal/auth"
	"github.com/desertthunder/spotx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Login runs the browser authorization flow and stores the resulting token.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireCredentials(); err != nil {
		return err
	}

	timeout := cmd.Duration("timeout")
	if timeout <= 0 {
		timeout = r.config.Auth.LoginTimeout.Duration
	}

	openBrowser := r.openBrowser
	if cmd.Bool("no-browser") {
		openBrowser = func(string) error { return nil }
	}

	coordinator := auth.NewCoordinator(auth.LoginOptions{
		Credentials: credentials(r.config),
		RedirectURI: r.config.Credentials.Spotify.RedirectURI,
		Ports:       r.config.Auth.CallbackPorts,
		Timeout:     timeout,
		Store:       r.store,
		HTTPClient:  r.httpClient,
		Logger:      r.logger,
		Events:      r.events,
		OpenBrowser: openBrowser,
		OnAuthorize: func(authURL, redirectURI string) {
			r.writePlain("🔐 Opening Spotify authorization in your browser...\n")
			r.writePlain("If it does not open, visit:\n\n  %s\n\n", authURL)
			r.writePlain("Waiting for callback on %s (%s)\n", redirectURI, timeout)
		},
	})

	result, err := coordinator.Login(ctx)
	if err != nil {
		return err
	}
	r.session.Reset()

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Token saved to %s\n", r.store.Path())
	r.writePlain("Scopes: %s\n", strings.Join(result.Scopes, ", "))
	return nil
}

// Logout removes the stored token.
func (r *Runner) Logout(ctx context.Context, cmd *cli.Command) error {
	if err := r.store.Clear(); err != nil {
		return err
	}
	r.session.Reset()
	r.emit("auth.logged_out", nil)
	return r.writePlain("✅ Spotify credentials cleared\n💡 Run `spotx login` to authenticate again\n")
}

// AuthStatus describes the stored token without contacting Spotify.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	status, err := r.session.Status()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		out := map[string]any{
			"configured":        r.config.Credentials.Spotify.Configured(),
			"authenticated":     status.Authenticated,
			"has_refresh_token": status.HasRefreshToken,
			"expired":           status.Expired,
			"token_path":        status.TokenPath,
		}
		if !status.ExpiresAt.IsZero() {
			out["expires_at"] = status.ExpiresAt.UTC().Format(time.RFC3339)
		}
		return r.writeJSON(out, false)
	}

	if r.config.Credentials.Spotify.Configured() {
		r.writePlain("Credentials: ✓ Configured\n")
	} else {
		r.writePlain("Credentials: ✗ Not configured (run `spotx setup`)\n")
	}

	if !status.Authenticated {
		r.writePlain("Authentication: ✗ Not authenticated (run `spotx login`)\n")
		return r.writePlain("Token file: %s\n", status.TokenPath)
	}

	r.writePlain("Authentication: ✓ Authenticated\n")
	switch {
	case status.ExpiresAt.IsZero():
		r.writePlain("Expires: unknown\n")
	case status.Expired:
		r.writePlain("Expires: expired %s ago\n", time.Since(status.ExpiresAt).Round(time.Second))
	default:
		r.writePlain("Expires: in %s\n", time.Until(status.ExpiresAt).Round(time.Second))
	}
	if status.HasRefreshToken {
		r.writePlain("Refresh token: ✓\n")
	} else {
		r.writePlain("Refresh token: ✗ (run `spotx login` when the token expires)\n")
	}
	return r.writePlain("Token file: %s\n", status.TokenPath)
}

// AuthRefresh forces a refresh-token grant.
func (r *Runner) AuthRefresh(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireCredentials(); err != nil {
		return err
	}

	rec, err := r.store.Load()
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("%w: run `spotx login` first", shared.ErrNotAuthenticated)
	}

	refresher := auth.NewRefresher(credentials(r.config), r.store, r.httpClient, r.logger)
	refreshed, err := refresher.Refresh(ctx, rec)
	if err != nil {
		return err
	}
	r.session.Reset()

	return r.writePlain("✓ Token refreshed, expires %s\n", refreshed.Expiry().Local().Format(time.Kitchen))
}
