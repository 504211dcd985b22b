package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/spotx/internal/auth"
	"github.com/desertthunder/spotx/internal/events"
	"github.com/desertthunder/spotx/internal/shared"
	"github.com/urfave/cli/v3"
)

const dashboardURL = "https://developer.spotify.com/dashboard"

// Setup creates the config file from the embedded template and prints the app registration steps.
//
// With --reset it removes the stored token instead.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("reset") {
		return r.Logout(ctx, cmd)
	}

	configPath := r.configPath
	if configPath == "" {
		configPath = shared.DefaultConfigPath()
	}

	if shared.FileExists(configPath) {
		r.logger.Info("config file already exists", "path", configPath)
	} else {
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		r.logger.Info("config file created", "path", configPath)
	}

	if err := r.setupDatabase(); err != nil {
		return err
	}

	redirectURI := r.config.Credentials.Spotify.RedirectURI
	if redirectURI == "" {
		port, err := auth.SelectPort(r.config.Auth.CallbackPorts, 250*time.Millisecond)
		if err != nil {
			r.logger.Warn("no free callback port right now, showing the default", "error", err)
			port = auth.DefaultCallbackPorts[0]
		}
		redirectURI = auth.RedirectURI(port)
	}

	r.writePlainHeader("🎵 spotx setup")
	r.writePlain("Config file: %s\n", configPath)

	if r.config.Credentials.Spotify.Configured() {
		r.writePlain("✅ Spotify credentials are configured\n")
		r.writePlain("💡 Run `spotx login` to authenticate\n")
		return nil
	}

	r.writePlainln("Create a Spotify app:")
	r.writePlain("1. Open %s and click \"Create app\"\n", dashboardURL)
	r.writePlain("2. Add this Redirect URI:\n   %s\n", redirectURI)
	r.writePlain("3. Select \"Web API\" and save\n")
	r.writePlain("4. Copy the Client ID and Client Secret into %s\n", configPath)
	r.writePlain("   (or set SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET)\n")
	r.writePlain("5. Run `spotx login`\n")

	if !cmd.Bool("no-browser") {
		if err := r.openBrowser(dashboardURL); err != nil {
			r.logger.Warn("could not open browser", "error", err)
		}
	}
	return nil
}

// setupDatabase runs migrations for the SQLite event store when one is configured.
func (r *Runner) setupDatabase() error {
	path := r.config.EventsDatabase()
	if path == "" {
		return nil
	}

	r.logger.Info("initializing event database", "path", path)
	sink, err := events.OpenSQLiteSink(path)
	if err != nil {
		return fmt.Errorf("failed to set up event database: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", path)
	return sink.Close()
}
