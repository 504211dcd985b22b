package main

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotx/internal/auth"
	"github.com/desertthunder/spotx/internal/events"
	"github.com/desertthunder/spotx/internal/services"
	"github.com/desertthunder/spotx/internal/shared"
	"github.com/desertthunder/spotx/internal/ui"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	player     services.Player
	store      *auth.Store
	session    *auth.Session
	events     *events.Emitter
	history    *events.Repository
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer

	// openBrowser and pickDevice are swapped out in tests.
	openBrowser func(string) error
	pickDevice  func([]services.Device) (*services.Device, error)
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Player, Store and Session are built from Config when nil.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Player     services.Player
	Store      *auth.Store
	Session    *auth.Session
	Events     *events.Emitter
	History    *events.Repository
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) (*Runner, error) {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Events == nil {
		opts.Events = events.NewEmitter(events.EmitterOptions{
			Path:      opts.Config.EventsFile(),
			Component: opts.Config.Events.Component,
			Logger:    opts.Logger,
		})
	}

	cfg := opts.Config
	if opts.Store == nil {
		opts.Store = auth.NewStore(cfg.TokenFile(), cfg.LegacyTokenFile(), opts.Logger)
	}
	if opts.Session == nil {
		refresher := auth.NewRefresher(credentials(cfg), opts.Store, opts.HTTPClient, opts.Logger)
		opts.Session = auth.NewSession(opts.Store, refresher)
	}
	if opts.Player == nil {
		policy, err := services.NewActivationPolicy(cfg.Playback.ActivationMode,
			cfg.Playback.ActivationDelay.Duration, cfg.Playback.ActivationTimeout.Duration)
		if err != nil {
			return nil, err
		}

		svc, err := services.NewSpotifyService(services.SpotifyOptions{
			HTTPClient: opts.HTTPClient,
			Tokens:     opts.Session,
			Activation: policy,
			Logger:     opts.Logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Spotify service: %w", err)
		}
		opts.Player = svc
	}

	return &Runner{
		config:      cfg,
		configPath:  opts.ConfigPath,
		player:      opts.Player,
		store:       opts.Store,
		session:     opts.Session,
		events:      opts.Events,
		history:     opts.History,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
		output:      opts.Output,
		openBrowser: shared.OpenBrowser,
		pickDevice:  ui.PickDevice,
	}, nil
}

// credentials maps the config file's Spotify section and auth scopes onto [auth.Credentials].
func credentials(cfg *shared.Config) auth.Credentials {
	return auth.Credentials{
		ClientID:     cfg.Credentials.Spotify.ClientID,
		ClientSecret: cfg.Credentials.Spotify.ClientSecret,
		Scopes:       cfg.Auth.Scopes,
	}
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, loginCommand, logoutCommand, authCommand,
		playCommand, resumeCommand, pauseCommand, skipCommand, queueCommand, currentCommand, searchCommand,
		volumeCommand, shuffleCommand, repeatCommand,
		devicesCommand, playlistsCommand, playerCommand,
		eventCommand, eventsCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// requireCredentials fails with a hint when the Spotify app is not configured.
func (r *Runner) requireCredentials() error {
	if !r.config.Credentials.Spotify.Configured() {
		return fmt.Errorf("%w: run `spotx setup` or set SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET", shared.ErrConfigurationMissing)
	}
	return nil
}

// emit records a lifecycle event. Failures never reach the command.
func (r *Runner) emit(name string, data map[string]any) {
	r.events.Emit(name, data)
}

// fail reports err as a JSON object when useJSON is set and returns it so the exit status is non-zero.
func (r *Runner) fail(useJSON bool, err error) error {
	if isAuthError(err) {
		r.logger.Warn("Spotify rejected the stored token, run `spotx login`")
	}
	if useJSON {
		r.writeJSON(map[string]any{"success": false, "error": err.Error()}, false)
	}
	return err
}

// isAuthError reports whether Spotify rejected the access token.
func isAuthError(err error) bool {
	return services.IsAPIStatus(err, http.StatusUnauthorized)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
