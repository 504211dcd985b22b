package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

const appName = "spotx"

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Auth        AuthConfig        `toml:"auth"`
	Events      EventsConfig      `toml:"events"`
	Playback    PlaybackConfig    `toml:"playback"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// Configured reports whether both the client id and secret are present.
func (s SpotifyConfig) Configured() bool {
	return s.ClientID != "" && s.ClientSecret != ""
}

// AuthConfig controls token storage and the interactive login flow.
type AuthConfig struct {
	TokenPath       string   `toml:"token_path"`
	LegacyTokenPath string   `toml:"legacy_token_path"`
	CallbackPorts   []int    `toml:"callback_ports"`
	LoginTimeout    Duration `toml:"login_timeout"`
	Scopes          []string `toml:"scopes"`
}

// EventsConfig controls where lifecycle events are written.
type EventsConfig struct {
	LogPath      string `toml:"log_path"`
	DatabasePath string `toml:"database_path"`
	Component    string `toml:"component"`
}

// PlaybackConfig tunes how long to wait for a device to become active after a transfer.
type PlaybackConfig struct {
	ActivationMode    string   `toml:"activation_mode"`
	ActivationDelay   Duration `toml:"activation_delay"`
	ActivationTimeout Duration `toml:"activation_timeout"`
}

// Duration is a [time.Duration] that decodes from strings like "500ms" in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: bad duration %q: %v", ErrInvalidConfig, text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values absent from the file keep their defaults; environment overrides are applied last.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.ApplyEnv()
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, fs.ErrExist)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadEnv reads .env files into the process environment without overriding variables that are already set.
//
// Missing files are not an error.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides config values with SPOTIFY_* and SPOTX_* environment variables.
func (c *Config) ApplyEnv() {
	for env, dst := range map[string]*string{
		"SPOTIFY_CLIENT_ID":     &c.Credentials.Spotify.ClientID,
		"SPOTIFY_CLIENT_SECRET": &c.Credentials.Spotify.ClientSecret,
		"SPOTIFY_REDIRECT_URI":  &c.Credentials.Spotify.RedirectURI,
		"SPOTIFY_TOKEN_PATH":    &c.Auth.TokenPath,
		"SPOTX_EVENTS_PATH":     &c.Events.LogPath,
		"SPOTX_EVENTS_DB":       &c.Events.DatabasePath,
	} {
		if v, ok := os.LookupEnv(env); ok && v != "" {
			*dst = v
		}
	}
}

// ConfigDir returns <user config dir>/spotx, falling back to ~/.spotx.
func ConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, appName)
	}
	return ExpandPath("~/." + appName)
}

// DefaultConfigPath is where `spotx setup` writes the config template.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// TokenFile resolves the canonical token file path.
func (c *Config) TokenFile() string {
	if c.Auth.TokenPath == "" {
		return filepath.Join(ConfigDir(), "token.json")
	}
	return ExpandPath(c.Auth.TokenPath)
}

// LegacyTokenFile resolves the pre-JSON token location, or "" when migration is disabled.
func (c *Config) LegacyTokenFile() string {
	if c.Auth.LegacyTokenPath == "" {
		return ""
	}
	return ExpandPath(c.Auth.LegacyTokenPath)
}

// EventsFile resolves the JSONL event log path.
func (c *Config) EventsFile() string {
	if c.Events.LogPath == "" {
		return filepath.Join(ConfigDir(), "events.jsonl")
	}
	return ExpandPath(c.Events.LogPath)
}

// EventsDatabase resolves the optional SQLite event store path ("" when disabled).
func (c *Config) EventsDatabase() string {
	return ExpandPath(c.Events.DatabasePath)
}
