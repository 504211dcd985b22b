package shared

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Credentials.Spotify.Configured() {
			t.Error("expected default credentials to be empty")
		}

		want := []int{8888, 8889, 8890, 8891, 8892}
		if len(config.Auth.CallbackPorts) != len(want) {
			t.Fatalf("expected %d callback ports, got %v", len(want), config.Auth.CallbackPorts)
		}
		for i, p := range want {
			if config.Auth.CallbackPorts[i] != p {
				t.Errorf("callback port %d: expected %d, got %d", i, p, config.Auth.CallbackPorts[i])
			}
		}

		if config.Auth.LoginTimeout.Duration != 60*time.Second {
			t.Errorf("expected login timeout 60s, got %v", config.Auth.LoginTimeout)
		}

		if config.Playback.ActivationDelay.Duration != 500*time.Millisecond {
			t.Errorf("expected activation delay 500ms, got %v", config.Playback.ActivationDelay)
		}

		if len(config.Auth.Scopes) != 6 {
			t.Errorf("expected 6 scopes, got %d", len(config.Auth.Scopes))
		}

		if config.Events.Component != "spotify" {
			t.Errorf("expected component spotify, got %s", config.Events.Component)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "nested", "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		info, err := os.Stat(configPath)
		if err != nil {
			t.Fatalf("config file should exist: %v", err)
		}
		if info.Mode().Perm() != 0600 {
			t.Errorf("expected mode 0600, got %v", info.Mode().Perm())
		}

		if _, err := LoadConfig(configPath); err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		err = CreateConfigFile(configPath)
		if !errors.Is(err, fs.ErrExist) {
			t.Errorf("creating config file again should fail with ErrExist, got %v", err)
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"
redirect_uri = "http://127.0.0.1:9999/callback"

[auth]
token_path = "/custom/token.json"
callback_ports = [9000, 9001]

[playback]
activation_mode = "poll"
activation_delay = "250ms"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Credentials.Spotify.ClientID != "test_client_id" {
			t.Errorf("expected client_id test_client_id, got %s", config.Credentials.Spotify.ClientID)
		}
		if config.TokenFile() != "/custom/token.json" {
			t.Errorf("expected token path /custom/token.json, got %s", config.TokenFile())
		}
		if len(config.Auth.CallbackPorts) != 2 || config.Auth.CallbackPorts[1] != 9001 {
			t.Errorf("expected callback ports [9000 9001], got %v", config.Auth.CallbackPorts)
		}
		if config.Playback.ActivationMode != "poll" {
			t.Errorf("expected activation mode poll, got %s", config.Playback.ActivationMode)
		}
		if config.Playback.ActivationDelay.Duration != 250*time.Millisecond {
			t.Errorf("expected 250ms, got %v", config.Playback.ActivationDelay)
		}
		if config.Auth.LoginTimeout.Duration != 60*time.Second {
			t.Errorf("expected unset login timeout to keep default, got %v", config.Auth.LoginTimeout)
		}
	})

	t.Run("LoadConfig With Bad Duration", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[auth]\nlogin_timeout = \"soon\"\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); err == nil {
			t.Error("expected error for unparseable duration")
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		t.Setenv("SPOTIFY_CLIENT_ID", "env_id")
		t.Setenv("SPOTIFY_CLIENT_SECRET", "env_secret")
		t.Setenv("SPOTIFY_TOKEN_PATH", "/env/token.json")

		config := DefaultConfig()
		config.ApplyEnv()

		if !config.Credentials.Spotify.Configured() {
			t.Error("expected credentials from environment")
		}
		if config.Credentials.Spotify.ClientID != "env_id" {
			t.Errorf("expected env_id, got %s", config.Credentials.Spotify.ClientID)
		}
		if config.TokenFile() != "/env/token.json" {
			t.Errorf("expected /env/token.json, got %s", config.TokenFile())
		}
	})

	t.Run("LoadEnv", func(t *testing.T) {
		t.Run("reads dotenv file", func(t *testing.T) {
			envPath := filepath.Join(t.TempDir(), ".env")
			if err := os.WriteFile(envPath, []byte("SPOTX_TEST_DOTENV=from_file\n"), 0644); err != nil {
				t.Fatalf("failed to write .env: %v", err)
			}
			t.Cleanup(func() { os.Unsetenv("SPOTX_TEST_DOTENV") })

			if err := LoadEnv(envPath); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got := os.Getenv("SPOTX_TEST_DOTENV"); got != "from_file" {
				t.Errorf("expected from_file, got %q", got)
			}
		})

		t.Run("missing file is ignored", func(t *testing.T) {
			if err := LoadEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
				t.Errorf("expected missing file to be ignored, got %v", err)
			}
		})
	})

	t.Run("Path Resolution", func(t *testing.T) {
		config := DefaultConfig()

		if filepath.Base(config.TokenFile()) != "token.json" {
			t.Errorf("expected default token file token.json, got %s", config.TokenFile())
		}
		if filepath.Base(config.EventsFile()) != "events.jsonl" {
			t.Errorf("expected default events file events.jsonl, got %s", config.EventsFile())
		}
		if config.EventsDatabase() != "" {
			t.Errorf("expected sqlite sink disabled by default, got %s", config.EventsDatabase())
		}

		home, err := os.UserHomeDir()
		if err == nil && config.LegacyTokenFile() != filepath.Join(home, ".spotify_token") {
			t.Errorf("expected legacy token in home directory, got %s", config.LegacyTokenFile())
		}
	})
}
