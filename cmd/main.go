package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotx/internal/events"
	"github.com/desertthunder/spotx/internal/shared"
	"github.com/urfave/cli/v3"
)

const version = "0.3.0"

func main() {
	logger := shared.NewLogger(nil)
	shared.SetLogLevel(logger, log.WarnLevel)

	if err := shared.LoadEnv(); err != nil {
		logger.Warn("failed to load .env", "error", err)
	}

	configPath := configFile()
	config := shared.DefaultConfig()
	if shared.FileExists(configPath) {
		if loaded, err := shared.LoadConfig(configPath); err == nil {
			config = loaded
		} else {
			logger.Warn("failed to load config, using defaults", "path", configPath, "error", err)
			config.ApplyEnv()
		}
	} else {
		config.ApplyEnv()
	}

	emitter, history := openEvents(config, logger)

	runner, err := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Events:     emitter,
		History:    history,
		Logger:     logger,
	})
	if err != nil {
		logger.Fatalf("application error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err = runner.app().Run(ctx, os.Args)
	stop()
	emitter.Close()

	if err != nil {
		logger.Fatalf("%v", err)
	}
}

// app builds the root command.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "spotx",
		Usage:   "Control Spotify playback from the terminal",
		Version: version,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("verbose") {
				shared.SetLogLevel(r.logger, log.DebugLevel)
			}
			return ctx, nil
		},
		Commands: r.register(),
	}
}

// configFile honours SPOTX_CONFIG, then ./config.toml, then the user config directory.
func configFile() string {
	if p := os.Getenv("SPOTX_CONFIG"); p != "" {
		return shared.ExpandPath(p)
	}
	if shared.FileExists("config.toml") {
		return "config.toml"
	}
	return shared.DefaultConfigPath()
}

// openEvents builds the emitter, mirroring into SQLite when events.database_path is set.
func openEvents(config *shared.Config, logger *log.Logger) (*events.Emitter, *events.Repository) {
	opts := events.EmitterOptions{
		Path:      config.EventsFile(),
		Component: config.Events.Component,
		Logger:    logger,
	}

	var history *events.Repository
	if path := config.EventsDatabase(); path != "" {
		sink, err := events.OpenSQLiteSink(path)
		if err != nil {
			logger.Warn("event database unavailable", "path", path, "error", err)
		} else {
			opts.Sinks = append(opts.Sinks, sink)
			history = sink.Repository()
		}
	}

	return events.NewEmitter(opts), history
}
