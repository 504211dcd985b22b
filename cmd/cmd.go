// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Output as JSON",
	}
}

func deviceFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "device",
		Aliases: []string{"d"},
		Usage:   "Device name or ID to play on",
	}
}

// setupCommand writes the config template and explains how to create a Spotify app.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the config file and register a Spotify app",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "reset",
				Usage: "Remove stored credentials instead",
			},
			&cli.BoolFlag{
				Name:  "no-browser",
				Usage: "Do not open the Spotify developer dashboard",
			},
		},
		Action: r.Setup,
	}
}

func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Authenticate with Spotify using OAuth2",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-browser",
				Usage: "Print the authorization URL instead of opening a browser",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "How long to wait for the browser callback",
			},
		},
		Action: r.Login,
	}
}

func logoutCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Remove the stored Spotify token",
		Action: r.Logout,
	}
}

// authCommand handles token inspection
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Inspect and refresh stored credentials",
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show whether a token is stored and when it expires",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.AuthStatus,
			},
			{
				Name:   "refresh",
				Usage:  "Exchange the refresh token for a new access token",
				Action: r.AuthRefresh,
			},
		},
	}
}

func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "play",
		Usage:     "Search for a track and play it (use \"resume\" to continue paused playback)",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			deviceFlag(),
			&cli.BoolFlag{
				Name:    "queue",
				Aliases: []string{"q"},
				Usage:   "Add to queue instead of playing immediately",
			},
			jsonFlag(),
		},
		Action: r.Play,
	}
}

func resumeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "resume",
		Usage:  "Resume playback from where it was paused",
		Flags:  []cli.Flag{deviceFlag(), jsonFlag()},
		Action: r.Resume,
	}
}

func pauseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "pause",
		Usage:  "Pause playback",
		Flags:  []cli.Flag{jsonFlag()},
		Action: r.Pause,
	}
}

func skipCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "skip",
		Usage: "Skip to the next or previous track",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "direction"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "previous",
				Aliases: []string{"p"},
				Usage:   "Go back a track",
			},
			jsonFlag(),
		},
		Action: r.Skip,
	}
}

func queueCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "queue",
		Usage:     "Add a track to the queue (plays after the current track)",
		ArgsUsage: "<query>",
		Flags:     []cli.Flag{jsonFlag()},
		Action:    r.QueueAdd,
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the current queue",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.QueueShow,
			},
		},
	}
}

func currentCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "current",
		Aliases: []string{"now"},
		Usage:   "Show the current track",
		Flags:   []cli.Flag{jsonFlag()},
		Action:  r.Current,
	}
}

func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search for tracks",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "Maximum number of results (1-50)",
				Value:   10,
			},
			jsonFlag(),
		},
		Action: r.Search,
	}
}

// volumeCommand parses its own arguments so "-10" is read as a level, not a flag.
func volumeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:            "volume",
		Usage:           "Show or set volume: 0-100, +n or -n (--json for JSON output)",
		ArgsUsage:       "[level]",
		SkipFlagParsing: true,
		Action:          r.Volume,
	}
}

func shuffleCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "shuffle",
		Usage: "Set shuffle: on, off or toggle (default)",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "state"},
		},
		Flags:  []cli.Flag{jsonFlag()},
		Action: r.Shuffle,
	}
}

func repeatCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "repeat",
		Usage: "Set repeat: off, track, context or toggle (default)",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "state"},
		},
		Flags:  []cli.Flag{jsonFlag()},
		Action: r.Repeat,
	}
}

func devicesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "devices",
		Usage: "List devices or switch playback to one",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "name"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "switch",
				Aliases: []string{"s"},
				Usage:   "Switch to the named device, or pick one interactively",
			},
			jsonFlag(),
		},
		Action: r.Devices,
	}
}

func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlists",
		Usage: "List and play your playlists",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of playlists to return",
				Value: 20,
			},
			jsonFlag(),
		},
		Action: r.Playlists,
		Commands: []*cli.Command{
			{
				Name:  "play",
				Usage: "Play a playlist by ID",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags:  []cli.Flag{deviceFlag(), jsonFlag()},
				Action: r.PlaylistPlay,
			},
			{
				Name:  "tracks",
				Usage: "List the tracks in a playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.PlaylistTracks,
			},
			{
				Name:      "export",
				Usage:     "Export playlists to json, csv, markdown or txt files",
				ArgsUsage: "[id...]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Export every playlist in your library",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: json, csv, markdown, txt",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory (default: spotify_export_<epoch>)",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent export workers (max 10)",
						Value: 5,
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Playlist fetches per second",
						Value: 5,
					},
					&cli.BoolFlag{
						Name:  "no-covers",
						Usage: "Skip cover image downloads for markdown exports",
					},
					jsonFlag(),
				},
				Action: r.PlaylistExport,
			},
		},
	}
}

// playerCommand returns the top-level TUI command for interactive playback control.
func playerCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "player",
		Aliases: []string{"tui", "ui"},
		Usage:   "Launch the interactive player",
		Action:  r.Player,
	}
}

func eventCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "event",
		Usage: "Write to the event log",
		Commands: []*cli.Command{
			{
				Name:  "emit",
				Usage: "Emit an event with optional JSON data",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
					&cli.StringArg{Name: "data"},
				},
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.EventEmit,
			},
		},
	}
}

func eventsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "Read the event log",
		Commands: []*cli.Command{
			{
				Name:  "tail",
				Usage: "Show the most recent events",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Number of events to show",
						Value:   20,
					},
					&cli.StringFlag{
						Name:  "name",
						Usage: "Only show events with this name (e.g. track.played)",
					},
					jsonFlag(),
				},
				Action: r.EventsTail,
			},
		},
	}
}
