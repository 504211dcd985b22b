package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/spotx/internal/formatter"
	"github.com/desertthunder/spotx/internal/shared"
	"github.com/desertthunder/spotx/internal/tasks"
	"github.com/desertthunder/spotx/internal/ui"
	"github.com/urfave/cli/v3"
)

// Playlists lists the user's playlists with optional limit.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	if err := r.requireCredentials(); err != nil {
		return r.fail(useJSON, err)
	}

	limit := cmd.Int("limit")
	r.logger.Infof("listing spotify playlists with limit %v", limit)

	playlists, err := r.player.Playlists(ctx, limit)
	if err != nil {
		return r.fail(useJSON, err)
	}

	if useJSON {
		return r.writeJSON(playlists, false)
	}

	if len(playlists) == 0 {
		return r.writePlain("No playlists found\n")
	}

	r.writePlainHeader(fmt.Sprintf("🎶 Playlists (%d)", len(playlists)))
	for i, p := range playlists {
		r.writePlain("%3d. %s %s\n", i+1, ui.Accent(p.Name), ui.Muted(fmt.Sprintf("(%d tracks)", p.Tracks.Total)))
		r.writePlain("     ID: %s  Owner: %s\n", p.ID, p.Owner.DisplayName)
	}
	return r.writePlainln("💡 Play one with: spotx playlists play <id>")
}

// PlaylistPlay starts a playlist on the resolved device.
func (r *Runner) PlaylistPlay(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	if err := r.requireCredentials(); err != nil {
		return r.fail(useJSON, err)
	}

	id := cmd.StringArg("id")
	if id == "" {
		return r.fail(useJSON, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument))
	}

	device, err := r.player.PlayPlaylist(ctx, id, cmd.String("device"))
	if err != nil {
		r.emit("error.playback_failed", map[string]any{"command": "playlists play", "action": "play", "error": err.Error()})
		return r.fail(useJSON, fmt.Errorf("failed to play playlist: %w", err))
	}

	r.emit("playlist.played", map[string]any{"playlist_id": id, "device_id": deviceID(device)})

	if useJSON {
		return r.writeJSON(map[string]any{"success": true, "action": "playing", "playlist_id": id, "device_id": deviceID(device)}, false)
	}
	if device != nil {
		r.writePlain("%s Using device: %s\n", ui.DeviceIcon(device.Type), device.Name)
	}
	return r.writePlain("%s\n", ui.Success("✅ Playlist started!"))
}

// PlaylistTracks lists every track in a playlist.
func (r *Runner) PlaylistTracks(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	if err := r.requireCredentials(); err != nil {
		return r.fail(useJSON, err)
	}

	id := cmd.StringArg("id")
	if id == "" {
		return r.fail(useJSON, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument))
	}

	items, err := r.player.PlaylistTracks(ctx, id)
	if err != nil {
		return r.fail(useJSON, err)
	}

	if useJSON {
		return r.writeJSON(items, false)
	}

	n := 0
	for _, item := range items {
		if item.Track == nil {
			continue
		}
		n++
		t := item.Track.Summary()
		r.writePlain("%3d. %s by %s %s\n", n, t.Name, t.Artist, ui.Muted(ui.FormatDuration(t.DurationMS)))
	}
	return r.writePlainln("%d tracks", n)
}

// PlaylistExport writes the given playlists, or the whole library with --all, to disk.
func (r *Runner) PlaylistExport(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	if err := r.requireCredentials(); err != nil {
		return r.fail(useJSON, err)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return r.fail(useJSON, err)
	}

	ids := cmd.Args().Slice()
	if cmd.Bool("all") {
		playlists, err := r.player.Playlists(ctx, 50)
		if err != nil {
			return r.fail(useJSON, err)
		}
		for _, p := range playlists {
			ids = append(ids, p.ID)
		}
	}
	if len(ids) == 0 {
		return r.fail(useJSON, fmt.Errorf("%w: playlist id (or --all)", shared.ErrMissingArgument))
	}

	exporter := tasks.NewExporter(r.player, r.httpClient, shared.WithLogger(r.logger, "task", "export"))
	progress := make(chan tasks.ProgressUpdate, 64)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			if !useJSON {
				r.writePlain("%s\n", update.Message)
			}
		}
	}()

	result, err := exporter.BulkExport(ctx, progress, ids, tasks.BulkExportOpts{
		Format:     format,
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
		Covers:     !cmd.Bool("no-covers"),
	})
	close(progress)
	wg.Wait()
	if err != nil {
		return r.fail(useJSON, fmt.Errorf("export failed: %w", err))
	}

	r.emit("playlist.exported", map[string]any{
		"format":           string(format),
		"playlist_count":   result.TotalPlaylists,
		"succeeded":        result.SuccessfulExports,
		"failed":           result.FailedExports,
		"output_directory": result.OutputDirectory,
	})

	if useJSON {
		return r.writeJSON(map[string]any{
			"success":          result.FailedExports == 0,
			"format":           string(format),
			"output_directory": result.OutputDirectory,
			"manifest":         result.ManifestPath,
			"succeeded":        result.SuccessfulExports,
			"failed":           result.FailedExports,
		}, false)
	}

	summary := fmt.Sprintf("✅ Exported %d/%d playlists to %s", result.SuccessfulExports, result.TotalPlaylists, result.OutputDirectory)
	if result.FailedExports > 0 {
		r.writePlain("%s\n", ui.Warn(summary))
	} else {
		r.writePlain("%s\n", ui.Success(summary))
	}
	return r.writePlain("Manifest: %s\n", result.ManifestPath)
}
