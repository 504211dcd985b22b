package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/spotx/internal/services"
	"github.com/desertthunder/spotx/internal/shared"
	"github.com/desertthunder/spotx/internal/ui"
	"github.com/urfave/cli/v3"
)

// skipSettle gives Spotify a moment to report the new track after a skip.
var skipSettle = time.Second

// queryArg joins the positional arguments so unquoted queries work.
func queryArg(cmd *cli.Command) string {
	return strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
}

func trackJSON(t *services.Track) map[string]any {
	return map[string]any{"name": t.Name, "artist": t.Artist, "uri": t.URI}
}

func deviceID(d *services.Device) any {
	if d == nil {
		return nil
	}
	return d.ID
}

// findTrack searches for query and fails with [shared.ErrNoResults] when nothing matches.
func (r *Runner) findTrack(ctx context.Context, query string, useJSON bool) (*services.Track, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: specify what to play, or use `spotx resume` to continue paused playback", shared.ErrMissingArgument)
	}
	if !useJSON {
		r.writePlain("🎵 Searching for: %s\n", query)
	}

	track, err := r.player.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	if track == nil {
		return nil, fmt.Errorf("%w for: %s", shared.ErrNoResults, query)
	}
	return track, nil
}

// Play searches for a track and starts it, or queues it with --queue.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	if err := r.requireCredentials(); err != nil {
		return r.fail(useJSON, err)
	}

	query := queryArg(cmd)
	if cmd.Bool("queue") {
		return r.queueTrack(ctx, query, useJSON)
	}

	track, err := r.findTrack(ctx, query, useJSON)
	if err != nil {
		return r.fail(useJSON, err)
	}

	device, err := r.player.Play(ctx, track.URI, cmd.String("device"))
	if err != nil {
		r.emit("error.playback_failed", map[string]any{"command": "play", "action": "play", "error": err.Error()})
		return r.fail(useJSON, fmt.Errorf("failed to play: %w", err))
	}

	r.emit("track.played", map[string]any{
		"track":        track.Name,
		"artist":       track.Artist,
		"uri":          track.URI,
		"search_query": query,
	})

	if useJSON {
		return r.writeJSON(map[string]any{
			"success":      true,
			"action":       "playing",
			"track":        trackJSON(track),
			"device_id":    deviceID(device),
			"search_query": query,
		}, false)
	}

	if device != nil {
		r.writePlain("%s Using device: %s\n", ui.DeviceIcon(device.Type), device.Name)
	}
	r.writePlain("▶️  Playing: %s by %s\n", track.Name, track.Artist)
	return r.writePlain("%s\n", ui.Success("✅ Playback started!"))
}

// QueueAdd searches for a track and appends it to the queue.
func (r *Runner) QueueAdd(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	if err := r.requireCredentials(); err != nil {
		return r.fail(useJSON, err)
	}
	return r.queueTrack(ctx, queryArg(cmd), useJSON)
}

func (r *Runner) queueTrack(ctx context.Context, query string, useJSON bool) error {
	track, err := r.findTrack(ctx, query, useJSON)
	if err != nil {
		return r.fail(useJSON, err)
	}

	if _, err := r.player.AddToQueue(ctx, track.URI); err != nil {
		r.emit("error.queue_failed", map[string]any{"command": "queue", "error": err.Error()})
		return r.fail(useJSON, fmt.Errorf("failed to add to queue: %w", err))
	}

	r.emit("track.queued", map[string]any{
		"track":        track.Name,
		"artist":       track.Artist,
		"uri":          track.URI,
		"search_query": query,
	})

	if useJSON {
		return r.writeJSON(map[string]any{
			"success":      true,
			"action":       "queued",
			"track":        trackJSON(track),
			"search_query": query,
		}, false)
	}

	r.writePlain("➕ Added to queue: %s by %s\n", track.Name, track.Artist)
	r.writePlain("📋 It will play after the current track\n")
	return r.writePlain("%s\n", ui.Success("✅ Successfully added to queue!"))
}

// QueueShow prints the current track and what follows it.
func (r *Runner) QueueShow(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	if err := r.requireCredentials(); err != nil {
		return r.fail(useJSON, err)
	}

	queue, err := r.player.Queue(ctx)
	if err != nil {
		return r.fail(useJSON, err)
	}

	if useJSON {
		return r.writeJSON(queue, false)
	}

	if queue.CurrentlyPlaying == nil {
		r.writePlain("🔇 Nothing is currently playing\n")
	} else {
		r.writePlain("🎵 Now: %s by %s\n", queue.CurrentlyPlaying.Name, queue.CurrentlyPlaying.Artist)
	}

	if len(queue.Queue) == 0 {
		return r.writePlain("📋 Queue is empty\n")
	}

	r.writePlainln("📋 Up next:")
	for i, t := range queue.Queue {
		r.writePlain("%3d. %s by %s %s\n", i+1, t.Name, t.Artist, ui.Muted(ui.FormatDuration(t.DurationMS)))
	}
	return nil
}

// Resume continues playback, optionally on another device.
func (r *Runner) Resume(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	if err := r.requireCredentials(); err != nil {
		return r.fail(useJSON, err)
	}

	if !useJSON {
		r.writePlain("▶️  Resuming Spotify playback...\n")
	}

	selector := cmd.String("device")
	device, err := r.player.Resume(ctx, selector)
	if err != nil {
		r.emit("error.playback_failed", map[string]any{"command": "resume", "action": "resume", "error": err.Error()})
		return r.fail(useJSON, fmt.Errorf("failed to resume: %w", err))
	}

	current, err := r.player.CurrentPlayback(ctx)
	if err != nil {
		r.logger.Debug("could not read playback after resume", "error", err)
	}

	data := map[string]any{"track": nil, "artist": nil, "device_id": deviceID(device)}
	if current != nil {
		data["track"], data["artist"] = current.Name, current.Artist
	}
	r.emit("track.resumed", data)

	if useJSON {
		out := map[string]any{"success": true, "resumed": true, "device_id": deviceID(device), "track": nil}
		if current != nil {
			out["track"] = map[string]any{"name": current.Name, "artist": current.Artist, "album": current.Album}
		}
		return r.writeJSON(out, false)
	}

	if selector != "" && device != nil {
		r.writePlain("%s Using device: %s\n", ui.DeviceIcon(device.Type), device.Name)
	}
	if current != nil {
		r.writePlain("🎵 Resumed: %s by %s\n", current.Name, current.Artist)
	}
	return r.writePlain("%s\n", ui.Success("✅ Playback resumed!"))
}

// Pause pauses playback.
func (r *Runner) Pause(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	if err := r.requireCredentials(); err != nil {
		return r.fail(useJSON, err)
	}

	if !useJSON {
		r.writePlain("⏸️  Pausing Spotify playback...\n")
	}

	current, err := r.player.CurrentPlayback(ctx)
	if err != nil {
		r.logger.Debug("could not read playback before pause", "error", err)
	}

	if err := r.player.Pause(ctx); err != nil {
		return r.fail(useJSON, fmt.Errorf("failed to pause: %w", err))
	}

	if current != nil {
		r.emit("track.paused", map[string]any{
			"track":     current.Name,
			"artist":    current.Artist,
			"paused_at": current.ProgressMS,
		})
	}

	if useJSON {
		out := map[string]any{"success": true, "paused": true, "track": nil}
		if current != nil {
			out["track"] = map[string]any{"name": current.Name, "artist": current.Artist, "paused_at": current.ProgressMS}
		}
		return r.writeJSON(out, false)
	}
	return r.writePlain("%s\n", ui.Success("✅ Playback paused!"))
}

// Skip moves to the next track, or the previous one with --previous or a "prev" argument.
func (r *Runner) Skip(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	if err := r.requireCredentials(); err != nil {
		return r.fail(useJSON, err)
	}

	direction := "next"
	switch strings.ToLower(cmd.StringArg("direction")) {
	case "", "next":
	case "prev", "previous", "back":
		direction = "previous"
	default:
		return r.fail(useJSON, fmt.Errorf("%w: direction must be next or prev", shared.ErrInvalidArgument))
	}
	if cmd.Bool("previous") {
		direction = "previous"
	}

	before, err := r.player.CurrentPlayback(ctx)
	if err != nil {
		r.logger.Debug("could not read playback before skip", "error", err)
	}

	skip, icon := r.player.Next, "⏭️"
	if direction == "previous" {
		skip, icon = r.player.Previous, "⏮️"
	}
	if err := skip(ctx); err != nil {
		return r.fail(useJSON, err)
	}

	if before != nil {
		r.emit("track.skipped", map[string]any{
			"track":     before.Name,
			"artist":    before.Artist,
			"skip_at":   before.ProgressMS,
			"direction": direction,
		})
	}

	select {
	case <-ctx.Done():
	case <-time.After(skipSettle):
	}

	current, err := r.player.CurrentPlayback(ctx)
	if err != nil {
		r.logger.Debug("could not read playback after skip", "error", err)
	}

	if useJSON {
		out := map[string]any{"success": true, "direction": direction, "previous": nil, "current": nil}
		if before != nil {
			out["previous"] = map[string]any{"name": before.Name, "artist": before.Artist, "progress_ms": before.ProgressMS}
		}
		if current != nil {
			out["current"] = map[string]any{"name": current.Name, "artist": current.Artist, "album": current.Album}
		}
		return r.writeJSON(out, false)
	}

	r.writePlain("%s  Skipped to %s track\n", icon, direction)
	if current != nil {
		r.writePlain("🎵 Now playing: %s by %s\n", current.Name, current.Artist)
	}
	return nil
}

// Current shows the track that is playing.
func (r *Runner) Current(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	if err := r.requireCredentials(); err != nil {
		return r.fail(useJSON, err)
	}

	current, err := r.player.CurrentPlayback(ctx)
	if err != nil {
		return r.fail(useJSON, err)
	}

	if useJSON {
		if current == nil {
			return r.writeJSON(map[string]any{"is_playing": false, "track": nil}, false)
		}
		return r.writeJSON(current, false)
	}

	if current == nil {
		r.emit("playback.status_checked", map[string]any{"is_playing": false, "has_track": false})
		return r.writePlain("🔇 Nothing is currently playing\n")
	}

	r.emit("track.viewed", map[string]any{
		"track":       current.Name,
		"artist":      current.Artist,
		"album":       current.Album,
		"progress_ms": current.ProgressMS,
		"duration_ms": current.DurationMS,
		"is_playing":  current.IsPlaying,
	})

	r.writePlain("%s\n", ui.Title("🎵 Currently Playing"))
	return r.writePlain("%s\n", ui.NowPlaying(current))
}

// Search lists matching tracks.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	if err := r.requireCredentials(); err != nil {
		return r.fail(useJSON, err)
	}

	query := queryArg(cmd)
	tracks, err := r.player.SearchMultiple(ctx, query, cmd.Int("limit"))
	if err != nil {
		return r.fail(useJSON, err)
	}

	if useJSON {
		return r.writeJSON(tracks, false)
	}

	if len(tracks) == 0 {
		return fmt.Errorf("%w for: %s", shared.ErrNoResults, query)
	}

	r.writePlain("🔍 Results for: %s\n\n", query)
	for i, t := range tracks {
		r.writePlain("%3d. %s by %s %s\n", i+1, ui.Accent(t.Name), t.Artist, ui.Muted(ui.FormatDuration(t.DurationMS)))
		r.writePlain("     %s\n", ui.Muted(t.URI))
	}
	return nil
}

// parseVolumeArgs reads the level and --json from raw arguments.
func parseVolumeArgs(args []string) (level string, useJSON bool, err error) {
	for _, arg := range args {
		switch {
		case arg == "--json":
			useJSON = true
		case arg == "--":
		case level == "":
			level = arg
		default:
			return "", useJSON, fmt.Errorf("%w: unexpected argument %q", shared.ErrInvalidArgument, arg)
		}
	}
	return level, useJSON, nil
}

// resolveVolume turns an absolute or relative level into a clamped target.
//
// Relative levels are applied to the volume of the device in current.
func resolveVolume(level string, current *services.PlaybackState) (int, error) {
	n, err := strconv.Atoi(level)
	if err != nil {
		return 0, fmt.Errorf("%w: volume must be 0-100, +n or -n", shared.ErrInvalidArgument)
	}

	if strings.HasPrefix(level, "+") || strings.HasPrefix(level, "-") {
		if current == nil || current.Device == nil {
			return 0, fmt.Errorf("%w: start playing something first", shared.ErrNoDeviceAvailable)
		}
		n += current.Device.VolumePercent
	}
	return services.ClampVolume(n), nil
}

// Volume shows the current volume, or sets it to an absolute or relative level.
func (r *Runner) Volume(ctx context.Context, cmd *cli.Command) error {
	level, useJSON, err := parseVolumeArgs(cmd.Args().Slice())
	if err != nil {
		return r.fail(useJSON, err)
	}
	if err := r.requireCredentials(); err != nil {
		return r.fail(useJSON, err)
	}

	var current *services.PlaybackState
	if level == "" || strings.HasPrefix(level, "+") || strings.HasPrefix(level, "-") {
		if current, err = r.player.CurrentPlayback(ctx); err != nil {
			return r.fail(useJSON, err)
		}
	}

	if level == "" {
		if current == nil || current.Device == nil {
			return r.fail(useJSON, fmt.Errorf("%w: no active device found, start playing something first", shared.ErrNoDeviceAvailable))
		}
		volume := current.Device.VolumePercent
		if useJSON {
			return r.writeJSON(map[string]any{"volume": volume}, false)
		}
		r.writePlain("%s Current volume: %d%%\n", ui.VolumeIcon(volume), volume)
		return r.writePlain("  [%s] %d%%\n", ui.VolumeBar(volume), volume)
	}

	target, err := resolveVolume(level, current)
	if err != nil {
		return r.fail(useJSON, err)
	}

	volume, err := r.player.SetVolume(ctx, target)
	if err != nil {
		return r.fail(useJSON, fmt.Errorf("failed to set volume: %w", err))
	}
	r.emit("volume.changed", map[string]any{"volume": volume})

	if useJSON {
		return r.writeJSON(map[string]any{"volume": volume, "success": true}, false)
	}
	r.writePlain("%s Volume set to %d%%\n", ui.VolumeIcon(volume), volume)
	return r.writePlain("  [%s] %d%%\n", ui.VolumeBar(volume), volume)
}

// Shuffle sets or toggles shuffle. It needs something playing.
func (r *Runner) Shuffle(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	if err := r.requireCredentials(); err != nil {
		return r.fail(useJSON, err)
	}

	mode, err := services.ParseShuffle(cmd.StringArg("state"))
	if err != nil {
		return r.fail(useJSON, err)
	}

	current, err := r.requirePlayback(ctx)
	if err != nil {
		return r.fail(useJSON, err)
	}

	on := mode == services.ShuffleOn
	if mode == services.ShuffleToggle {
		on = !current.ShuffleState
	}

	if err := r.player.SetShuffle(ctx, on); err != nil {
		return r.fail(useJSON, fmt.Errorf("failed to change shuffle: %w", err))
	}
	r.emit("playback.shuffle", map[string]any{"shuffle": on, "track": current.Name, "artist": current.Artist})

	message := "Shuffle disabled"
	if on {
		message = "Shuffle enabled"
	}
	if useJSON {
		return r.writeJSON(map[string]any{"shuffle": on, "message": message}, false)
	}

	icon := "➡️ "
	if on {
		icon = "🔀"
	}
	return r.writePlain("%s %s\n", icon, message)
}

var repeatMessages = map[services.RepeatState]string{
	services.RepeatOff:     "Repeat disabled",
	services.RepeatTrack:   "Repeat current track",
	services.RepeatContext: "Repeat current context (album/playlist)",
}

// Repeat sets or cycles the repeat mode. It needs something playing.
func (r *Runner) Repeat(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	if err := r.requireCredentials(); err != nil {
		return r.fail(useJSON, err)
	}

	arg := strings.ToLower(cmd.StringArg("state"))
	toggle := arg == "" || arg == "toggle"

	var state services.RepeatState
	if !toggle {
		parsed, err := services.ParseRepeatState(arg)
		if err != nil {
			return r.fail(useJSON, fmt.Errorf("%w: use off, track, context or toggle", err))
		}
		state = parsed
	}

	current, err := r.requirePlayback(ctx)
	if err != nil {
		return r.fail(useJSON, err)
	}
	if toggle {
		state = current.RepeatState.Next()
	}

	if err := r.player.SetRepeat(ctx, state); err != nil {
		return r.fail(useJSON, fmt.Errorf("failed to change repeat mode: %w", err))
	}
	r.emit("playback.repeat", map[string]any{"repeat": string(state), "track": current.Name, "artist": current.Artist})

	if useJSON {
		return r.writeJSON(map[string]any{"repeat": state, "message": repeatMessages[state]}, false)
	}
	return r.writePlain("%s (%s)\n", ui.RepeatLabel(state), repeatMessages[state])
}

// requirePlayback fails with [shared.ErrNothingPlaying] when there is no playback state.
func (r *Runner) requirePlayback(ctx context.Context) (*services.PlaybackState, error) {
	current, err := r.player.CurrentPlayback(ctx)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("%w: start playing something first", shared.ErrNothingPlaying)
	}
	return current, nil
}
