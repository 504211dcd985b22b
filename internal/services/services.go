package services

import (
	"context"
)

// TokenProvider supplies a bearer token that is valid for the next API call.
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

// Player is the playback surface used by commands and the interactive player.
type Player interface {
	Search(ctx context.Context, query string) (*Track, error)
	SearchMultiple(ctx context.Context, query string, limit int) ([]Track, error)
	CurrentPlayback(ctx context.Context) (*PlaybackState, error)

	Devices(ctx context.Context) ([]Device, error)
	ActiveDevice(ctx context.Context) (*Device, error)
	ResolveDevice(ctx context.Context, selector string) (*Device, error)
	TransferPlayback(ctx context.Context, deviceID string, play bool) error

	Play(ctx context.Context, uri, device string) (*Device, error)
	PlayPlaylist(ctx context.Context, playlistID, device string) (*Device, error)
	Resume(ctx context.Context, device string) (*Device, error)
	Pause(ctx context.Context) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	AddToQueue(ctx context.Context, uri string) (*Device, error)
	Queue(ctx context.Context) (*Queue, error)

	SetVolume(ctx context.Context, percent int) (int, error)
	SetShuffle(ctx context.Context, on bool) error
	ToggleShuffle(ctx context.Context) (bool, error)
	SetRepeat(ctx context.Context, state RepeatState) error
	CycleRepeat(ctx context.Context) (RepeatState, error)

	Playlists(ctx context.Context, limit int) ([]SpotifySimplePlaylist, error)
	PlaylistTracks(ctx context.Context, playlistID string) ([]SpotifyPlaylistTrack, error)
	Playlist(ctx context.Context, playlistID string) (*SpotifySimplePlaylist, error)
	ExportPlaylist(ctx context.Context, playlistID string) (*PlaylistExport, error)
}

var _ Player = (*SpotifyService)(nil)

// Track is the flattened view of a track used for search results and output.
type Track struct {
	URI        string `json:"uri"`
	Name       string `json:"name"`
	Artist     string `json:"artist"`
	Album      string `json:"album,omitempty"`
	DurationMS int    `json:"duration_ms,omitempty"`
}

// PlaybackState is a read-only snapshot of what the account is playing.
type PlaybackState struct {
	Name         string      `json:"name"`
	Artist       string      `json:"artist"`
	Album        string      `json:"album"`
	URI          string      `json:"uri"`
	ProgressMS   int         `json:"progress_ms"`
	DurationMS   int         `json:"duration_ms"`
	IsPlaying    bool        `json:"is_playing"`
	ShuffleState bool        `json:"shuffle_state"`
	RepeatState  RepeatState `json:"repeat_state"`
	Device       *Device     `json:"device,omitempty"`
}

// Queue is the currently playing track and what follows it.
type Queue struct {
	CurrentlyPlaying *Track `json:"currently_playing"`
	Queue            []Track `json:"queue"`
}
