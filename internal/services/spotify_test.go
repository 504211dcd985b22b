package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/desertthunder/spotx/internal/shared"
	tu "github.com/desertthunder/spotx/internal/testing"
)

func newTestService(t *testing.T) (*SpotifyService, *tu.FakeAPI, *tu.StaticTokens) {
	t.Helper()
	api := tu.NewFakeAPI(t)
	tokens := &tu.StaticTokens{Token: "test-token"}

	srv, err := NewSpotifyService(SpotifyOptions{
		BaseURL:    api.URL,
		HTTPClient: api.Client(),
		Tokens:     tokens,
		Activation: FixedDelay{},
		Logger:     shared.NewLogger(io.Discard),
	})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return srv, api, tokens
}

func devicesBody(devices ...Device) map[string]any {
	return map[string]any{"devices": devices}
}

func TestSpotifyService(t *testing.T) {
	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("Requires Token Provider", func(t *testing.T) {
			if _, err := NewSpotifyService(SpotifyOptions{}); !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}
		})

		t.Run("Defaults", func(t *testing.T) {
			srv, err := NewSpotifyService(SpotifyOptions{Tokens: &tu.StaticTokens{}})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if srv.baseURL != spotifyBaseURL {
				t.Errorf("expected default base URL, got %s", srv.baseURL)
			}
			if d, ok := srv.activation.(FixedDelay); !ok || d.Delay != DefaultActivationDelay {
				t.Errorf("expected 500ms fixed delay, got %#v", srv.activation)
			}
		})
	})

	t.Run("Requests", func(t *testing.T) {
		t.Run("Sends Bearer Token", func(t *testing.T) {
			srv, api, tokens := newTestService(t)
			api.On(http.MethodPost, "/me/player/next", tu.Route{Status: http.StatusNoContent})

			if err := srv.Next(context.Background()); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			calls := api.Calls(http.MethodPost, "/me/player/next")
			if len(calls) != 1 || calls[0].Auth != "Bearer test-token" {
				t.Errorf("expected one authorized request, got %+v", calls)
			}
			if tokens.Calls() != 1 {
				t.Errorf("expected token to be requested once, got %d", tokens.Calls())
			}
		})

		t.Run("Token Error Stops The Call", func(t *testing.T) {
			srv, api, tokens := newTestService(t)
			tokens.Err = shared.ErrNotAuthenticated

			if err := srv.Pause(context.Background()); !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
			if len(api.Requests()) != 0 {
				t.Errorf("expected no requests, got %d", len(api.Requests()))
			}
		})

		t.Run("API Error Carries Remote Message", func(t *testing.T) {
			srv, api, _ := newTestService(t)
			api.On(http.MethodPut, "/me/player/pause", tu.Route{
				Status: http.StatusForbidden,
				Body:   `{"error":{"status":403,"message":"Player command failed: Restriction violated"}}`,
			})

			err := srv.Pause(context.Background())
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.Status != http.StatusForbidden || apiErr.Message != "Player command failed: Restriction violated" {
				t.Errorf("unexpected error %+v", apiErr)
			}
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Error("expected APIError to match ErrAPIRequest")
			}
		})

		t.Run("API Error Falls Back To Generic Message", func(t *testing.T) {
			srv, api, _ := newTestService(t)
			api.On(http.MethodPut, "/me/player/pause", tu.Route{Status: http.StatusBadGateway, Body: "upstream"})

			err := srv.Pause(context.Background())
			var apiErr *APIError
			if !errors.As(err, &apiErr) || apiErr.Message != "failed to pause playback" {
				t.Errorf("expected fallback message, got %v", err)
			}
		})
	})

	t.Run("Search", func(t *testing.T) {
		t.Run("Returns First Match", func(t *testing.T) {
			srv, api, _ := newTestService(t)
			api.On(http.MethodGet, "/search", tu.Route{Body: `{"tracks":{"items":[
				{"uri":"spotify:track:123","name":"Test Song","artists":[{"name":"Test Artist"}],"album":{"name":"Test Album"}}
			]}}`})

			track, err := srv.Search(context.Background(), "test song")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			want := Track{URI: "spotify:track:123", Name: "Test Song", Artist: "Test Artist", Album: "Test Album"}
			if track == nil || *track != want {
				t.Errorf("expected %+v, got %+v", want, track)
			}

			q := api.Calls(http.MethodGet, "/search")[0].Query
			if q.Get("q") != "test song" || q.Get("type") != "track" || q.Get("limit") != "1" {
				t.Errorf("unexpected search query %v", q)
			}
		})

		t.Run("No Match Is Nil", func(t *testing.T) {
			srv, api, _ := newTestService(t)
			api.On(http.MethodGet, "/search", tu.Route{Body: `{"tracks":{"items":[]}}`})

			track, err := srv.Search(context.Background(), "nothing")
			if err != nil || track != nil {
				t.Errorf("expected nil, nil; got %+v, %v", track, err)
			}
		})

		t.Run("Missing Artist Is Unknown", func(t *testing.T) {
			srv, api, _ := newTestService(t)
			api.On(http.MethodGet, "/search", tu.Route{Body: `{"tracks":{"items":[{"uri":"u","name":"n","artists":[]}]}}`})

			tracks, err := srv.SearchMultiple(context.Background(), "n", 5)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if tracks[0].Artist != "Unknown" || tracks[0].Album != "Unknown" {
				t.Errorf("expected Unknown placeholders, got %+v", tracks[0])
			}
			if got := api.Calls(http.MethodGet, "/search")[0].Query.Get("limit"); got != "5" {
				t.Errorf("expected limit 5, got %s", got)
			}
		})

		t.Run("Empty Query Never Reaches Network", func(t *testing.T) {
			srv, api, _ := newTestService(t)

			if _, err := srv.Search(context.Background(), ""); !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}
			if len(api.Requests()) != 0 {
				t.Error("expected no requests")
			}
		})
	})

	t.Run("CurrentPlayback", func(t *testing.T) {
		t.Run("No Content Means Nothing Playing", func(t *testing.T) {
			srv, api, _ := newTestService(t)
			api.On(http.MethodGet, "/me/player", tu.Route{Status: http.StatusNoContent})

			state, err := srv.CurrentPlayback(context.Background())
			if err != nil || state != nil {
				t.Errorf("expected nil, nil; got %+v, %v", state, err)
			}
		})

		t.Run("Maps Player State", func(t *testing.T) {
			srv, api, _ := newTestService(t)
			api.On(http.MethodGet, "/me/player", tu.Route{Body: `{
				"device":{"id":"d1","name":"Desk","type":"Computer","is_active":true,"volume_percent":40},
				"shuffle_state":true,"repeat_state":"track","progress_ms":1000,"is_playing":true,
				"item":{"uri":"spotify:track:1","name":"Song","duration_ms":200000,"artists":[{"name":"Artist"}],"album":{"name":"Album"}}
			}`})

			state, err := srv.CurrentPlayback(context.Background())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if state.Name != "Song" || state.Artist != "Artist" || state.DurationMS != 200000 {
				t.Errorf("unexpected track fields %+v", state)
			}
			if !state.IsPlaying || !state.ShuffleState || state.RepeatState != RepeatTrack {
				t.Errorf("unexpected player flags %+v", state)
			}
			if state.Device == nil || state.Device.ID != "d1" || state.Device.VolumePercent != 40 {
				t.Errorf("unexpected device %+v", state.Device)
			}
		})
	})

	t.Run("Volume", func(t *testing.T) {
		tests := []struct {
			in   int
			want string
		}{
			{-10, "0"},
			{150, "100"},
			{55, "55"},
		}

		for _, tt := range tests {
			srv, api, _ := newTestService(t)
			api.On(http.MethodPut, "/me/player/volume", tu.Route{Status: http.StatusNoContent})

			if _, err := srv.SetVolume(context.Background(), tt.in); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			got := api.Calls(http.MethodPut, "/me/player/volume")[0].Query.Get("volume_percent")
			if got != tt.want {
				t.Errorf("SetVolume(%d) sent %s, want %s", tt.in, got, tt.want)
			}
		}
	})

	t.Run("Shuffle", func(t *testing.T) {
		t.Run("Toggle Reads Current State", func(t *testing.T) {
			srv, api, _ := newTestService(t)
			api.On(http.MethodGet, "/me/player", tu.Route{Body: `{"shuffle_state":true,"item":{"name":"x"}}`})
			api.On(http.MethodPut, "/me/player/shuffle", tu.Route{Status: http.StatusNoContent})

			on, err := srv.ToggleShuffle(context.Background())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if on {
				t.Error("expected shuffle to turn off")
			}
			if got := api.Calls(http.MethodPut, "/me/player/shuffle")[0].Query.Get("state"); got != "false" {
				t.Errorf("expected state=false, got %s", got)
			}
		})

		t.Run("Toggle With Nothing Playing", func(t *testing.T) {
			srv, api, _ := newTestService(t)
			api.On(http.MethodGet, "/me/player", tu.Route{Status: http.StatusNoContent})

			if _, err := srv.ToggleShuffle(context.Background()); !errors.Is(err, shared.ErrNothingPlaying) {
				t.Errorf("expected ErrNothingPlaying, got %v", err)
			}
		})
	})

	t.Run("Repeat", func(t *testing.T) {
		t.Run("Invalid State Never Reaches Network", func(t *testing.T) {
			srv, api, _ := newTestService(t)

			if err := srv.SetRepeat(context.Background(), RepeatState("forever")); !errors.Is(err, shared.ErrInvalidState) {
				t.Errorf("expected ErrInvalidState, got %v", err)
			}
			if len(api.Requests()) != 0 {
				t.Error("expected no requests")
			}
		})

		t.Run("Cycle Advances From Current", func(t *testing.T) {
			srv, api, _ := newTestService(t)
			api.On(http.MethodGet, "/me/player", tu.Route{Body: `{"repeat_state":"context","item":{"name":"x"}}`})
			api.On(http.MethodPut, "/me/player/repeat", tu.Route{Status: http.StatusNoContent})

			next, err := srv.CycleRepeat(context.Background())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if next != RepeatTrack {
				t.Errorf("expected track, got %s", next)
			}
			if got := api.Calls(http.MethodPut, "/me/player/repeat")[0].Query.Get("state"); got != "track" {
				t.Errorf("expected state=track, got %s", got)
			}
		})
	})

	t.Run("Queue", func(t *testing.T) {
		t.Run("Adds To Active Device", func(t *testing.T) {
			srv, api, _ := newTestService(t)
			api.On(http.MethodGet, "/me/player/devices", tu.Route{Body: devicesBody(Device{ID: "d1", IsActive: true})})
			api.On(http.MethodPost, "/me/player/queue", tu.Route{Status: http.StatusNoContent})

			if _, err := srv.AddToQueue(context.Background(), "spotify:track:9"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			q := api.Calls(http.MethodPost, "/me/player/queue")[0].Query
			if q.Get("uri") != "spotify:track:9" || q.Get("device_id") != "d1" {
				t.Errorf("unexpected queue query %v", q)
			}
		})

		t.Run("Lists Upcoming Tracks", func(t *testing.T) {
			srv, api, _ := newTestService(t)
			api.On(http.MethodGet, "/me/player/queue", tu.Route{Body: `{
				"currently_playing":{"uri":"u0","name":"Now","artists":[{"name":"A"}]},
				"queue":[{"uri":"u1","name":"Next","artists":[{"name":"B"}]}]
			}`})

			queue, err := srv.Queue(context.Background())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if queue.CurrentlyPlaying == nil || queue.CurrentlyPlaying.Name != "Now" {
				t.Errorf("unexpected current %+v", queue.CurrentlyPlaying)
			}
			if len(queue.Queue) != 1 || queue.Queue[0].Artist != "B" {
				t.Errorf("unexpected queue %+v", queue.Queue)
			}
		})
	})

	t.Run("Playlists", func(t *testing.T) {
		t.Run("Play Uses Playlist Context", func(t *testing.T) {
			srv, api, _ := newTestService(t)
			api.On(http.MethodGet, "/me/player/devices", tu.Route{Body: devicesBody(Device{ID: "d1", IsActive: true})})
			api.On(http.MethodPut, "/me/player/play", tu.Route{Status: http.StatusNoContent})

			if _, err := srv.PlayPlaylist(context.Background(), "abc", ""); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			var body playRequest
			json.Unmarshal([]byte(api.Calls(http.MethodPut, "/me/player/play")[0].Body), &body)
			if body.ContextURI != "spotify:playlist:abc" {
				t.Errorf("expected playlist context, got %+v", body)
			}
		})

		t.Run("Tracks Follow Pagination", func(t *testing.T) {
			srv, api, _ := newTestService(t)
			next := "https://api.spotify.com/v1/playlists/abc/tracks?offset=100"
			api.On(http.MethodGet, "/playlists/abc/tracks",
				tu.Route{Body: map[string]any{"items": []map[string]any{{"track": map[string]any{"name": "one"}}}, "next": next}},
				tu.Route{Body: map[string]any{"items": []map[string]any{{"track": map[string]any{"name": "two"}}}, "next": nil}},
			)

			tracks, err := srv.PlaylistTracks(context.Background(), "abc")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(tracks) != 2 || tracks[1].Track.Name != "two" {
				t.Errorf("expected two pages of tracks, got %+v", tracks)
			}

			calls := api.Calls(http.MethodGet, "/playlists/abc/tracks")
			if calls[1].Query.Get("offset") != "100" {
				t.Errorf("expected second page at offset 100, got %s", calls[1].Query.Get("offset"))
			}
		})

		t.Run("Export Skips Removed Tracks", func(t *testing.T) {
			srv, api, _ := newTestService(t)
			api.On(http.MethodGet, "/playlists/abc", tu.Route{Body: `{"id":"abc","name":"Mix","images":[{"url":"https://img/1"}]}`}).
				On(http.MethodGet, "/playlists/abc/tracks", tu.Route{Body: `{"items":[
					{"track":{"name":"one","uri":"spotify:track:1","artists":[{"name":"A"}],"album":{"name":"LP"},"duration_ms":1000}},
					{"track":null}],"next":null}`})

			export, err := srv.ExportPlaylist(context.Background(), "abc")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if export.Playlist.Name != "Mix" || export.Playlist.CoverURL() != "https://img/1" {
				t.Errorf("unexpected playlist %+v", export.Playlist)
			}
			if len(export.Tracks) != 1 || export.Tracks[0].Artist != "A" || export.Tracks[0].Album != "LP" {
				t.Errorf("unexpected tracks %+v", export.Tracks)
			}
			if got := api.Calls(http.MethodGet, "/playlists/abc")[0].Query.Get("fields"); !strings.Contains(got, "images") {
				t.Errorf("expected fields filter, got %q", got)
			}
		})

		t.Run("Export Fails On Missing Playlist", func(t *testing.T) {
			srv, api, _ := newTestService(t)
			api.On(http.MethodGet, "/playlists/gone", tu.Route{Status: http.StatusNotFound, Body: `{"error":{"status":404,"message":"Not found"}}`})

			if _, err := srv.ExportPlaylist(context.Background(), "gone"); !IsAPIStatus(err, http.StatusNotFound) {
				t.Errorf("expected 404 API error, got %v", err)
			}
			if len(api.Calls(http.MethodGet, "/playlists/gone/tracks")) != 0 {
				t.Error("expected no track requests")
			}
		})

		t.Run("List Clamps Limit", func(t *testing.T) {
			srv, api, _ := newTestService(t)
			api.On(http.MethodGet, "/me/playlists", tu.Route{Body: `{"items":[{"id":"p1","name":"Mix","tracks":{"total":12}}]}`})

			playlists, err := srv.Playlists(context.Background(), 500)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(playlists) != 1 || playlists[0].Tracks.Total != 12 {
				t.Errorf("unexpected playlists %+v", playlists)
			}
			if got := api.Calls(http.MethodGet, "/me/playlists")[0].Query.Get("limit"); got != "50" {
				t.Errorf("expected limit 50, got %s", got)
			}
		})
	})
}
