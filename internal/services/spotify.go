package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotx/internal/shared"
)

const spotifyBaseURL = "https://api.spotify.com/v1"

// APIError is a non-2xx response from the Web API. It matches [shared.ErrAPIRequest] with [errors.Is].
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("spotify API error (%d): %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	return shared.ErrAPIRequest
}

// newAPIError prefers the message from the response body and falls back to fallback.
func newAPIError(status int, body []byte, fallback string) *APIError {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	msg := fallback
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		msg = payload.Error.Message
	}
	return &APIError{Status: status, Message: msg}
}

// SpotifyOptions configures a [SpotifyService].
type SpotifyOptions struct {
	BaseURL    string // defaults to the public Web API
	HTTPClient *http.Client
	Tokens     TokenProvider
	Activation ActivationPolicy // defaults to [FixedDelay] of [DefaultActivationDelay]
	Logger     *log.Logger
}

// SpotifyService is a thin typed client over the Web API player, search and playlist endpoints.
type SpotifyService struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenProvider
	activation ActivationPolicy
	logger     *log.Logger
}

// NewSpotifyService creates a client. Tokens is required.
func NewSpotifyService(opts SpotifyOptions) (*SpotifyService, error) {
	if opts.Tokens == nil {
		return nil, fmt.Errorf("%w: token provider", shared.ErrMissingArgument)
	}
	if opts.BaseURL == "" {
		opts.BaseURL = spotifyBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Activation == nil {
		opts.Activation = FixedDelay{Delay: DefaultActivationDelay}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &SpotifyService{
		baseURL:    opts.BaseURL,
		httpClient: opts.HTTPClient,
		tokens:     opts.Tokens,
		activation: opts.Activation,
		logger:     opts.Logger,
	}, nil
}

type apiRequest struct {
	op     string // human description used when the response carries no message
	method string
	path   string
	query  url.Values
	body   any
}

// doRequest performs an authenticated request and decodes a JSON response into result.
//
// Empty bodies (including 204 No Content) leave result untouched.
func (s *SpotifyService) doRequest(ctx context.Context, r apiRequest, result any) error {
	token, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return err
	}

	apiURL := s.baseURL + r.path
	if len(r.query) > 0 {
		apiURL += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, apiURL, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	s.logger.Debug("spotify request", "method", r.method, "path", r.path)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", shared.ErrAPIRequest, r.op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, data, "failed to "+r.op)
	}

	if result != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func deviceQuery(deviceID string) url.Values {
	if deviceID == "" {
		return nil
	}
	return url.Values{"device_id": {deviceID}}
}

// SearchMultiple returns up to limit tracks matching query.
func (s *SpotifyService) SearchMultiple(ctx context.Context, query string, limit int) ([]Track, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}
	limit = max(1, min(50, limit))

	var response searchResponse
	err := s.doRequest(ctx, apiRequest{
		op:     "search",
		method: http.MethodGet,
		path:   "/search",
		query:  url.Values{"q": {query}, "type": {"track"}, "limit": {strconv.Itoa(limit)}},
	}, &response)
	if err != nil {
		return nil, err
	}

	tracks := make([]Track, 0, len(response.Tracks.Items))
	for _, t := range response.Tracks.Items {
		tracks = append(tracks, t.Summary())
	}
	return tracks, nil
}

// Search returns the best match for query, or nil when nothing matches.
func (s *SpotifyService) Search(ctx context.Context, query string) (*Track, error) {
	tracks, err := s.SearchMultiple(ctx, query, 1)
	if err != nil || len(tracks) == 0 {
		return nil, err
	}
	return &tracks[0], nil
}

// CurrentPlayback returns the player state, or nil when nothing is playing.
func (s *SpotifyService) CurrentPlayback(ctx context.Context) (*PlaybackState, error) {
	var response playerResponse
	err := s.doRequest(ctx, apiRequest{op: "get playback state", method: http.MethodGet, path: "/me/player"}, &response)
	if err != nil {
		return nil, err
	}

	if response.Item == nil {
		return nil, nil
	}

	track := response.Item.Summary()
	repeat := response.RepeatState
	if !repeat.Valid() {
		repeat = RepeatOff
	}

	return &PlaybackState{
		Name:         track.Name,
		Artist:       track.Artist,
		Album:        track.Album,
		URI:          track.URI,
		ProgressMS:   response.ProgressMS,
		DurationMS:   track.DurationMS,
		IsPlaying:    response.IsPlaying,
		ShuffleState: response.ShuffleState,
		RepeatState:  repeat,
		Device:       response.Device,
	}, nil
}

// Devices lists the account's available devices.
func (s *SpotifyService) Devices(ctx context.Context) ([]Device, error) {
	var response devicesResponse
	err := s.doRequest(ctx, apiRequest{op: "list devices", method: http.MethodGet, path: "/me/player/devices"}, &response)
	if err != nil {
		return nil, err
	}
	return response.Devices, nil
}

// TransferPlayback makes deviceID the active device, optionally starting playback on it.
func (s *SpotifyService) TransferPlayback(ctx context.Context, deviceID string, play bool) error {
	if deviceID == "" {
		return fmt.Errorf("%w: device id", shared.ErrMissingArgument)
	}
	return s.doRequest(ctx, apiRequest{
		op:     "transfer playback",
		method: http.MethodPut,
		path:   "/me/player",
		body:   transferRequest{DeviceIDs: []string{deviceID}, Play: play},
	}, nil)
}

// Play starts uri on the resolved device and returns that device.
func (s *SpotifyService) Play(ctx context.Context, uri, device string) (*Device, error) {
	if uri == "" {
		return nil, fmt.Errorf("%w: track uri", shared.ErrMissingArgument)
	}
	return s.startPlayback(ctx, device, "play track", playRequest{URIs: []string{uri}})
}

// PlayPlaylist starts the playlist context on the resolved device.
func (s *SpotifyService) PlayPlaylist(ctx context.Context, playlistID, device string) (*Device, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}
	return s.startPlayback(ctx, device, "play playlist", playRequest{ContextURI: "spotify:playlist:" + playlistID})
}

func (s *SpotifyService) startPlayback(ctx context.Context, selector, op string, body playRequest) (*Device, error) {
	target, transferred, err := s.targetDevice(ctx, selector, false)
	if err != nil {
		return nil, err
	}

	err = s.doRequest(ctx, apiRequest{
		op:     op,
		method: http.MethodPut,
		path:   "/me/player/play",
		query:  deviceQuery(target.ID),
		body:   body,
	}, nil)
	if err != nil {
		return nil, afterTransfer(err, transferred)
	}
	return target, nil
}

// Resume continues playback. An inactive device is resumed by the transfer alone.
func (s *SpotifyService) Resume(ctx context.Context, device string) (*Device, error) {
	target, transferred, err := s.targetDevice(ctx, device, true)
	if err != nil {
		return nil, err
	}
	if transferred {
		return target, nil
	}

	err = s.doRequest(ctx, apiRequest{
		op:     "resume playback",
		method: http.MethodPut,
		path:   "/me/player/play",
		query:  deviceQuery(target.ID),
	}, nil)
	if err != nil {
		return nil, err
	}
	return target, nil
}

func (s *SpotifyService) Pause(ctx context.Context) error {
	return s.doRequest(ctx, apiRequest{op: "pause playback", method: http.MethodPut, path: "/me/player/pause"}, nil)
}

func (s *SpotifyService) Next(ctx context.Context) error {
	return s.doRequest(ctx, apiRequest{op: "skip to next track", method: http.MethodPost, path: "/me/player/next"}, nil)
}

func (s *SpotifyService) Previous(ctx context.Context) error {
	return s.doRequest(ctx, apiRequest{op: "skip to previous track", method: http.MethodPost, path: "/me/player/previous"}, nil)
}

// AddToQueue appends uri to the queue of the active device, activating it first when needed.
func (s *SpotifyService) AddToQueue(ctx context.Context, uri string) (*Device, error) {
	if uri == "" {
		return nil, fmt.Errorf("%w: track uri", shared.ErrMissingArgument)
	}

	target, transferred, err := s.targetDevice(ctx, "", false)
	if err != nil {
		return nil, err
	}

	query := url.Values{"uri": {uri}}
	if target.ID != "" {
		query.Set("device_id", target.ID)
	}

	err = s.doRequest(ctx, apiRequest{op: "add to queue", method: http.MethodPost, path: "/me/player/queue", query: query}, nil)
	if err != nil {
		return nil, afterTransfer(err, transferred)
	}
	return target, nil
}

// Queue returns the current track and upcoming items.
func (s *SpotifyService) Queue(ctx context.Context) (*Queue, error) {
	var response queueResponse
	err := s.doRequest(ctx, apiRequest{op: "get queue", method: http.MethodGet, path: "/me/player/queue"}, &response)
	if err != nil {
		return nil, err
	}

	queue := &Queue{Queue: make([]Track, 0, len(response.Queue))}
	if response.CurrentlyPlaying != nil {
		current := response.CurrentlyPlaying.Summary()
		queue.CurrentlyPlaying = &current
	}
	for _, t := range response.Queue {
		queue.Queue = append(queue.Queue, t.Summary())
	}
	return queue, nil
}

// SetVolume clamps percent to [0, 100] before sending it and returns the value sent.
func (s *SpotifyService) SetVolume(ctx context.Context, percent int) (int, error) {
	volume := ClampVolume(percent)
	err := s.doRequest(ctx, apiRequest{
		op:     "set volume",
		method: http.MethodPut,
		path:   "/me/player/volume",
		query:  url.Values{"volume_percent": {strconv.Itoa(volume)}},
	}, nil)
	return volume, err
}

func (s *SpotifyService) SetShuffle(ctx context.Context, on bool) error {
	return s.doRequest(ctx, apiRequest{
		op:     "set shuffle",
		method: http.MethodPut,
		path:   "/me/player/shuffle",
		query:  url.Values{"state": {strconv.FormatBool(on)}},
	}, nil)
}

// ToggleShuffle flips the current shuffle state and returns the new one.
func (s *SpotifyService) ToggleShuffle(ctx context.Context) (bool, error) {
	state, err := s.CurrentPlayback(ctx)
	if err != nil {
		return false, err
	}
	if state == nil {
		return false, shared.ErrNothingPlaying
	}

	on := !state.ShuffleState
	return on, s.SetShuffle(ctx, on)
}

// SetRepeat rejects invalid states locally with [shared.ErrInvalidState].
func (s *SpotifyService) SetRepeat(ctx context.Context, state RepeatState) error {
	if !state.Valid() {
		return fmt.Errorf("%w: repeat must be off, track, or context, got %q", shared.ErrInvalidState, state)
	}
	return s.doRequest(ctx, apiRequest{
		op:     "set repeat",
		method: http.MethodPut,
		path:   "/me/player/repeat",
		query:  url.Values{"state": {string(state)}},
	}, nil)
}

// CycleRepeat advances the repeat mode one step and returns the new mode.
func (s *SpotifyService) CycleRepeat(ctx context.Context) (RepeatState, error) {
	state, err := s.CurrentPlayback(ctx)
	if err != nil {
		return "", err
	}

	current := RepeatOff
	if state != nil {
		current = state.RepeatState
	}

	next := current.Next()
	return next, s.SetRepeat(ctx, next)
}

// Playlists returns up to limit of the user's playlists.
func (s *SpotifyService) Playlists(ctx context.Context, limit int) ([]SpotifySimplePlaylist, error) {
	limit = max(1, min(50, limit))

	var response paginated[SpotifySimplePlaylist]
	err := s.doRequest(ctx, apiRequest{
		op:     "list playlists",
		method: http.MethodGet,
		path:   "/me/playlists",
		query:  url.Values{"limit": {strconv.Itoa(limit)}},
	}, &response)
	if err != nil {
		return nil, err
	}
	return response.Items, nil
}

// PlaylistTracks returns every track of a playlist, following pagination.
func (s *SpotifyService) PlaylistTracks(ctx context.Context, playlistID string) ([]SpotifyPlaylistTrack, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	var tracks []SpotifyPlaylistTrack
	limit, offset := 100, 0

	for {
		var response paginated[SpotifyPlaylistTrack]
		err := s.doRequest(ctx, apiRequest{
			op:     "list playlist tracks",
			method: http.MethodGet,
			path:   "/playlists/" + url.PathEscape(playlistID) + "/tracks",
			query:  url.Values{"limit": {strconv.Itoa(limit)}, "offset": {strconv.Itoa(offset)}},
		}, &response)
		if err != nil {
			return nil, err
		}

		tracks = append(tracks, response.Items...)
		if response.Next == nil || len(response.Items) == 0 {
			break
		}
		offset += limit
	}
	return tracks, nil
}

// Playlist returns a playlist's metadata without its tracks.
func (s *SpotifyService) Playlist(ctx context.Context, playlistID string) (*SpotifySimplePlaylist, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	var playlist SpotifySimplePlaylist
	err := s.doRequest(ctx, apiRequest{
		op:     "get playlist",
		method: http.MethodGet,
		path:   "/playlists/" + url.PathEscape(playlistID),
		query:  url.Values{"fields": {"id,name,description,owner,public,collaborative,images,uri,tracks.total"}},
	}, &playlist)
	if err != nil {
		return nil, err
	}
	return &playlist, nil
}

// ExportPlaylist fetches a playlist and all of its tracks. Removed items are skipped.
func (s *SpotifyService) ExportPlaylist(ctx context.Context, playlistID string) (*PlaylistExport, error) {
	playlist, err := s.Playlist(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	items, err := s.PlaylistTracks(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	export := &PlaylistExport{Playlist: *playlist, Tracks: make([]Track, 0, len(items))}
	for _, item := range items {
		if item.Track == nil {
			continue
		}
		export.Tracks = append(export.Tracks, item.Track.Summary())
	}
	return export, nil
}

// IsAPIStatus reports whether err is an [APIError] with the given status.
func IsAPIStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
