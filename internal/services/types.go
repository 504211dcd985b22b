// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a simplified Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a simplified Spotify album.
type SpotifyAlbum struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	ReleaseDate string         `json:"release_date"`
	Images      []SpotifyImage `json:"images"`
	URI         string         `json:"uri"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	Explicit   bool            `json:"explicit"`
	URI        string          `json:"uri"`
}

// PrimaryArtist returns the first credited artist, or "Unknown".
func (t SpotifyTrack) PrimaryArtist() string {
	if len(t.Artists) == 0 || t.Artists[0].Name == "" {
		return "Unknown"
	}
	return t.Artists[0].Name
}

// Summary flattens the track for output.
func (t SpotifyTrack) Summary() Track {
	album := t.Album.Name
	if album == "" {
		album = "Unknown"
	}
	return Track{URI: t.URI, Name: t.Name, Artist: t.PrimaryArtist(), Album: album, DurationMS: t.DurationMS}
}

type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type simplePlaylistTrack struct {
	Total int `json:"total"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
type SpotifySimplePlaylist struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	Owner         Owner               `json:"owner"`
	Public        bool                `json:"public"`
	Collaborative bool                `json:"collaborative"`
	Tracks        simplePlaylistTrack `json:"tracks"`
	Images        []SpotifyImage      `json:"images"`
	URI           string              `json:"uri"`
}

// CoverURL returns the first playlist image, or "" when there is none.
func (p SpotifySimplePlaylist) CoverURL() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0].URL
}

// PlaylistExport is a playlist with its flattened tracks.
type PlaylistExport struct {
	Playlist SpotifySimplePlaylist `json:"playlist"`
	Tracks   []Track               `json:"tracks"`
}

// SpotifyPlaylistTrack represents a track within a playlist context. Track is nil for removed items.
type SpotifyPlaylistTrack struct {
	AddedAt string        `json:"added_at"`
	Track   *SpotifyTrack `json:"track"`
}

type paginated[T any] struct {
	Items  []T     `json:"items"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
	Next   *string `json:"next"`
}

type searchResponse struct {
	Tracks paginated[SpotifyTrack] `json:"tracks"`
}

type devicesResponse struct {
	Devices []Device `json:"devices"`
}

type playerResponse struct {
	Device       *Device       `json:"device"`
	ShuffleState bool          `json:"shuffle_state"`
	RepeatState  RepeatState   `json:"repeat_state"`
	ProgressMS   int           `json:"progress_ms"`
	IsPlaying    bool          `json:"is_playing"`
	Item         *SpotifyTrack `json:"item"`
}

type queueResponse struct {
	CurrentlyPlaying *SpotifyTrack  `json:"currently_playing"`
	Queue            []SpotifyTrack `json:"queue"`
}

type transferRequest struct {
	DeviceIDs []string `json:"device_ids"`
	Play      bool     `json:"play"`
}

type playRequest struct {
	URIs       []string `json:"uris,omitempty"`
	ContextURI string   `json:"context_uri,omitempty"`
}
