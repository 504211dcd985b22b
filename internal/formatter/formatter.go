// package formatter renders exported playlists as CSV, Markdown, plain text or JSON files
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/desertthunder/spotx/internal/services"
	"github.com/desertthunder/spotx/internal/shared"
)

// Format names an export output.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
)

// ParseFormat accepts json, csv, markdown (or md) and txt (or text).
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	}
	return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, s)
}

// ExportToCSV converts a PlaylistExport to CSV with columns: URI, Title, Artist, Album, Duration
func ExportToCSV(export *services.PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"URI", "Title", "Artist", "Album", "Duration"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range export.Tracks {
		record := []string{track.URI, track.Name, track.Artist, track.Album, strconv.Itoa(track.DurationMS)}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportToMarkdown converts a PlaylistExport to Markdown, linking imageFilename as the cover when set.
func ExportToMarkdown(export *services.PlaylistExport, imageFilename string) []byte {
	var buf bytes.Buffer
	p := export.Playlist

	fmt.Fprintf(&buf, "# %s\n\n", p.Name)
	if imageFilename != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", imageFilename)
	}
	if p.Description != "" {
		fmt.Fprintf(&buf, "**Description**: %s\n\n", p.Description)
	}
	if p.Owner.DisplayName != "" {
		fmt.Fprintf(&buf, "**Owner**: %s\n", p.Owner.DisplayName)
	}
	fmt.Fprintf(&buf, "**Tracks**: %d\n", len(export.Tracks))
	fmt.Fprintf(&buf, "**Visibility**: %s\n\n", visibility(p.Public))

	buf.WriteString("## Tracks\n\n")
	for i, track := range export.Tracks {
		album := ""
		if track.Album != "" && track.Album != "Unknown" {
			album = fmt.Sprintf(" (%s)", track.Album)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s [%s]\n", i+1, track.Artist, track.Name, album, formatDuration(track.DurationMS))
	}
	return buf.Bytes()
}

// ExportToText converts a PlaylistExport to plain text.
func ExportToText(export *services.PlaylistExport) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", export.Playlist.Name)
	if export.Playlist.Description != "" {
		fmt.Fprintf(&buf, "Description: %s\n", export.Playlist.Description)
	}
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(export.Tracks))

	for i, track := range export.Tracks {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, track.Artist, track.Name)
	}
	return buf.Bytes()
}

// DownloadImage fetches url with client and returns the raw bytes.
func DownloadImage(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: image url", shared.ErrMissingArgument)
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build image request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	return data, nil
}

// Files lists what one export wrote.
type Files struct {
	Paths      []string
	CoverImage string
}

// WriteJSONExport writes {dir}/{id}.json.
func WriteJSONExport(export *services.PlaylistExport, dir string) (*Files, error) {
	data, err := shared.MarshalJSON(export, true)
	if err != nil {
		return nil, fmt.Errorf("JSON marshal failed: %w", err)
	}

	path := filepath.Join(dir, export.Playlist.ID+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write JSON file: %w", err)
	}
	return &Files{Paths: []string{path}}, nil
}

// WriteCSVExport writes {dir}/{id}_tracks.csv and {dir}/{id}_metadata.json.
func WriteCSVExport(export *services.PlaylistExport, dir string) (*Files, error) {
	base := filepath.Join(dir, export.Playlist.ID)

	csvData, err := ExportToCSV(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	tracksFile := base + "_tracks.csv"
	if err := os.WriteFile(tracksFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadata, err := shared.MarshalJSON(export.Playlist, true)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := base + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadata, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}
	return &Files{Paths: []string{tracksFile, metadataFile}}, nil
}

// WriteMarkdownExport writes {dir}/{id}/README.md, plus cover.jpg when cover is non-empty.
func WriteMarkdownExport(export *services.PlaylistExport, dir string, cover []byte) (*Files, error) {
	outputDir := filepath.Join(dir, export.Playlist.ID)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	files := &Files{}
	var coverName string
	if len(cover) > 0 {
		path := filepath.Join(outputDir, "cover.jpg")
		if err := os.WriteFile(path, cover, 0644); err != nil {
			return nil, fmt.Errorf("failed to save cover image: %w", err)
		}
		coverName = "cover.jpg"
		files.CoverImage = path
		files.Paths = append(files.Paths, path)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, ExportToMarkdown(export, coverName), 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}
	files.Paths = append(files.Paths, mdFile)
	return files, nil
}

// WriteTextExport writes {dir}/{id}_tracks.txt.
func WriteTextExport(export *services.PlaylistExport, dir string) (*Files, error) {
	path := filepath.Join(dir, export.Playlist.ID+"_tracks.txt")
	if err := os.WriteFile(path, ExportToText(export), 0644); err != nil {
		return nil, fmt.Errorf("failed to write text file: %w", err)
	}
	return &Files{Paths: []string{path}}, nil
}

// ManifestEntry is one playlist's outcome in a bulk export.
type ManifestEntry struct {
	PlaylistID   string   `json:"playlist_id"`
	PlaylistName string   `json:"playlist_name"`
	Status       string   `json:"status"`
	Files        []string `json:"files,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// Manifest summarizes a bulk export.
type Manifest struct {
	Format            Format          `json:"format"`
	ExportedAt        time.Time       `json:"exported_at"`
	OutputDirectory   string          `json:"output_directory"`
	TotalPlaylists    int             `json:"total_playlists"`
	SuccessfulExports int             `json:"successful_exports"`
	FailedExports     int             `json:"failed_exports"`
	Playlists         []ManifestEntry `json:"playlists"`
}

// WriteManifest writes m as indented JSON to path.
func WriteManifest(m Manifest, path string) error {
	data, err := shared.MarshalJSON(m, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

func visibility(public bool) string {
	if public {
		return "Public"
	}
	return "Private"
}

func formatDuration(ms int) string {
	total := ms / 1000
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
