package formatter

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/spotx/internal/services"
	"github.com/desertthunder/spotx/internal/shared"
	tu "github.com/desertthunder/spotx/internal/testing"
)

func sampleExport() *services.PlaylistExport {
	return &services.PlaylistExport{
		Playlist: services.SpotifySimplePlaylist{
			ID:          "pl1",
			Name:        "Road Trip",
			Description: "Long drives",
			Owner:       services.Owner{DisplayName: "owais"},
			Public:      true,
		},
		Tracks: []services.Track{
			{URI: "spotify:track:1", Name: "Song One", Artist: "Artist A", Album: "Album X", DurationMS: 185000},
			{URI: "spotify:track:2", Name: "Song, Two", Artist: "Artist B", Album: "Unknown", DurationMS: 61000},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatJSON},
		{"json", FormatJSON},
		{"csv", FormatCSV},
		{"md", FormatMarkdown},
		{"markdown", FormatMarkdown},
		{"text", FormatText},
		{"txt", FormatText},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if err != nil || got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
			}
		})
	}

	t.Run("unknown", func(t *testing.T) {
		if _, err := ParseFormat("xml"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestRender(t *testing.T) {
	t.Run("CSV", func(t *testing.T) {
		data, err := ExportToCSV(sampleExport())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		if err != nil {
			t.Fatalf("output is not valid CSV: %v", err)
		}
		if len(records) != 3 {
			t.Fatalf("expected header and 2 rows, got %d", len(records))
		}
		if strings.Join(records[0], ",") != "URI,Title,Artist,Album,Duration" {
			t.Errorf("unexpected header %v", records[0])
		}
		if records[2][1] != "Song, Two" || records[2][4] != "61000" {
			t.Errorf("unexpected row %v", records[2])
		}
	})

	t.Run("CSV Empty Playlist", func(t *testing.T) {
		data, err := ExportToCSV(&services.PlaylistExport{})
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}
		if strings.Count(string(data), "\n") != 1 {
			t.Errorf("expected only a header, got %q", data)
		}
	})

	t.Run("Markdown", func(t *testing.T) {
		md := string(ExportToMarkdown(sampleExport(), "cover.jpg"))

		for _, want := range []string{
			"# Road Trip",
			"![Cover](cover.jpg)",
			"**Description**: Long drives",
			"**Owner**: owais",
			"**Tracks**: 2",
			"**Visibility**: Public",
			"1. Artist A - Song One (Album X) [3:05]",
			"2. Artist B - Song, Two [1:01]",
		} {
			if !strings.Contains(md, want) {
				t.Errorf("expected %q in markdown:\n%s", want, md)
			}
		}
	})

	t.Run("Markdown Without Cover", func(t *testing.T) {
		export := sampleExport()
		export.Playlist.Public = false
		md := string(ExportToMarkdown(export, ""))

		if strings.Contains(md, "![Cover]") {
			t.Error("expected no cover link")
		}
		if !strings.Contains(md, "**Visibility**: Private") {
			t.Error("expected private visibility")
		}
	})

	t.Run("Text", func(t *testing.T) {
		text := string(ExportToText(sampleExport()))
		want := "Playlist: Road Trip\nDescription: Long drives\nTracks: 2\n\n1. Artist A - Song One\n2. Artist B - Song, Two\n"
		if text != want {
			t.Errorf("unexpected text:\n%s", text)
		}
	})
}

func TestWrite(t *testing.T) {
	t.Run("JSON", func(t *testing.T) {
		dir := t.TempDir()
		files, err := WriteJSONExport(sampleExport(), dir)
		if err != nil {
			t.Fatalf("WriteJSONExport failed: %v", err)
		}

		path := filepath.Join(dir, "pl1.json")
		if len(files.Paths) != 1 || files.Paths[0] != path {
			t.Fatalf("unexpected files %v", files.Paths)
		}

		var got services.PlaylistExport
		if err := json.Unmarshal([]byte(tu.MustReadFile(t, path)), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if got.Playlist.Name != "Road Trip" || len(got.Tracks) != 2 {
			t.Errorf("unexpected export %+v", got)
		}
	})

	t.Run("CSV With Metadata", func(t *testing.T) {
		dir := t.TempDir()
		files, err := WriteCSVExport(sampleExport(), dir)
		if err != nil {
			t.Fatalf("WriteCSVExport failed: %v", err)
		}
		if len(files.Paths) != 2 {
			t.Fatalf("expected 2 files, got %v", files.Paths)
		}
		tu.AssertFileExists(t, filepath.Join(dir, "pl1_tracks.csv"))

		metadata := tu.MustReadFile(t, filepath.Join(dir, "pl1_metadata.json"))
		if !strings.Contains(metadata, `"name": "Road Trip"`) || strings.Contains(metadata, "Song One") {
			t.Errorf("metadata should describe the playlist only:\n%s", metadata)
		}
	})

	t.Run("Markdown With Cover", func(t *testing.T) {
		dir := t.TempDir()
		files, err := WriteMarkdownExport(sampleExport(), dir, []byte("jpeg"))
		if err != nil {
			t.Fatalf("WriteMarkdownExport failed: %v", err)
		}

		cover := filepath.Join(dir, "pl1", "cover.jpg")
		if files.CoverImage != cover || len(files.Paths) != 2 {
			t.Errorf("unexpected files %+v", files)
		}
		if tu.MustReadFile(t, cover) != "jpeg" {
			t.Error("cover not written")
		}
		if !strings.Contains(tu.MustReadFile(t, filepath.Join(dir, "pl1", "README.md")), "![Cover](cover.jpg)") {
			t.Error("README should link the cover")
		}
	})

	t.Run("Markdown Without Cover", func(t *testing.T) {
		dir := t.TempDir()
		files, err := WriteMarkdownExport(sampleExport(), dir, nil)
		if err != nil {
			t.Fatalf("WriteMarkdownExport failed: %v", err)
		}
		if files.CoverImage != "" || len(files.Paths) != 1 {
			t.Errorf("unexpected files %+v", files)
		}
		tu.AssertFileMissing(t, filepath.Join(dir, "pl1", "cover.jpg"))
	})

	t.Run("Text", func(t *testing.T) {
		dir := t.TempDir()
		if _, err := WriteTextExport(sampleExport(), dir); err != nil {
			t.Fatalf("WriteTextExport failed: %v", err)
		}
		tu.AssertFileExists(t, filepath.Join(dir, "pl1_tracks.txt"))
	})

	t.Run("Missing Directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "missing")
		if _, err := WriteTextExport(sampleExport(), dir); err == nil {
			t.Error("expected error writing into a missing directory")
		}
	})

	t.Run("Manifest", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "export_manifest.json")
		m := Manifest{
			Format:            FormatCSV,
			TotalPlaylists:    2,
			SuccessfulExports: 1,
			FailedExports:     1,
			Playlists: []ManifestEntry{
				{PlaylistID: "pl1", PlaylistName: "Road Trip", Status: "success", Files: []string{"pl1_tracks.csv"}},
				{PlaylistID: "pl2", PlaylistName: "Unknown (pl2)", Status: "failed", Error: "boom"},
			},
		}
		if err := WriteManifest(m, path); err != nil {
			t.Fatalf("WriteManifest failed: %v", err)
		}

		var got Manifest
		if err := json.Unmarshal([]byte(tu.MustReadFile(t, path)), &got); err != nil {
			t.Fatalf("invalid manifest: %v", err)
		}
		if got.Format != FormatCSV || got.FailedExports != 1 || got.Playlists[1].Error != "boom" {
			t.Errorf("unexpected manifest %+v", got)
		}
	})
}

func TestDownloadImage(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("image-bytes"))
		}))
		defer srv.Close()

		data, err := DownloadImage(context.Background(), srv.Client(), srv.URL+"/cover.jpg")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if string(data) != "image-bytes" {
			t.Errorf("unexpected data %q", data)
		}
	})

	t.Run("Not Found", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		if _, err := DownloadImage(context.Background(), srv.Client(), srv.URL); err == nil || !strings.Contains(err.Error(), "status 404") {
			t.Errorf("expected status error, got %v", err)
		}
	})

	t.Run("Empty URL", func(t *testing.T) {
		if _, err := DownloadImage(context.Background(), nil, ""); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Read Failure", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(&http.Response{
			StatusCode: http.StatusOK,
			Body:       &tu.FCloser{},
		}, nil)}

		if _, err := DownloadImage(context.Background(), client, "http://example.test/c.jpg"); err == nil {
			t.Error("expected read error")
		}
	})
}
