package tasks

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotx/internal/formatter"
	"github.com/desertthunder/spotx/internal/services"
	"github.com/desertthunder/spotx/internal/shared"
)

// PlaylistSource fetches a playlist with all of its tracks.
type PlaylistSource interface {
	ExportPlaylist(ctx context.Context, playlistID string) (*services.PlaylistExport, error)
}

// PlaylistExportJob is a fetched playlist waiting to be written.
type PlaylistExportJob struct {
	PlaylistID string
	Export     *services.PlaylistExport
	index      int
}

// PlaylistExportResult is the outcome of exporting one playlist.
type PlaylistExportResult struct {
	PlaylistID   string
	PlaylistName string
	Success      bool
	Files        []string
	Error        error
	index        int
}

// Exporter writes playlists to disk.
type Exporter struct {
	source     PlaylistSource
	httpClient *http.Client
	logger     *log.Logger
}

// NewExporter creates an Exporter. httpClient is used for cover image downloads.
func NewExporter(source PlaylistSource, httpClient *http.Client, logger *log.Logger) *Exporter {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Exporter{source: source, httpClient: httpClient, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *Exporter) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Export fetches and writes a single playlist into dir.
func (e *Exporter) Export(ctx context.Context, playlistID string, format formatter.Format, dir string, covers bool) (*PlaylistExportResult, error) {
	if e.source == nil {
		return nil, fmt.Errorf("%w: playlist source not initialized", shared.ErrServiceUnavailable)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	export, err := e.source.ExportPlaylist(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch playlist: %w", err)
	}

	res := e.exportSinglePlaylist(ctx, PlaylistExportJob{PlaylistID: playlistID, Export: export}, format, dir, covers)
	if !res.Success {
		return &res, res.Error
	}
	return &res, nil
}

// exportSinglePlaylist writes a fetched playlist in format.
func (e *Exporter) exportSinglePlaylist(ctx context.Context, j PlaylistExportJob, format formatter.Format, dir string, covers bool) PlaylistExportResult {
	result := PlaylistExportResult{
		PlaylistID:   j.PlaylistID,
		PlaylistName: j.Export.Playlist.Name,
		Files:        []string{},
		index:        j.index,
	}
	if j.Export.Playlist.ID == "" {
		j.Export.Playlist.ID = j.PlaylistID
	}

	var (
		files *formatter.Files
		err   error
	)
	switch format {
	case formatter.FormatCSV:
		files, err = formatter.WriteCSVExport(j.Export, dir)
	case formatter.FormatMarkdown:
		var cover []byte
		if url := j.Export.Playlist.CoverURL(); covers && url != "" {
			cover, err = formatter.DownloadImage(ctx, e.httpClient, url)
			if err != nil {
				e.logger.Warn("cover image skipped", "playlist", j.PlaylistID, "error", err)
				cover = nil
			}
		}
		files, err = formatter.WriteMarkdownExport(j.Export, dir, cover)
	case formatter.FormatText:
		files, err = formatter.WriteTextExport(j.Export, dir)
	default:
		files, err = formatter.WriteJSONExport(j.Export, dir)
	}

	if err != nil {
		result.Error = fmt.Errorf("%s export failed: %w", format, err)
		return result
	}
	result.Files = files.Paths
	result.Success = true
	return result
}
