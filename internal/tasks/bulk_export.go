package tasks

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/desertthunder/spotx/internal/formatter"
	"github.com/desertthunder/spotx/internal/shared"
	"golang.org/x/time/rate"
)

// BulkExportOpts contains configuration for bulk playlist exports.
type BulkExportOpts struct {
	Format     formatter.Format // Export format
	OutputDir  string           // Base output directory (default: spotify_export_{epoch})
	NumWorkers int              // Concurrent workers (default: 5, max: 10)
	RateLimit  float64          // Playlist fetches per second (default: 5)
	Covers     bool             // Download cover images for Markdown exports
}

// BulkExportResult summarizes a bulk export. Results follow the order of the requested ids.
type BulkExportResult struct {
	TotalPlaylists    int
	SuccessfulExports int
	FailedExports     int
	OutputDirectory   string
	ManifestPath      string
	Results           []PlaylistExportResult
}

// BulkExport exports multiple playlists concurrently with rate limiting and progress tracking.
//
// Playlists are fetched one at a time under the rate limit and written by a pool of workers.
// Individual failures are recorded in the result and the manifest.
func (e *Exporter) BulkExport(ctx context.Context, prog chan<- ProgressUpdate, ids []string, opts BulkExportOpts) (*BulkExportResult, error) {
	if e.source == nil {
		return nil, fmt.Errorf("%w: playlist source not initialized", shared.ErrServiceUnavailable)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: playlist ids", shared.ErrMissingArgument)
	}

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("spotify_export_%d", time.Now().Unix())
	}
	if opts.Format == "" {
		opts.Format = formatter.FormatJSON
	}
	opts.NumWorkers = min(max(opts.NumWorkers, 0), 10)
	if opts.NumWorkers == 0 {
		opts.NumWorkers = 5
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		TotalPlaylists:  len(ids),
		OutputDirectory: opts.OutputDir,
		Results:         make([]PlaylistExportResult, 0, len(ids)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan PlaylistExportJob, len(ids))
	results := make(chan PlaylistExportResult, len(ids))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(jobs)
		e.sendProgress(prog, fetchingPlaylistsUpdate(len(ids)))
		for i, playlistID := range ids {
			if err := limiter.Wait(ctx); err != nil {
				return
			}

			export, err := e.source.ExportPlaylist(ctx, playlistID)
			if err != nil {
				results <- PlaylistExportResult{
					PlaylistID:   playlistID,
					PlaylistName: fmt.Sprintf("Unknown (%s)", playlistID),
					Error:        fmt.Errorf("failed to fetch playlist: %w", err),
					index:        i,
				}
				continue
			}

			jobs <- PlaylistExportJob{PlaylistID: playlistID, Export: export, index: i}
			e.sendProgress(prog, exportingPlaylistUpdate(i+1, len(ids), export.Playlist.Name))
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportCompletedUpdate(completed, len(ids), res))
		} else {
			result.FailedExports++
			e.logger.Warn("playlist export failed", "playlist", res.PlaylistID, "error", res.Error)
			e.sendProgress(prog, exportFailedUpdate(completed, len(ids), res))
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	slices.SortFunc(result.Results, func(a, b PlaylistExportResult) int { return cmp.Compare(a.index, b.index) })

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteManifest(manifest(result, opts.Format), manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	e.sendProgress(prog, manifestUpdate(manifestPath))
	return result, nil
}

// exportWorker is a worker goroutine that exports playlists from the jobs channel.
func (e *Exporter) exportWorker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan PlaylistExportJob, results chan<- PlaylistExportResult, opts BulkExportOpts) {
	defer wg.Done()

	for job := range jobs {
		if ctx.Err() != nil {
			return
		}
		results <- e.exportSinglePlaylist(ctx, job, opts.Format, opts.OutputDir, opts.Covers)
	}
}

func manifest(result *BulkExportResult, format formatter.Format) formatter.Manifest {
	m := formatter.Manifest{
		Format:            format,
		ExportedAt:        time.Now().UTC(),
		OutputDirectory:   result.OutputDirectory,
		TotalPlaylists:    result.TotalPlaylists,
		SuccessfulExports: result.SuccessfulExports,
		FailedExports:     result.FailedExports,
		Playlists:         make([]formatter.ManifestEntry, 0, len(result.Results)),
	}

	for _, res := range result.Results {
		entry := formatter.ManifestEntry{
			PlaylistID:   res.PlaylistID,
			PlaylistName: res.PlaylistName,
			Status:       "success",
			Files:        res.Files,
		}
		if !res.Success {
			entry.Status = "failed"
			if res.Error != nil {
				entry.Error = res.Error.Error()
			}
		}
		m.Playlists = append(m.Playlists, entry)
	}
	return m
}
