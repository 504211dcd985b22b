// Package tasks runs long playlist operations with progress reporting.
//
// # Exports
//
// [Exporter.Export] writes one playlist in a [formatter.Format]. [Exporter.BulkExport]
// fans many playlist ids out to a worker pool:
//
//   - a producer goroutine fetches each playlist through the [PlaylistSource], paced by a
//     [rate.Limiter] so a large library does not trip the API's rate limits
//   - workers render and write the files concurrently
//   - failures are recorded per playlist and never abort the batch
//   - an export_manifest.json summarizing every outcome is written last
//
// # Progress Reporting
//
// Operations accept an optional send-only channel of [ProgressUpdate]. Sends use select
// with default so a slow or absent reader never blocks an export.
package tasks
