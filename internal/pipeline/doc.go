// Package pipeline orchestrates job resolution, per-camera extraction, and
// batch summary reporting.
//
// Layout:
//   - RunStats (job counters, frame and byte totals; AllOK method) (stats.go)
//   - Run(ctx, cfg, log) → RunStats
//     Batch runner: resolve jobs (manifest or discovery) → for each camera:
//     dry-run shortcut or extract → roll up stats → summary (runner.go)
//   - Analyze(ctx, cfg, log)
//     Pre-run survey: per-camera stream probe (codec, resolution, pixel
//     format, conversion), video size, and index entry count in a table
//     with IQR outlier flags (analyze.go)
package pipeline
