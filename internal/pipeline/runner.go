package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/backmassage/stillmaster/internal/config"
	"github.com/backmassage/stillmaster/internal/display"
	"github.com/backmassage/stillmaster/internal/extract"
	"github.com/backmassage/stillmaster/internal/framelist"
	"github.com/backmassage/stillmaster/internal/jobs"
	"github.com/backmassage/stillmaster/internal/logging"
)

// runJob is swappable so runner tests can count calls without decoding
// anything.
var runJob = extract.Run

// Run is the top-level batch entry point. It resolves the camera jobs,
// processes each sequentially, and returns aggregate stats.
func Run(ctx context.Context, cfg *config.Config, log *logging.Logger) RunStats {
	var stats RunStats

	js, failed, skipped := resolveJobs(cfg, log)
	stats.Failed = failed
	stats.Skipped = skipped
	stats.Total = len(js) + failed

	logBatchHeader(cfg, log, &stats)

	for i, job := range js {
		stats.Current = i + 1

		if ctx.Err() != nil {
			log.Warn("Interrupted")
			break
		}

		processJob(ctx, cfg, log, job, &stats)
	}

	logSummary(cfg, log, &stats)
	return stats
}

// resolveJobs builds the job list in manifest mode (--cameras) or discovery
// mode (walk the dump directory). Cameras that cannot be resolved count as
// failed; discovered videos without a usable index count as skipped.
func resolveJobs(cfg *config.Config, log *logging.Logger) ([]jobs.Job, int, int) {
	if len(cfg.Cameras) > 0 {
		js, errs := jobs.Resolve(cfg.VideoDir, cfg.OutputDir, cfg.Cameras)
		for _, err := range errs {
			log.Error("%v", err)
		}
		return js, len(errs), 0
	}

	js, skipped, err := jobs.Discover(cfg.VideoDir, cfg.OutputDir)
	if err != nil {
		log.Error("Job discovery failed: %v", err)
		return nil, 1, 0
	}
	for _, sk := range skipped {
		log.Warn("Skip %s: %s", sk.Path, sk.Reason)
	}
	return js, 0, len(skipped)
}

// processJob handles one camera: dry-run shortcut, extraction, stat rollup.
func processJob(ctx context.Context, cfg *config.Config, log *logging.Logger, job jobs.Job, stats *RunStats) {
	jlog := log.With("camera", job.Camera, "job_id", job.ID)
	jlog.Info("[%d/%d] %s", stats.Current, stats.Total, filepath.Base(job.VideoPath))

	if cfg.DryRun {
		names, err := framelist.Load(job.IndexPath)
		if err != nil {
			jlog.Error("Cannot read index: %v", err)
			stats.Failed++
			fmt.Println()
			return
		}
		jlog.Success("[DRY] Would extract up to %s frames into %s",
			display.FormatCount(len(names)), job.OutputDir)
		stats.Succeeded++
		fmt.Println()
		return
	}

	start := time.Now()
	rep, err := runJob(ctx, extract.Request{
		VideoPath: job.VideoPath,
		IndexPath: job.IndexPath,
		OutputDir: job.OutputDir,
		Quality:   cfg.Quality,
	}, jlog)

	stats.FramesSeen += rep.FramesSeen
	stats.FramesWritten += rep.FramesEncoded
	stats.TotalOutputBytes += rep.BytesWritten

	if err != nil {
		if ctx.Err() != nil {
			jlog.Warn("Interrupted")
		} else {
			jlog.Error("Job failed: %v", err)
		}
		stats.Failed++
		fmt.Println()
		return
	}

	elapsed := time.Since(start)
	if !rep.OK() {
		jlog.Error("Finished with errors: %d of %d named frames written (%d decode, %d encode errors)",
			rep.FramesEncoded, rep.FramesSeen, rep.PacketErrors, rep.FrameErrors)
		stats.Failed++
		fmt.Println()
		return
	}

	jlog.Success("Extracted %d frames in %ds (%s)",
		rep.FramesEncoded, int(elapsed.Seconds()), display.FormatBytes(rep.BytesWritten))
	if rep.ListLen > rep.FramesSeen {
		jlog.Debug("%d index names unused (video ended first)", rep.ListLen-rep.FramesSeen)
	}
	stats.Succeeded++
	fmt.Println()
}

// --- Logging helpers ---

func logBatchHeader(cfg *config.Config, log *logging.Logger, stats *RunStats) {
	log.Info("Found %d jobs", stats.Total)
	log.Info("Quality: %d (quantizer scale, 1 = finest)", cfg.Quality)
	log.Info("Output: %s", cfg.OutputDir)

	if len(cfg.Cameras) > 0 {
		log.Info("Cameras: %s", strings.Join(cfg.Cameras, ", "))
	} else {
		log.Info("Cameras: discovered from %s", cfg.VideoDir)
	}
	if cfg.DryRun {
		log.Info("Dry run: no files will be written")
	}
	fmt.Println()
}

func logSummary(cfg *config.Config, log *logging.Logger, stats *RunStats) {
	log.Info("==============================")
	log.Info("Done: %d succeeded, %d skipped, %d failed", stats.Succeeded, stats.Skipped, stats.Failed)
	log.Info("Summary report:")
	log.Info("  Jobs processed: %d", stats.Current)

	if cfg.DryRun {
		log.Info("  Frames written: n/a (dry run)")
		return
	}

	log.Info("  Frames written: %s", display.FormatCount(stats.FramesWritten))
	log.Info("  Output size: %s", display.FormatBytes(stats.TotalOutputBytes))
	if stats.FramesSeen > stats.FramesWritten {
		log.Warn("  %s frames hit convert/encode errors", display.FormatCount(stats.FramesSeen-stats.FramesWritten))
	}
}
