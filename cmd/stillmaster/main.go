// Command stillmaster is the CLI entrypoint for the Stillmaster frame
// extractor.
//
// It parses flags, validates configuration and paths, and either runs
// system diagnostics (--check), the pre-run survey (--analyze), or the
// extraction pipeline.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/backmassage/stillmaster/internal/avlog"
	"github.com/backmassage/stillmaster/internal/check"
	"github.com/backmassage/stillmaster/internal/config"
	"github.com/backmassage/stillmaster/internal/display"
	"github.com/backmassage/stillmaster/internal/logging"
	"github.com/backmassage/stillmaster/internal/pipeline"
)

// version and commit are injected at build time via -ldflags.
// When built with plain "go build" (no make), these retain their defaults.
var (
	version = "1.0.0"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Phase 1: Bootstrap — the logger doesn't exist yet, so errors go
	// directly to stderr via fmt. Once NewLogger succeeds, all output
	// goes through the logger for consistent formatting and log-file capture.
	cfg := config.DefaultConfig()
	if err := config.FromEnv(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "stillmaster: %v\n", err)
		return 1
	}
	if err := config.ParseFlags(&cfg, version); err != nil {
		fmt.Fprintf(os.Stderr, "stillmaster: %v\n", err)
		return 1
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "stillmaster: %v\n", err)
		return 1
	}

	log, err := logging.NewLogger(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "stillmaster: %v\n", err)
		return 1
	}
	defer log.Close()

	// Phase 2: Logger available — all output goes through log from here on.
	display.PrintBanner()

	// Route libav's own log lines through our logger before anything touches
	// a container or codec; --check and --analyze open codecs too.
	avlog.Init(cfg.AVLogLevel, log)

	if cfg.CheckOnly {
		check.RunCheck(log)
		return 0
	}

	// Phase 3: Signal handling — cancel context on SIGINT/SIGTERM so the
	// pipeline can stop between packets without leaving stale handles.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn("Received interrupt, stopping…")
		cancel()
	}()

	if cfg.AnalyzeOnly {
		if _, err := absPath(cfg.VideoDir); err != nil {
			log.Error("Video directory not found: %s", cfg.VideoDir)
			return 1
		}
		pipeline.Analyze(ctx, &cfg, log)
		if ctx.Err() != nil {
			return 130
		}
		return 0
	}

	// Resolve and validate paths: the dump must exist, output is created if
	// needed, and output must not be inside the dump (keeps discovery from
	// walking its own results).
	videoAbs, err := absPath(cfg.VideoDir)
	if err != nil {
		log.Error("Video directory not found: %s", cfg.VideoDir)
		return 1
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		log.Error("Cannot create output directory: %s", cfg.OutputDir)
		return 1
	}
	outputAbs, err := absPath(cfg.OutputDir)
	if err != nil {
		log.Error("Cannot resolve output path: %s", cfg.OutputDir)
		return 1
	}
	if err := cfg.ValidatePaths(videoAbs, outputAbs); err != nil {
		log.Error("%v", err)
		log.Error("Choose an output path outside: %s", cfg.VideoDir)
		return 1
	}

	log.Info("=== Stillmaster v%s (%s) ===", version, commit)
	log.Info("In:  %s", cfg.VideoDir)
	log.Info("Out: %s", cfg.OutputDir)
	if cfg.DryRun {
		log.Warn("DRY RUN — no files will be written")
	}
	log.Info("")

	// Fail fast if the linked FFmpeg build cannot encode stills.
	if err := check.CheckDeps(); err != nil {
		log.Error("%v", err)
		return 1
	}

	// Phase 4: Run pipeline (resolve jobs → decode → encode stills).
	stats := pipeline.Run(ctx, &cfg, log)

	if ctx.Err() != nil {
		return 130
	}
	if !stats.AllOK() {
		return 1
	}
	return 0
}

// absPath returns the absolute, symlink-resolved path for safe comparison
// of the dump vs output directory hierarchies.
func absPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
