package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/backmassage/stillmaster/internal/config"
	"github.com/backmassage/stillmaster/internal/extract"
	"github.com/backmassage/stillmaster/internal/logging"
)

// --- IQR statistics tests ---

func TestComputeStats_TooFewValues(t *testing.T) {
	b := computeStats([]float64{1, 2, 3})
	if b.valid {
		t.Error("three values should not produce valid bounds")
	}
}

func TestComputeStats_FlagsOutliers(t *testing.T) {
	// Nine cameras around 27k entries, one with a recording gap.
	vals := []float64{26900, 27000, 27050, 27100, 27100, 27150, 27200, 27250, 27300}
	b := computeStats(vals)
	if !b.valid {
		t.Fatal("bounds should be valid")
	}
	if got := b.classify(27100); got != "" {
		t.Errorf("typical value classified %q", got)
	}
	if got := b.classify(12000); got != "extreme" {
		t.Errorf("half-missing camera classified %q, want extreme", got)
	}
	if got := b.classify(0); got != "" {
		t.Errorf("zero must stay unclassified, got %q", got)
	}
}

func TestPercentile(t *testing.T) {
	sorted := []float64{10, 20, 30, 40}
	tests := []struct {
		p    float64
		want float64
	}{
		{0, 10},
		{50, 25},
		{100, 40},
	}
	for _, tt := range tests {
		if got := percentile(sorted, tt.p); got != tt.want {
			t.Errorf("percentile(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestWorstFlag(t *testing.T) {
	if got := worstFlag("", "outlier", "extreme"); got != "extreme" {
		t.Errorf("got %q, want extreme", got)
	}
	if got := worstFlag("outlier", ""); got != "outlier" {
		t.Errorf("got %q, want outlier", got)
	}
	if got := worstFlag("", ""); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

// --- RunStats tests ---

func TestRunStats_AllOK(t *testing.T) {
	s := RunStats{Total: 4, Succeeded: 3, Skipped: 1}
	if !s.AllOK() {
		t.Error("skips alone must not fail the run")
	}
	s.Failed = 1
	if s.AllOK() {
		t.Error("a failed job must fail the run")
	}
}

// --- Runner tests with a fake extractor ---

func seedCamera(t *testing.T, dir, camera string, indexLines string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, camera+".mp4"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, camera+".txt"), []byte(indexLines), 0o644); err != nil {
		t.Fatal(err)
	}
}

func swapRunJob(t *testing.T, fake func(context.Context, extract.Request, *logging.Logger) (extract.Report, error)) {
	t.Helper()
	orig := runJob
	runJob = fake
	t.Cleanup(func() { runJob = orig })
}

func testConfig(videoDir, outDir string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.VideoDir = videoDir
	cfg.OutputDir = outDir
	cfg.ColorMode = config.ColorNever
	return &cfg
}

func TestRun_AggregatesReports(t *testing.T) {
	dir := t.TempDir()
	seedCamera(t, dir, "cam01", "a\nb\n")
	seedCamera(t, dir, "cam02", "a\nb\nc\n")

	var calls int
	swapRunJob(t, func(_ context.Context, req extract.Request, _ *logging.Logger) (extract.Report, error) {
		calls++
		return extract.Report{ListLen: 2, FramesSeen: 2, FramesEncoded: 2, BytesWritten: 1000}, nil
	})

	stats := Run(context.Background(), testConfig(dir, t.TempDir()), logging.NewNop())

	if calls != 2 {
		t.Fatalf("extractor called %d times, want 2", calls)
	}
	if stats.Total != 2 || stats.Succeeded != 2 || stats.Failed != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.FramesWritten != 4 || stats.TotalOutputBytes != 2000 {
		t.Errorf("frame totals = %d frames, %d bytes", stats.FramesWritten, stats.TotalOutputBytes)
	}
	if !stats.AllOK() {
		t.Error("run should be OK")
	}
}

func TestRun_JobErrorCountsFailed(t *testing.T) {
	dir := t.TempDir()
	seedCamera(t, dir, "cam01", "a\n")

	swapRunJob(t, func(context.Context, extract.Request, *logging.Logger) (extract.Report, error) {
		return extract.Report{}, errors.New("container would not open")
	})

	stats := Run(context.Background(), testConfig(dir, t.TempDir()), logging.NewNop())
	if stats.Failed != 1 || stats.Succeeded != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRun_PartialJobCountsFailed(t *testing.T) {
	dir := t.TempDir()
	seedCamera(t, dir, "cam01", "a\nb\nc\n")

	swapRunJob(t, func(context.Context, extract.Request, *logging.Logger) (extract.Report, error) {
		return extract.Report{ListLen: 3, FramesSeen: 3, FramesEncoded: 2, FrameErrors: 1}, nil
	})

	stats := Run(context.Background(), testConfig(dir, t.TempDir()), logging.NewNop())
	if stats.Failed != 1 {
		t.Errorf("partial job should fail the run: %+v", stats)
	}
	if stats.FramesWritten != 2 || stats.FramesSeen != 3 {
		t.Errorf("frame counts = %d/%d", stats.FramesWritten, stats.FramesSeen)
	}
}

func TestRun_ManifestMissingCamera(t *testing.T) {
	dir := t.TempDir()
	seedCamera(t, dir, "cam01", "a\n")

	swapRunJob(t, func(context.Context, extract.Request, *logging.Logger) (extract.Report, error) {
		return extract.Report{ListLen: 1, FramesSeen: 1, FramesEncoded: 1}, nil
	})

	cfg := testConfig(dir, t.TempDir())
	cfg.Cameras = []string{"cam01", "ghost"}

	stats := Run(context.Background(), cfg, logging.NewNop())
	if stats.Total != 2 || stats.Succeeded != 1 || stats.Failed != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRun_DryRunSkipsExtraction(t *testing.T) {
	dir := t.TempDir()
	seedCamera(t, dir, "cam01", "a\nb\n\nc\n")

	swapRunJob(t, func(context.Context, extract.Request, *logging.Logger) (extract.Report, error) {
		t.Error("extractor must not run in dry-run mode")
		return extract.Report{}, nil
	})

	cfg := testConfig(dir, t.TempDir())
	cfg.DryRun = true

	stats := Run(context.Background(), cfg, logging.NewNop())
	if stats.Succeeded != 1 || stats.Failed != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRun_SkippedVideoWithoutIndex(t *testing.T) {
	dir := t.TempDir()
	seedCamera(t, dir, "cam01", "a\n")
	if err := os.WriteFile(filepath.Join(dir, "orphan.mp4"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	swapRunJob(t, func(context.Context, extract.Request, *logging.Logger) (extract.Report, error) {
		return extract.Report{ListLen: 1, FramesSeen: 1, FramesEncoded: 1}, nil
	})

	stats := Run(context.Background(), testConfig(dir, t.TempDir()), logging.NewNop())
	if stats.Skipped != 1 || stats.Total != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if !stats.AllOK() {
		t.Error("skips alone must not fail the run")
	}
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	dir := t.TempDir()
	seedCamera(t, dir, "cam01", "a\n")

	swapRunJob(t, func(ctx context.Context, _ extract.Request, _ *logging.Logger) (extract.Report, error) {
		return extract.Report{}, ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats := Run(ctx, testConfig(dir, t.TempDir()), logging.NewNop())
	if stats.Succeeded != 0 {
		t.Errorf("nothing should succeed after cancel: %+v", stats)
	}
}
