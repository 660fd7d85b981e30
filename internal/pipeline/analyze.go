package pipeline

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/backmassage/stillmaster/internal/config"
	"github.com/backmassage/stillmaster/internal/display"
	"github.com/backmassage/stillmaster/internal/extract"
	"github.com/backmassage/stillmaster/internal/framelist"
	"github.com/backmassage/stillmaster/internal/logging"
	"github.com/backmassage/stillmaster/internal/term"
)

// camRow holds the surveyed per-camera data for the analysis table.
type camRow struct {
	Camera    string
	Video     string
	Codec     string
	Res       string
	PixFmt    string
	Convert   bool
	ProbeOK   bool
	SizeBytes int64
	Entries   int
}

// Analyze surveys the dump before a run: per camera, the stream that
// extraction would pick (codec, geometry, pixel layout, whether conversion
// would run), the video size, and the index entry count, with statistical
// outlier highlighting. Cameras whose numbers sit far from the rest of the
// batch usually mean a recording gap, a truncated dump, or a mismatched
// index file. Nothing is decoded and nothing is written.
func Analyze(ctx context.Context, cfg *config.Config, log *logging.Logger) {
	js, _, skipped := resolveJobs(cfg, log)
	if len(js) == 0 {
		log.Warn("No camera jobs found in %s", cfg.VideoDir)
		return
	}

	total := len(js)
	log.Info("Analyzing %d cameras in %s …", total, cfg.VideoDir)
	fmt.Println()

	isTTY := term.IsTerminal(os.Stdout)
	var rows []camRow
	var entryVals, sizeVals []float64

	for i, job := range js {
		if ctx.Err() != nil {
			if isTTY {
				clearProgress()
			}
			log.Warn("Interrupted")
			return
		}

		printProgress(isTTY, i+1, total, skipped, job.Camera)

		names, err := framelist.Load(job.IndexPath)
		if err != nil {
			skipped++
			if isTTY {
				clearProgress()
			}
			log.Warn("Skip (unreadable index): %s", job.Camera)
			continue
		}

		row := camRow{Camera: job.Camera, Video: job.VideoPath, Entries: len(names)}
		if fi, err := os.Stat(job.VideoPath); err == nil {
			row.SizeBytes = fi.Size()
		}
		if info, err := extract.Probe(job.VideoPath); err == nil {
			row.ProbeOK = true
			row.Codec = info.CodecName
			row.Res = fmt.Sprintf("%dx%d", info.Width, info.Height)
			row.PixFmt = info.PixelFormat
			row.Convert = info.NeedsConversion
		} else {
			row.Codec, row.Res, row.PixFmt = "?", "?", "?"
			if isTTY {
				clearProgress()
			}
			log.Warn("Video unreadable: %s: %v", job.Camera, err)
		}

		rows = append(rows, row)
		if row.Entries > 0 {
			entryVals = append(entryVals, float64(row.Entries))
		}
		if row.SizeBytes > 0 {
			sizeVals = append(sizeVals, float64(row.SizeBytes))
		}
	}

	if isTTY {
		clearProgress()
	}

	if len(rows) == 0 {
		log.Warn("No cameras could be surveyed")
		return
	}

	eStats := computeStats(entryVals)
	sStats := computeStats(sizeVals)

	printAnalysisTable(rows, eStats, sStats)
	printAnalysisSummary(log, rows, eStats, sStats)
}

// iqrBounds holds the IQR-based thresholds for outlier classification.
type iqrBounds struct {
	q1, q3    float64
	outlierLo float64 // Q1 - 1.5*IQR
	outlierHi float64 // Q3 + 1.5*IQR
	extremeLo float64 // Q1 - 3.0*IQR
	extremeHi float64 // Q3 + 3.0*IQR
	valid     bool
}

func computeStats(vals []float64) iqrBounds {
	if len(vals) < 4 {
		return iqrBounds{}
	}

	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	q1 := percentile(sorted, 25)
	q3 := percentile(sorted, 75)
	iqr := q3 - q1

	return iqrBounds{
		q1:        q1,
		q3:        q3,
		outlierLo: q1 - 1.5*iqr,
		outlierHi: q3 + 1.5*iqr,
		extremeLo: q1 - 3.0*iqr,
		extremeHi: q3 + 3.0*iqr,
		valid:     iqr > 0,
	}
}

// classify returns "" (normal), "outlier", or "extreme" for a value.
func (b *iqrBounds) classify(v float64) string {
	if !b.valid || v <= 0 {
		return ""
	}
	if v < b.extremeLo || v > b.extremeHi {
		return "extreme"
	}
	if v < b.outlierLo || v > b.outlierHi {
		return "outlier"
	}
	return ""
}

// convLabel renders the conversion column for one row.
func convLabel(r camRow) string {
	if !r.ProbeOK {
		return "?"
	}
	if r.Convert {
		return "yes"
	}
	return "no"
}

func printAnalysisTable(rows []camRow, eStats, sStats iqrBounds) {
	camW := len("Camera")
	cdW := len("Codec")
	resW := len("Resolution")
	pfW := len("PixFmt")
	cvW := len("Conv")
	szW := len("Video Size")
	enW := len("Index Entries")

	for _, r := range rows {
		camW = max(camW, len(r.Camera))
		cdW = max(cdW, len(r.Codec))
		resW = max(resW, len(r.Res))
		pfW = max(pfW, len(r.PixFmt))
		cvW = max(cvW, len(convLabel(r)))
		szW = max(szW, len(display.FormatBytes(r.SizeBytes)))
		enW = max(enW, len(display.FormatCount(r.Entries)))
	}

	if camW > 40 {
		camW = 40
	}

	header := fmt.Sprintf("  %-*s  %-*s  %-*s  %-*s  %-*s  %-*s  %-*s",
		camW, "Camera",
		cdW, "Codec",
		resW, "Resolution",
		pfW, "PixFmt",
		cvW, "Conv",
		szW, "Video Size",
		enW, "Index Entries",
	)
	separator := "  " + strings.Repeat("─", len(header)-2)

	fmt.Println(header)
	fmt.Println(separator)

	for _, r := range rows {
		camera := r.Camera
		if len(camera) > camW {
			camera = camera[:camW-1] + "…"
		}

		sClass := sStats.classify(float64(r.SizeBytes))
		eClass := eStats.classify(float64(r.Entries))

		flag := worstFlag(sClass, eClass)
		if !r.ProbeOK {
			flag = "extreme"
		}

		// Pad the plain text first, then wrap in ANSI color. This avoids
		// the alignment bug where %-*s counts escape bytes as visible width.
		szCell := colorPad(display.FormatBytes(r.SizeBytes), szW, sClass)
		enCell := colorPad(display.FormatCount(r.Entries), enW, eClass)

		fmt.Printf("  %-*s  %-*s  %-*s  %-*s  %-*s  %s  %s  %s\n",
			camW, camera,
			cdW, r.Codec,
			resW, r.Res,
			pfW, r.PixFmt,
			cvW, convLabel(r),
			szCell,
			enCell,
			formatFlag(flag),
		)
	}
	fmt.Println()
}

func printAnalysisSummary(log *logging.Logger, rows []camRow, eStats, sStats iqrBounds) {
	var outliers, extremes, emptyIndexes, conversions, unreadable int
	for _, r := range rows {
		if r.Entries == 0 {
			emptyIndexes++
		}
		if !r.ProbeOK {
			unreadable++
		} else if r.Convert {
			conversions++
		}
		sClass := sStats.classify(float64(r.SizeBytes))
		eClass := eStats.classify(float64(r.Entries))
		switch worstFlag(sClass, eClass) {
		case "extreme":
			extremes++
		case "outlier":
			outliers++
		}
	}

	log.Info("Analyzed %d cameras", len(rows))
	if eStats.valid {
		log.Info("  Index entry IQR: %.0f – %.0f (outlier < %.0f or > %.0f)",
			eStats.q1, eStats.q3, eStats.outlierLo, eStats.outlierHi)
	}
	if sStats.valid {
		log.Info("  Video size IQR: %s – %s",
			display.FormatBytes(int64(sStats.q1)), display.FormatBytes(int64(sStats.q3)))
	}
	if conversions > 0 {
		log.Info("  %d camera(s) will need pixel-format conversion", conversions)
	}
	if emptyIndexes > 0 {
		log.Warn("  %d camera(s) with an empty index — no frames will be named", emptyIndexes)
	}
	if unreadable > 0 {
		log.Error("  %d video(s) could not be opened", unreadable)
	}
	if outliers > 0 {
		log.Warn("  %d outlier(s) flagged [*]", outliers)
	}
	if extremes > 0 {
		log.Error("  %d extreme outlier(s) flagged [!]", extremes)
	}
	if outliers == 0 && extremes == 0 && unreadable == 0 {
		log.Success("  No outliers detected")
	}
}

func worstFlag(classes ...string) string {
	worst := ""
	for _, c := range classes {
		if c == "extreme" {
			return "extreme"
		}
		if c == "outlier" {
			worst = "outlier"
		}
	}
	return worst
}

func formatFlag(flag string) string {
	switch flag {
	case "extreme":
		return term.Red + "[!]" + term.NC
	case "outlier":
		return term.Orange + "[*]" + term.NC
	default:
		return ""
	}
}

// colorPad pads a plain string to width, then wraps in ANSI color. This
// ensures %-*s-style alignment works correctly regardless of escape sequences.
func colorPad(s string, width int, class string) string {
	padded := fmt.Sprintf("%-*s", width, s)
	switch class {
	case "extreme":
		return term.Red + padded + term.NC
	case "outlier":
		return term.Orange + padded + term.NC
	default:
		return padded
	}
}

// printProgress shows a live survey counter. On a TTY it writes an
// inline \r-overwritten line; otherwise it is a no-op (the skip warnings
// already provide enough breadcrumbs in piped/logged output).
func printProgress(isTTY bool, current, total, skipped int, name string) {
	if !isTTY {
		return
	}
	pct := current * 100 / total
	status := fmt.Sprintf("  Surveying [%d/%d] %d%% ", current, total, pct)
	if skipped > 0 {
		status += fmt.Sprintf("(%d skipped) ", skipped)
	}

	maxName := 40
	if len(name) > maxName {
		name = name[:maxName-1] + "…"
	}
	status += name

	// Pad to 80 chars to overwrite previous longer lines, then \r.
	if len(status) < 80 {
		status += strings.Repeat(" ", 80-len(status))
	}
	fmt.Fprintf(os.Stdout, "\r%s", status)
}

// clearProgress erases the inline progress line on a TTY.
func clearProgress() {
	fmt.Fprintf(os.Stdout, "\r%s\r", strings.Repeat(" ", 80))
}

// percentile computes the p-th percentile using linear interpolation.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := (p / 100) * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi || hi >= len(sorted) {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
