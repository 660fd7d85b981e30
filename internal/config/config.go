// Package config holds runtime configuration: defaults, environment overlay,
// CLI flag parsing, and validation. All defaults match the legacy C++ restore
// tool for parity.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// --- Enum types for validated string fields ---

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// AVLogLevel selects how chatty the linked FFmpeg libraries are. Values map
// 1:1 onto libav log levels; anything at or below the level is forwarded to
// the logger by the avlog bridge.
type AVLogLevel string

const (
	AVLogQuiet   AVLogLevel = "quiet"
	AVLogError   AVLogLevel = "error" // Default.
	AVLogWarning AVLogLevel = "warning"
	AVLogInfo    AVLogLevel = "info"
	AVLogVerbose AVLogLevel = "verbose"
	AVLogDebug   AVLogLevel = "debug"
)

// Quality bounds for the MJPEG quantizer-scale knob. The value is handed to
// the encoder as a fixed quantizer, not mapped through a quality curve:
// 1 is the finest quantization, 100 the coarsest. The default of 100 matches
// the legacy restore tool.
const (
	QualityMin     = 1
	QualityMax     = 100
	QualityDefault = 100
)

// Config holds all runtime settings. It is populated by [DefaultConfig],
// overlaid with STILLMASTER_* environment variables by [FromEnv], and then
// mutated by [ParseFlags] before being passed (by pointer) to packages that
// need it. Precedence: built-in defaults < environment < explicit flags.
type Config struct {
	// Paths (set from positional args).
	VideoDir  string
	OutputDir string

	// Job selection. Empty means discovery mode: every video in VideoDir
	// with a sibling <stem>.txt index becomes a job. Non-empty means
	// manifest mode: exactly these camera prefixes, each of which must
	// resolve to a video file.
	Cameras []string `env:"STILLMASTER_CAMERAS" envSeparator:","`

	// Still encoding.
	Quality int `env:"STILLMASTER_QUALITY"` // MJPEG quantizer scale, 1..100 passthrough.

	// Behavior flags.
	DryRun      bool
	CheckOnly   bool // Run --check diagnostics and exit.
	AnalyzeOnly bool // Probe and tabulate jobs, write nothing.

	// Display and logging.
	Verbose    bool       `env:"STILLMASTER_VERBOSE"`
	ColorMode  ColorMode  `env:"STILLMASTER_COLOR"`
	LogFile    string     `env:"STILLMASTER_LOG"` // Optional log file path.
	AVLogLevel AVLogLevel `env:"STILLMASTER_AV_LOGLEVEL"`
}

// DefaultConfig returns a Config with all defaults matching the legacy
// restore tool's behavior. Used as the base before [FromEnv] and [ParseFlags]
// apply overrides.
func DefaultConfig() Config {
	return Config{
		Quality:     QualityDefault,
		DryRun:      false,
		Verbose:     false,
		ColorMode:   ColorAuto,
		AVLogLevel:  AVLogError,
		CheckOnly:   false,
		AnalyzeOnly: false,
	}
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// Validate checks enum fields, the quality range, and the camera list. When
// not in CheckOnly mode it also requires the positional paths that the active
// mode needs (video_dir for analyze, video_dir and output_dir for a run).
func (c *Config) Validate() error {
	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return fmt.Errorf("invalid color mode %q (use 'auto', 'always' or 'never')", c.ColorMode)
	}

	switch c.AVLogLevel {
	case AVLogQuiet, AVLogError, AVLogWarning, AVLogInfo, AVLogVerbose, AVLogDebug:
		// valid
	default:
		return fmt.Errorf("invalid av loglevel %q (use quiet|error|warning|info|verbose|debug)", c.AVLogLevel)
	}

	if c.Quality < QualityMin || c.Quality > QualityMax {
		return fmt.Errorf("quality must be %d..%d (got %d)", QualityMin, QualityMax, c.Quality)
	}

	cameras, err := normalizeCameras(c.Cameras)
	if err != nil {
		return err
	}
	c.Cameras = cameras

	if c.CheckOnly {
		return nil
	}
	if c.AnalyzeOnly {
		if c.VideoDir == "" {
			return errors.New("analyze needs a video_dir argument")
		}
		return nil
	}
	if c.VideoDir == "" || c.OutputDir == "" {
		return errors.New("need exactly video_dir and output_dir")
	}
	return nil
}

// normalizeCameras trims whitespace, drops empty entries, and rejects
// prefixes containing path separators (a prefix names a file stem inside
// video_dir, never a path).
func normalizeCameras(raw []string) ([]string, error) {
	var out []string
	for _, cam := range raw {
		cam = strings.TrimSpace(cam)
		if cam == "" {
			continue
		}
		if strings.ContainsAny(cam, `/\`) {
			return nil, fmt.Errorf("invalid camera prefix %q (must not contain path separators)", cam)
		}
		out = append(out, cam)
	}
	return out, nil
}

// ValidatePaths ensures the resolved output directory is not inside (or equal
// to) the resolved video directory. Restored stills landing next to the
// source footage would be rediscovered as inputs on the next run. Both
// arguments must be absolute, symlink-resolved paths.
func (c *Config) ValidatePaths(videoAbs, outputAbs string) error {
	sep := string(filepath.Separator)
	if outputAbs == videoAbs || strings.HasPrefix(outputAbs+sep, videoAbs+sep) {
		return errors.New("output directory must not be inside video directory")
	}
	return nil
}
