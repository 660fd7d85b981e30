package config

// This file implements CLI flag parsing and help text.
// Flags are grouped into extraction, behavior, display, and utility.
// Color flags (--color / --no-color) are applied after Parse so the ColorMode
// default (possibly set from the environment) holds unless the user passes one.

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// ParseFlags parses os.Args into cfg. On --help or --version it prints and
// exits. On error it returns non-nil (e.g. unknown flag, missing positional
// args). version is injected by main for the help/version output.
func ParseFlags(cfg *Config, version string) error {
	fs := flag.NewFlagSet("stillmaster", flag.ContinueOnError)
	fs.Usage = func() { printUsage(version) }

	var negated negatedFlags

	defineExtractionFlags(fs, cfg)
	defineBehaviorFlags(fs, cfg)
	defineDisplayFlags(fs, cfg, &negated)
	defineUtilityFlags(fs, &negated)

	if err := fs.Parse(os.Args[1:]); err != nil {
		return err
	}

	applyNegatedFlags(cfg, &negated)

	if negated.showHelp {
		printUsage(version)
		os.Exit(0)
	}
	if negated.showVersion {
		fmt.Fprintln(os.Stdout, "stillmaster v"+version)
		os.Exit(0)
	}

	return parsePositionalArgs(fs, cfg)
}

// negatedFlags holds boolean flags that are applied after Parse. These either
// override ColorMode or trigger exit (showHelp, showVersion).
type negatedFlags struct {
	forceColor  bool
	noColor     bool
	showVersion bool
	showHelp    bool
}

// defineExtractionFlags registers --cameras and -q/--quality.
func defineExtractionFlags(fs *flag.FlagSet, cfg *Config) {
	fs.Var(&cameraListValue{&cfg.Cameras}, "cameras", "Comma-separated camera prefixes (default: discover)")
	fs.IntVar(&cfg.Quality, "quality", cfg.Quality, "MJPEG quantizer scale 1..100 (passthrough; 1 finest)")
	fs.IntVar(&cfg.Quality, "q", cfg.Quality, "Same as --quality")
}

// defineBehaviorFlags registers dry-run, analyze, check.
func defineBehaviorFlags(fs *flag.FlagSet, cfg *Config) {
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "Preview only; decode nothing, write nothing")
	fs.BoolVar(&cfg.DryRun, "d", false, "Same as --dry-run")
	fs.BoolVar(&cfg.AnalyzeOnly, "analyze", false, "Tabulate stream/index info per camera and exit")
	fs.BoolVar(&cfg.AnalyzeOnly, "a", false, "Same as --analyze")
	fs.BoolVar(&cfg.CheckOnly, "check", false, "Run codec diagnostics and exit")
	fs.BoolVar(&cfg.CheckOnly, "c", false, "Same as --check")
}

// defineDisplayFlags registers --color, --no-color, verbose, --log, --av-loglevel.
func defineDisplayFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.BoolVar(&n.forceColor, "color", false, "Force colored logs")
	fs.BoolVar(&n.noColor, "no-color", false, "Disable colored logs")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "Verbose output (per-frame detail)")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Same as --verbose")
	fs.StringVar(&cfg.LogFile, "log", cfg.LogFile, "Append logs to file")
	fs.StringVar(&cfg.LogFile, "l", cfg.LogFile, "Same as --log")
	fs.Var(&avLogLevelValue{&cfg.AVLogLevel}, "av-loglevel", "FFmpeg library log level: quiet|error|warning|info|verbose|debug")
}

// defineUtilityFlags registers --version and --help (exit after printing).
func defineUtilityFlags(fs *flag.FlagSet, n *negatedFlags) {
	fs.BoolVar(&n.showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&n.showVersion, "V", false, "Same as --version")
	fs.BoolVar(&n.showHelp, "help", false, "Show this help and exit")
	fs.BoolVar(&n.showHelp, "h", false, "Same as --help")
}

// applyNegatedFlags copies color override flags into cfg.
func applyNegatedFlags(cfg *Config, n *negatedFlags) {
	if n.noColor {
		cfg.ColorMode = ColorNever
	} else if n.forceColor {
		cfg.ColorMode = ColorAlways
	}
}

// parsePositionalArgs sets VideoDir and OutputDir from the positional args.
// --check takes none, --analyze takes video_dir only, a normal run takes both.
func parsePositionalArgs(fs *flag.FlagSet, cfg *Config) error {
	args := fs.Args()
	if cfg.CheckOnly {
		return nil
	}
	if cfg.AnalyzeOnly {
		if len(args) != 1 {
			return fmt.Errorf("analyze needs exactly video_dir")
		}
		cfg.VideoDir = NormalizeDirArg(args[0])
		return nil
	}
	if len(args) != 2 {
		return fmt.Errorf("need exactly video_dir and output_dir")
	}
	cfg.VideoDir = NormalizeDirArg(args[0])
	cfg.OutputDir = NormalizeDirArg(args[1])
	return nil
}

// printUsage writes the help text to stderr. Column-aligned for readability.
func printUsage(version string) {
	const col1 = 30 // width of "  -x, --long-name <arg>  "
	lines := []struct {
		flags string
		desc  string
	}{
		{"", "Stillmaster v" + version + " — fixed-camera footage frame restorer"},
		{"", ""},
		{"  stillmaster [OPTIONS] <video_dir> <output_dir>", ""},
		{"  stillmaster --analyze [OPTIONS] <video_dir>", ""},
		{"  stillmaster --check", ""},
		{"", ""},
		{"Extraction", ""},
		{"  --cameras <a,b,c>", "Camera prefixes to restore (default: discover all)"},
		{"  -q, --quality <1..100>", "MJPEG quantizer scale, passed straight to the"},
		{"", "encoder: 1 finest, 100 coarsest (default: 100)"},
		{"", ""},
		{"Behavior", ""},
		{"  -d, --dry-run", "Preview jobs only; decode nothing, write nothing"},
		{"  -a, --analyze", "Tabulate stream/index info per camera and exit"},
		{"  -c, --check", "Codec diagnostics (decoders, MJPEG, self-test)"},
		{"", ""},
		{"Display", ""},
		{"  --color", "Force colored logs"},
		{"  --no-color", "Disable colored logs"},
		{"  -v, --verbose", "Verbose output (per-frame detail)"},
		{"  --av-loglevel <level>", "FFmpeg library log level (default: error)"},
		{"", ""},
		{"Utility", ""},
		{"  -l, --log <path>", "Append logs to file"},
		{"  -V, --version", "Print version and exit"},
		{"  -h, --help", "Show this help and exit"},
		{"", ""},
		{"Environment", ""},
		{"  STILLMASTER_QUALITY, STILLMASTER_CAMERAS, STILLMASTER_COLOR,", ""},
		{"  STILLMASTER_LOG, STILLMASTER_AV_LOGLEVEL, STILLMASTER_VERBOSE", ""},
		{"", "Defaults < environment < flags."},
	}

	for _, l := range lines {
		if l.flags == "" && l.desc == "" {
			fmt.Fprintln(os.Stderr)
			continue
		}
		if l.desc == "" {
			fmt.Fprintln(os.Stderr, l.flags)
			continue
		}
		if l.flags == "" {
			fmt.Fprintln(os.Stderr, strings.Repeat(" ", col1)+l.desc)
			continue
		}
		padding := col1 - len(l.flags)
		if padding < 1 {
			padding = 1
		}
		fmt.Fprintf(os.Stderr, "%s%*s%s\n", l.flags, padding, "", l.desc)
	}
}

// flag.Value adapters so we can use the AVLogLevel enum and the camera list
// with flag.Var.

type avLogLevelValue struct{ p *AVLogLevel }

func (a *avLogLevelValue) String() string { return string(*a.p) }
func (a *avLogLevelValue) Set(s string) error {
	switch strings.ToLower(s) {
	case "quiet":
		*a.p = AVLogQuiet
	case "error":
		*a.p = AVLogError
	case "warning":
		*a.p = AVLogWarning
	case "info":
		*a.p = AVLogInfo
	case "verbose":
		*a.p = AVLogVerbose
	case "debug":
		*a.p = AVLogDebug
	default:
		return fmt.Errorf("invalid av loglevel %q (use quiet|error|warning|info|verbose|debug)", s)
	}
	return nil
}

type cameraListValue struct{ p *[]string }

func (c *cameraListValue) String() string { return strings.Join(*c.p, ",") }
func (c *cameraListValue) Set(s string) error {
	*c.p = strings.Split(s, ",")
	return nil
}
