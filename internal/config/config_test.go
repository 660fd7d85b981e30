package config

import (
	"os"
	"testing"
)

func TestNormalizeDirArg(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no trailing slash", "/data/footage", "/data/footage"},
		{"single trailing slash", "/data/footage/", "/data/footage"},
		{"multiple trailing slashes", "/data/footage///", "/data/footage"},
		{"root path", "/", "/"},
		{"relative path", "output", "output"},
		{"relative with slash", "output/", "output"},
		{"empty string", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeDirArg(tt.in)
			if got != tt.want {
				t.Errorf("NormalizeDirArg(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidate_ColorMode(t *testing.T) {
	tests := []struct {
		name    string
		mode    ColorMode
		wantErr bool
	}{
		{"auto is valid", ColorAuto, false},
		{"always is valid", ColorAlways, false},
		{"never is valid", ColorNever, false},
		{"empty is invalid", "", true},
		{"unknown is invalid", "rainbow", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.CheckOnly = true // skip path requirement
			cfg.ColorMode = tt.mode
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_AVLogLevel(t *testing.T) {
	tests := []struct {
		name    string
		level   AVLogLevel
		wantErr bool
	}{
		{"quiet is valid", AVLogQuiet, false},
		{"error is valid", AVLogError, false},
		{"warning is valid", AVLogWarning, false},
		{"debug is valid", AVLogDebug, false},
		{"empty is invalid", "", true},
		{"trace is invalid", "trace", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.CheckOnly = true
			cfg.AVLogLevel = tt.level
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_QualityRange(t *testing.T) {
	tests := []struct {
		name    string
		quality int
		wantErr bool
	}{
		{"min is valid", 1, false},
		{"max is valid", 100, false},
		{"middle is valid", 50, false},
		{"zero is invalid", 0, true},
		{"negative is invalid", -3, true},
		{"above max is invalid", 101, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.CheckOnly = true
			cfg.Quality = tt.quality
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_NormalizesCameras(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CheckOnly = true
	cfg.Cameras = []string{" front_190 ", "", "rear_190", "  "}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}

	want := []string{"front_190", "rear_190"}
	if len(cfg.Cameras) != len(want) {
		t.Fatalf("Cameras = %v, want %v", cfg.Cameras, want)
	}
	for i := range want {
		if cfg.Cameras[i] != want[i] {
			t.Errorf("Cameras[%d] = %q, want %q", i, cfg.Cameras[i], want[i])
		}
	}
}

func TestValidate_RejectsCameraPathSeparators(t *testing.T) {
	for _, cam := range []string{"a/b", `a\b`, "../escape"} {
		cfg := DefaultConfig()
		cfg.CheckOnly = true
		cfg.Cameras = []string{cam}
		if err := cfg.Validate(); err == nil {
			t.Errorf("Validate() should reject camera prefix %q", cam)
		}
	}
}

func TestValidate_RequiresPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VideoDir = ""
	cfg.OutputDir = ""

	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should fail when paths are empty and CheckOnly is false")
	}

	cfg.VideoDir = "/in"
	cfg.OutputDir = "/out"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestValidate_AnalyzeNeedsVideoDirOnly(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AnalyzeOnly = true
	cfg.VideoDir = ""

	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should fail when analyze has no video_dir")
	}

	cfg.VideoDir = "/footage"
	cfg.OutputDir = ""
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestValidate_CheckOnlySkipsPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CheckOnly = true
	cfg.VideoDir = ""
	cfg.OutputDir = ""

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() should pass with empty paths when CheckOnly is true, got: %v", err)
	}
}

func TestValidatePaths(t *testing.T) {
	tests := []struct {
		name    string
		video   string
		output  string
		wantErr bool
	}{
		{"separate directories", "/data/in", "/data/out", false},
		{"output equals video dir", "/data/cams", "/data/cams", true},
		{"output inside video dir", "/data/cams", "/data/cams/stills", true},
		{"output is parent of video dir", "/data/cams/sub", "/data/cams", false},
		{"similar prefix not nested", "/data/footage", "/data/footage2", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			err := cfg.ValidatePaths(tt.video, tt.output)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePaths(%q, %q) error = %v, wantErr %v",
					tt.video, tt.output, err, tt.wantErr)
			}
		})
	}
}

func TestDefaultConfig_SaneDefaults(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Quality != QualityDefault {
		t.Errorf("default Quality = %d, want %d", cfg.Quality, QualityDefault)
	}
	if cfg.ColorMode != ColorAuto {
		t.Errorf("default ColorMode = %q, want %q", cfg.ColorMode, ColorAuto)
	}
	if cfg.AVLogLevel != AVLogError {
		t.Errorf("default AVLogLevel = %q, want %q", cfg.AVLogLevel, AVLogError)
	}
	if len(cfg.Cameras) != 0 {
		t.Errorf("default Cameras = %v, want empty (discovery mode)", cfg.Cameras)
	}
	if cfg.DryRun {
		t.Error("default DryRun should be false")
	}
}

func TestFromEnv_Overlay(t *testing.T) {
	t.Setenv("STILLMASTER_QUALITY", "7")
	t.Setenv("STILLMASTER_CAMERAS", "front_190,rear_190")
	t.Setenv("STILLMASTER_AV_LOGLEVEL", "warning")

	cfg := DefaultConfig()
	if err := FromEnv(&cfg); err != nil {
		t.Fatalf("FromEnv: %v", err)
	}

	if cfg.Quality != 7 {
		t.Errorf("Quality = %d, want 7", cfg.Quality)
	}
	if len(cfg.Cameras) != 2 || cfg.Cameras[0] != "front_190" || cfg.Cameras[1] != "rear_190" {
		t.Errorf("Cameras = %v, want [front_190 rear_190]", cfg.Cameras)
	}
	if cfg.AVLogLevel != AVLogWarning {
		t.Errorf("AVLogLevel = %q, want %q", cfg.AVLogLevel, AVLogWarning)
	}
	// Vars that are unset keep their defaults.
	if cfg.ColorMode != ColorAuto {
		t.Errorf("ColorMode = %q, want untouched default %q", cfg.ColorMode, ColorAuto)
	}
}

// setArgs swaps os.Args for the duration of a test so ParseFlags can be
// driven directly.
func setArgs(t *testing.T, args ...string) {
	t.Helper()
	old := os.Args
	t.Cleanup(func() { os.Args = old })
	os.Args = append([]string{"stillmaster"}, args...)
}

func TestParseFlags_KeepsEnvOverlay(t *testing.T) {
	// Flag registration must not reset fields the environment already set.
	t.Setenv("STILLMASTER_VERBOSE", "true")
	t.Setenv("STILLMASTER_QUALITY", "42")

	cfg := DefaultConfig()
	if err := FromEnv(&cfg); err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if !cfg.Verbose {
		t.Fatal("FromEnv did not apply STILLMASTER_VERBOSE")
	}

	setArgs(t, "/in", "/out")
	if err := ParseFlags(&cfg, "test"); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}

	if !cfg.Verbose {
		t.Error("Verbose = false after ParseFlags, want STILLMASTER_VERBOSE=true to hold")
	}
	if cfg.Quality != 42 {
		t.Errorf("Quality = %d after ParseFlags, want env value 42", cfg.Quality)
	}
}

func TestParseFlags_FlagBeatsEnv(t *testing.T) {
	t.Setenv("STILLMASTER_QUALITY", "42")
	t.Setenv("STILLMASTER_VERBOSE", "true")

	cfg := DefaultConfig()
	if err := FromEnv(&cfg); err != nil {
		t.Fatalf("FromEnv: %v", err)
	}

	setArgs(t, "--quality", "5", "/in", "/out")
	if err := ParseFlags(&cfg, "test"); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}

	if cfg.Quality != 5 {
		t.Errorf("Quality = %d, want flag value 5 over env value 42", cfg.Quality)
	}
	if !cfg.Verbose {
		t.Error("Verbose = false, the untouched env value should survive other flags")
	}
}

func TestParseFlags_ColorOverrides(t *testing.T) {
	// The flags are a boolean force/disable pair; the three-way mode comes
	// from STILLMASTER_COLOR and holds when neither flag is passed.
	cfg := DefaultConfig()
	setArgs(t, "--no-color", "/in", "/out")
	if err := ParseFlags(&cfg, "test"); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	if cfg.ColorMode != ColorNever {
		t.Errorf("ColorMode = %q after --no-color, want %q", cfg.ColorMode, ColorNever)
	}

	cfg = DefaultConfig()
	setArgs(t, "--color", "/in", "/out")
	if err := ParseFlags(&cfg, "test"); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	if cfg.ColorMode != ColorAlways {
		t.Errorf("ColorMode = %q after --color, want %q", cfg.ColorMode, ColorAlways)
	}

	t.Setenv("STILLMASTER_COLOR", "never")
	cfg = DefaultConfig()
	if err := FromEnv(&cfg); err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	setArgs(t, "/in", "/out")
	if err := ParseFlags(&cfg, "test"); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	if cfg.ColorMode != ColorNever {
		t.Errorf("ColorMode = %q, want env mode %q to hold", cfg.ColorMode, ColorNever)
	}
}

func TestParseFlags_Positionals(t *testing.T) {
	cfg := DefaultConfig()
	setArgs(t, "/data/cams/", "/data/stills")
	if err := ParseFlags(&cfg, "test"); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	if cfg.VideoDir != "/data/cams" {
		t.Errorf("VideoDir = %q, want trailing slash stripped", cfg.VideoDir)
	}
	if cfg.OutputDir != "/data/stills" {
		t.Errorf("OutputDir = %q", cfg.OutputDir)
	}

	cfg = DefaultConfig()
	setArgs(t, "/data/cams")
	if err := ParseFlags(&cfg, "test"); err == nil {
		t.Error("ParseFlags should fail with one positional arg in run mode")
	}
}
