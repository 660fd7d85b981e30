// Package logging wraps zap behind the printf-style surface the rest of the
// tool uses (Info/Success/Warn/Error/Debug). Console output goes through a
// colored console encoder; --log adds a plain-text file core via a tee.
package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/backmassage/stillmaster/internal/config"
	"github.com/backmassage/stillmaster/internal/term"
)

const timeLayout = "2006-01-02 15:04:05"

// Logger provides leveled, optionally colored logging with an optional file
// sink. Derived loggers from [Logger.With] share the underlying cores; only
// the logger returned by [NewLogger] owns the file handle.
type Logger struct {
	zl   *zap.Logger
	s    *zap.SugaredLogger
	file *os.File
}

// NewLogger configures terminal colors from cfg, builds the console core(s)
// (errors to stderr, everything else to stdout), and optionally opens
// cfg.LogFile for a plain-text file core. Call Close() when done if LogFile
// was set.
func NewLogger(cfg *config.Config) (*Logger, error) {
	term.Configure(cfg.ColorMode)

	minLevel := zapcore.InfoLevel
	if cfg.Verbose {
		minLevel = zapcore.DebugLevel
	}

	enc := consoleEncoderConfig()
	if term.Enabled() {
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	consoleEnc := zapcore.NewConsoleEncoder(enc)

	// Errors go to stderr; everything else to stdout. Matches the legacy
	// tool so shell redirection keeps working.
	errOnly := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= zapcore.ErrorLevel
	})
	outOnly := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= minLevel && l < zapcore.ErrorLevel
	})

	cores := []zapcore.Core{
		zapcore.NewCore(consoleEnc, zapcore.Lock(os.Stdout), outOnly),
		zapcore.NewCore(consoleEnc, zapcore.Lock(os.Stderr), errOnly),
	}

	var file *os.File
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		file = f
		fileEnc := zapcore.NewConsoleEncoder(consoleEncoderConfig())
		cores = append(cores, zapcore.NewCore(fileEnc, zapcore.Lock(f), minLevel))
	}

	zl := zap.New(zapcore.NewTee(cores...))
	return &Logger{zl: zl, s: zl.Sugar(), file: file}, nil
}

// consoleEncoderConfig is the shared line layout: timestamp, capital level,
// message, then any structured fields. The file sink never gets ANSI codes.
func consoleEncoderConfig() zapcore.EncoderConfig {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	enc.ConsoleSeparator = " "
	return enc
}

// NewNop returns a logger that discards everything. For tests.
func NewNop() *Logger {
	zl := zap.NewNop()
	return &Logger{zl: zl, s: zl.Sugar()}
}

// newWithCore builds a Logger over an arbitrary core; used by tests to
// attach an observer.
func newWithCore(core zapcore.Core) *Logger {
	zl := zap.New(core)
	return &Logger{zl: zl, s: zl.Sugar()}
}

// With returns a derived logger with structured key-value context attached
// to every line (e.g. "camera", "job_id"). The derived logger shares cores
// with its parent and must not be Closed.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	s := l.s.With(keysAndValues...)
	return &Logger{zl: s.Desugar(), s: s}
}

// Close flushes buffered entries and closes the log file if one was opened.
func (l *Logger) Close() error {
	_ = l.zl.Sync() // stdout sync fails on some platforms; harmless
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// Info logs at INFO level.
func (l *Logger) Info(format string, args ...interface{}) {
	l.s.Infof(format, args...)
}

// Success logs a completion event. Rendered at INFO level; kept as a separate
// method so call sites read the same as in the legacy tool.
func (l *Logger) Success(format string, args ...interface{}) {
	l.s.Infof(format, args...)
}

// Warn logs at WARN level.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.s.Warnf(format, args...)
}

// Error logs at ERROR level (routed to stderr).
func (l *Logger) Error(format string, args ...interface{}) {
	l.s.Errorf(format, args...)
}

// Debug logs at DEBUG level; silenced unless the logger was built with
// cfg.Verbose.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.s.Debugf(format, args...)
}
