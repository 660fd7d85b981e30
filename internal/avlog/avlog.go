// Package avlog routes libav's global log output through the tool's logger.
// Without it, FFmpeg writes straight to stderr and ignores --log and color
// settings.
package avlog

import (
	"strings"
	"sync"

	"github.com/asticode/go-astiav"

	"github.com/backmassage/stillmaster/internal/config"
	"github.com/backmassage/stillmaster/internal/logging"
)

var once sync.Once

// Init installs the libav log callback and threshold. The callback is
// process-global in libav, so Init applies only on first call; later calls
// are no-ops. Call before the first container is opened.
//
// libav verbose/debug lines are forwarded at debug level and therefore show
// up only when the tool itself runs with --verbose.
func Init(level config.AVLogLevel, log *logging.Logger) {
	once.Do(func() {
		astiav.SetLogLevel(toAstiav(level))
		astiav.SetLogCallback(func(c astiav.Classer, l astiav.LogLevel, format, msg string) {
			route(log, c, l, msg)
		})
	})
}

// route forwards one libav line at the closest matching logger level.
func route(log *logging.Logger, c astiav.Classer, level astiav.LogLevel, msg string) {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return
	}
	if c != nil {
		if cl := c.Class(); cl != nil {
			msg = msg + " (" + cl.String() + ")"
		}
	}
	switch {
	case level <= astiav.LogLevelError:
		log.Error("libav: %s", msg)
	case level <= astiav.LogLevelWarning:
		log.Warn("libav: %s", msg)
	case level <= astiav.LogLevelInfo:
		log.Info("libav: %s", msg)
	default:
		log.Debug("libav: %s", msg)
	}
}

func toAstiav(level config.AVLogLevel) astiav.LogLevel {
	switch level {
	case config.AVLogQuiet:
		return astiav.LogLevelQuiet
	case config.AVLogError:
		return astiav.LogLevelError
	case config.AVLogWarning:
		return astiav.LogLevelWarning
	case config.AVLogInfo:
		return astiav.LogLevelInfo
	case config.AVLogVerbose:
		return astiav.LogLevelVerbose
	case config.AVLogDebug:
		return astiav.LogLevelDebug
	default:
		return astiav.LogLevelError
	}
}
