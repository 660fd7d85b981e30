// Package check provides system diagnostics (--check mode) and pre-run
// dependency validation (CheckDeps) against the linked FFmpeg libraries.
package check

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/asticode/go-astiav"

	"github.com/backmassage/stillmaster/internal/config"
	"github.com/backmassage/stillmaster/internal/still"
)

// Sentinel errors returned by CheckDeps when the linked build cannot encode
// stills.
var (
	ErrMjpegEncoderNotFound = errors.New("mjpeg encoder not present in the linked FFmpeg build")
	ErrEncodeTestFailed     = errors.New("mjpeg test encode failed")
)

// Logger is the minimal logging interface needed by RunCheck.
// Defined here (rather than importing the logging package) so that check
// remains dependency-light and testable with a mock logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
}

// commonDecoders are the codecs fixed-camera dumps actually show up in.
// Their absence is a warning, not an error: the run only fails on codecs it
// really meets.
var commonDecoders = []struct {
	name string
	id   astiav.CodecID
}{
	{"h264", astiav.CodecIDH264},
	{"hevc", astiav.CodecIDHevc},
	{"mjpeg", astiav.CodecIDMjpeg},
	{"mpeg4", astiav.CodecIDMpeg4},
}

// RunCheck runs the informational --check flow: decoder availability for
// common camera codecs, MJPEG encoder presence, and a real round-trip encode.
// It does not stop on failure.
func RunCheck(log Logger) {
	log.Info("=== System Check ===")

	checkDecoders(log)
	checkEncoder(log)
	checkEncodeTest(log)
}

func checkDecoders(log Logger) {
	log.Info("Decoders:")
	for _, c := range commonDecoders {
		if astiav.FindDecoder(c.id) != nil {
			log.Info("  %-6s available", c.name)
		} else {
			log.Warn("  %-6s missing", c.name)
		}
	}
}

func checkEncoder(log Logger) {
	if still.Available() {
		log.Success("MJPEG encoder present")
	} else {
		log.Error("MJPEG encoder missing")
	}
}

func checkEncodeTest(log Logger) {
	log.Info("Testing still encode...")
	if err := testEncode(); err != nil {
		log.Error("Still encode failed: %v", err)
		return
	}
	log.Success("Still encode works")
}

// CheckDeps is the pre-run validation: without a working MJPEG encoder no
// job can produce output, so there is no point opening the first container.
// Returns a sentinel error on failure.
func CheckDeps() error {
	if !still.Available() {
		return ErrMjpegEncoderNotFound
	}
	if err := testEncode(); err != nil {
		return ErrEncodeTestFailed
	}
	return nil
}

// testEncode round-trips one synthetic frame through the still encoder into
// a throwaway file.
func testEncode() error {
	dir, err := os.MkdirTemp("", "stillmaster-check-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	f := astiav.AllocFrame()
	if f == nil {
		return errors.New("allocate frame")
	}
	defer f.Free()
	f.SetWidth(64)
	f.SetHeight(64)
	f.SetPixelFormat(astiav.PixelFormatYuvj420P)
	if err := f.AllocBuffer(1); err != nil {
		return err
	}
	// Content is whatever the allocator handed back; the test only cares
	// that the encoder round-trips a frame.
	return still.NewEncoder(config.QualityDefault).Encode(f, filepath.Join(dir, "probe.jpg"))
}
