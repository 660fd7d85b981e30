// Package still writes single decoded frames to disk as JPEG files.
//
// Each frame gets its own short-lived MJPEG encoder, matching the legacy
// restore tool: open, one send, one receive, write, tear down. For a stream
// of stills from a fixed camera the per-frame setup cost is irrelevant next
// to the decode itself.
package still

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/asticode/go-astiav"
)

// qp2Lambda is FF_QP2LAMBDA: global_quality is expressed in lambda units,
// quantizer scale times this factor.
const qp2Lambda = 118

// ErrShortWrite marks an encode whose image bytes were produced but could
// not be fully persisted after the destination file was opened. Callers
// downgrade this to a warning, as the legacy restore tool did, so a
// truncated file can remain on disk.
var ErrShortWrite = errors.New("image not fully written")

// Encoder encodes normalized frames as JPEGs at a fixed quantizer scale.
// Quality is a direct quantizer-scale passthrough: 1 is finest, 100 is
// coarsest, and values beyond the codec's internal quantizer ceiling are
// clamped by libavcodec rather than rescaled.
type Encoder struct {
	quality int
}

// NewEncoder returns an encoder for the given quantizer scale.
func NewEncoder(quality int) *Encoder {
	return &Encoder{quality: quality}
}

// Available reports whether an MJPEG encoder is registered in the linked
// FFmpeg build.
func Available() bool {
	return astiav.FindEncoder(astiav.CodecIDMjpeg) != nil
}

// Encode compresses one frame and writes it to path, creating or truncating
// the file. The encoder is configured from the frame itself: exact
// dimensions, the frame's pixel format, and a nominal time base that only
// satisfies initialization. Exactly one packet is expected per frame.
// Failures up to and including opening the destination return plain errors;
// a failure while writing an already-open file returns ErrShortWrite.
func (e *Encoder) Encode(f *astiav.Frame, path string) error {
	codec := astiav.FindEncoder(astiav.CodecIDMjpeg)
	if codec == nil {
		return errors.New("mjpeg encoder not available")
	}
	cc := astiav.AllocCodecContext(codec)
	if cc == nil {
		return errors.New("allocate mjpeg encoder context")
	}
	defer cc.Free()

	cc.SetWidth(f.Width())
	cc.SetHeight(f.Height())
	cc.SetPixelFormat(f.PixelFormat())
	// Nominal rate; a still image has none, but the encoder needs one to open.
	cc.SetTimeBase(astiav.NewRational(1, 30))
	// Pass-through frames may still be in the MPEG-range 4:2:0 layout, which
	// newer libavcodec rejects at the default compliance level.
	cc.SetStrictStdCompliance(astiav.StrictStdComplianceExperimental)

	opts := astiav.NewDictionary()
	defer opts.Free()
	for _, kv := range qualityOptions(e.quality) {
		_ = opts.Set(kv[0], kv[1], 0)
	}

	if err := cc.Open(codec, opts); err != nil {
		return fmt.Errorf("open mjpeg encoder: %w", err)
	}

	pkt := astiav.AllocPacket()
	if pkt == nil {
		return errors.New("allocate packet")
	}
	defer pkt.Free()

	if err := cc.SendFrame(f); err != nil {
		return fmt.Errorf("send frame: %w", err)
	}
	if err := cc.ReceivePacket(pkt); err != nil {
		return fmt.Errorf("receive packet: %w", err)
	}

	out, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	_, werr := out.Write(pkt.Data())
	if cerr := out.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return fmt.Errorf("%w: %s: %v", ErrShortWrite, path, werr)
	}
	return nil
}

// qualityOptions expands the quantizer scale into the codec options that
// select fixed-quantizer encoding.
func qualityOptions(quality int) [][2]string {
	return [][2]string{
		{"flags", "+qscale"},
		{"global_quality", strconv.Itoa(quality * qp2Lambda)},
	}
}
