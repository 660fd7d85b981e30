package extract

import (
	"errors"
	"fmt"

	"github.com/asticode/go-astiav"
)

// session owns the demuxer, the selected video stream, the decoder, and the
// optional format converter for one job. close releases everything in
// reverse-acquisition order and is safe on a partially built session.
type session struct {
	fc        *astiav.FormatContext
	stream    *astiav.Stream
	dec       *astiav.CodecContext
	conv      *converter // nil when the decoder output is already JPEG-compatible
	codecName string
}

// openSession opens the container, picks the first video stream, and builds
// a pure software decoder for it. No hardware device is ever attached, so
// decoding stays deterministic across hosts. The conversion decision is made
// here, once, from the decoder's reported pixel format.
func openSession(videoPath string) (*session, error) {
	fc := astiav.AllocFormatContext()
	if fc == nil {
		return nil, errors.New("allocate format context")
	}
	s := &session{fc: fc}

	if err := fc.OpenInput(videoPath, nil, nil); err != nil {
		fc.Free()
		return nil, fmt.Errorf("open %s: %w", videoPath, err)
	}
	if err := fc.FindStreamInfo(nil); err != nil {
		s.close()
		return nil, fmt.Errorf("probe streams: %w", err)
	}

	for _, st := range fc.Streams() {
		if st.CodecParameters().MediaType() == astiav.MediaTypeVideo {
			s.stream = st
			break
		}
	}
	if s.stream == nil {
		s.close()
		return nil, errors.New("no video stream")
	}

	par := s.stream.CodecParameters()
	codec := astiav.FindDecoder(par.CodecID())
	if codec == nil {
		s.close()
		return nil, fmt.Errorf("no decoder for codec id %v", par.CodecID())
	}
	s.codecName = codec.Name()

	dec := astiav.AllocCodecContext(codec)
	if dec == nil {
		s.close()
		return nil, errors.New("allocate decoder context")
	}
	s.dec = dec
	if err := par.ToCodecContext(dec); err != nil {
		s.close()
		return nil, fmt.Errorf("decoder parameters: %w", err)
	}
	if err := dec.Open(codec, nil); err != nil {
		s.close()
		return nil, fmt.Errorf("open %s decoder: %w", s.codecName, err)
	}

	if needsConversion(dec.PixelFormat()) {
		conv, err := newConverter(dec.Width(), dec.Height(), dec.PixelFormat())
		if err != nil {
			s.close()
			return nil, err
		}
		s.conv = conv
	}
	return s, nil
}

// needsConversion reports whether the decoder's native layout must be
// converted before JPEG encoding. The two 4:2:0 planar variants (MPEG range
// and JPEG range) go straight through.
func needsConversion(pf astiav.PixelFormat) bool {
	return pf != astiav.PixelFormatYuv420P && pf != astiav.PixelFormatYuvj420P
}

func (s *session) close() {
	if s.conv != nil {
		s.conv.close()
		s.conv = nil
	}
	if s.dec != nil {
		s.dec.Free()
		s.dec = nil
	}
	if s.fc != nil {
		s.fc.CloseInput()
		s.fc.Free()
		s.fc = nil
	}
}
