// Package extract implements the per-job frame extraction pipeline: demux
// the container, decode the first video stream in software, normalize pixel
// formats where needed, and write one JPEG per decoded frame using the
// names from the job's index file, in order.
package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/asticode/go-astiav"

	"github.com/backmassage/stillmaster/internal/framelist"
	"github.com/backmassage/stillmaster/internal/logging"
	"github.com/backmassage/stillmaster/internal/still"
)

// Frame and packet allocation go through these vars so tests can exercise
// the allocation-failure paths.
var (
	allocPacket = astiav.AllocPacket
	allocFrame  = astiav.AllocFrame
)

// Request is one extraction job: decode VideoPath, name frames from
// IndexPath, write JPEGs into OutputDir at the given quantizer scale.
type Request struct {
	VideoPath string
	IndexPath string
	OutputDir string
	Quality   int
}

// Run executes one job to completion. A non-nil error means the job aborted
// before or during setup (bad paths, unreadable index, unopenable container,
// no usable stream) or was cancelled; per-frame problems are counted in the
// Report instead and leave the loop running so the job salvages as many
// frames as it can. Files already written stay on disk either way.
func Run(ctx context.Context, req Request, log *logging.Logger) (Report, error) {
	var rep Report

	if _, err := os.Stat(req.VideoPath); err != nil {
		return rep, fmt.Errorf("video file: %w", err)
	}
	if _, err := os.Stat(req.IndexPath); err != nil {
		return rep, fmt.Errorf("index file: %w", err)
	}
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return rep, fmt.Errorf("output directory: %w", err)
	}

	names, err := framelist.Load(req.IndexPath)
	if err != nil {
		return rep, err
	}
	rep.ListLen = len(names)

	s, err := openSession(req.VideoPath)
	if err != nil {
		return rep, err
	}
	defer s.close()

	log.Info("stream: %s %dx%d %s, conversion %s, %d names queued",
		s.codecName, s.dec.Width(), s.dec.Height(), s.dec.PixelFormat().String(),
		conversionLabel(s.conv), rep.ListLen)

	enc := still.NewEncoder(req.Quality)

	pkt := allocPacket()
	if pkt == nil {
		return rep, errors.New("allocate packet")
	}
	defer pkt.Free()
	frame := allocFrame()
	if frame == nil {
		return rep, errors.New("allocate frame")
	}
	defer frame.Free()

	for {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		if err := s.fc.ReadFrame(pkt); err != nil {
			if !errors.Is(err, astiav.ErrEof) {
				// A truncated dump reads like this. Keep whatever the
				// decoder still holds instead of failing the job.
				log.Warn("read packet: %v, treating container as exhausted", err)
			}
			break
		}
		if pkt.StreamIndex() != s.stream.Index() {
			pkt.Unref()
			continue
		}
		err := s.dec.SendPacket(pkt)
		pkt.Unref()
		if err != nil {
			rep.PacketErrors++
			log.Warn("decoder rejected packet: %v", err)
			continue
		}
		drain(s, frame, names, enc, req.OutputDir, &rep, log)
	}

	// End of stream: flush the decoder and deliver what it still buffers,
	// with the same naming and conversion rules as the main loop.
	if err := s.dec.SendPacket(nil); err != nil && !errors.Is(err, astiav.ErrEof) {
		rep.PacketErrors++
		log.Warn("flush decoder: %v", err)
	}
	drain(s, frame, names, enc, req.OutputDir, &rep, log)

	return rep, nil
}

// drain pulls every frame the decoder currently has ready and delivers each
// one. EAGAIN and EOF both mean the decoder is done for now; anything else
// is a decode-state problem that ends this drain but not the job.
func drain(s *session, frame *astiav.Frame, names []string, enc *still.Encoder, outDir string, rep *Report, log *logging.Logger) {
	for {
		if err := s.dec.ReceiveFrame(frame); err != nil {
			if errors.Is(err, astiav.ErrEagain) || errors.Is(err, astiav.ErrEof) {
				return
			}
			rep.PacketErrors++
			log.Warn("receive frame: %v", err)
			return
		}
		deliver(s, frame, names, enc, outDir, rep, log)
		frame.Unref()
	}
}

// nextName returns the positional name for the seen-th decoded frame, or
// false once the list is exhausted.
func nextName(names []string, seen int) (string, bool) {
	if seen >= len(names) {
		return "", false
	}
	return names[seen], true
}

// deliver names, converts, and encodes one decoded frame. Once the index
// list is exhausted the frame is dropped outright; decode keeps running so
// the container is still fully consumed. A convert or encode failure burns
// the frame's name slot, matching the positional contract: entry N always
// belongs to decoded frame N, never to a later stand-in.
func deliver(s *session, frame *astiav.Frame, names []string, enc *still.Encoder, outDir string, rep *Report, log *logging.Logger) {
	name, ok := nextName(names, rep.FramesSeen)
	if !ok {
		return
	}
	rep.FramesSeen++

	src := frame
	if s.conv != nil {
		dst, err := s.conv.convert(frame)
		if err != nil {
			rep.FrameErrors++
			log.Warn("frame %d: %v", rep.FramesSeen-1, err)
			return
		}
		defer dst.Free()
		src = dst
	}

	path := filepath.Join(outDir, name+".jpg")
	if err := enc.Encode(src, path); err != nil {
		if !errors.Is(err, still.ErrShortWrite) {
			rep.FrameErrors++
			log.Warn("frame %d: %v", rep.FramesSeen-1, err)
			return
		}
		// The image was produced; only persisting it broke. The legacy tool
		// never checked this write, so it stays a warning, not a failed frame.
		log.Warn("frame %d: %v", rep.FramesSeen-1, err)
	}
	rep.FramesEncoded++
	if fi, err := os.Stat(path); err == nil {
		rep.BytesWritten += fi.Size()
	}
	log.Debug("wrote %s", path)
}

func conversionLabel(c *converter) string {
	if c == nil {
		return "off"
	}
	return "on"
}
