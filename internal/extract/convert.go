package extract

import (
	"errors"
	"fmt"

	"github.com/asticode/go-astiav"
)

// converter rewrites frames into the JPEG-range 4:2:0 planar layout. The
// scale context is format-only: input and output share the decoder's
// resolution, bilinear resampling handles the chroma relayout.
type converter struct {
	ssc  *astiav.SoftwareScaleContext
	w, h int
}

func newConverter(w, h int, src astiav.PixelFormat) (*converter, error) {
	ssc, err := astiav.CreateSoftwareScaleContext(
		w, h, src,
		w, h, astiav.PixelFormatYuvj420P,
		astiav.NewSoftwareScaleContextFlags(astiav.SoftwareScaleContextFlagBilinear),
	)
	if err != nil {
		return nil, fmt.Errorf("conversion context (%dx%d %s): %w", w, h, src.String(), err)
	}
	return &converter{ssc: ssc, w: w, h: h}, nil
}

// convert produces an independently owned normalized copy of src. The caller
// frees the returned frame once its encode attempt is over.
func (c *converter) convert(src *astiav.Frame) (*astiav.Frame, error) {
	dst := allocFrame()
	if dst == nil {
		return nil, errors.New("allocate normalized frame")
	}
	dst.SetWidth(c.w)
	dst.SetHeight(c.h)
	dst.SetPixelFormat(astiav.PixelFormatYuvj420P)
	if err := dst.AllocBuffer(1); err != nil {
		dst.Free()
		return nil, fmt.Errorf("allocate normalized frame: %w", err)
	}
	if err := c.ssc.ScaleFrame(src, dst); err != nil {
		dst.Free()
		return nil, fmt.Errorf("convert frame: %w", err)
	}
	return dst, nil
}

func (c *converter) close() {
	if c.ssc != nil {
		c.ssc.Free()
		c.ssc = nil
	}
}
