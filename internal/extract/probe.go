package extract

// StreamInfo describes the first video stream of a container the way
// extraction would use it: the decoder that would be picked, the native
// geometry and pixel layout, and whether the conversion path would run.
type StreamInfo struct {
	CodecName       string
	Width           int
	Height          int
	PixelFormat     string
	NeedsConversion bool
}

// Probe opens videoPath just far enough to fill a StreamInfo, then releases
// everything. No packets are read and nothing is written; analysis mode runs
// this once per camera.
func Probe(videoPath string) (StreamInfo, error) {
	s, err := openSession(videoPath)
	if err != nil {
		return StreamInfo{}, err
	}
	defer s.close()
	return StreamInfo{
		CodecName:       s.codecName,
		Width:           s.dec.Width(),
		Height:          s.dec.Height(),
		PixelFormat:     s.dec.PixelFormat().String(),
		NeedsConversion: s.conv != nil,
	}, nil
}
