package extract

// Report is the per-job outcome. FramesSeen counts decoded frames that
// consumed an index entry, whether or not their encode succeeded; frames
// decoded after the list ran out are dropped without being counted anywhere.
type Report struct {
	ListLen       int
	FramesSeen    int
	FramesEncoded int
	BytesWritten  int64
	PacketErrors  int // packets the decoder rejected, plus hard receive errors
	FrameErrors   int // convert or encode failures
}

// OK reports whether every decoded frame that had a name was written. Jobs
// that abort before the decode loop return an error instead and never reach
// this check.
func (r Report) OK() bool {
	return r.PacketErrors == 0 && r.FrameErrors == 0
}
