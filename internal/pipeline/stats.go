package pipeline

// RunStats tracks aggregate counters and byte totals across a batch run.
type RunStats struct {
	Total            int // jobs planned, including ones that failed to resolve
	Current          int
	Succeeded        int
	Skipped          int // discovered videos left out (no index, duplicate camera)
	Failed           int
	FramesSeen       int
	FramesWritten    int
	TotalOutputBytes int64
}

// AllOK reports whether every planned job completed cleanly.
func (s *RunStats) AllOK() bool {
	return s.Failed == 0
}
