package still

import "testing"

func TestQualityOptions(t *testing.T) {
	tests := []struct {
		quality    int
		wantGlobal string
	}{
		{1, "118"},
		{2, "236"},
		{100, "11800"},
	}
	for _, tt := range tests {
		opts := qualityOptions(tt.quality)
		if len(opts) != 2 {
			t.Fatalf("quality %d: got %d options, want 2", tt.quality, len(opts))
		}
		if opts[0] != [2]string{"flags", "+qscale"} {
			t.Errorf("quality %d: first option = %v", tt.quality, opts[0])
		}
		if opts[1][0] != "global_quality" || opts[1][1] != tt.wantGlobal {
			t.Errorf("quality %d: global_quality = %v, want %s", tt.quality, opts[1], tt.wantGlobal)
		}
	}
}

func TestNewEncoder_KeepsQuality(t *testing.T) {
	e := NewEncoder(7)
	if e.quality != 7 {
		t.Errorf("quality = %d, want 7", e.quality)
	}
}
