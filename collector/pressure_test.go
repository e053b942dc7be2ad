package collector

import "testing"

func TestClassifyPressure(t *testing.T) {
	const total = 16384 // MB

	tests := []struct {
		name   string
		freeMB int64
		swapMB int64
		want   Pressure
	}{
		{"free below 5%", 655, 0, PressureHigh},    // 4% of total
		{"heavy swap", total / 2, 300, PressureHigh},
		{"free below 10%", 1310, 0, PressureMedium}, // 8% of total
		{"any swap in use", total / 2, 1, PressureMedium},
		{"plenty free no swap", total / 2, 0, PressureLow},
		{"swap exactly at high threshold", total / 2, 256, PressureMedium},
		{"both high conditions", 163, 1024, PressureHigh}, // 1% of total
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyPressure(tt.freeMB, 0, total, tt.swapMB)
			if got != tt.want {
				t.Errorf("classifyPressure(free=%d, swap=%d) = %q, want %q",
					tt.freeMB, tt.swapMB, got, tt.want)
			}
		})
	}
}

func TestClassifyPressureIgnoresInactive(t *testing.T) {
	const total = 8192
	// Inactive pages never enter the thresholds.
	a := classifyPressure(total/2, 0, total, 0)
	b := classifyPressure(total/2, total/4, total, 0)
	if a != b {
		t.Errorf("inactive pages changed the classification: %q vs %q", a, b)
	}
}
