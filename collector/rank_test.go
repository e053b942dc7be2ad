package collector

import (
	"testing"

	"memwatch/probe"
)

const mib = 1024 * 1024

func ptrU64(v uint64) *uint64 { return &v }
func ptrF64(v float64) *float64 { return &v }

func TestRankProcessesOrderAndTruncation(t *testing.T) {
	infos := []probe.ProcessInfo{
		{PID: 1, Name: "small", RSS: 10 * mib, VMS: 20 * mib},
		{PID: 2, Name: "big", RSS: 500 * mib, VMS: 900 * mib},
		{PID: 3, Name: "medium", RSS: 100 * mib, VMS: 200 * mib},
	}

	snaps := rankProcesses(infos, "", 1234, 2)

	if len(snaps) != 2 {
		t.Fatalf("got %d snapshots, want 2", len(snaps))
	}
	if snaps[0].ProcessName != "big" || snaps[1].ProcessName != "medium" {
		t.Errorf("order = [%s, %s], want [big, medium]",
			snaps[0].ProcessName, snaps[1].ProcessName)
	}
	if snaps[0].RSSMB != 500 || snaps[0].VMSMB != 900 {
		t.Errorf("big: rss=%d vms=%d, want 500/900", snaps[0].RSSMB, snaps[0].VMSMB)
	}
	for _, s := range snaps {
		if s.Timestamp != 1234 {
			t.Errorf("timestamp = %d, want 1234", s.Timestamp)
		}
	}
}

func TestRankProcessesStableTieBreak(t *testing.T) {
	infos := []probe.ProcessInfo{
		{PID: 10, Name: "first", RSS: 64 * mib},
		{PID: 11, Name: "second", RSS: 64 * mib},
		{PID: 12, Name: "third", RSS: 64 * mib},
	}

	snaps := rankProcesses(infos, "", 0, 3)
	for i, want := range []string{"first", "second", "third"} {
		if snaps[i].ProcessName != want {
			t.Errorf("snaps[%d] = %s, want %s (enumeration order retained)",
				i, snaps[i].ProcessName, want)
		}
	}
}

func TestRankProcessesDefaults(t *testing.T) {
	infos := []probe.ProcessInfo{
		{PID: 7, Name: "", RSS: 8 * mib, VMS: 16 * mib},
	}

	snaps := rankProcesses(infos, "", 0, 10)
	if len(snaps) != 1 {
		t.Fatalf("got %d snapshots, want 1", len(snaps))
	}
	s := snaps[0]
	if s.ProcessName != "unknown" {
		t.Errorf("name = %q, want %q", s.ProcessName, "unknown")
	}
	if s.CPUPercent != 0 {
		t.Errorf("cpu = %f, want 0", s.CPUPercent)
	}
	if s.SharedMB != 0 {
		t.Errorf("shared = %d, want 0", s.SharedMB)
	}
}

func TestRankProcessesOptionalFields(t *testing.T) {
	infos := []probe.ProcessInfo{
		{PID: 8, Name: "app", RSS: 8 * mib, Shared: ptrU64(3 * mib), CPUPercent: ptrF64(12.5)},
	}

	snaps := rankProcesses(infos, "", 0, 10)
	if snaps[0].SharedMB != 3 {
		t.Errorf("shared = %d, want 3", snaps[0].SharedMB)
	}
	if snaps[0].CPUPercent != 12.5 {
		t.Errorf("cpu = %f, want 12.5", snaps[0].CPUPercent)
	}
}

func TestRankProcessesForeground(t *testing.T) {
	infos := []probe.ProcessInfo{
		{PID: 1, Name: "Safari", RSS: 100 * mib},
		{PID: 2, Name: "safari", RSS: 100 * mib}, // exact match only
		{PID: 3, Name: "Mail", RSS: 50 * mib},
	}

	snaps := rankProcesses(infos, "Safari", 0, 10)
	for _, s := range snaps {
		want := s.ProcessName == "Safari"
		if s.IsForeground != want {
			t.Errorf("%s: is_foreground = %v, want %v", s.ProcessName, s.IsForeground, want)
		}
	}

	// No frontmost app means no foreground flags at all.
	snaps = rankProcesses(infos, "", 0, 10)
	for _, s := range snaps {
		if s.IsForeground {
			t.Errorf("%s flagged foreground with no frontmost app", s.ProcessName)
		}
	}
}
