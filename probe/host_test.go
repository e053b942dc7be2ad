package probe

import (
	"context"
	"errors"
	"testing"
)

func TestRunCommandTrimsOutput(t *testing.T) {
	out, err := runCommand(context.Background(), "echo", "hello")
	if err != nil {
		t.Skipf("echo unavailable: %v", err)
	}
	if out != "hello" {
		t.Errorf("output = %q, want %q", out, "hello")
	}
}

func TestRunCommandMissingBinary(t *testing.T) {
	_, err := runCommand(context.Background(), "definitely-not-a-command-xyz")
	if err == nil {
		t.Error("missing binary did not fail")
	}
}

func TestHostProbeTotalMemory(t *testing.T) {
	total, err := NewHostProbe().TotalMemoryBytes(context.Background())
	if err != nil {
		t.Skipf("total memory unavailable here: %v", err)
	}
	if total == 0 {
		t.Error("total memory reported as 0")
	}
}

func TestHostProbeProcesses(t *testing.T) {
	infos, err := NewHostProbe().Processes(context.Background())
	if err != nil {
		var probeErr *Error
		if !errors.As(err, &probeErr) {
			t.Fatalf("enumeration failure is not a probe error: %v", err)
		}
		t.Skipf("enumeration unavailable here: %v", err)
	}
	if len(infos) == 0 {
		t.Skip("no processes visible")
	}
	for _, info := range infos {
		if info.PID < 0 {
			t.Errorf("negative pid %d", info.PID)
		}
	}
}

func TestHostProbeErrorsAreTyped(t *testing.T) {
	// vm_stat does not exist off macOS; either outcome must be well formed.
	_, err := NewHostProbe().VMStat(context.Background())
	if err != nil {
		var probeErr *Error
		if !errors.As(err, &probeErr) {
			t.Fatalf("want *Error, got %T", err)
		}
		if probeErr.Probe != "vm_stat" {
			t.Errorf("probe name = %q, want vm_stat", probeErr.Probe)
		}
	}
}
