// Package procaction is the stateless safety check behind explicit
// user-initiated process termination. It is never invoked by the sampling
// pipeline.
package procaction

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// protectedNames are processes that must never be terminated regardless of
// who asks.
var protectedNames = map[string]bool{
	"launchd":      true,
	"kernel_task":  true,
	"WindowServer": true,
	"loginwindow":  true,
}

// Actions taken (or refused) by Terminate.
const (
	ActionDeny          = "deny"
	ActionTerminate     = "terminate"
	ActionKill          = "kill"
	ActionNoSuchProcess = "no_such_process"
)

// Result reports the outcome of a termination attempt.
type Result struct {
	OK     bool   `json:"ok"`
	PID    int32  `json:"pid"`
	Action string `json:"action"`
	Reason string `json:"reason"`
}

// CanTerminate reports whether pid may be safely terminated, with a reason
// when it may not. Denied: system pids, the current process, protected
// names, root-owned processes when running unprivileged, and anything that
// vanished or denies inspection.
func CanTerminate(ctx context.Context, pid int32) (bool, string) {
	if pid <= 1 {
		return false, "system process pid <= 1"
	}
	if pid == int32(os.Getpid()) {
		return false, "cannot kill self"
	}

	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		if errors.Is(err, process.ErrorProcessNotRunning) {
			return false, "process does not exist"
		}
		return false, "access denied"
	}

	name, err := p.NameWithContext(ctx)
	if err != nil {
		return false, "access denied"
	}
	if protectedNames[name] {
		return false, fmt.Sprintf("protected process: %s", name)
	}

	uids, err := p.UidsWithContext(ctx)
	if err != nil {
		return false, "access denied"
	}
	if len(uids) > 0 && uids[0] == 0 && os.Geteuid() != 0 {
		return false, "root-owned process, non-root user"
	}

	return true, "ok"
}

// Terminate runs the safety check and, when allowed, sends SIGTERM (or
// SIGKILL when force is set) and waits up to timeout for the process to
// exit.
func Terminate(ctx context.Context, pid int32, force bool, timeout time.Duration) Result {
	allowed, reason := CanTerminate(ctx, pid)
	if !allowed {
		return Result{OK: false, PID: pid, Action: ActionDeny, Reason: reason}
	}

	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return Result{OK: false, PID: pid, Action: ActionNoSuchProcess, Reason: "process does not exist"}
	}

	action := ActionTerminate
	if force {
		err = p.KillWithContext(ctx)
		action = ActionKill
	} else {
		err = p.TerminateWithContext(ctx)
	}
	if err != nil {
		if errors.Is(err, process.ErrorProcessNotRunning) {
			return Result{OK: true, PID: pid, Action: action, Reason: "process already gone"}
		}
		return Result{OK: false, PID: pid, Action: action, Reason: "access denied"}
	}

	if waitForExit(ctx, p, timeout) {
		return Result{OK: true, PID: pid, Action: action, Reason: "terminated successfully"}
	}
	return Result{OK: false, PID: pid, Action: action,
		Reason: fmt.Sprintf("process did not exit within %s", timeout)}
}

// waitForExit polls until the process is gone or the timeout elapses.
func waitForExit(ctx context.Context, p *process.Process, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		running, err := p.IsRunningWithContext(ctx)
		if err != nil || !running {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(100 * time.Millisecond):
		}
	}
	return false
}
