package probe

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

// frontmostTimeout bounds the osascript call; it is best-effort and must not
// stall a sampling cycle behind a wedged scripting bridge.
const frontmostTimeout = 2 * time.Second

const frontmostScript = `tell application "System Events" to get name of first application process whose frontmost is true`

// HostProbe is the real SystemProbe: counter text comes from the platform
// commands (vm_stat, sysctl), totals and process records from gopsutil.
type HostProbe struct{}

var _ SystemProbe = (*HostProbe)(nil)

// NewHostProbe returns a probe bound to the local host.
func NewHostProbe() *HostProbe {
	return &HostProbe{}
}

func (h *HostProbe) TotalMemoryBytes(ctx context.Context) (uint64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, &Error{Probe: "total_memory", Err: err}
	}
	return vm.Total, nil
}

func (h *HostProbe) VMStat(ctx context.Context) (string, error) {
	out, err := runCommand(ctx, "vm_stat")
	if err != nil {
		return "", &Error{Probe: "vm_stat", Err: err}
	}
	return out, nil
}

func (h *HostProbe) SwapUsage(ctx context.Context) (string, error) {
	out, err := runCommand(ctx, "sysctl", "-n", "vm.swapusage")
	if err != nil {
		return "", &Error{Probe: "swap_usage", Err: err}
	}
	return out, nil
}

func (h *HostProbe) FrontmostApp(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, frontmostTimeout)
	defer cancel()

	out, err := runCommand(ctx, "osascript", "-e", frontmostScript)
	if err != nil {
		return "", &Error{Probe: "frontmost_app", Err: err}
	}
	return out, nil
}

func (h *HostProbe) Processes(ctx context.Context) ([]ProcessInfo, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, &Error{Probe: "processes", Err: err}
	}

	infos := make([]ProcessInfo, 0, len(procs))
	for _, p := range procs {
		// A process that vanished or denies inspection between the
		// enumeration and these calls is skipped, never fatal.
		memInfo, err := p.MemoryInfoWithContext(ctx)
		if err != nil || memInfo == nil {
			continue
		}

		name, err := p.NameWithContext(ctx)
		if err != nil {
			name = ""
		}

		info := ProcessInfo{
			PID:  p.Pid,
			Name: name,
			RSS:  memInfo.RSS,
			VMS:  memInfo.VMS,
		}
		if cpu, err := p.CPUPercentWithContext(ctx); err == nil {
			info.CPUPercent = &cpu
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// runCommand executes an external command and returns its trimmed stdout.
func runCommand(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
