// Package probe isolates every environment-dependent observation the sampler
// makes: external counter commands, total-memory lookup, and process
// enumeration. Everything above this package works on plain values and can be
// tested without spawning anything.
package probe

import (
	"context"
	"fmt"
)

// ProcessInfo is one enumerated live process. Shared and CPUPercent are
// pointers because some platforms withhold shared-memory accounting and a
// first CPU sample may be unavailable; consumers resolve nil to defaults.
type ProcessInfo struct {
	PID        int32
	Name       string
	RSS        uint64 // resident set, bytes
	VMS        uint64 // virtual size, bytes
	Shared     *uint64
	CPUPercent *float64
}

// SystemProbe is the capability surface of the host. One method per metric
// family; each may fail independently without affecting the others.
type SystemProbe interface {
	// TotalMemoryBytes reports total physical memory.
	TotalMemoryBytes(ctx context.Context) (uint64, error)

	// VMStat returns the raw virtual-memory counter text.
	VMStat(ctx context.Context) (string, error)

	// SwapUsage returns the raw swap-usage text.
	SwapUsage(ctx context.Context) (string, error)

	// FrontmostApp returns the name of the frontmost GUI application.
	// Best-effort: implementations apply a hard timeout, and an empty
	// string with a nil error means no GUI session was found.
	FrontmostApp(ctx context.Context) (string, error)

	// Processes enumerates live processes with partial, per-field-optional
	// records. Individual processes that vanish or deny inspection are
	// skipped, not reported as errors.
	Processes(ctx context.Context) ([]ProcessInfo, error)
}

// Error wraps a failed probe with the name of the probe that failed, so the
// sampling loop can log which metric family was lost this cycle.
type Error struct {
	Probe string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("probe %s: %v", e.Probe, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
