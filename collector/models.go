package collector

// Pressure is the derived three-level classification of memory scarcity.
type Pressure string

const (
	PressureLow    Pressure = "low"
	PressureMedium Pressure = "medium"
	PressureHigh   Pressure = "high"
)

// SystemSnapshot is one immutable observation of host memory state.
// MemUsedMB is active+wired pages only; inactive and compressed pages are
// tracked separately, so it does not equal MemTotalMB-MemFreeMB. The
// pressure classifier depends on that exact split.
type SystemSnapshot struct {
	Timestamp       int64 // seconds since epoch, set by the loop at sample time
	MemTotalMB      int64
	MemUsedMB       int64
	MemFreeMB       int64
	MemCompressedMB int64
	SwapUsedMB      int64
	MemoryPressure  Pressure
}

// ProcessSnapshot is one per-process observation within a cycle. Rows share
// the cycle's timestamp with the paired SystemSnapshot; the join is by value,
// not by key.
type ProcessSnapshot struct {
	Timestamp    int64
	PID          int32
	ProcessName  string
	RSSMB        int64
	VMSMB        int64
	SharedMB     int64
	CPUPercent   float64
	IsForeground bool
}
