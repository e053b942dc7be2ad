package collector

import (
	"sort"

	"memwatch/probe"
)

// unknownProcessName is the sentinel for processes whose name could not be
// read.
const unknownProcessName = "unknown"

// rankProcesses converts enumerated process records into persisted snapshots:
// memory fields floor-converted to MB, missing CPU defaulted to 0, missing
// names to "unknown", foreground set on an exact match against the frontmost
// application. The result is sorted by resident memory descending and
// truncated to topN; equal-RSS records keep their enumeration order.
func rankProcesses(infos []probe.ProcessInfo, frontmostApp string, timestamp int64, topN int) []ProcessSnapshot {
	snaps := make([]ProcessSnapshot, 0, len(infos))
	for _, info := range infos {
		name := info.Name
		if name == "" {
			name = unknownProcessName
		}

		var sharedMB int64
		if info.Shared != nil {
			sharedMB = bytesToMB(*info.Shared)
		}
		var cpu float64
		if info.CPUPercent != nil {
			cpu = *info.CPUPercent
		}

		snaps = append(snaps, ProcessSnapshot{
			Timestamp:    timestamp,
			PID:          info.PID,
			ProcessName:  name,
			RSSMB:        bytesToMB(info.RSS),
			VMSMB:        bytesToMB(info.VMS),
			SharedMB:     sharedMB,
			CPUPercent:   cpu,
			IsForeground: frontmostApp != "" && name == frontmostApp,
		})
	}

	sort.SliceStable(snaps, func(i, j int) bool {
		return snaps[i].RSSMB > snaps[j].RSSMB
	})
	if len(snaps) > topN {
		snaps = snaps[:topN]
	}
	return snaps
}
