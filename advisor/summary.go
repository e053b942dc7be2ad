// Package advisor builds the summary object the external recommendation
// engine consumes. It only reads; every section degrades independently when
// a query fails, so consumers see a partial summary rather than an error.
package advisor

import (
	"context"
	"math"

	"go.uber.org/zap"

	"memwatch/collector"
	"memwatch/storage"
)

// Latest mirrors the newest system snapshot.
type Latest struct {
	Timestamp       int64              `json:"timestamp"`
	MemUsedMB       int64              `json:"mem_used_mb"`
	MemFreeMB       int64              `json:"mem_free_mb"`
	MemCompressedMB int64              `json:"mem_compressed_mb"`
	SwapUsedMB      int64              `json:"swap_used_mb"`
	MemoryPressure  collector.Pressure `json:"memory_pressure"`
}

// Trends aggregates system snapshots over the window.
type Trends struct {
	MemUsedAvg       float64 `json:"mem_used_avg"`
	MemUsedMax       int64   `json:"mem_used_max"`
	MemUsedMin       int64   `json:"mem_used_min"`
	MemFreeAvg       float64 `json:"mem_free_avg"`
	MemCompressedAvg float64 `json:"mem_compressed_avg"`
	SwapUsedAvg      float64 `json:"swap_used_avg"`
	SwapUsedMax      int64   `json:"swap_used_max"`
	SampleCount      int     `json:"sample_count"`
}

// TopProcess is one aggregated heavy process, with RSS figures rounded to
// 0.1 MB and the foreground ratio to 0.01.
type TopProcess struct {
	ProcessName     string  `json:"process_name"`
	PID             int32   `json:"pid"`
	MaxRSSMB        float64 `json:"max_rss_mb"`
	AvgRSSMB        float64 `json:"avg_rss_mb"`
	TimesSeen       int64   `json:"times_seen"`
	ForegroundRatio float64 `json:"foreground_ratio"`
}

// Summary is the sole boundary the recommendation engine depends on.
// Latest is nil and Trends zero when the store holds no data for the window.
type Summary struct {
	WindowMinutes int          `json:"window_minutes"`
	Latest        *Latest      `json:"latest"`
	Trends        *Trends      `json:"trends"`
	TopProcesses  []TopProcess `json:"top_processes"`
}

// topProcessLimit caps the process list handed to the advisor; it reasons
// about the heaviest few, not the full per-cycle top-N.
const topProcessLimit = 10

// BuildSummary assembles the advisor input over the trailing window. Query
// failures are logged and leave the affected section empty; the summary
// itself is always returned.
func BuildSummary(ctx context.Context, reader storage.Reader, windowMinutes int, log *zap.Logger) *Summary {
	summary := &Summary{WindowMinutes: windowMinutes}

	latest, err := reader.LatestSystemSnapshot(ctx)
	if err != nil {
		log.Warn("summary: latest snapshot unavailable", zap.Error(err))
	} else if latest != nil {
		summary.Latest = &Latest{
			Timestamp:       latest.Timestamp,
			MemUsedMB:       latest.MemUsedMB,
			MemFreeMB:       latest.MemFreeMB,
			MemCompressedMB: latest.MemCompressedMB,
			SwapUsedMB:      latest.SwapUsedMB,
			MemoryPressure:  latest.MemoryPressure,
		}
	}

	snaps, err := reader.SystemSnapshots(ctx, windowMinutes)
	if err != nil {
		log.Warn("summary: trends unavailable", zap.Error(err))
	} else if len(snaps) > 0 {
		summary.Trends = buildTrends(snaps)
	}

	aggs, err := reader.TopProcesses(ctx, windowMinutes, topProcessLimit)
	if err != nil {
		log.Warn("summary: top processes unavailable", zap.Error(err))
	} else {
		for _, a := range aggs {
			summary.TopProcesses = append(summary.TopProcesses, TopProcess{
				ProcessName:     a.ProcessName,
				PID:             a.PID,
				MaxRSSMB:        roundTo(float64(a.MaxRSSMB), 1),
				AvgRSSMB:        roundTo(a.AvgRSSMB, 1),
				TimesSeen:       a.TimesSeen,
				ForegroundRatio: roundTo(a.ForegroundRatio, 2),
			})
		}
	}

	return summary
}

func buildTrends(snaps []storage.SystemSnapshot) *Trends {
	t := &Trends{
		MemUsedMax:  snaps[0].MemUsedMB,
		MemUsedMin:  snaps[0].MemUsedMB,
		SwapUsedMax: snaps[0].SwapUsedMB,
		SampleCount: len(snaps),
	}

	var usedSum, freeSum, compressedSum, swapSum int64
	for _, s := range snaps {
		usedSum += s.MemUsedMB
		freeSum += s.MemFreeMB
		compressedSum += s.MemCompressedMB
		swapSum += s.SwapUsedMB
		if s.MemUsedMB > t.MemUsedMax {
			t.MemUsedMax = s.MemUsedMB
		}
		if s.MemUsedMB < t.MemUsedMin {
			t.MemUsedMin = s.MemUsedMB
		}
		if s.SwapUsedMB > t.SwapUsedMax {
			t.SwapUsedMax = s.SwapUsedMB
		}
	}

	n := float64(len(snaps))
	t.MemUsedAvg = float64(usedSum) / n
	t.MemFreeAvg = float64(freeSum) / n
	t.MemCompressedAvg = float64(compressedSum) / n
	t.SwapUsedAvg = float64(swapSum) / n
	return t
}

// roundTo rounds x to the given number of decimal places.
func roundTo(x float64, places int) float64 {
	shift := math.Pow(10, float64(places))
	return math.Round(x*shift) / shift
}
