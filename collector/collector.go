// Package collector turns raw host observations into typed memory snapshots
// and drives the fixed-interval sampling loop that persists them.
package collector

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"memwatch/probe"
)

// Store is the write side of the persistence layer, as the sampling loop
// needs it. Both operations are atomic appends.
type Store interface {
	InsertSystemSnapshot(ctx context.Context, snap SystemSnapshot) error
	InsertProcessSnapshots(ctx context.Context, snaps []ProcessSnapshot) error
}

// Collector runs the sampling cycle: probe the host, parse and classify the
// counters, rank the processes, persist both snapshots. Exactly one Collector
// writes to a store at a time; readers go through the storage package
// independently.
type Collector struct {
	probe    probe.SystemProbe
	store    Store
	interval time.Duration
	topN     int
	log      *zap.Logger
	now      func() time.Time
}

// New returns a Collector sampling every interval and retaining the topN
// heaviest processes per cycle.
func New(p probe.SystemProbe, store Store, interval time.Duration, topN int, log *zap.Logger) *Collector {
	return &Collector{
		probe:    p,
		store:    store,
		interval: interval,
		topN:     topN,
		log:      log,
		now:      time.Now,
	}
}

// Run samples immediately and then on every tick until ctx is cancelled.
// Cancellation is honored between cycles so an in-flight cycle finishes its
// writes instead of truncating a transaction. Per-cycle failures are logged
// and never stop the loop.
func (c *Collector) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.log.Info("sampler started",
		zap.Duration("interval", c.interval),
		zap.Int("top_n", c.topN))

	for {
		c.runCycle(ctx)

		select {
		case <-ctx.Done():
			c.log.Info("sampler stopped")
			return
		case <-ticker.C:
		}
	}
}

// runCycle performs one sampling cycle. Each stage fails independently: a
// lost probe costs only that probe's outputs, a failed enumeration yields
// zero process rows, a failed write loses that cycle's rows. Nothing here
// terminates the loop.
func (c *Collector) runCycle(ctx context.Context) {
	ts := c.now().Unix()

	sys, err := c.buildSystemSnapshot(ctx, ts)
	if err != nil {
		c.logStageFailure(err)
	} else if err := c.store.InsertSystemSnapshot(ctx, *sys); err != nil {
		c.logStageFailure(err)
		sys = nil
	}

	frontmost := ""
	if name, err := c.probe.FrontmostApp(ctx); err != nil {
		// Best-effort probe: no GUI session or a stalled scripting
		// bridge just means no foreground flags this cycle.
		c.log.Debug("frontmost app unavailable", zap.Error(err))
	} else {
		frontmost = name
	}

	var snaps []ProcessSnapshot
	if infos, err := c.probe.Processes(ctx); err != nil {
		c.logStageFailure(err)
	} else {
		snaps = rankProcesses(infos, frontmost, ts, c.topN)
	}
	if len(snaps) > 0 {
		if err := c.store.InsertProcessSnapshots(ctx, snaps); err != nil {
			c.logStageFailure(err)
			snaps = nil
		}
	}

	if sys != nil {
		c.log.Info("cycle complete",
			zap.Int64("timestamp", ts),
			zap.Int64("mem_used_mb", sys.MemUsedMB),
			zap.String("pressure", string(sys.MemoryPressure)),
			zap.Int("processes", len(snaps)))
	}
}

// buildSystemSnapshot probes and derives the host-wide figures for one
// cycle. Total memory and the virtual-memory counters are required; swap is
// best-effort and defaults to 0 on probe or parse failure.
func (c *Collector) buildSystemSnapshot(ctx context.Context, ts int64) (*SystemSnapshot, error) {
	totalBytes, err := c.probe.TotalMemoryBytes(ctx)
	if err != nil {
		return nil, err
	}
	vmText, err := c.probe.VMStat(ctx)
	if err != nil {
		return nil, err
	}

	pageSize := parsePageSize(vmText)
	pages := parseVMStat(vmText)

	freeMB := pagesToMB(pages[labelPagesFree], pageSize)
	activeMB := pagesToMB(pages[labelPagesActive], pageSize)
	inactiveMB := pagesToMB(pages[labelPagesInactive], pageSize)
	wiredMB := pagesToMB(pages[labelPagesWired], pageSize)
	compressedMB := pagesToMB(pages[labelPagesCompressed], pageSize)

	var swapMB int64
	if swapText, err := c.probe.SwapUsage(ctx); err != nil {
		c.logStageFailure(err)
	} else if swapMB, err = parseSwapUsedMB(swapText); err != nil {
		c.logStageFailure(err)
		swapMB = 0
	}

	totalMB := bytesToMB(totalBytes)
	return &SystemSnapshot{
		Timestamp:       ts,
		MemTotalMB:      totalMB,
		MemUsedMB:       activeMB + wiredMB,
		MemFreeMB:       freeMB,
		MemCompressedMB: compressedMB,
		SwapUsedMB:      swapMB,
		MemoryPressure:  classifyPressure(freeMB, inactiveMB, totalMB, swapMB),
	}, nil
}

// logStageFailure emits the one-line diagnostic for a non-fatal stage
// failure, tagged with the stage it came from. Errors that are neither probe
// nor parse failures can only have come from the store.
func (c *Collector) logStageFailure(err error) {
	var probeErr *probe.Error
	var parseErr *ParseError
	switch {
	case errors.As(err, &probeErr):
		c.log.Warn("probe failed",
			zap.String("stage", "probe"),
			zap.String("probe", probeErr.Probe),
			zap.Error(err))
	case errors.As(err, &parseErr):
		c.log.Warn("counter text unparsable, using default",
			zap.String("stage", "parse"),
			zap.Error(err))
	default:
		c.log.Warn("store write failed",
			zap.String("stage", "store"),
			zap.Error(err))
	}
}
