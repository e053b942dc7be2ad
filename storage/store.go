package storage

import (
	"context"
	"fmt"

	"memwatch/collector"
)

// SystemSnapshot and ProcessSnapshot are re-exported here so read-side
// callers do not need to import the collector package just to hold query
// results.
type (
	SystemSnapshot  = collector.SystemSnapshot
	ProcessSnapshot = collector.ProcessSnapshot
)

// ProcessAggregate is one (process_name, pid) group aggregated over a query
// window. ForegroundRatio is the fraction of samples in which the process
// matched the frontmost application, 0 to 1.
type ProcessAggregate struct {
	ProcessName     string
	PID             int32
	MaxRSSMB        int64
	AvgRSSMB        float64
	TimesSeen       int64
	ForegroundRatio float64
}

// Reader is the query surface consumed by the dashboard and the advisor
// summary builder. Implementations never write.
type Reader interface {
	// LatestSystemSnapshot returns the most recent snapshot by timestamp,
	// or nil (with a nil error) when no data has been recorded yet.
	LatestSystemSnapshot(ctx context.Context) (*SystemSnapshot, error)

	// SystemSnapshots returns all snapshots with timestamp >=
	// now - windowMinutes*60, inclusive, ordered ascending by timestamp.
	SystemSnapshots(ctx context.Context, windowMinutes int) ([]SystemSnapshot, error)

	// TopProcesses aggregates process rows within the window by
	// (process_name, pid), ordered by max resident memory descending,
	// truncated to limit.
	TopProcesses(ctx context.Context, windowMinutes, limit int) ([]ProcessAggregate, error)

	// ValidateSchema checks both tables against the required column sets
	// and fails naming the missing table or columns. Consumers call it
	// once as a precondition before serving queries.
	ValidateSchema(ctx context.Context) error
}

// StorageError is a failed write or schema operation.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// QueryError is a failed read. Callers degrade (omit the affected section)
// rather than treat it as fatal.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }
