package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"memwatch/collector"
)

// Busy-retry bounds for reads that race the writer's transaction. The DSN
// also carries a busy_timeout pragma; this is the app-level backstop.
const (
	busyRetries = 5
	busyBackoff = 50 * time.Millisecond
)

// SQLite is the append-only snapshot store. Exactly one process writes;
// readers may run concurrently and see the engine briefly busy.
type SQLite struct {
	db  *sql.DB
	log *zap.Logger
	now func() time.Time
}

var _ Reader = (*SQLite)(nil)
var _ collector.Store = (*SQLite)(nil)

// NewSQLite opens (or creates) the SQLite file at dbPath and creates the
// snapshot tables and indexes if absent. Schema creation is idempotent and
// safe on every start; its failure is the one fatal startup condition.
// The caller must call Close() on shutdown.
func NewSQLite(dbPath string, log *zap.Logger) (*SQLite, error) {
	// The modernc.org driver is pure Go and works without CGO. WAL keeps
	// readers from blocking behind the sampler's transactions.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, &StorageError{Op: "open", Err: err}
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, &StorageError{Op: "open", Err: err}
	}

	s := &SQLite{db: db, log: log, now: time.Now}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) initSchema() error {
	const stmt = `
CREATE TABLE IF NOT EXISTS system_snapshot (
    id                INTEGER PRIMARY KEY,
    timestamp         INTEGER NOT NULL,
    mem_total_mb      INTEGER NOT NULL,
    mem_used_mb       INTEGER NOT NULL,
    mem_free_mb       INTEGER NOT NULL,
    mem_compressed_mb INTEGER NOT NULL,
    swap_used_mb      INTEGER NOT NULL,
    memory_pressure   TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS process_snapshot (
    id            INTEGER PRIMARY KEY,
    timestamp     INTEGER NOT NULL,
    pid           INTEGER NOT NULL,
    process_name  TEXT NOT NULL,
    rss_mb        INTEGER NOT NULL,
    vms_mb        INTEGER NOT NULL,
    shared_mb     INTEGER NOT NULL,
    cpu_percent   REAL NOT NULL,
    is_foreground INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_system_timestamp ON system_snapshot(timestamp);
CREATE INDEX IF NOT EXISTS idx_process_timestamp ON process_snapshot(timestamp);
CREATE INDEX IF NOT EXISTS idx_process_pid ON process_snapshot(pid);
`
	if _, err := s.db.Exec(stmt); err != nil {
		return &StorageError{Op: "init schema", Err: err}
	}
	s.log.Info("schema initialized")
	return nil
}

// InsertSystemSnapshot appends one system row atomically.
func (s *SQLite) InsertSystemSnapshot(ctx context.Context, snap SystemSnapshot) error {
	if snap.MemoryPressure == "" {
		return &StorageError{Op: "insert system snapshot", Err: fmt.Errorf("memory_pressure is empty")}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO system_snapshot (
			timestamp, mem_total_mb, mem_used_mb, mem_free_mb,
			mem_compressed_mb, swap_used_mb, memory_pressure
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		snap.Timestamp, snap.MemTotalMB, snap.MemUsedMB, snap.MemFreeMB,
		snap.MemCompressedMB, snap.SwapUsedMB, string(snap.MemoryPressure))
	if err != nil {
		return &StorageError{Op: "insert system snapshot", Err: err}
	}
	return nil
}

// InsertProcessSnapshots appends all rows in one transaction; either every
// row lands or none do. An empty slice is a no-op.
func (s *SQLite) InsertProcessSnapshots(ctx context.Context, snaps []ProcessSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &StorageError{Op: "insert process snapshots", Err: err}
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO process_snapshot (
			timestamp, pid, process_name, rss_mb, vms_mb,
			shared_mb, cpu_percent, is_foreground
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return &StorageError{Op: "insert process snapshots", Err: err}
	}
	defer stmt.Close()

	for _, snap := range snaps {
		fg := 0
		if snap.IsForeground {
			fg = 1
		}
		if _, err := stmt.ExecContext(ctx,
			snap.Timestamp, snap.PID, snap.ProcessName, snap.RSSMB,
			snap.VMSMB, snap.SharedMB, snap.CPUPercent, fg); err != nil {
			_ = tx.Rollback()
			return &StorageError{Op: "insert process snapshots", Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &StorageError{Op: "insert process snapshots", Err: err}
	}
	s.log.Debug("process snapshots persisted", zap.Int("rows", len(snaps)))
	return nil
}

// LatestSystemSnapshot returns the most recent system row, or nil when the
// table is empty. Emptiness is not an error.
func (s *SQLite) LatestSystemSnapshot(ctx context.Context) (*SystemSnapshot, error) {
	var snap SystemSnapshot
	var pressure string
	err := s.withBusyRetry(ctx, func() error {
		return s.db.QueryRowContext(ctx, `
			SELECT timestamp, mem_total_mb, mem_used_mb, mem_free_mb,
			       mem_compressed_mb, swap_used_mb, memory_pressure
			FROM system_snapshot
			ORDER BY timestamp DESC
			LIMIT 1`).Scan(
			&snap.Timestamp, &snap.MemTotalMB, &snap.MemUsedMB, &snap.MemFreeMB,
			&snap.MemCompressedMB, &snap.SwapUsedMB, &pressure)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &QueryError{Op: "latest system snapshot", Err: err}
	}
	snap.MemoryPressure = collector.Pressure(pressure)
	return &snap, nil
}

// SystemSnapshots returns all system rows inside the trailing window,
// inclusive at the window boundary, ordered ascending by timestamp.
func (s *SQLite) SystemSnapshots(ctx context.Context, windowMinutes int) ([]SystemSnapshot, error) {
	cutoff := s.now().Unix() - int64(windowMinutes)*60

	var snaps []SystemSnapshot
	err := s.withBusyRetry(ctx, func() error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT timestamp, mem_total_mb, mem_used_mb, mem_free_mb,
			       mem_compressed_mb, swap_used_mb, memory_pressure
			FROM system_snapshot
			WHERE timestamp >= ?
			ORDER BY timestamp ASC`, cutoff)
		if err != nil {
			return err
		}
		defer rows.Close()

		snaps = snaps[:0]
		for rows.Next() {
			var snap SystemSnapshot
			var pressure string
			if err := rows.Scan(
				&snap.Timestamp, &snap.MemTotalMB, &snap.MemUsedMB, &snap.MemFreeMB,
				&snap.MemCompressedMB, &snap.SwapUsedMB, &pressure); err != nil {
				return err
			}
			snap.MemoryPressure = collector.Pressure(pressure)
			snaps = append(snaps, snap)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, &QueryError{Op: "system snapshots", Err: err}
	}
	return snaps, nil
}

// TopProcesses aggregates process rows inside the window by
// (process_name, pid): max and average resident memory, occurrence count,
// and the foreground ratio, ordered by max resident memory descending.
func (s *SQLite) TopProcesses(ctx context.Context, windowMinutes, limit int) ([]ProcessAggregate, error) {
	cutoff := s.now().Unix() - int64(windowMinutes)*60

	var aggs []ProcessAggregate
	err := s.withBusyRetry(ctx, func() error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT process_name, pid,
			       MAX(rss_mb) AS max_rss_mb,
			       AVG(rss_mb) AS avg_rss_mb,
			       COUNT(*) AS times_seen,
			       AVG(CAST(is_foreground AS REAL)) AS foreground_ratio
			FROM process_snapshot
			WHERE timestamp >= ?
			GROUP BY process_name, pid
			ORDER BY max_rss_mb DESC
			LIMIT ?`, cutoff, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		aggs = aggs[:0]
		for rows.Next() {
			var a ProcessAggregate
			if err := rows.Scan(&a.ProcessName, &a.PID, &a.MaxRSSMB,
				&a.AvgRSSMB, &a.TimesSeen, &a.ForegroundRatio); err != nil {
				return err
			}
			aggs = append(aggs, a)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, &QueryError{Op: "top processes", Err: err}
	}
	return aggs, nil
}

// requiredColumns is the persisted contract per table. ValidateSchema gates
// read-side consumers so a stale or foreign database fails with a clear
// diagnosis instead of a confusing query error later.
var requiredColumns = map[string][]string{
	"system_snapshot": {
		"id", "timestamp", "mem_total_mb", "mem_used_mb",
		"mem_free_mb", "mem_compressed_mb", "swap_used_mb", "memory_pressure",
	},
	"process_snapshot": {
		"id", "timestamp", "pid", "process_name",
		"rss_mb", "vms_mb", "shared_mb", "cpu_percent", "is_foreground",
	},
}

// ValidateSchema checks both tables' column sets against the required
// contract, naming the missing table or columns in the error.
func (s *SQLite) ValidateSchema(ctx context.Context) error {
	tables := make([]string, 0, len(requiredColumns))
	for table := range requiredColumns {
		tables = append(tables, table)
	}
	sort.Strings(tables)

	for _, table := range tables {
		actual, err := s.tableColumns(ctx, table)
		if err != nil {
			return &StorageError{Op: "validate schema", Err: err}
		}
		if len(actual) == 0 {
			return &StorageError{Op: "validate schema",
				Err: fmt.Errorf("table %q does not exist", table)}
		}

		var missing []string
		for _, col := range requiredColumns[table] {
			if !actual[col] {
				missing = append(missing, col)
			}
		}
		if len(missing) > 0 {
			return &StorageError{Op: "validate schema",
				Err: fmt.Errorf("table %q missing columns: %s", table, strings.Join(missing, ", "))}
		}
	}
	return nil
}

func (s *SQLite) tableColumns(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, err
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

// withBusyRetry runs fn, retrying a bounded number of times when the engine
// reports it is busy behind the writer's transaction.
func (s *SQLite) withBusyRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt <= busyRetries; attempt++ {
		err = fn()
		if err == nil || !isBusy(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(busyBackoff):
		}
	}
	return err
}

func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "SQLITE_BUSY")
}

// Close shuts down the database connection.
func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
