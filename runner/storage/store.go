package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/buildbench/runner/config"
	"github.com/buildbench/runner/types"
)

// RunStore persists benchmark runs and their samples.
//
// A RunStore is not safe for concurrent use; several processes may share one
// database file because every write commits immediately.
type RunStore struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
	log     logrus.FieldLogger
}

// Option customizes a RunStore
type Option func(*RunStore)

// WithClock replaces the clock used for created_at timestamps
func WithClock(now func() time.Time) Option {
	return func(s *RunStore) {
		s.now = now
	}
}

// Open connects to the configured backend and creates missing tables
func Open(ctx context.Context, cfg *config.StorageConfig, log logrus.FieldLogger, opts ...Option) (*RunStore, error) {
	d, err := dialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	var dsn string
	switch d.name {
	case config.DriverSQLite:
		dsn = cfg.SQLite.DSN()
	case config.DriverPostgres:
		dsn = cfg.PostgreSQL.ConnectionString()
	}

	db, err := sql.Open(d.driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if d.name == config.DriverSQLite {
		// An in-memory database lives only as long as its single connection.
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(cfg.PostgreSQL.MaxOpenConns)
		db.SetMaxIdleConns(cfg.PostgreSQL.MaxIdleConns)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &RunStore{
		db:      db,
		dialect: d,
		now:     time.Now,
		log:     log.WithField("component", "run_store"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	s.log.WithField("driver", d.name).Debug("Opened run store")
	return s, nil
}

func (s *RunStore) ensureSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range s.dialect.schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema: %w", err)
	}
	return nil
}

// Ping checks that the database is still reachable
func (s *RunStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the database connection
func (s *RunStore) Close() error {
	return s.db.Close()
}

// CreateRun records a new run and returns its id. Ids increase with every call.
func (s *RunStore) CreateRun(ctx context.Context, hostname, project, toolchainLabel, benchmarkName string) (types.RunID, error) {
	query := fmt.Sprintf(`
		INSERT INTO run (hostname, project, toolchain_label, benchmark_name, created_at)
		VALUES (%s)
		RETURNING id`, s.dialect.placeholders(5))

	var id types.RunID
	err := s.db.QueryRowContext(ctx, query,
		hostname, project, toolchainLabel, benchmarkName, s.now().Unix(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create run: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"run_id":    id,
		"project":   project,
		"toolchain": toolchainLabel,
		"benchmark": benchmarkName,
	}).Debug("Created run")
	return id, nil
}

// AddSample appends one timing sample to a run
func (s *RunStore) AddSample(ctx context.Context, runID types.RunID, durationNS types.NanosecondDuration) error {
	if durationNS < 0 {
		return fmt.Errorf("failed to add sample to run %d: %w: %d", runID, ErrNegativeDuration, durationNS)
	}
	query := fmt.Sprintf(`INSERT INTO sample (run_id, duration_ns) VALUES (%s)`, s.dialect.placeholders(2))

	if _, err := s.db.ExecContext(ctx, query, int64(runID), durationNS); err != nil {
		if s.dialect.isForeignKeyViolation(err) {
			return fmt.Errorf("failed to add sample to run %d: %w: %v", runID, ErrUnknownRun, err)
		}
		return fmt.Errorf("failed to add sample to run %d: %w", runID, err)
	}
	return nil
}

// LoadAllRuns returns every run ordered by id
func (s *RunStore) LoadAllRuns(ctx context.Context) ([]types.Run, error) {
	return s.loadRuns(ctx, runFilter{})
}

// LoadLatestRuns returns the newest run of every (hostname, project, toolchain, benchmark) tuple
func (s *RunStore) LoadLatestRuns(ctx context.Context) ([]types.Run, error) {
	latest := `IN (SELECT MAX(id) FROM run GROUP BY hostname, project, toolchain_label, benchmark_name)`
	return s.loadRuns(ctx, runFilter{
		runs:    "WHERE id " + latest,
		samples: "WHERE run_id " + latest,
	})
}

// LoadRunsByIDs returns the runs with the given ids. Unknown ids are ignored.
func (s *RunStore) LoadRunsByIDs(ctx context.Context, ids []types.RunID) ([]types.Run, error) {
	if len(ids) == 0 {
		return []types.Run{}, nil
	}

	in := "IN (" + s.dialect.placeholders(len(ids)) + ")"
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = int64(id)
	}
	return s.loadRuns(ctx, runFilter{
		runs:    "WHERE id " + in,
		samples: "WHERE run_id " + in,
		args:    args,
	})
}

// runFilter restricts both the run and the sample query; args bind to each of them
type runFilter struct {
	runs    string
	samples string
	args    []any
}

func (s *RunStore) loadRuns(ctx context.Context, filter runFilter) ([]types.Run, error) {
	samples, err := s.loadSamples(ctx, filter)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, hostname, project, toolchain_label, benchmark_name, created_at
		FROM run
		%s
		ORDER BY id`, filter.runs), filter.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []types.Run{}
	for rows.Next() {
		var (
			run       types.Run
			createdAt int64
		)
		if err := rows.Scan(&run.ID, &run.Hostname, &run.Project, &run.ToolchainLabel, &run.BenchmarkName, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.CreatedAt = time.Unix(createdAt, 0).UTC()
		run.Samples = samples[run.ID]
		if run.Samples == nil {
			run.Samples = []types.NanosecondDuration{}
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	return runs, nil
}

func (s *RunStore) loadSamples(ctx context.Context, filter runFilter) (map[types.RunID][]types.NanosecondDuration, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT run_id, duration_ns
		FROM sample
		%s
		ORDER BY %s`, filter.samples, s.dialect.sampleOrder), filter.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	samples := make(map[types.RunID][]types.NanosecondDuration)
	for rows.Next() {
		var (
			runID    types.RunID
			duration types.NanosecondDuration
		)
		if err := rows.Scan(&runID, &duration); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		samples[runID] = append(samples[runID], duration)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate samples: %w", err)
	}

	return samples, nil
}
