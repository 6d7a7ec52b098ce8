package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/buildbench/runner/config"
)

// dialect captures the few places where the two backends disagree
type dialect struct {
	name string
	// driverName is the database/sql driver registered by the backend package
	driverName string
	schema     []string
	// sampleOrder orders samples of a run by insertion
	sampleOrder           string
	placeholder           func(n int) string
	isForeignKeyViolation func(err error) bool
}

var sqliteDialect = dialect{
	name:       config.DriverSQLite,
	driverName: "sqlite",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS run (
			id INTEGER PRIMARY KEY,
			hostname TEXT,
			project TEXT,
			toolchain_label TEXT,
			benchmark_name TEXT,
			created_at NUMERIC
		)`,
		`CREATE TABLE IF NOT EXISTS sample (
			run_id INTEGER REFERENCES run(id),
			duration_ns NUMERIC
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sample_run_id ON sample(run_id)`,
	},
	sampleOrder: "rowid",
	placeholder: func(int) string { return "?" },
	isForeignKeyViolation: func(err error) bool {
		var sqliteErr *sqlite.Error
		if !errors.As(err, &sqliteErr) {
			return false
		}
		// the driver enables extended result codes on every connection
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
	},
}

var postgresDialect = dialect{
	name:       config.DriverPostgres,
	driverName: "postgres",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS run (
			id BIGSERIAL PRIMARY KEY,
			hostname TEXT NOT NULL,
			project TEXT NOT NULL,
			toolchain_label TEXT NOT NULL,
			benchmark_name TEXT NOT NULL,
			created_at BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sample (
			seq BIGSERIAL PRIMARY KEY,
			run_id BIGINT NOT NULL REFERENCES run(id),
			duration_ns BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sample_run_id ON sample(run_id)`,
	},
	sampleOrder: "seq",
	placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	isForeignKeyViolation: func(err error) bool {
		var pqErr *pq.Error
		if !errors.As(err, &pqErr) {
			return false
		}
		return pqErr.Code.Name() == "foreign_key_violation"
	},
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case config.DriverSQLite:
		return sqliteDialect, nil
	case config.DriverPostgres:
		return postgresDialect, nil
	default:
		return dialect{}, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

// placeholders returns a comma separated list of n placeholders numbered from 1
func (d dialect) placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = d.placeholder(i + 1)
	}
	return strings.Join(parts, ", ")
}
