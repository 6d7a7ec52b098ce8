package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildbench/runner/config"
	"github.com/buildbench/runner/storage"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCommand(&out, &errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// seedDB creates a sqlite database with one superseded and two latest runs
func seedDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bench-build.db")
	ctx := context.Background()
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	store, err := storage.Open(ctx, &config.StorageConfig{
		Driver: config.DriverSQLite,
		SQLite: config.SQLiteConfig{Path: path, BusyTimeoutMS: 5000},
	}, logger)
	require.NoError(t, err)
	defer store.Close()

	add := func(toolchain string, samples ...int64) {
		id, err := store.CreateRun(ctx, "strapurp", "rust", toolchain, "full build and test")
		require.NoError(t, err)
		for _, s := range samples {
			require.NoError(t, store.AddSample(ctx, id, s))
		}
	}
	add("Rust Stable", 9e9)
	add("Rust Stable", 2e9, 2e9)
	add("Rust Stable Mold", 1e9)
	return path
}

// emptyCheckout returns a config file pointing at a tree with no projects
func emptyCheckout(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "buildbench.yaml")
	content := "benchmark:\n  root: " + filepath.Join(dir, "checkout") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDump(t *testing.T) {
	db := seedDB(t)

	out, err := execute(t, "--db", db, "--log-level", "error", "dump")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "hostname | project |"))
	assert.Contains(t, lines[1], "Rust Stable      | full build and test |    2000 |    2000 |    2000")

	out, err = execute(t, "--db", db, "--log-level", "error", "dump", "--all")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSuffix(out, "\n"), "\n"), 4)
}

func TestExport(t *testing.T) {
	db := seedDB(t)

	out, err := execute(t, "--db", db, "--log-level", "error", "export", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"toolchain": "Rust Stable Mold"`)

	_, err = execute(t, "--db", db, "--log-level", "error", "export", "--format", "xml")
	assert.ErrorContains(t, err, "unsupported export format")

	dir := filepath.Join(t.TempDir(), "export")
	_, err = execute(t, "--db", db, "--log-level", "error", "export", "--output-dir", dir)
	require.NoError(t, err)
	for _, name := range []string{"runs.json", "runs.csv", "samples.csv", "runs.txt"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}
}

func TestCharts(t *testing.T) {
	db := seedDB(t)
	dir := filepath.Join(t.TempDir(), "charts")

	out, err := execute(t, "--db", db, "--log-level", "error", "charts", "--output-dir", dir)
	require.NoError(t, err)
	assert.Equal(t, "Wrote 1 charts to "+dir+"\n", out)

	svg, err := os.ReadFile(filepath.Join(dir, "rust-linux-linker.svg"))
	require.NoError(t, err)
	assert.Contains(t, string(svg), "(-50%)")
}

func TestChartsFromSeveralDatabases(t *testing.T) {
	linux := seedDB(t)
	dir := filepath.Join(t.TempDir(), "charts")

	_, err := execute(t, "--db", linux, "--db", filepath.Join(t.TempDir(), "macos.db"),
		"--log-level", "error", "charts", "--output-dir", dir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "rust-linux-linker.svg"))
}

func TestSingleDatabaseCommandsRejectSeveral(t *testing.T) {
	_, err := execute(t, "--db", "a.db", "--db", "b.db", "--log-level", "error", "dump")
	assert.ErrorContains(t, err, "single --db")
}

func TestListEmptyCheckout(t *testing.T) {
	out, err := execute(t, "--config", emptyCheckout(t), "--log-level", "error", "list")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRunEmptyCheckout(t *testing.T) {
	db := filepath.Join(t.TempDir(), "bench-build.db")
	textfile := filepath.Join(t.TempDir(), "buildbench.prom")

	out, err := execute(t, "--config", emptyCheckout(t), "--db", db, "--log-level", "error",
		"run", "--iterations", "1", "--metrics-textfile", textfile)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "hostname | project |"))
	assert.FileExists(t, db)
	assert.FileExists(t, textfile)
}

func TestRunRejectsBadFilter(t *testing.T) {
	db := filepath.Join(t.TempDir(), "bench-build.db")
	_, err := execute(t, "--config", emptyCheckout(t), "--db", db, "--log-level", "error", "run", "(")
	assert.ErrorContains(t, err, "invalid benchmark filter")
}

func TestRunRejectsNegativeIterations(t *testing.T) {
	db := filepath.Join(t.TempDir(), "bench-build.db")
	_, err := execute(t, "--config", emptyCheckout(t), "--db", db, "--log-level", "error", "run", "--iterations", "-1")
	assert.ErrorContains(t, err, "iterations must not be negative")
}

func TestInvalidLogFormat(t *testing.T) {
	_, err := execute(t, "--log-format", "xml", "list")
	assert.ErrorContains(t, err, "log format must be text or json")
}
