// Package cli implements the buildbench command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/buildbench/runner/config"
	"github.com/buildbench/runner/storage"
)

// app holds what every subcommand shares
type app struct {
	configPath string
	dbPaths    []string
	logLevel   string
	logFormat  string

	out    io.Writer
	errOut io.Writer
	log    *logrus.Logger
	cfg    *config.Config
}

// NewRootCommand builds the command tree writing results to out and logs to
// errOut
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "buildbench",
		Short: "Benchmark C++ and Rust build toolchains and chart the results",
		Long: `buildbench times full, partial, incremental and test-only builds of a
project with every installed toolchain, stores one sample per timed iteration
in a run database, and renders the latest results as SVG bar charts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to YAML configuration file")
	root.PersistentFlags().StringArrayVar(&a.dbPaths, "db", nil, "sqlite run database (repeatable for charts)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "log format (text or json)")

	root.AddCommand(
		newRunCommand(a),
		newListCommand(a),
		newDumpCommand(a),
		newChartsCommand(a),
		newExportCommand(a),
		newServeCommand(a),
	)
	return root
}

// Execute runs the command line and returns the process exit code
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := NewRootCommand(os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

func (a *app) setup(cmd *cobra.Command) error {
	a.log = logrus.New()
	a.log.SetOutput(a.errOut)

	// flags win over the file, so the file is loaded with a provisional logger
	if err := configureLogger(a.log, a.logLevel, a.logFormat); err != nil {
		return err
	}
	cfg, err := config.LoadConfig(a.configPath, a.log)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Log.Format = a.logFormat
	}
	if err := configureLogger(a.log, cfg.Log.Level, cfg.Log.Format); err != nil {
		return err
	}

	if len(a.dbPaths) > 0 {
		cfg.Storage.Driver = config.DriverSQLite
		cfg.Storage.SQLite.Path = a.dbPaths[0]
	}
	a.cfg = cfg
	return nil
}

func configureLogger(log *logrus.Logger, level, format string) error {
	if level != "" {
		parsed, err := logrus.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
		log.SetLevel(parsed)
	}
	switch strings.ToLower(format) {
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("log format must be text or json, got %q", format)
	}
	return nil
}

// singleDB rejects repeated --db flags for commands using one store
func (a *app) singleDB() error {
	if len(a.dbPaths) > 1 {
		return errors.New("this command accepts a single --db")
	}
	return nil
}

func (a *app) openStore(ctx context.Context) (*storage.RunStore, error) {
	if err := a.singleDB(); err != nil {
		return nil, err
	}
	return storage.Open(ctx, &a.cfg.Storage, a.log)
}
