package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/buildbench/runner/charter"
	"github.com/buildbench/runner/config"
	"github.com/buildbench/runner/exporter"
	"github.com/buildbench/runner/storage"
	"github.com/buildbench/runner/types"
)

func newDumpCommand(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the latest run of every benchmark as a table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runs, err := a.loadRuns(cmd.Context(), all)
			if err != nil {
				return err
			}
			return exporter.DumpRuns(a.out, runs)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include runs superseded by newer ones")
	return cmd
}

func newExportCommand(a *app) *cobra.Command {
	var (
		format    string
		all       bool
		outputDir string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export runs with summary statistics",
		Long: `Export runs as CSV, JSON or a text table on stdout. With --output-dir every
format is written into the directory instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runs, err := a.loadRuns(cmd.Context(), all)
			if err != nil {
				return err
			}
			if outputDir == "" {
				return exporter.Export(a.out, format, runs)
			}

			written, err := exporter.NewDataExporter(outputDir).ExportAll(runs)
			if err != nil {
				return err
			}
			for _, path := range written {
				a.log.WithField("path", path).Info("Exported runs")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", exporter.FormatCSV, "output format (csv, json or table)")
	cmd.Flags().BoolVar(&all, "all", false, "include runs superseded by newer ones")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "write every format into this directory")
	return cmd
}

func newChartsCommand(a *app) *cobra.Command {
	var (
		outputDir   string
		definitions string
	)
	cmd := &cobra.Command{
		Use:   "charts",
		Short: "Render the latest runs as SVG charts",
		Long: `Render the latest runs of every database given with --db (or listed in the
configuration) as SVG bar charts, one file per chart definition.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("output-dir") {
				a.cfg.Charts.OutputDir = outputDir
			}
			if cmd.Flags().Changed("definitions") {
				a.cfg.Charts.Definitions = definitions
			}
			return a.renderCharts(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "directory receiving the SVG files")
	cmd.Flags().StringVar(&definitions, "definitions", "", "chart definitions YAML (default: built-in charts)")
	return cmd
}

func (a *app) loadRuns(ctx context.Context, all bool) ([]types.Run, error) {
	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	if all {
		return store.LoadAllRuns(ctx)
	}
	return store.LoadLatestRuns(ctx)
}

// chartStorages lists the stores charts are drawn from: every --db, else the
// configured chart databases, else the main store
func (a *app) chartStorages() []config.StorageConfig {
	paths := a.dbPaths
	if len(paths) == 0 {
		paths = a.cfg.Charts.Databases
	}
	if len(paths) == 0 {
		return []config.StorageConfig{a.cfg.Storage}
	}

	storages := make([]config.StorageConfig, len(paths))
	for i, path := range paths {
		storages[i] = config.StorageConfig{
			Driver: config.DriverSQLite,
			SQLite: config.SQLiteConfig{
				Path:          path,
				BusyTimeoutMS: a.cfg.Storage.SQLite.BusyTimeoutMS,
			},
		}
	}
	return storages
}

func (a *app) renderCharts(ctx context.Context) error {
	defs, err := charter.LoadDefinitions(a.cfg.Charts.Definitions)
	if err != nil {
		return err
	}

	var runs []types.Run
	for _, storageCfg := range a.chartStorages() {
		store, err := storage.Open(ctx, &storageCfg, a.log)
		if err != nil {
			return err
		}
		latest, err := store.LoadLatestRuns(ctx)
		store.Close()
		if err != nil {
			return err
		}
		runs = append(runs, latest...)
	}

	written, err := charter.New(defs, a.log).RenderAll(ctx, runs, a.cfg.Charts.OutputDir)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Wrote %d charts to %s\n", len(written), a.cfg.Charts.OutputDir)
	return nil
}
