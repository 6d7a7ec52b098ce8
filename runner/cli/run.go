package cli

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/buildbench/runner/driver"
	"github.com/buildbench/runner/metrics"
	"github.com/buildbench/runner/toolchain"
)

const hostSampleInterval = time.Second

func newRunCommand(a *app) *cobra.Command {
	var (
		iterations       int
		warmupIterations int
		metricsTextfile  string
	)

	cmd := &cobra.Command{
		Use:   "run [filter]",
		Short: "Profile every benchmark whose full name matches filter",
		Long: `Profile every benchmark whose "project, toolchain, name" matches the
filter regular expression, then print the runs recorded by this session.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("iterations") {
				a.cfg.Benchmark.Iterations = iterations
			}
			if cmd.Flags().Changed("warmup-iterations") {
				a.cfg.Benchmark.WarmupIterations = warmupIterations
			}
			if cmd.Flags().Changed("metrics-textfile") {
				a.cfg.Benchmark.MetricsTextfile = metricsTextfile
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			return a.runBenchmarks(cmd.Context(), filterArg(args))
		},
	}
	cmd.Flags().IntVar(&iterations, "iterations", 3, "timed iterations per benchmark")
	cmd.Flags().IntVar(&warmupIterations, "warmup-iterations", 2, "untimed iterations before timing")
	cmd.Flags().StringVar(&metricsTextfile, "metrics-textfile", "", "write Prometheus metrics to this file when done")
	return cmd
}

func newListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list [filter]",
		Short: "Print the full name of every benchmark matching filter",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			harness, err := driver.NewFilterer(driver.NewLister(), filterArg(args))
			if err != nil {
				return err
			}
			return a.profileAll(cmd.Context(), harness)
		},
	}
}

func filterArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func (a *app) runBenchmarks(ctx context.Context, filter string) error {
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	env := metrics.GetEnvironmentInfo(ctx)
	a.log.WithFields(logrus.Fields{
		"hostname":  env.Hostname,
		"os":        env.OS,
		"platform":  env.Platform,
		"kernel":    env.KernelVersion,
		"cpu":       env.CPUModel,
		"cpu_cores": env.CPUCores,
		"memory_gb": env.TotalMemoryGB,
	}).Info("Benchmark host")

	hostname, err := metrics.Hostname(ctx)
	if err != nil {
		return err
	}

	recorder := metrics.NewRecorder()
	profiler := driver.NewProfiler(store, hostname,
		a.cfg.Benchmark.Iterations, a.cfg.Benchmark.WarmupIterations, a.log,
		driver.WithRecorder(recorder),
		driver.WithHostSampling(hostSampleInterval),
	)
	harness, err := driver.NewFilterer(profiler, filter)
	if err != nil {
		return err
	}

	runErr := a.profileAll(ctx, harness)

	if path := a.cfg.Benchmark.MetricsTextfile; path != "" {
		if err := recorder.WriteTextfile(path); err != nil {
			a.log.WithError(err).Error("Failed to write metrics textfile")
		} else {
			a.log.WithField("path", path).Info("Wrote metrics textfile")
		}
	}
	return runErr
}

// profileAll feeds every discovered benchmark to harness and dumps its results
func (a *app) profileAll(ctx context.Context, harness driver.Harness) error {
	runner := driver.NewExecExecutor(a.log)
	probe := toolchain.NewProbeCache(driver.NewExecExecutor(a.log, driver.WithQuietOutput()))

	benchmarks, err := toolchain.NewDiscoverer(a.cfg, runner, probe, a.log).Benchmarks(ctx)
	if err != nil {
		return err
	}
	for _, b := range benchmarks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := harness.Profile(ctx, b); err != nil {
			// report the runs finished before the failure
			return errors.Join(err, harness.DumpResults(ctx, a.out))
		}
	}
	return harness.DumpResults(ctx, a.out)
}
