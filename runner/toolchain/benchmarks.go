package toolchain

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/buildbench/runner/config"
	"github.com/buildbench/runner/driver"
)

// Discoverer assembles the benchmark list for a checkout
type Discoverer struct {
	cfg     *config.Config
	exec    driver.Executor
	probe   *ProbeCache
	mutator *driver.Mutator
	log     logrus.FieldLogger
}

// NewDiscoverer creates a Discoverer running builds with e and probing
// compilers through probe
func NewDiscoverer(cfg *config.Config, e driver.Executor, probe *ProbeCache, log logrus.FieldLogger) *Discoverer {
	return &Discoverer{
		cfg:     cfg,
		exec:    e,
		probe:   probe,
		mutator: driver.NewMutator(),
		log:     log.WithField("component", "toolchain"),
	}
}

// Benchmarks returns every C++ benchmark followed by every benchmark of each
// Rust project. A missing C++ project is skipped.
func (d *Discoverer) Benchmarks(ctx context.Context) ([]driver.Benchmark, error) {
	tc := d.cfg.Toolchain
	mold := ResolveMold(tc.Mold)
	var benchmarks []driver.Benchmark

	cppRoot := filepath.Join(d.cfg.Benchmark.Root, tc.CPPRoot)
	if info, err := os.Stat(cppRoot); err == nil && info.IsDir() {
		configs := FindCPPConfigs(ctx, tc.CPPCompilers, mold, d.probe)
		d.log.WithField("configs", len(configs)).Info("Found C++ toolchains")
		for _, c := range configs {
			builder := NewCPPBuilder(cppRoot, c, tc, d.exec)
			benchmarks = append(benchmarks,
				driver.NewFullBenchmark(builder),
				driver.NewHalfBenchmark(builder),
				driver.NewTestOnlyBenchmark(builder),
			)
			for _, file := range tc.CPPMutateFiles {
				path := filepath.Join(cppRoot, filepath.FromSlash(file))
				benchmarks = append(benchmarks, driver.NewIncrementalBenchmark(builder, []string{path}, d.mutator))
			}
		}
	} else {
		d.log.WithField("root", cppRoot).Warn("No C++ project, skipping C++ benchmarks")
	}

	rustRoots, err := filepath.Glob(filepath.Join(d.cfg.Benchmark.Root, tc.RustRootGlob))
	if err != nil {
		return nil, fmt.Errorf("invalid rust_root_glob: %w", err)
	}
	var cargos []Cargo
	resolved := false
	for _, root := range rustRoots {
		if info, err := os.Stat(root); err != nil || !info.IsDir() {
			continue
		}
		if !resolved {
			cargos = ResolveCargos(ctx, tc, d.exec, d.log)
			resolved = true
		}

		mutateFiles := make([]string, len(tc.RustMutateFiles))
		for i, name := range tc.RustMutateFiles {
			path, err := driver.FindUniqueFile(root, name)
			if err != nil {
				return nil, err
			}
			mutateFiles[i] = path
		}

		for _, c := range RustConfigs(root, cargos, tc.CargoProfiles, mold) {
			builder := NewRustBuilder(c, tc.RustPrebuiltPackages, d.exec)
			benchmarks = append(benchmarks,
				driver.NewFullBenchmark(builder),
				driver.NewHalfBenchmark(builder),
				driver.NewTestOnlyBenchmark(builder),
			)
			for _, path := range mutateFiles {
				benchmarks = append(benchmarks, driver.NewIncrementalBenchmark(builder, []string{path}, d.mutator))
			}
		}
	}
	return benchmarks, nil
}
