// Package driver runs build benchmarks and records their timings.
package driver

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// Benchmark is one measurable build scenario. Only RunTimed is measured; the
// other hooks prepare and restore the tree around it.
type Benchmark interface {
	Project() string
	ToolchainLabel() string
	Name() string

	BeforeAll(ctx context.Context) error
	BeforeEach(ctx context.Context) error
	RunTimed(ctx context.Context) error
	AfterEach(ctx context.Context) error
	AfterAll(ctx context.Context) error
}

// FullName is the "project, toolchain, name" string filters match against
func FullName(b Benchmark) string {
	return fmt.Sprintf("%s, %s, %s", b.Project(), b.ToolchainLabel(), b.Name())
}

// Builder drives one project with one toolchain
type Builder interface {
	Project() string
	ToolchainLabel() string

	// Prepare runs once before any build, e.g. to download dependencies
	Prepare(ctx context.Context) error
	Clean(ctx context.Context) error
	Configure(ctx context.Context) error
	// BuildDependencies builds third-party code only
	BuildDependencies(ctx context.Context) error
	Build(ctx context.Context) error
	BuildAndTest(ctx context.Context) error
	Test(ctx context.Context) error
}

// Benchmark names shared by every project
const (
	FullBuildName   = "full build and test"
	HalfBuildName   = "build and test only my code"
	TestOnlyName    = "test only"
	incrementalName = "incremental build and test (%s)"
)

type builderBenchmark struct {
	builder Builder
}

func (b builderBenchmark) Project() string                     { return b.builder.Project() }
func (b builderBenchmark) ToolchainLabel() string              { return b.builder.ToolchainLabel() }
func (b builderBenchmark) BeforeAll(ctx context.Context) error { return b.builder.Prepare(ctx) }
func (builderBenchmark) BeforeEach(context.Context) error      { return nil }
func (builderBenchmark) AfterEach(context.Context) error       { return nil }
func (builderBenchmark) AfterAll(context.Context) error        { return nil }

// FullBenchmark builds everything, including dependencies, from a clean tree
type FullBenchmark struct {
	builderBenchmark
}

// NewFullBenchmark creates a FullBenchmark
func NewFullBenchmark(b Builder) *FullBenchmark {
	return &FullBenchmark{builderBenchmark{b}}
}

func (*FullBenchmark) Name() string { return FullBuildName }

func (f *FullBenchmark) BeforeEach(ctx context.Context) error {
	return f.builder.Clean(ctx)
}

func (f *FullBenchmark) RunTimed(ctx context.Context) error {
	return runSteps(ctx, f.builder.Configure, f.builder.BuildAndTest)
}

// HalfBenchmark builds the project's own code with dependencies prebuilt
type HalfBenchmark struct {
	builderBenchmark
}

// NewHalfBenchmark creates a HalfBenchmark
func NewHalfBenchmark(b Builder) *HalfBenchmark {
	return &HalfBenchmark{builderBenchmark{b}}
}

func (*HalfBenchmark) Name() string { return HalfBuildName }

func (h *HalfBenchmark) BeforeEach(ctx context.Context) error {
	return runSteps(ctx, h.builder.Clean, h.builder.Configure, h.builder.BuildDependencies)
}

func (h *HalfBenchmark) RunTimed(ctx context.Context) error {
	return h.builder.BuildAndTest(ctx)
}

// IncrementalBenchmark rebuilds after touching a few source files
type IncrementalBenchmark struct {
	builderBenchmark
	files   []string
	mutator *Mutator
}

// NewIncrementalBenchmark creates an IncrementalBenchmark mutating files
// before every iteration
func NewIncrementalBenchmark(b Builder, files []string, mutator *Mutator) *IncrementalBenchmark {
	return &IncrementalBenchmark{
		builderBenchmark: builderBenchmark{b},
		files:            slices.Clone(files),
		mutator:          mutator,
	}
}

// Name lists the mutated files' base names in sorted order
func (i *IncrementalBenchmark) Name() string {
	names := make([]string, len(i.files))
	for j, f := range i.files {
		names[j] = filepath.Base(f)
	}
	slices.Sort(names)
	return fmt.Sprintf(incrementalName, strings.Join(names, ", "))
}

func (i *IncrementalBenchmark) BeforeAll(ctx context.Context) error {
	return runSteps(ctx, i.builder.Prepare, i.builder.Clean, i.builder.Configure, i.builder.Build)
}

func (i *IncrementalBenchmark) BeforeEach(context.Context) error {
	for _, f := range i.files {
		if err := i.mutator.Mutate(f); err != nil {
			return err
		}
	}
	return nil
}

func (i *IncrementalBenchmark) RunTimed(ctx context.Context) error {
	return i.builder.BuildAndTest(ctx)
}

func (i *IncrementalBenchmark) AfterAll(context.Context) error {
	for _, f := range i.files {
		if err := i.mutator.Unmutate(f); err != nil {
			return err
		}
	}
	return nil
}

// TestOnlyBenchmark times the test step of an up-to-date build
type TestOnlyBenchmark struct {
	builderBenchmark
}

// NewTestOnlyBenchmark creates a TestOnlyBenchmark
func NewTestOnlyBenchmark(b Builder) *TestOnlyBenchmark {
	return &TestOnlyBenchmark{builderBenchmark{b}}
}

func (*TestOnlyBenchmark) Name() string { return TestOnlyName }

func (t *TestOnlyBenchmark) BeforeAll(ctx context.Context) error {
	return runSteps(ctx, t.builder.Prepare, t.builder.Clean, t.builder.Configure, t.builder.Build)
}

func (t *TestOnlyBenchmark) RunTimed(ctx context.Context) error {
	return t.builder.Test(ctx)
}

func runSteps(ctx context.Context, steps ...func(context.Context) error) error {
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return err
		}
	}
	return nil
}
