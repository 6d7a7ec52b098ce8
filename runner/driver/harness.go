package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/buildbench/runner/exporter"
	"github.com/buildbench/runner/metrics"
	"github.com/buildbench/runner/types"
)

// Harness consumes the benchmarks of a session one at a time
type Harness interface {
	Profile(ctx context.Context, b Benchmark) error
	// DumpResults reports on everything profiled so far
	DumpResults(ctx context.Context, w io.Writer) error
}

// RunStore is the part of the run store a Profiler writes to
type RunStore interface {
	CreateRun(ctx context.Context, hostname, project, toolchainLabel, benchmarkName string) (types.RunID, error)
	AddSample(ctx context.Context, runID types.RunID, durationNS types.NanosecondDuration) error
	LoadRunsByIDs(ctx context.Context, ids []types.RunID) ([]types.Run, error)
}

// Profiler runs benchmarks and stores one sample per timed iteration
type Profiler struct {
	store            RunStore
	hostname         string
	iterations       int
	warmupIterations int

	recorder       *metrics.Recorder
	sampleInterval time.Duration
	now            func() time.Time
	log            logrus.FieldLogger

	runIDs []types.RunID
}

// ProfilerOption configures a Profiler
type ProfilerOption func(*Profiler)

// WithRecorder reports runs and samples to r
func WithRecorder(r *metrics.Recorder) ProfilerOption {
	return func(p *Profiler) {
		p.recorder = r
	}
}

// WithHostSampling polls host load every interval during timed iterations.
// It needs a recorder to report to.
func WithHostSampling(interval time.Duration) ProfilerOption {
	return func(p *Profiler) {
		p.sampleInterval = interval
	}
}

// WithClock replaces the clock used to time iterations
func WithClock(now func() time.Time) ProfilerOption {
	return func(p *Profiler) {
		p.now = now
	}
}

// NewProfiler creates a Profiler recording runs for hostname
func NewProfiler(store RunStore, hostname string, iterations, warmupIterations int, log logrus.FieldLogger, opts ...ProfilerOption) *Profiler {
	p := &Profiler{
		store:            store,
		hostname:         hostname,
		iterations:       iterations,
		warmupIterations: warmupIterations,
		now:              time.Now,
		log: log.WithFields(logrus.Fields{
			"component": "profiler",
			"session":   uuid.NewString(),
		}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Profile creates a run for b, then runs its warmup iterations unrecorded and
// its timed iterations recorded. AfterAll runs even when an iteration fails.
func (p *Profiler) Profile(ctx context.Context, b Benchmark) (err error) {
	log := p.log.WithField("benchmark", FullName(b))

	runID, err := p.store.CreateRun(ctx, p.hostname, b.Project(), b.ToolchainLabel(), b.Name())
	if err != nil {
		return err
	}
	p.runIDs = append(p.runIDs, runID)
	if p.recorder != nil {
		p.recorder.RunCreated(b.Project(), b.ToolchainLabel())
	}
	log = log.WithField("run_id", runID)
	log.Info("Profiling benchmark")

	if err := b.BeforeAll(ctx); err != nil {
		return errors.Join(fmt.Errorf("%s: before all: %w", FullName(b), err), p.afterAll(ctx, b))
	}
	defer func() {
		if afterErr := p.afterAll(ctx, b); afterErr != nil {
			err = errors.Join(err, afterErr)
		}
	}()

	for i := 0; i < p.warmupIterations; i++ {
		if _, err := p.profileOne(ctx, b); err != nil {
			return fmt.Errorf("%s: warmup iteration %d: %w", FullName(b), i+1, err)
		}
	}
	for i := 0; i < p.iterations; i++ {
		elapsed, err := p.profileOne(ctx, b)
		if err != nil {
			return fmt.Errorf("%s: iteration %d: %w", FullName(b), i+1, err)
		}
		if err := p.store.AddSample(ctx, runID, elapsed.Nanoseconds()); err != nil {
			return err
		}
		if p.recorder != nil {
			p.recorder.ObserveSample(b.Project(), b.ToolchainLabel(), b.Name(), elapsed)
		}
		log.WithFields(logrus.Fields{
			"iteration": i + 1,
			"duration":  elapsed,
		}).Info("Recorded sample")
	}
	return nil
}

func (p *Profiler) afterAll(ctx context.Context, b Benchmark) error {
	if err := b.AfterAll(ctx); err != nil {
		return fmt.Errorf("%s: after all: %w", FullName(b), err)
	}
	return nil
}

func (p *Profiler) profileOne(ctx context.Context, b Benchmark) (time.Duration, error) {
	if err := b.BeforeEach(ctx); err != nil {
		return 0, err
	}

	var sampler *metrics.HostSampler
	if p.recorder != nil && p.sampleInterval > 0 {
		sampler = metrics.NewHostSampler(p.sampleInterval)
		sampler.Start(ctx)
	}

	start := p.now()
	err := b.RunTimed(ctx)
	elapsed := p.now().Sub(start)

	if sampler != nil {
		p.recorder.ObserveHostLoad(sampler.Stop())
	}
	if err != nil {
		return 0, err
	}

	if err := b.AfterEach(ctx); err != nil {
		return 0, err
	}
	return elapsed, nil
}

// RunIDs returns the runs created so far in profiling order
func (p *Profiler) RunIDs() []types.RunID {
	return append([]types.RunID(nil), p.runIDs...)
}

// DumpResults prints the runs created by this profiler as a table
func (p *Profiler) DumpResults(ctx context.Context, w io.Writer) error {
	runs, err := p.store.LoadRunsByIDs(ctx, p.runIDs)
	if err != nil {
		return err
	}
	return exporter.DumpRuns(w, runs)
}

// Lister records benchmark names without running anything
type Lister struct {
	names []string
}

// NewLister creates an empty Lister
func NewLister() *Lister {
	return &Lister{}
}

func (l *Lister) Profile(_ context.Context, b Benchmark) error {
	l.names = append(l.names, FullName(b))
	return nil
}

// DumpResults prints one full benchmark name per line
func (l *Lister) DumpResults(_ context.Context, w io.Writer) error {
	for _, name := range l.names {
		if _, err := fmt.Fprintln(w, name); err != nil {
			return err
		}
	}
	return nil
}

// Filterer passes on the benchmarks whose full name matches a pattern
type Filterer struct {
	next    Harness
	pattern *regexp.Regexp
}

// NewFilterer wraps next. The pattern may match anywhere in the full name;
// an empty pattern passes everything.
func NewFilterer(next Harness, pattern string) (*Filterer, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid benchmark filter: %w", err)
	}
	return &Filterer{next: next, pattern: re}, nil
}

func (f *Filterer) Profile(ctx context.Context, b Benchmark) error {
	if !f.pattern.MatchString(FullName(b)) {
		return nil
	}
	return f.next.Profile(ctx, b)
}

func (f *Filterer) DumpResults(ctx context.Context, w io.Writer) error {
	return f.next.DumpResults(ctx, w)
}
