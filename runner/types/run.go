package types

import (
	"fmt"
	"math"
	"time"
)

// RunID identifies a run within a single store
type RunID int64

// NanosecondDuration is a measured wall-clock duration in nanoseconds
type NanosecondDuration = int64

// MillisecondDuration is a duration rounded up to whole milliseconds
type MillisecondDuration = int64

// BenchmarkSpec is the identity of a run. Runs sharing a spec supersede each other.
type BenchmarkSpec struct {
	Hostname       string `json:"hostname" yaml:"hostname"`
	Project        string `json:"project" yaml:"project"`
	ToolchainLabel string `json:"toolchain_label" yaml:"toolchain_label"`
	BenchmarkName  string `json:"benchmark_name" yaml:"benchmark_name"`
}

// String returns the spec in "hostname/project/toolchain/benchmark" form
func (s BenchmarkSpec) String() string {
	return fmt.Sprintf("%s/%s/%s/%s", s.Hostname, s.Project, s.ToolchainLabel, s.BenchmarkName)
}

// Run is one benchmark execution identity plus its collected timing samples
type Run struct {
	ID             RunID                `json:"id"`
	Hostname       string               `json:"hostname"`
	Project        string               `json:"project"`
	ToolchainLabel string               `json:"toolchain_label"`
	BenchmarkName  string               `json:"benchmark_name"`
	CreatedAt      time.Time            `json:"created_at"`
	Samples        []NanosecondDuration `json:"samples"`
}

// Spec returns the identity tuple of the run
func (r Run) Spec() BenchmarkSpec {
	return BenchmarkSpec{
		Hostname:       r.Hostname,
		Project:        r.Project,
		ToolchainLabel: r.ToolchainLabel,
		BenchmarkName:  r.BenchmarkName,
	}
}

// HasSamples reports whether at least one sample was recorded
func (r Run) HasSamples() bool {
	return len(r.Samples) > 0
}

// Average returns the mean sample. It returns 0 for a run without samples.
func (r Run) Average() float64 {
	if len(r.Samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range r.Samples {
		sum += float64(s)
	}
	return sum / float64(len(r.Samples))
}

// Min returns the smallest sample, or 0 for a run without samples
func (r Run) Min() NanosecondDuration {
	if len(r.Samples) == 0 {
		return 0
	}
	m := r.Samples[0]
	for _, s := range r.Samples[1:] {
		if s < m {
			m = s
		}
	}
	return m
}

// Max returns the largest sample, or 0 for a run without samples
func (r Run) Max() NanosecondDuration {
	if len(r.Samples) == 0 {
		return 0
	}
	m := r.Samples[0]
	for _, s := range r.Samples[1:] {
		if s > m {
			m = s
		}
	}
	return m
}

// SamplesAsFloat64 converts the samples for statistics libraries
func (r Run) SamplesAsFloat64() []float64 {
	values := make([]float64, len(r.Samples))
	for i, s := range r.Samples {
		values[i] = float64(s)
	}
	return values
}

// NSToMS converts nanoseconds to milliseconds, rounding up
func NSToMS(ns float64) MillisecondDuration {
	return MillisecondDuration(math.Ceil(ns / 1e6))
}
