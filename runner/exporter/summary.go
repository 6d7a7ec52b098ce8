package exporter

import (
	"math"
	"time"

	"golang.org/x/perf/benchmath"

	"github.com/buildbench/runner/types"
)

// Confidence is the level used for the median confidence interval
const Confidence = 0.95

// RunSummary is the per-run statistics row shared by every export format
type RunSummary struct {
	RunID     types.RunID `json:"run_id"`
	Hostname  string      `json:"hostname"`
	Project   string      `json:"project"`
	Toolchain string      `json:"toolchain"`
	Benchmark string      `json:"benchmark"`
	CreatedAt time.Time   `json:"created_at"`
	Samples   int         `json:"samples"`

	MinMS *types.MillisecondDuration `json:"min_ms,omitempty"`
	AvgMS *types.MillisecondDuration `json:"avg_ms,omitempty"`
	MaxMS *types.MillisecondDuration `json:"max_ms,omitempty"`

	// Median and its confidence interval, in nanoseconds. The interval is
	// omitted when there are too few samples to bound it.
	MedianNS *float64 `json:"median_ns,omitempty"`
	CILowNS  *float64 `json:"ci_low_ns,omitempty"`
	CIHighNS *float64 `json:"ci_high_ns,omitempty"`

	Warnings []string `json:"warnings,omitempty"`
}

// Summarize computes the statistics for one run
func Summarize(run types.Run) RunSummary {
	s := RunSummary{
		RunID:     run.ID,
		Hostname:  run.Hostname,
		Project:   run.Project,
		Toolchain: run.ToolchainLabel,
		Benchmark: run.BenchmarkName,
		CreatedAt: run.CreatedAt,
		Samples:   len(run.Samples),
	}
	if !run.HasSamples() {
		return s
	}

	minMS := types.NSToMS(float64(run.Min()))
	avgMS := types.NSToMS(run.Average())
	maxMS := types.NSToMS(float64(run.Max()))
	s.MinMS, s.AvgMS, s.MaxMS = &minMS, &avgMS, &maxMS

	thresholds := benchmath.DefaultThresholds
	sample := benchmath.NewSample(run.SamplesAsFloat64(), &thresholds)
	for _, w := range sample.Warnings {
		s.Warnings = append(s.Warnings, w.Error())
	}
	summary := benchmath.AssumeNothing.Summary(sample, Confidence)
	for _, w := range summary.Warnings {
		s.Warnings = append(s.Warnings, w.Error())
	}

	s.MedianNS = finite(summary.Center)
	s.CILowNS = finite(summary.Lo)
	s.CIHighNS = finite(summary.Hi)
	if s.CILowNS == nil || s.CIHighNS == nil {
		s.CILowNS, s.CIHighNS = nil, nil
	}
	return s
}

// SummarizeAll keeps the order of runs
func SummarizeAll(runs []types.Run) []RunSummary {
	summaries := make([]RunSummary, len(runs))
	for i, run := range runs {
		summaries[i] = Summarize(run)
	}
	return summaries
}

func finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}
