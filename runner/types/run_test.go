package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunStatistics(t *testing.T) {
	run := Run{Samples: []NanosecondDuration{10, 20, 30}}

	assert.True(t, run.HasSamples())
	assert.Equal(t, 20.0, run.Average())
	assert.Equal(t, NanosecondDuration(10), run.Min())
	assert.Equal(t, NanosecondDuration(30), run.Max())
	assert.Equal(t, []float64{10, 20, 30}, run.SamplesAsFloat64())
}

func TestRunStatisticsWithoutSamples(t *testing.T) {
	run := Run{}

	assert.False(t, run.HasSamples())
	assert.Zero(t, run.Average())
	assert.Zero(t, run.Min())
	assert.Zero(t, run.Max())
}

func TestRunSpec(t *testing.T) {
	run := Run{
		ID:             7,
		Hostname:       "host1",
		Project:        "proj",
		ToolchainLabel: "tc",
		BenchmarkName:  "bench",
	}

	spec := run.Spec()
	assert.Equal(t, BenchmarkSpec{
		Hostname:       "host1",
		Project:        "proj",
		ToolchainLabel: "tc",
		BenchmarkName:  "bench",
	}, spec)
	assert.Equal(t, "host1/proj/tc/bench", spec.String())
}

func TestNSToMS(t *testing.T) {
	tests := []struct {
		name     string
		ns       float64
		expected MillisecondDuration
	}{
		{name: "zero", ns: 0, expected: 0},
		{name: "exact millisecond", ns: 5e6, expected: 5},
		{name: "rounds up", ns: 5e6 + 1, expected: 6},
		{name: "sub millisecond", ns: 20, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NSToMS(tt.ns))
		})
	}
}
