package metrics

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEnvironmentInfo(t *testing.T) {
	env := GetEnvironmentInfo(context.Background())

	assert.Equal(t, runtime.GOOS, env.OS)
	assert.Equal(t, runtime.GOARCH, env.Architecture)
	assert.Equal(t, runtime.Version(), env.GoVersion)
	assert.Equal(t, runtime.NumCPU(), env.CPUCores)
	assert.NotEmpty(t, env.Hostname)
}

func TestHostname(t *testing.T) {
	name, err := Hostname(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, name)
	assert.Equal(t, GetEnvironmentInfo(context.Background()).Hostname, name)
}

func TestHostSampler(t *testing.T) {
	s := NewHostSampler(5 * time.Millisecond)
	s.Start(context.Background())
	time.Sleep(60 * time.Millisecond)
	load := s.Stop()

	assert.Greater(t, load.Samples, 0)
	assert.GreaterOrEqual(t, load.CPUPercent, 0.0)
	assert.LessOrEqual(t, load.CPUPercent, 100.0)
	assert.GreaterOrEqual(t, load.PeakMemoryPercent, 0.0)
}

func TestHostSamplerStopWithoutStart(t *testing.T) {
	assert.Equal(t, HostLoad{}, NewHostSampler(time.Second).Stop())
}
