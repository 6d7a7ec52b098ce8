package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostLoad summarizes host utilisation over a sampling window
type HostLoad struct {
	CPUPercent        float64 `json:"cpu_percent"`
	PeakMemoryPercent float64 `json:"peak_memory_percent"`
	Samples           int     `json:"samples"`
}

// HostSampler polls host CPU and memory utilisation while a timed iteration
// runs. Start and Stop may be called once each.
type HostSampler struct {
	interval time.Duration

	mu      sync.Mutex
	cpuSum  float64
	memPeak float64
	count   int

	cancel context.CancelFunc
	done   chan struct{}
}

// NewHostSampler creates a sampler polling every interval
func NewHostSampler(interval time.Duration) *HostSampler {
	return &HostSampler{interval: interval}
}

// Start begins sampling in the background
func (s *HostSampler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	// prime the busy counters so the first tick measures a real interval
	_, _ = cpu.PercentWithContext(ctx, 0, false)

	go s.collect(ctx)
}

// Stop ends sampling and returns what was measured
func (s *HostSampler) Stop() HostLoad {
	if s.cancel == nil {
		return HostLoad{}
	}
	s.cancel()
	<-s.done

	s.mu.Lock()
	defer s.mu.Unlock()
	load := HostLoad{PeakMemoryPercent: s.memPeak, Samples: s.count}
	if s.count > 0 {
		load.CPUPercent = s.cpuSum / float64(s.count)
	}
	return load
}

func (s *HostSampler) collect(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sample(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *HostSampler) sample(ctx context.Context) {
	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil || len(percents) == 0 {
		return
	}
	memPercent := 0.0
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		memPercent = vm.UsedPercent
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cpuSum += percents[0]
	s.count++
	if memPercent > s.memPeak {
		s.memPeak = memPercent
	}
}
