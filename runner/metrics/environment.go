package metrics

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// EnvironmentInfo describes the machine the benchmarks ran on
type EnvironmentInfo struct {
	Hostname        string  `json:"hostname"`
	OS              string  `json:"os"`
	Platform        string  `json:"platform,omitempty"`
	PlatformVersion string  `json:"platform_version,omitempty"`
	KernelVersion   string  `json:"kernel_version,omitempty"`
	Architecture    string  `json:"architecture"`
	GoVersion       string  `json:"go_version"`
	CPUCores        int     `json:"cpu_cores"`
	CPUModel        string  `json:"cpu_model,omitempty"`
	TotalMemoryGB   float64 `json:"total_memory_gb,omitempty"`
}

// GetEnvironmentInfo collects static environment information. Fields gopsutil
// cannot determine are left empty.
func GetEnvironmentInfo(ctx context.Context) EnvironmentInfo {
	env := EnvironmentInfo{
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
		GoVersion:    runtime.Version(),
		CPUCores:     runtime.NumCPU(),
	}

	if info, err := host.InfoWithContext(ctx); err == nil {
		env.Hostname = info.Hostname
		env.Platform = info.Platform
		env.PlatformVersion = info.PlatformVersion
		env.KernelVersion = info.KernelVersion
	}
	if env.Hostname == "" {
		env.Hostname, _ = os.Hostname()
	}

	if cpuInfo, err := cpu.InfoWithContext(ctx); err == nil && len(cpuInfo) > 0 {
		env.CPUModel = cpuInfo[0].ModelName
	}

	if memInfo, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		env.TotalMemoryGB = float64(memInfo.Total) / 1024 / 1024 / 1024
	}

	return env
}

// Hostname returns the name runs are recorded under
func Hostname(ctx context.Context) (string, error) {
	if info, err := host.InfoWithContext(ctx); err == nil && info.Hostname != "" {
		return info.Hostname, nil
	}
	name, err := os.Hostname()
	if err != nil {
		return "", fmt.Errorf("failed to determine hostname: %w", err)
	}
	return name, nil
}
