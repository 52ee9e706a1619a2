package envprobe

import (
	"context"
	"sync"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostProbe captures runner host metadata attached to ingested runs.
// Implements port.EnvironmentProbe.
type HostProbe struct {
	once   sync.Once
	cached map[string]interface{}
	err    error
}

func NewHostProbe() *HostProbe {
	return &HostProbe{}
}

// Describe returns host attributes. The probe runs once and caches the
// result since host identity does not change while the process lives.
func (p *HostProbe) Describe(ctx context.Context) (map[string]interface{}, error) {
	p.once.Do(func() {
		p.cached, p.err = describe(ctx)
	})
	if p.err != nil {
		return nil, p.err
	}

	// copy so callers cannot mutate the cache
	attributes := make(map[string]interface{}, len(p.cached))
	for key, value := range p.cached {
		attributes[key] = value
	}
	return attributes, nil
}

func describe(ctx context.Context) (map[string]interface{}, error) {
	attributes := make(map[string]interface{})

	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return nil, err
	}
	attributes["hostname"] = info.Hostname
	attributes["os"] = info.OS
	attributes["platform"] = info.Platform
	attributes["platform_version"] = info.PlatformVersion
	attributes["kernel_version"] = info.KernelVersion
	attributes["arch"] = info.KernelArch

	if cpuInfo, err := cpu.InfoWithContext(ctx); err == nil && len(cpuInfo) > 0 {
		attributes["cpu_model"] = cpuInfo[0].ModelName
	}
	if cores, err := cpu.CountsWithContext(ctx, true); err == nil {
		attributes["cpu_cores"] = cores
	}

	if vmStat, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		attributes["memory_total_mb"] = vmStat.Total / 1024 / 1024
	}

	return attributes, nil
}
