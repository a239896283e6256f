// Package hostmetrics exports host-level statistics (CPU, memory, disk, load,
// uptime) alongside the hiccup distribution, giving scrapes enough context to
// tell a loaded host apart from a misbehaving runtime.
package hostmetrics

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// DiskStats is the usage of a single mount point.
type DiskStats struct {
	Path        string
	TotalBytes  uint64
	UsedBytes   uint64
	UsedPercent float64
}

// HostStats is one reading of the host statistics the agent exports.
type HostStats struct {
	CpuPercent        float64
	MemoryTotalBytes  uint64
	MemoryUsedBytes   uint64
	MemoryUsedPercent float64
	Load1             float64
	Load5             float64
	Load15            float64
	UptimeSeconds     uint64
	Disks             []DiskStats
}

// StatsProvider reads host statistics. A reading is all-or-nothing: partial
// results never come back alongside a nil error.
type StatsProvider interface {
	Collect(ctx context.Context) (*HostStats, error)
}

// GopsutilStatsProvider reads host statistics through gopsutil.
type GopsutilStatsProvider struct {
	diskPaths []string
}

func NewGopsutilStatsProvider(diskPaths []string) *GopsutilStatsProvider {
	return &GopsutilStatsProvider{diskPaths: diskPaths}
}

func (p *GopsutilStatsProvider) Collect(ctx context.Context) (*HostStats, error) {
	// A zero interval diffs against the previous call instead of blocking
	// for a sampling window.
	cpuPercents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	stats := &HostStats{}
	if len(cpuPercents) > 0 {
		stats.CpuPercent = cpuPercents[0]
	}

	virtualMemory, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	stats.MemoryTotalBytes = virtualMemory.Total
	stats.MemoryUsedBytes = virtualMemory.Used
	stats.MemoryUsedPercent = virtualMemory.UsedPercent

	loadAverages, err := load.AvgWithContext(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	stats.Load1 = loadAverages.Load1
	stats.Load5 = loadAverages.Load5
	stats.Load15 = loadAverages.Load15

	uptime, err := host.UptimeWithContext(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	stats.UptimeSeconds = uptime

	for _, path := range p.diskPaths {
		usage, err := disk.UsageWithContext(ctx, path)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		stats.Disks = append(stats.Disks, DiskStats{
			Path:        path,
			TotalBytes:  usage.Total,
			UsedBytes:   usage.Used,
			UsedPercent: usage.UsedPercent,
		})
	}
	return stats, nil
}

// ManualStatsProvider is a StatsProvider for which readings, failures and
// collection delay are set manually; it exists for testing.
type ManualStatsProvider struct {
	mu    sync.Mutex
	stats *HostStats
	err   error
	delay time.Duration
}

func NewManualStatsProvider() *ManualStatsProvider {
	return &ManualStatsProvider{}
}

func (p *ManualStatsProvider) WithStats(stats *HostStats) *ManualStatsProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats = stats
	p.err = nil
	return p
}

func (p *ManualStatsProvider) WithError(err error) *ManualStatsProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
	return p
}

func (p *ManualStatsProvider) WithCollectionDelay(d time.Duration) *ManualStatsProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delay = d
	return p
}

func (p *ManualStatsProvider) Collect(ctx context.Context) (*HostStats, error) {
	p.mu.Lock()
	stats, err, delay := p.stats, p.err, p.delay
	p.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	if err != nil {
		return nil, err
	}
	reading := *stats
	reading.Disks = append([]DiskStats(nil), stats.Disks...)
	return &reading, nil
}
