// Package collector samples host utilization and dependency health into
// metric snapshots.
package collector

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	gopsnet "github.com/shirou/gopsutil/v3/net"
	"go.uber.org/zap"
)

// cpuSampleWindow is the delay between the two CPU time samples. The network
// byte counters are read on both sides of the same window.
const cpuSampleWindow = 100 * time.Millisecond

// MetricSnapshot is one complete sampling of the six monitored channels.
// Usage channels are percentages, dependency channels are latency-banded
// health scores. A failed probe shows up as 0, never as a missing field.
type MetricSnapshot struct {
	CPUPercent         float64   `json:"cpu_percent"`
	MemoryPercent      float64   `json:"memory_percent"`
	DiskPercent        float64   `json:"disk_percent"`
	NetworkPercent     float64   `json:"network_percent"`
	DataStoreHealth    float64   `json:"data_store_health"`
	CacheHealth        float64   `json:"cache_health"`
	DataStoreLatencyMS int64     `json:"data_store_latency_ms"`
	CacheLatencyMS     int64     `json:"cache_latency_ms"`
	CollectedAt        time.Time `json:"collected_at"`
}

// ProbeFunc measures one round trip against an external dependency.
type ProbeFunc func(ctx context.Context) (time.Duration, error)

// LatencyScore maps a probe round trip onto a 0-100 health score. A failed
// probe always scores 0.
func LatencyScore(latency time.Duration, err error) float64 {
	if err != nil {
		return 0
	}
	switch {
	case latency < 50*time.Millisecond:
		return 100
	case latency < 100*time.Millisecond:
		return 90
	case latency < 200*time.Millisecond:
		return 80
	case latency < 500*time.Millisecond:
		return 70
	case latency < 1000*time.Millisecond:
		return 50
	default:
		return 30
	}
}

type Collector struct {
	diskPath     string
	capacityMbps float64
	logger       *zap.Logger

	probeDataStore ProbeFunc
	probeCache     ProbeFunc

	// Sampling functions, swappable in tests
	cpuPercent    func(ctx context.Context, interval time.Duration, percpu bool) ([]float64, error)
	virtualMemory func(ctx context.Context) (*mem.VirtualMemoryStat, error)
	diskUsage     func(ctx context.Context, path string) (*disk.UsageStat, error)
	ioCounters    func(ctx context.Context, pernic bool) ([]gopsnet.IOCountersStat, error)
}

// New builds a collector. diskPath is the mount point whose usage is
// reported; capacityMbps is the link capacity network throughput is scored
// against.
func New(diskPath string, capacityMbps float64, dataStoreProbe, cacheProbe ProbeFunc, logger *zap.Logger) *Collector {
	return &Collector{
		diskPath:       diskPath,
		capacityMbps:   capacityMbps,
		logger:         logger,
		probeDataStore: dataStoreProbe,
		probeCache:     cacheProbe,
		cpuPercent:     cpu.PercentWithContext,
		virtualMemory:  mem.VirtualMemoryWithContext,
		diskUsage:      disk.UsageWithContext,
		ioCounters:     gopsnet.IOCountersWithContext,
	}
}

// Collect produces a fresh snapshot. It never fails as a whole: each probe
// or sample that errors degrades its own channel to 0 and logs a warning.
func (c *Collector) Collect(ctx context.Context) MetricSnapshot {
	snapshot := MetricSnapshot{CollectedAt: time.Now()}

	netBefore, netBeforeErr := c.sampleNetworkBytes(ctx)
	netStart := time.Now()

	snapshot.CPUPercent = c.collectCPU(ctx)
	snapshot.MemoryPercent = c.collectMemory(ctx)
	snapshot.DiskPercent = c.collectDisk(ctx)
	snapshot.NetworkPercent = c.collectNetwork(ctx, netBefore, netBeforeErr, netStart)

	latency, err := c.probeDataStore(ctx)
	if err != nil {
		c.logger.Warn("Data store probe failed", zap.Error(err))
	}
	snapshot.DataStoreHealth = LatencyScore(latency, err)
	snapshot.DataStoreLatencyMS = latency.Milliseconds()

	latency, err = c.probeCache(ctx)
	if err != nil {
		c.logger.Warn("Cache probe failed", zap.Error(err))
	}
	snapshot.CacheHealth = LatencyScore(latency, err)
	snapshot.CacheLatencyMS = latency.Milliseconds()

	return snapshot
}

// MeasureCPU samples CPU utilization once over the standard window.
func (c *Collector) MeasureCPU(ctx context.Context) float64 {
	return c.collectCPU(ctx)
}

// MeasureMemory samples current memory utilization.
func (c *Collector) MeasureMemory(ctx context.Context) float64 {
	return c.collectMemory(ctx)
}

// MeasureDataStore probes the data store and returns its banded health.
func (c *Collector) MeasureDataStore(ctx context.Context) float64 {
	latency, err := c.probeDataStore(ctx)
	if err != nil {
		c.logger.Warn("Data store probe failed", zap.Error(err))
	}
	return LatencyScore(latency, err)
}

// MeasureCache probes the cache and returns its banded health.
func (c *Collector) MeasureCache(ctx context.Context) float64 {
	latency, err := c.probeCache(ctx)
	if err != nil {
		c.logger.Warn("Cache probe failed", zap.Error(err))
	}
	return LatencyScore(latency, err)
}

// MeasureNetwork samples throughput over the standard window and scores it
// against link capacity.
func (c *Collector) MeasureNetwork(ctx context.Context) float64 {
	before, err := c.sampleNetworkBytes(ctx)
	start := time.Now()
	select {
	case <-time.After(cpuSampleWindow):
	case <-ctx.Done():
		return 0
	}
	return c.collectNetwork(ctx, before, err, start)
}

func (c *Collector) collectCPU(ctx context.Context) float64 {
	percents, err := c.cpuPercent(ctx, cpuSampleWindow, false)
	if err != nil || len(percents) == 0 {
		c.logger.Warn("CPU sampling failed", zap.Error(err))
		return 0
	}
	return clampPercent(percents[0])
}

func (c *Collector) collectMemory(ctx context.Context) float64 {
	vm, err := c.virtualMemory(ctx)
	if err != nil {
		c.logger.Warn("Memory sampling failed", zap.Error(err))
		return 0
	}
	return clampPercent(vm.UsedPercent)
}

func (c *Collector) collectDisk(ctx context.Context) float64 {
	usage, err := c.diskUsage(ctx, c.diskPath)
	if err != nil {
		c.logger.Warn("Disk sampling failed",
			zap.String("path", c.diskPath),
			zap.Error(err))
		return 0
	}
	return clampPercent(usage.UsedPercent)
}

// collectNetwork reads the aggregate byte counters a second time and scores
// the observed rate against the configured link capacity.
func (c *Collector) collectNetwork(ctx context.Context, before uint64, beforeErr error, start time.Time) float64 {
	if beforeErr != nil {
		c.logger.Warn("Network sampling failed", zap.Error(beforeErr))
		return 0
	}

	after, err := c.sampleNetworkBytes(ctx)
	if err != nil {
		c.logger.Warn("Network sampling failed", zap.Error(err))
		return 0
	}

	elapsed := time.Since(start).Seconds()
	if elapsed <= 0 || after < before {
		return 0
	}

	bitsPerSecond := float64(after-before) * 8 / elapsed
	capacityBits := c.capacityMbps * 1e6
	return clampPercent(bitsPerSecond / capacityBits * 100)
}

func (c *Collector) sampleNetworkBytes(ctx context.Context) (uint64, error) {
	counters, err := c.ioCounters(ctx, false)
	if err != nil {
		return 0, err
	}
	var total uint64
	for _, counter := range counters {
		total += counter.BytesSent + counter.BytesRecv
	}
	return total, nil
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
