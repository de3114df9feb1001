// Package monitor drives the recurring health and optimization loops and
// owns the published health report.
package monitor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Cube-Core-Pro/cube-core-backend-sub016/internal/analyzer"
	"github.com/Cube-Core-Pro/cube-core-backend-sub016/internal/collector"
	"github.com/Cube-Core-Pro/cube-core-backend-sub016/internal/metrics"
	"github.com/Cube-Core-Pro/cube-core-backend-sub016/internal/optimizer"
	"github.com/Cube-Core-Pro/cube-core-backend-sub016/internal/storage"
)

// HealthCacheKey is the fixed single-slot key the current report is
// published under.
const HealthCacheKey = "system:health"

// SnapshotCollector produces metric snapshots.
type SnapshotCollector interface {
	Collect(ctx context.Context) collector.MetricSnapshot
}

// ReportCache publishes the single-slot health report.
type ReportCache interface {
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	GetJSON(ctx context.Context, key string, dst interface{}) error
}

// HistoryStore persists finished reports and optimization outcomes.
type HistoryStore interface {
	InsertHealthRecord(ctx context.Context, record *storage.HealthRecord) error
	InsertOptimizationRun(ctx context.Context, run *storage.OptimizationRun) error
	PruneHealthRecords(ctx context.Context, keep int) (int64, error)
}

type Config struct {
	HealthInterval   time.Duration
	OptimizeInterval time.Duration
	CacheTTL         time.Duration
	HistoryRetention int

	// PoolAcquiredConns, when set, feeds the database pool gauge each tick.
	PoolAcquiredConns func() int32
}

type Monitor struct {
	cfg       Config
	collector SnapshotCollector
	optimizer *optimizer.Optimizer
	history   HistoryStore
	cache     ReportCache
	logger    *zap.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	healthBusy   atomic.Bool
	optimizeBusy atomic.Bool

	reportMu   sync.RWMutex
	lastReport *analyzer.HealthReport
}

func New(cfg Config, col SnapshotCollector, opt *optimizer.Optimizer, history HistoryStore, cache ReportCache, logger *zap.Logger) *Monitor {
	return &Monitor{
		cfg:       cfg,
		collector: col,
		optimizer: opt,
		history:   history,
		cache:     cache,
		logger:    logger,
	}
}

// Start launches the two loops. It is idempotent; a running monitor is left
// alone.
func (m *Monitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}
	m.running = true
	m.stopCh = make(chan struct{})

	m.recoverCachedReport()

	m.wg.Add(2)
	go m.healthLoop()
	go m.optimizeLoop()

	m.logger.Info("Monitor started",
		zap.Duration("health_interval", m.cfg.HealthInterval),
		zap.Duration("optimize_interval", m.cfg.OptimizeInterval))
	return nil
}

// Stop halts both loops and waits for any in-flight tick to finish.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stopCh)
	m.mu.Unlock()

	m.wg.Wait()
	m.logger.Info("Monitor stopped")
}

// LastReport returns the most recently published report, or nil before the
// first tick. Reports are replaced whole and never mutated, so the pointer
// is safe to share.
func (m *Monitor) LastReport() *analyzer.HealthReport {
	m.reportMu.RLock()
	defer m.reportMu.RUnlock()
	return m.lastReport
}

// RunOptimization performs one optimizer sweep and records every resulting
// plan in history. Recording failures are logged, the plans are still
// returned.
func (m *Monitor) RunOptimization(ctx context.Context) ([]optimizer.PerformanceOptimization, error) {
	optimizations, err := m.optimizer.Optimize(ctx)
	if err != nil {
		return nil, err
	}

	for _, opt := range optimizations {
		run := &storage.OptimizationRun{
			Component:       opt.Component,
			CurrentValue:    opt.Current,
			TargetValue:     opt.Target,
			Improvement:     opt.Improvement,
			Actions:         opt.Actions,
			EstimatedTimeMS: opt.EstimatedTimeMS,
			Applied:         opt.Applied,
		}
		if err := m.history.InsertOptimizationRun(ctx, run); err != nil {
			m.logger.Warn("Failed to record optimization run",
				zap.String("component", opt.Component),
				zap.Error(err))
		}
	}

	return optimizations, nil
}

// BuildReport runs one full collection and diagnosis cycle without
// publishing the result.
func (m *Monitor) BuildReport(ctx context.Context) *analyzer.HealthReport {
	snapshot := m.collector.Collect(ctx)
	issues := analyzer.DetectIssues(snapshot)
	score, status := analyzer.ScoreHealth(snapshot, issues)
	recommendations := analyzer.Recommend(snapshot, issues)

	return &analyzer.HealthReport{
		Status:          status,
		Score:           score,
		Metrics:         snapshot,
		Issues:          issues,
		Recommendations: recommendations,
		GeneratedAt:     time.Now(),
	}
}

func (m *Monitor) healthLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.HealthInterval)
	defer ticker.Stop()

	// Initial collection so readers see a report before the first interval
	// elapses
	m.runHealthTick()

	for {
		select {
		case <-ticker.C:
			m.runHealthTick()
		case <-m.stopCh:
			return
		}
	}
}

func (m *Monitor) optimizeLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.OptimizeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.runOptimizeTick()
		case <-m.stopCh:
			return
		}
	}
}

func (m *Monitor) runHealthTick() {
	if !m.healthBusy.CompareAndSwap(false, true) {
		m.logger.Warn("Previous health tick still running, skipping")
		metrics.TicksSkipped.WithLabelValues("health").Inc()
		return
	}
	defer m.healthBusy.Store(false)

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.HealthInterval)
	defer cancel()

	report := m.BuildReport(ctx)
	m.publish(ctx, report)

	metrics.RecordTick("health", time.Since(start))
	m.logger.Debug("Health tick completed",
		zap.Int("score", report.Score),
		zap.String("status", string(report.Status)),
		zap.Int("issues", len(report.Issues)))
}

func (m *Monitor) runOptimizeTick() {
	if !m.optimizeBusy.CompareAndSwap(false, true) {
		m.logger.Warn("Previous optimization tick still running, skipping")
		metrics.TicksSkipped.WithLabelValues("optimize").Inc()
		return
	}
	defer m.optimizeBusy.Store(false)

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.OptimizeInterval)
	defer cancel()

	report := m.BuildReport(ctx)
	if report.Status != analyzer.StatusHealthy {
		m.logger.Info("Status degraded, running optimization pass",
			zap.String("status", string(report.Status)),
			zap.Int("score", report.Score))

		optimizations, err := m.RunOptimization(ctx)
		if err != nil {
			m.logger.Error("Optimization pass aborted", zap.Error(err))
		} else {
			applied := 0
			for _, opt := range optimizations {
				if opt.Applied {
					applied++
				}
			}
			m.logger.Info("Optimization pass finished",
				zap.Int("applied", applied),
				zap.Int("deferred", len(optimizations)-applied))
		}
	}

	if _, err := m.history.PruneHealthRecords(ctx, m.cfg.HistoryRetention); err != nil {
		m.logger.Warn("Failed to prune health history", zap.Error(err))
	}

	metrics.RecordTick("optimize", time.Since(start))
}

// publish replaces the in-process report, overwrites the cache slot, records
// the report in history and updates the gauges. Cache and history failures
// are logged, never fatal to the tick.
func (m *Monitor) publish(ctx context.Context, report *analyzer.HealthReport) {
	m.reportMu.Lock()
	m.lastReport = report
	m.reportMu.Unlock()

	if err := m.cache.SetJSON(ctx, HealthCacheKey, report, m.cfg.CacheTTL); err != nil {
		m.logger.Warn("Failed to publish health report to cache", zap.Error(err))
	}

	record := &storage.HealthRecord{
		Status:          string(report.Status),
		Score:           report.Score,
		CPUPercent:      report.Metrics.CPUPercent,
		MemoryPercent:   report.Metrics.MemoryPercent,
		DiskPercent:     report.Metrics.DiskPercent,
		NetworkPercent:  report.Metrics.NetworkPercent,
		DataStoreHealth: report.Metrics.DataStoreHealth,
		CacheHealth:     report.Metrics.CacheHealth,
		IssueCount:      len(report.Issues),
		Recommendations: report.Recommendations,
	}
	if err := m.history.InsertHealthRecord(ctx, record); err != nil {
		m.logger.Warn("Failed to record health report", zap.Error(err))
	}

	metrics.RecordReport(string(report.Status), report.Score,
		report.Metrics.CPUPercent, report.Metrics.MemoryPercent,
		report.Metrics.DiskPercent, report.Metrics.NetworkPercent,
		report.Metrics.DataStoreHealth, report.Metrics.CacheHealth)
	metrics.ProbeLatency.WithLabelValues("data_store").Observe(float64(report.Metrics.DataStoreLatencyMS) / 1000)
	metrics.ProbeLatency.WithLabelValues("cache").Observe(float64(report.Metrics.CacheLatencyMS) / 1000)
	for _, issue := range report.Issues {
		metrics.IssuesDetected.WithLabelValues(string(issue.Severity)).Inc()
	}
	if m.cfg.PoolAcquiredConns != nil {
		metrics.DBPoolAcquiredConns.Set(float64(m.cfg.PoolAcquiredConns()))
	}
}

// recoverCachedReport warms the in-process slot from the cache so a restart
// inside the TTL window serves the previous report until the first tick.
func (m *Monitor) recoverCachedReport() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var report analyzer.HealthReport
	err := m.cache.GetJSON(ctx, HealthCacheKey, &report)
	if errors.Is(err, storage.ErrCacheMiss) {
		return
	}
	if err != nil {
		m.logger.Warn("Failed to recover cached health report", zap.Error(err))
		return
	}

	m.reportMu.Lock()
	m.lastReport = &report
	m.reportMu.Unlock()

	m.logger.Info("Recovered cached health report",
		zap.Int("score", report.Score),
		zap.Time("generated_at", report.GeneratedAt))
}
