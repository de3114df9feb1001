// Package optimizer sweeps the monitored components and applies bounded,
// reversible corrective actions where health has slipped below the bars.
package optimizer

import (
	"context"
	"runtime"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"github.com/Cube-Core-Pro/cube-core-backend-sub016/internal/metrics"
)

// Good-enough bars. Health components trigger below their bar, usage
// components above it; a component sitting exactly on the bar is left alone.
const (
	dataStoreBar = 85.0
	cacheBar     = 85.0
	memoryBar    = 80.0
	cpuBar       = 85.0
	networkBar   = 85.0
)

// autoApplyBudgetMS caps which plans run synchronously. Anything estimated
// at or over the budget is returned unapplied for the operator to act on.
const autoApplyBudgetMS = 5000

// PerformanceOptimization records one corrective plan and, when applied, the
// measured before/after delta.
type PerformanceOptimization struct {
	Component       string   `json:"component"`
	Current         float64  `json:"current"`
	Target          float64  `json:"target"`
	Improvement     float64  `json:"improvement"`
	Actions         []string `json:"actions"`
	EstimatedTimeMS int64    `json:"estimated_time_ms"`
	Applied         bool     `json:"applied"`
}

// MeasureFunc samples one component's current value on its natural axis.
type MeasureFunc func(ctx context.Context) float64

// ActionFunc performs one bounded corrective action.
type ActionFunc func(ctx context.Context) error

// Deps wires the measurement and action surfaces the optimizer drives.
type Deps struct {
	MeasureDataStore MeasureFunc
	MeasureMemory    MeasureFunc
	MeasureCPU       MeasureFunc
	MeasureCache     MeasureFunc
	MeasureNetwork   MeasureFunc

	RefreshStatistics ActionFunc
	ReclaimMemory     ActionFunc
	EvictTempKeys     ActionFunc
}

type Optimizer struct {
	deps   Deps
	logger *zap.Logger
}

func New(deps Deps, logger *zap.Logger) *Optimizer {
	if deps.ReclaimMemory == nil {
		deps.ReclaimMemory = ReclaimMemory
	}
	return &Optimizer{
		deps:   deps,
		logger: logger,
	}
}

// ReclaimMemory forces a garbage collection pass and returns retained pages
// to the OS.
func ReclaimMemory(ctx context.Context) error {
	runtime.GC()
	debug.FreeOSMemory()
	return nil
}

// component describes one sweep entry. usage components measure utilization
// (lower is better), the rest measure banded health (higher is better).
type component struct {
	name        string
	usage       bool
	bar         float64
	measure     MeasureFunc
	action      ActionFunc
	actions     []string
	estimatedMS int64
}

func (o *Optimizer) components() []component {
	return []component{
		{
			name:        "data_store",
			bar:         dataStoreBar,
			measure:     o.deps.MeasureDataStore,
			action:      o.deps.RefreshStatistics,
			actions:     []string{"Refresh query planner statistics"},
			estimatedMS: 3000,
		},
		{
			name:        "memory",
			usage:       true,
			bar:         memoryBar,
			measure:     o.deps.MeasureMemory,
			action:      o.deps.ReclaimMemory,
			actions:     []string{"Force garbage collection", "Return free pages to the OS"},
			estimatedMS: 500,
		},
		{
			name:        "cpu",
			usage:       true,
			bar:         cpuBar,
			measure:     o.deps.MeasureCPU,
			actions:     []string{"Profile hot code paths", "Scale out workers"},
			estimatedMS: 30000,
		},
		{
			name:        "cache",
			bar:         cacheBar,
			measure:     o.deps.MeasureCache,
			action:      o.deps.EvictTempKeys,
			actions:     []string{"Evict temporary key namespace"},
			estimatedMS: 1000,
		},
		{
			name:        "network",
			usage:       true,
			bar:         networkBar,
			measure:     o.deps.MeasureNetwork,
			actions:     []string{"Enable response compression", "Batch small writes"},
			estimatedMS: 15000,
		},
	}
}

// Optimize sweeps all components independently. A failed action drops that
// component from the result and never aborts the sweep; the only hard error
// is context cancellation.
func (o *Optimizer) Optimize(ctx context.Context) ([]PerformanceOptimization, error) {
	optimizations := []PerformanceOptimization{}

	for _, comp := range o.components() {
		if err := ctx.Err(); err != nil {
			return optimizations, err
		}

		opt, ok := o.optimizeComponent(ctx, comp)
		if !ok {
			continue
		}
		optimizations = append(optimizations, opt)
	}

	return optimizations, nil
}

func (o *Optimizer) optimizeComponent(ctx context.Context, comp component) (PerformanceOptimization, bool) {
	current := comp.measure(ctx)

	if comp.goodEnough(current) {
		return PerformanceOptimization{}, false
	}

	opt := PerformanceOptimization{
		Component:       comp.name,
		Current:         current,
		Target:          comp.bar,
		Actions:         comp.actions,
		EstimatedTimeMS: comp.estimatedMS,
	}

	if comp.action == nil || comp.estimatedMS >= autoApplyBudgetMS {
		o.logger.Info("Optimization deferred",
			zap.String("component", comp.name),
			zap.Float64("current", current),
			zap.Int64("estimated_ms", comp.estimatedMS))
		metrics.Optimizations.WithLabelValues(comp.name, "deferred").Inc()
		return opt, true
	}

	start := time.Now()
	if err := comp.action(ctx); err != nil {
		o.logger.Error("Optimization action failed",
			zap.String("component", comp.name),
			zap.Float64("current", current),
			zap.Error(err))
		metrics.Optimizations.WithLabelValues(comp.name, "failed").Inc()
		return PerformanceOptimization{}, false
	}

	after := comp.measure(ctx)
	opt.Improvement = comp.improvement(current, after)
	opt.Applied = true

	o.logger.Info("Optimization applied",
		zap.String("component", comp.name),
		zap.Float64("before", current),
		zap.Float64("after", after),
		zap.Float64("improvement", opt.Improvement),
		zap.Duration("duration", time.Since(start)))
	metrics.Optimizations.WithLabelValues(comp.name, "applied").Inc()

	return opt, true
}

func (c component) goodEnough(current float64) bool {
	if c.usage {
		return current <= c.bar
	}
	return current >= c.bar
}

// improvement is positive when the component moved the right way.
func (c component) improvement(before, after float64) float64 {
	if c.usage {
		return before - after
	}
	return after - before
}
