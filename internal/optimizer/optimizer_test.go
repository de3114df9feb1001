package optimizer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fixedMeasure always reports the same value.
func fixedMeasure(v float64) MeasureFunc {
	return func(ctx context.Context) float64 { return v }
}

// seqMeasure reports values in order, repeating the last one.
func seqMeasure(values ...float64) MeasureFunc {
	i := 0
	return func(ctx context.Context) float64 {
		v := values[i]
		if i < len(values)-1 {
			i++
		}
		return v
	}
}

func countedAction(counter *int, err error) ActionFunc {
	return func(ctx context.Context) error {
		*counter++
		return err
	}
}

// healthyDeps measures everything comfortably inside its bar.
func healthyDeps(refreshCalls, reclaimCalls, evictCalls *int) Deps {
	return Deps{
		MeasureDataStore:  fixedMeasure(100),
		MeasureMemory:     fixedMeasure(50),
		MeasureCPU:        fixedMeasure(20),
		MeasureCache:      fixedMeasure(100),
		MeasureNetwork:    fixedMeasure(10),
		RefreshStatistics: countedAction(refreshCalls, nil),
		ReclaimMemory:     countedAction(reclaimCalls, nil),
		EvictTempKeys:     countedAction(evictCalls, nil),
	}
}

func TestOptimize_HealthySystemIsNoOp(t *testing.T) {
	var refresh, reclaim, evict int
	o := New(healthyDeps(&refresh, &reclaim, &evict), zap.NewNop())

	optimizations, err := o.Optimize(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, optimizations)
	assert.Empty(t, optimizations)
	assert.Zero(t, refresh)
	assert.Zero(t, reclaim)
	assert.Zero(t, evict)
}

func TestOptimize_DataStoreRefreshApplied(t *testing.T) {
	var refresh, reclaim, evict int
	deps := healthyDeps(&refresh, &reclaim, &evict)
	deps.MeasureDataStore = seqMeasure(70, 100)

	o := New(deps, zap.NewNop())
	optimizations, err := o.Optimize(context.Background())

	require.NoError(t, err)
	require.Len(t, optimizations, 1)
	opt := optimizations[0]
	assert.Equal(t, "data_store", opt.Component)
	assert.Equal(t, 70.0, opt.Current)
	assert.Equal(t, 85.0, opt.Target)
	assert.Equal(t, 30.0, opt.Improvement)
	assert.True(t, opt.Applied)
	assert.Equal(t, int64(3000), opt.EstimatedTimeMS)
	assert.Equal(t, 1, refresh)
}

func TestOptimize_MemoryReclaimUsesUsageAxis(t *testing.T) {
	var refresh, reclaim, evict int
	deps := healthyDeps(&refresh, &reclaim, &evict)
	deps.MeasureMemory = seqMeasure(90, 75)

	o := New(deps, zap.NewNop())
	optimizations, err := o.Optimize(context.Background())

	require.NoError(t, err)
	require.Len(t, optimizations, 1)
	opt := optimizations[0]
	assert.Equal(t, "memory", opt.Component)
	assert.Equal(t, 90.0, opt.Current)
	assert.Equal(t, 80.0, opt.Target)
	// Usage dropped 15 points, reported as positive improvement
	assert.Equal(t, 15.0, opt.Improvement)
	assert.True(t, opt.Applied)
	assert.Equal(t, 1, reclaim)
}

func TestOptimize_OverBudgetPlansReturnedUnapplied(t *testing.T) {
	var refresh, reclaim, evict int
	deps := healthyDeps(&refresh, &reclaim, &evict)
	deps.MeasureCPU = fixedMeasure(95)
	deps.MeasureNetwork = fixedMeasure(96)

	o := New(deps, zap.NewNop())
	optimizations, err := o.Optimize(context.Background())

	require.NoError(t, err)
	require.Len(t, optimizations, 2)

	cpu := optimizations[0]
	assert.Equal(t, "cpu", cpu.Component)
	assert.False(t, cpu.Applied)
	assert.Equal(t, 0.0, cpu.Improvement)
	assert.Equal(t, int64(30000), cpu.EstimatedTimeMS)

	network := optimizations[1]
	assert.Equal(t, "network", network.Component)
	assert.False(t, network.Applied)
	assert.Equal(t, int64(15000), network.EstimatedTimeMS)
}

func TestOptimize_ActionFailureDoesNotAbortSweep(t *testing.T) {
	var refresh, reclaim, evict int
	deps := healthyDeps(&refresh, &reclaim, &evict)
	deps.MeasureDataStore = seqMeasure(70, 100)
	deps.MeasureCache = fixedMeasure(60)
	deps.EvictTempKeys = countedAction(&evict, errors.New("cache unreachable"))

	o := New(deps, zap.NewNop())
	optimizations, err := o.Optimize(context.Background())

	require.NoError(t, err)
	// The failed cache eviction contributes nothing, the data store sweep
	// still lands
	require.Len(t, optimizations, 1)
	assert.Equal(t, "data_store", optimizations[0].Component)
	assert.Equal(t, 1, evict)
	assert.Equal(t, 1, refresh)
}

func TestOptimize_SweepOrderIsFixed(t *testing.T) {
	var refresh, reclaim, evict int
	deps := Deps{
		MeasureDataStore:  seqMeasure(70, 90),
		MeasureMemory:     seqMeasure(90, 70),
		MeasureCPU:        fixedMeasure(95),
		MeasureCache:      seqMeasure(60, 95),
		MeasureNetwork:    fixedMeasure(96),
		RefreshStatistics: countedAction(&refresh, nil),
		ReclaimMemory:     countedAction(&reclaim, nil),
		EvictTempKeys:     countedAction(&evict, nil),
	}

	o := New(deps, zap.NewNop())
	optimizations, err := o.Optimize(context.Background())

	require.NoError(t, err)
	require.Len(t, optimizations, 5)

	var order []string
	for _, opt := range optimizations {
		order = append(order, opt.Component)
	}
	assert.Equal(t, []string{"data_store", "memory", "cpu", "cache", "network"}, order)

	assert.True(t, optimizations[0].Applied)
	assert.True(t, optimizations[1].Applied)
	assert.False(t, optimizations[2].Applied)
	assert.True(t, optimizations[3].Applied)
	assert.False(t, optimizations[4].Applied)
}

func TestOptimize_BarEdges(t *testing.T) {
	var refresh, reclaim, evict int

	// Exactly on the bar counts as good enough
	deps := healthyDeps(&refresh, &reclaim, &evict)
	deps.MeasureDataStore = fixedMeasure(85)
	deps.MeasureMemory = fixedMeasure(80)

	o := New(deps, zap.NewNop())
	optimizations, err := o.Optimize(context.Background())
	require.NoError(t, err)
	assert.Empty(t, optimizations)

	// Just past the bar triggers
	deps = healthyDeps(&refresh, &reclaim, &evict)
	deps.MeasureDataStore = seqMeasure(84.9, 90)
	deps.MeasureMemory = seqMeasure(80.1, 70)

	o = New(deps, zap.NewNop())
	optimizations, err = o.Optimize(context.Background())
	require.NoError(t, err)
	assert.Len(t, optimizations, 2)
}

func TestOptimize_ContextCancelled(t *testing.T) {
	var refresh, reclaim, evict int
	o := New(healthyDeps(&refresh, &reclaim, &evict), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	optimizations, err := o.Optimize(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, optimizations)
}

func TestNew_DefaultsMemoryReclaim(t *testing.T) {
	var refresh, evict int
	deps := Deps{
		MeasureDataStore:  fixedMeasure(100),
		MeasureMemory:     seqMeasure(90, 70),
		MeasureCPU:        fixedMeasure(20),
		MeasureCache:      fixedMeasure(100),
		MeasureNetwork:    fixedMeasure(10),
		RefreshStatistics: countedAction(&refresh, nil),
		EvictTempKeys:     countedAction(&evict, nil),
	}

	o := New(deps, zap.NewNop())
	optimizations, err := o.Optimize(context.Background())

	require.NoError(t, err)
	require.Len(t, optimizations, 1)
	assert.Equal(t, "memory", optimizations[0].Component)
	assert.True(t, optimizations[0].Applied)
}
