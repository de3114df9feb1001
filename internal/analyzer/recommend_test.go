package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecommend_HealthySnapshot(t *testing.T) {
	recommendations := Recommend(healthySnapshot(), nil)
	assert.Empty(t, recommendations)
}

func TestRecommend_MemoryPressure(t *testing.T) {
	snapshot := healthySnapshot()
	snapshot.MemoryPercent = 81

	recommendations := Recommend(snapshot, nil)
	assert.Len(t, recommendations, 2)
	assert.Contains(t, recommendations[0], "memory reclamation")
}

func TestRecommend_AllRulesFire(t *testing.T) {
	snapshot := healthySnapshot()
	snapshot.MemoryPercent = 90
	snapshot.CPUPercent = 80
	snapshot.DataStoreHealth = 70

	issues := make([]Issue, 6)

	recommendations := Recommend(snapshot, issues)
	// 2 memory + 2 cpu + 2 data store + 1 issue-count
	assert.Len(t, recommendations, 7)
	assert.Contains(t, recommendations[6], "maintenance window")
}

func TestRecommend_ThresholdEdges(t *testing.T) {
	snapshot := healthySnapshot()
	snapshot.MemoryPercent = 80
	snapshot.CPUPercent = 75
	snapshot.DataStoreHealth = 80

	// All three values sit exactly on their thresholds, none strictly past
	recommendations := Recommend(snapshot, make([]Issue, 5))
	assert.Empty(t, recommendations)
}

func TestRecommend_Deterministic(t *testing.T) {
	snapshot := healthySnapshot()
	snapshot.MemoryPercent = 85

	first := Recommend(snapshot, nil)
	second := Recommend(snapshot, nil)
	assert.Equal(t, first, second)
}
