package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cube-Core-Pro/cube-core-backend-sub016/internal/collector"
)

func perfectSnapshot() collector.MetricSnapshot {
	return collector.MetricSnapshot{
		DataStoreHealth: 100,
		CacheHealth:     100,
	}
}

func TestScoreHealth_PerfectSnapshot(t *testing.T) {
	score, status := ScoreHealth(perfectSnapshot(), nil)
	assert.Equal(t, 100, score)
	assert.Equal(t, StatusHealthy, status)
}

func TestScoreHealth_WeightedBase(t *testing.T) {
	// 0.2*80 + 0.2*60 + 0.15*70 + 0.15*90 + 0.2*100 + 0.1*100 = 82
	score, status := ScoreHealth(healthySnapshot(), nil)
	assert.Equal(t, 82, score)
	assert.Equal(t, StatusHealthy, status)
}

func TestScoreHealth_ClampInvariant(t *testing.T) {
	worst := collector.MetricSnapshot{
		CPUPercent:     100,
		MemoryPercent:  100,
		DiskPercent:    100,
		NetworkPercent: 100,
	}
	issues := []Issue{
		{Severity: SeverityCritical},
		{Severity: SeverityCritical},
		{Severity: SeverityCritical},
	}

	score, status := ScoreHealth(worst, issues)
	assert.Equal(t, 0, score)
	assert.Equal(t, StatusCritical, status)

	score, _ = ScoreHealth(perfectSnapshot(), nil)
	assert.LessOrEqual(t, score, 100)
	assert.GreaterOrEqual(t, score, 0)
}

func TestScoreHealth_CriticalIssueOverridesScore(t *testing.T) {
	// 100 base minus one critical deduction leaves 80, well inside the
	// healthy band, yet the status must still be critical
	issues := []Issue{{Severity: SeverityCritical}}

	score, status := ScoreHealth(perfectSnapshot(), issues)
	assert.Equal(t, 80, score)
	assert.Equal(t, StatusCritical, status)
}

func TestScoreHealth_StatusBands(t *testing.T) {
	lowScore := collector.MetricSnapshot{
		CPUPercent:      100,
		MemoryPercent:   100,
		DiskPercent:     100,
		NetworkPercent:  100,
		DataStoreHealth: 30,
		CacheHealth:     30,
	}
	// base = 0.2*30 + 0.1*30 = 9
	score, status := ScoreHealth(lowScore, nil)
	assert.Equal(t, 9, score)
	assert.Equal(t, StatusCritical, status)

	// deductions alone can push a healthy base into the warning band
	score, status = ScoreHealth(perfectSnapshot(), []Issue{
		{Severity: SeverityHigh},
		{Severity: SeverityHigh},
		{Severity: SeverityHigh},
		{Severity: SeverityMedium},
	})
	assert.Equal(t, 65, score)
	assert.Equal(t, StatusWarning, status)
}

func TestScoreHealth_SeverityDeductions(t *testing.T) {
	base, _ := ScoreHealth(perfectSnapshot(), nil)
	require.Equal(t, 100, base)

	cases := []struct {
		severity Severity
		want     int
	}{
		{SeverityCritical, 80},
		{SeverityHigh, 90},
		{SeverityMedium, 95},
		{SeverityLow, 98},
	}

	for _, tc := range cases {
		score, _ := ScoreHealth(perfectSnapshot(), []Issue{{Severity: tc.severity}})
		assert.Equal(t, tc.want, score, "severity %s", tc.severity)
	}
}

// End-to-end pipeline over a degraded-memory snapshot: one high issue,
// weighted base 63, minus 10, lands in the warning band.
func TestDetectScorePipeline_DegradedMemory(t *testing.T) {
	snapshot := collector.MetricSnapshot{
		CPUPercent:      50,
		MemoryPercent:   90,
		DiskPercent:     30,
		NetworkPercent:  20,
		DataStoreHealth: 95,
		CacheHealth:     95,
	}

	issues := DetectIssues(snapshot)
	require.Len(t, issues, 1)
	assert.Equal(t, "high-memory-usage", issues[0].ID)
	assert.Equal(t, SeverityHigh, issues[0].Severity)
	assert.Equal(t, 2, issues[0].Priority)
	assert.True(t, issues[0].AutoFix)

	score, status := ScoreHealth(snapshot, issues)
	assert.Equal(t, 53, score)
	assert.Equal(t, StatusWarning, status)
}
