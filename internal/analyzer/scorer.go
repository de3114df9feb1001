package analyzer

import (
	"math"

	"github.com/Cube-Core-Pro/cube-core-backend-sub016/internal/collector"
)

// Channel weights, summing to 1.0. Usage channels are inverted before
// weighting so lower utilization scores higher; dependency health channels
// already point the right way.
const (
	weightCPU       = 0.20
	weightMemory    = 0.20
	weightDisk      = 0.15
	weightNetwork   = 0.15
	weightDataStore = 0.20
	weightCache     = 0.10
)

var severityDeductions = map[Severity]float64{
	SeverityCritical: 20,
	SeverityHigh:     10,
	SeverityMedium:   5,
	SeverityLow:      2,
}

// ScoreHealth combines weighted channel scores and issue deductions into a
// 0-100 score and a tri-state status. A critical issue forces critical
// status regardless of the numeric score.
func ScoreHealth(snapshot collector.MetricSnapshot, issues []Issue) (int, HealthStatus) {
	base := weightCPU*(100-snapshot.CPUPercent) +
		weightMemory*(100-snapshot.MemoryPercent) +
		weightDisk*(100-snapshot.DiskPercent) +
		weightNetwork*(100-snapshot.NetworkPercent) +
		weightDataStore*snapshot.DataStoreHealth +
		weightCache*snapshot.CacheHealth

	hasCritical := false
	for _, issue := range issues {
		base -= severityDeductions[issue.Severity]
		if issue.Severity == SeverityCritical {
			hasCritical = true
		}
	}

	if base < 0 {
		base = 0
	}
	if base > 100 {
		base = 100
	}
	score := int(math.Round(base))

	status := StatusHealthy
	switch {
	case hasCritical || score < 30:
		status = StatusCritical
	case score < 70:
		status = StatusWarning
	}

	return score, status
}
