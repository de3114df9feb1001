package analyzer

import (
	"github.com/Cube-Core-Pro/cube-core-backend-sub016/internal/collector"
)

// Recommend maps metric and issue patterns to remediation suggestions. It is
// deterministic for a given snapshot; overlapping rules may repeat advice and
// no deduplication is applied.
func Recommend(snapshot collector.MetricSnapshot, issues []Issue) []string {
	recommendations := []string{}

	if snapshot.MemoryPercent > 80 {
		recommendations = append(recommendations,
			"Run a memory reclamation pass and review the largest consumers",
			"Consider raising the memory limit or reducing per-worker footprint",
		)
	}

	if snapshot.CPUPercent > 75 {
		recommendations = append(recommendations,
			"Profile hot code paths under current load",
			"Scale out workers or defer background jobs",
		)
	}

	if snapshot.DataStoreHealth < 80 {
		recommendations = append(recommendations,
			"Refresh planner statistics on the data store",
			"Review slow queries and connection pool sizing",
		)
	}

	if len(issues) > 5 {
		recommendations = append(recommendations,
			"Multiple concurrent issues detected, schedule a maintenance window",
		)
	}

	return recommendations
}
