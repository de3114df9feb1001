package analyzer

import (
	"fmt"
	"sort"

	"github.com/Cube-Core-Pro/cube-core-backend-sub016/internal/collector"
)

// DetectIssues evaluates one snapshot against fixed thresholds. It is a pure
// function of the snapshot and returns findings sorted ascending by priority,
// ties kept in rule order.
func DetectIssues(snapshot collector.MetricSnapshot) []Issue {
	issues := []Issue{}

	// Memory pressure
	if snapshot.MemoryPercent > 85 {
		severity := SeverityHigh
		priority := 2
		if snapshot.MemoryPercent > 95 {
			severity = SeverityCritical
			priority = 1
		}
		issues = append(issues, Issue{
			ID:          "high-memory-usage",
			Severity:    severity,
			Category:    CategoryPerformance,
			Description: fmt.Sprintf("Memory usage at %.1f%%", snapshot.MemoryPercent),
			Impact:      "Degraded response times and risk of out-of-memory kills",
			Solution:    "Reclaim memory and review the largest consumers",
			AutoFix:     snapshot.MemoryPercent < 95,
			Priority:    priority,
		})
	}

	// Data store latency
	if snapshot.DataStoreHealth < 70 {
		severity := SeverityMedium
		priority := 3
		if snapshot.DataStoreHealth < 50 {
			severity = SeverityHigh
			priority = 2
		}
		issues = append(issues, Issue{
			ID:          "data-store-degraded",
			Severity:    severity,
			Category:    CategoryReliability,
			Description: fmt.Sprintf("Data store health at %.0f, probe latency %dms", snapshot.DataStoreHealth, snapshot.DataStoreLatencyMS),
			Impact:      "Slow queries back up request handling across the service",
			Solution:    "Refresh planner statistics and inspect slow queries",
			AutoFix:     true,
			Priority:    priority,
		})
	}

	// CPU saturation
	if snapshot.CPUPercent > 90 {
		issues = append(issues, Issue{
			ID:          "high-cpu-usage",
			Severity:    SeverityHigh,
			Category:    CategoryPerformance,
			Description: fmt.Sprintf("CPU usage at %.1f%%", snapshot.CPUPercent),
			Impact:      "Request latency rises as runnable work queues up",
			Solution:    "Profile hot paths and scale out workers",
			AutoFix:     false,
			Priority:    2,
		})
	}

	// Disk capacity
	if snapshot.DiskPercent > 90 {
		severity := SeverityHigh
		priority := 2
		if snapshot.DiskPercent > 97 {
			severity = SeverityCritical
			priority = 1
		}
		issues = append(issues, Issue{
			ID:          "disk-space-low",
			Severity:    severity,
			Category:    CategoryCapacity,
			Description: fmt.Sprintf("Disk usage at %.1f%%", snapshot.DiskPercent),
			Impact:      "Writes fail once the filesystem is full",
			Solution:    "Expand the volume or remove stale data",
			AutoFix:     false,
			Priority:    priority,
		})
	}

	// Cache latency
	if snapshot.CacheHealth < 70 {
		severity := SeverityMedium
		priority := 3
		if snapshot.CacheHealth < 50 {
			severity = SeverityHigh
			priority = 2
		}
		issues = append(issues, Issue{
			ID:          "cache-degraded",
			Severity:    severity,
			Category:    CategoryReliability,
			Description: fmt.Sprintf("Cache health at %.0f, probe latency %dms", snapshot.CacheHealth, snapshot.CacheLatencyMS),
			Impact:      "Cache misses push load onto the data store",
			Solution:    "Evict temporary keys and check cache memory pressure",
			AutoFix:     true,
			Priority:    priority,
		})
	}

	// Network saturation
	if snapshot.NetworkPercent > 95 {
		issues = append(issues, Issue{
			ID:          "network-saturation",
			Severity:    SeverityMedium,
			Category:    CategoryCapacity,
			Description: fmt.Sprintf("Network utilization at %.1f%% of link capacity", snapshot.NetworkPercent),
			Impact:      "Packet queuing adds latency to every dependency call",
			Solution:    "Enable compression or batch small writes",
			AutoFix:     false,
			Priority:    3,
		})
	}

	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Priority < issues[j].Priority
	})

	return issues
}
