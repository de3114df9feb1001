package analyzer

import (
	"time"

	"github.com/Cube-Core-Pro/cube-core-backend-sub016/internal/collector"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

type Category string

const (
	CategoryPerformance Category = "performance"
	CategorySecurity    Category = "security"
	CategoryReliability Category = "reliability"
	CategoryCapacity    Category = "capacity"
)

type HealthStatus string

const (
	StatusHealthy  HealthStatus = "healthy"
	StatusWarning  HealthStatus = "warning"
	StatusCritical HealthStatus = "critical"
)

// Issue is one structured finding from comparing a snapshot against fixed
// thresholds. Lower Priority is more urgent.
type Issue struct {
	ID          string   `json:"id"`
	Severity    Severity `json:"severity"`
	Category    Category `json:"category"`
	Description string   `json:"description"`
	Impact      string   `json:"impact"`
	Solution    string   `json:"solution"`
	AutoFix     bool     `json:"auto_fix"`
	Priority    int      `json:"priority"`
}

// HealthReport is the externally visible snapshot-plus-diagnosis artifact.
// It is always replaced whole, never mutated in place.
type HealthReport struct {
	Status          HealthStatus             `json:"status"`
	Score           int                      `json:"score"`
	Metrics         collector.MetricSnapshot `json:"metrics"`
	Issues          []Issue                  `json:"issues"`
	Recommendations []string                 `json:"recommendations"`
	GeneratedAt     time.Time                `json:"generated_at"`
}
