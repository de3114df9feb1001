package storage

import (
	"time"
)

// HealthRecord is one persisted health report row
type HealthRecord struct {
	ID              int64     `json:"id"`
	Status          string    `json:"status"`
	Score           int       `json:"score"`
	CPUPercent      float64   `json:"cpu_percent"`
	MemoryPercent   float64   `json:"memory_percent"`
	DiskPercent     float64   `json:"disk_percent"`
	NetworkPercent  float64   `json:"network_percent"`
	DataStoreHealth float64   `json:"data_store_health"`
	CacheHealth     float64   `json:"cache_health"`
	IssueCount      int       `json:"issue_count"`
	Recommendations []string  `json:"recommendations"`
	CreatedAt       time.Time `json:"created_at"`
}
