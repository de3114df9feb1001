// Package metrics exposes the monitor's own Prometheus instrumentation.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HealthScore = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sysopt_health_score",
		Help: "Overall system health score (0-100)",
	})

	HealthStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sysopt_health_status",
		Help: "Current health status (1 for the active status, 0 otherwise)",
	}, []string{"status"})

	MetricPercent = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sysopt_metric_percent",
		Help: "Sampled utilization per metric channel (0-100)",
	}, []string{"channel"})

	DependencyHealth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sysopt_dependency_health",
		Help: "Latency-banded dependency health (0-100)",
	}, []string{"dependency"})

	ProbeLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sysopt_probe_latency_seconds",
		Help:    "Round-trip latency of dependency probes",
		Buckets: []float64{.005, .01, .025, .05, .1, .2, .5, 1, 2},
	}, []string{"dependency"})

	IssuesDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sysopt_issues_detected_total",
		Help: "Total issues detected, by severity",
	}, []string{"severity"})

	Optimizations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sysopt_optimizations_total",
		Help: "Total optimization outcomes, by component and outcome",
	}, []string{"component", "outcome"})

	TickDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sysopt_tick_duration_seconds",
		Help:    "Duration of monitor ticks, by loop",
		Buckets: prometheus.DefBuckets,
	}, []string{"loop"})

	TicksSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sysopt_ticks_skipped_total",
		Help: "Ticks skipped because the previous run was still in flight",
	}, []string{"loop"})

	DBPoolAcquiredConns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sysopt_db_pool_acquired_conns",
		Help: "Connections currently acquired from the database pool",
	})
)

var statuses = []string{"healthy", "warning", "critical"}

// RecordReport pushes one assembled health report into the gauges.
func RecordReport(status string, score int, cpu, memory, disk, network, dataStore, cache float64) {
	HealthScore.Set(float64(score))
	for _, s := range statuses {
		v := 0.0
		if s == status {
			v = 1.0
		}
		HealthStatus.WithLabelValues(s).Set(v)
	}
	MetricPercent.WithLabelValues("cpu").Set(cpu)
	MetricPercent.WithLabelValues("memory").Set(memory)
	MetricPercent.WithLabelValues("disk").Set(disk)
	MetricPercent.WithLabelValues("network").Set(network)
	DependencyHealth.WithLabelValues("data_store").Set(dataStore)
	DependencyHealth.WithLabelValues("cache").Set(cache)
}

// RecordTick observes one completed tick of the named loop.
func RecordTick(loop string, d time.Duration) {
	TickDuration.WithLabelValues(loop).Observe(d.Seconds())
}
