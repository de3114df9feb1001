package analyzer

import (
	"fmt"
	"time"
)

// TrendAnalysis describes where a health score series is heading.
type TrendAnalysis struct {
	Samples           int     `json:"samples"`
	Slope             float64 `json:"slope"`
	Intercept         float64 `json:"intercept"`
	RSquared          float64 `json:"r_squared"`
	GrowthRatePercent float64 `json:"growth_rate_percent"`
	Direction         string  `json:"direction"`
	Mean              float64 `json:"mean"`
	P95               float64 `json:"p95"`
	ForecastNext      float64 `json:"forecast_next"`
}

// AnalyzeTrend regresses a chronological series sampled at a fixed interval.
// Slope is in score units per minute; the growth rate is percent of the mean
// per hour. Scores go up when health improves, so a positive slope means the
// system is recovering.
func AnalyzeTrend(values []float64, interval time.Duration) (TrendAnalysis, error) {
	if len(values) < 2 {
		return TrendAnalysis{Samples: len(values)}, fmt.Errorf("need at least 2 samples, got %d", len(values))
	}

	step := interval.Minutes()
	x := make([]float64, len(values))
	for i := range values {
		x[i] = float64(i) * step
	}

	slope, intercept, rSquared := PerformLinearRegressionOnValues(x, values)
	mean := CalculateMean(values)

	analysis := TrendAnalysis{
		Samples:   len(values),
		Slope:     slope,
		Intercept: intercept,
		RSquared:  rSquared,
		Mean:      mean,
		P95:       CalculatePercentile(values, 95),
	}

	if mean > 0 {
		analysis.GrowthRatePercent = slope * 60 / mean * 100
	}

	switch {
	case slope > 0.01:
		analysis.Direction = "improving"
	case slope < -0.01:
		analysis.Direction = "degrading"
	default:
		analysis.Direction = "stable"
	}

	forecast := slope*float64(len(values))*step + intercept
	if forecast < 0 {
		forecast = 0
	}
	if forecast > 100 {
		forecast = 100
	}
	analysis.ForecastNext = forecast

	return analysis, nil
}
