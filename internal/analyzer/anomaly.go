package analyzer

import (
	"math"
)

// DefaultAnomalyThreshold is the modified Z-score cutoff above which a point
// is flagged.
const DefaultAnomalyThreshold = 3.5

// madEpsilon stands in for a zero MAD so constant series divide cleanly.
const madEpsilon = 1e-8

// AnomalyPoint is one flagged outlier in a series.
type AnomalyPoint struct {
	Index int     `json:"index"`
	Value float64 `json:"value"`
	Score float64 `json:"score"`
}

// AnomalyReport summarizes modified Z-score detection over one series.
type AnomalyReport struct {
	Threshold float64        `json:"threshold"`
	Median    float64        `json:"median"`
	MAD       float64        `json:"mad"`
	Samples   int            `json:"samples"`
	Anomalies []AnomalyPoint `json:"anomalies"`
}

// DetectAnomalies flags outliers using the modified Z-score,
// 0.6745*(x-median)/MAD. MAD is robust against the outliers it hunts, which
// plain Z-scores are not. Series shorter than 3 points produce no flags.
func DetectAnomalies(values []float64, threshold float64) AnomalyReport {
	if threshold <= 0 {
		threshold = DefaultAnomalyThreshold
	}

	report := AnomalyReport{
		Threshold: threshold,
		Samples:   len(values),
		Anomalies: []AnomalyPoint{},
	}

	if len(values) < 3 {
		return report
	}

	median := CalculateMedian(values)

	deviations := make([]float64, len(values))
	for i, v := range values {
		deviations[i] = math.Abs(v - median)
	}
	mad := CalculateMedian(deviations)

	report.Median = median
	report.MAD = mad

	if mad == 0 {
		mad = madEpsilon
	}

	for i, v := range values {
		score := math.Abs(0.6745 * (v - median) / mad)
		if score > threshold {
			report.Anomalies = append(report.Anomalies, AnomalyPoint{
				Index: i,
				Value: v,
				Score: score,
			})
		}
	}

	return report
}
