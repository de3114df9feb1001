package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectAnomalies_FlagsObviousOutlier(t *testing.T) {
	values := []float64{50, 51, 49, 50, 52, 48, 50, 51, 49, 500}

	report := DetectAnomalies(values, 0)

	assert.Equal(t, DefaultAnomalyThreshold, report.Threshold)
	assert.Equal(t, 10, report.Samples)
	require.Len(t, report.Anomalies, 1)
	assert.Equal(t, 9, report.Anomalies[0].Index)
	assert.Equal(t, 500.0, report.Anomalies[0].Value)
	assert.Greater(t, report.Anomalies[0].Score, DefaultAnomalyThreshold)
}

func TestDetectAnomalies_ConstantSeries(t *testing.T) {
	values := []float64{42, 42, 42, 42, 42}

	report := DetectAnomalies(values, 0)

	assert.Equal(t, 42.0, report.Median)
	assert.Equal(t, 0.0, report.MAD)
	assert.Empty(t, report.Anomalies)
}

func TestDetectAnomalies_ZeroMADWithOutlier(t *testing.T) {
	// Nine identical points keep the MAD at zero; the epsilon guard must
	// still let the tenth point flag
	values := []float64{42, 42, 42, 42, 42, 42, 42, 42, 42, 100}

	report := DetectAnomalies(values, 0)

	assert.Equal(t, 0.0, report.MAD)
	require.Len(t, report.Anomalies, 1)
	assert.Equal(t, 100.0, report.Anomalies[0].Value)
}

func TestDetectAnomalies_InsufficientData(t *testing.T) {
	report := DetectAnomalies([]float64{10, 20}, 0)

	assert.Equal(t, 2, report.Samples)
	assert.Empty(t, report.Anomalies)
}

func TestDetectAnomalies_CustomThreshold(t *testing.T) {
	values := []float64{50, 52, 48, 50, 51, 49, 60}

	strict := DetectAnomalies(values, 1.0)
	loose := DetectAnomalies(values, 10.0)

	assert.NotEmpty(t, strict.Anomalies)
	assert.Empty(t, loose.Anomalies)
	assert.Equal(t, 1.0, strict.Threshold)
}
