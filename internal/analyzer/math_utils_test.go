package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateMedian(t *testing.T) {
	assert.Equal(t, 0.0, CalculateMedian(nil))
	assert.Equal(t, 5.0, CalculateMedian([]float64{5}))
	assert.Equal(t, 3.0, CalculateMedian([]float64{5, 1, 3}))
	assert.Equal(t, 2.5, CalculateMedian([]float64{4, 1, 2, 3}))
}

func TestCalculateMean(t *testing.T) {
	assert.Equal(t, 0.0, CalculateMean(nil))
	assert.Equal(t, 20.0, CalculateMean([]float64{10, 20, 30}))
}

func TestCalculateStdDev(t *testing.T) {
	assert.Equal(t, 0.0, CalculateStdDev([]float64{42}))
	// Population stddev of {2,4,4,4,5,5,7,9} is exactly 2
	assert.InDelta(t, 2.0, CalculateStdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-9)
}

func TestCalculatePercentile(t *testing.T) {
	values := []float64{10, 20, 30, 40, 50}

	assert.Equal(t, 10.0, CalculatePercentile(values, 0))
	assert.Equal(t, 30.0, CalculatePercentile(values, 50))
	assert.Equal(t, 50.0, CalculatePercentile(values, 100))
	// Interpolated between 40 and 50
	assert.InDelta(t, 48.0, CalculatePercentile(values, 95), 1e-9)
}

func TestPerformLinearRegressionOnValues_DegenerateInputs(t *testing.T) {
	slope, intercept, rSquared := PerformLinearRegressionOnValues(nil, nil)
	assert.Equal(t, 0.0, slope)
	assert.Equal(t, 0.0, intercept)
	assert.Equal(t, 0.0, rSquared)

	// All x identical: no defined slope, intercept falls back to the mean
	slope, intercept, _ = PerformLinearRegressionOnValues([]float64{2, 2, 2}, []float64{1, 5, 9})
	assert.Equal(t, 0.0, slope)
	assert.Equal(t, 5.0, intercept)
}
