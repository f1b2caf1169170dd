package app

import (
	"testing"

	"gomaic/domain/core"
	"gomaic/domain/scan"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okResult(rho, ess float64) scan.Result {
	return scan.Result{
		Correlation: rho,
		Status:      scan.StatusOK,
		Diagnostics: &scan.Diagnostics{ESS: ess},
	}
}

func failedResult(rho float64) scan.Result {
	return scan.Result{
		Correlation: rho,
		Status:      scan.StatusFailed,
		Failure:     &scan.Failure{Kind: core.KindBalanceInfeasible, Message: "forced"},
	}
}

func TestSummarizeTrend_Linear(t *testing.T) {
	results := []scan.Result{
		okResult(-0.5, 100),
		okResult(0, 200),
		okResult(0.5, 300),
	}

	trend := SummarizeTrend(results)
	require.NotNil(t, trend)
	assert.Equal(t, 3, trend.Points)
	assert.InDelta(t, 200, trend.Slope, 1e-9)
	assert.InDelta(t, 200, trend.Intercept, 1e-9)
	assert.InDelta(t, 1, trend.RSquared, 1e-12)
	assert.True(t, trend.Increasing)
}

func TestSummarizeTrend_SkipsFailures(t *testing.T) {
	results := []scan.Result{
		okResult(-0.5, 50),
		failedResult(0),
		okResult(0.5, 40),
	}

	trend := SummarizeTrend(results)
	require.NotNil(t, trend)
	assert.Equal(t, 2, trend.Points)
	assert.Less(t, trend.Slope, 0.0)
	assert.False(t, trend.Increasing)
}

func TestSummarizeTrend_TooFewPoints(t *testing.T) {
	assert.Nil(t, SummarizeTrend(nil))
	assert.Nil(t, SummarizeTrend([]scan.Result{okResult(0.1, 10), failedResult(0.2)}))
	// a repeated correlation is still one point on the x axis
	assert.Nil(t, SummarizeTrend([]scan.Result{okResult(0.1, 10), okResult(0.1, 12)}))
}

func TestSummarizeTrend_ConstantESS(t *testing.T) {
	trend := SummarizeTrend([]scan.Result{okResult(-0.2, 80), okResult(0.2, 80)})
	require.NotNil(t, trend)
	assert.InDelta(t, 0, trend.Slope, 1e-12)
	assert.Equal(t, 1.0, trend.RSquared)
	assert.False(t, trend.Increasing)
}

func TestSummarizeTrend_InputOrder(t *testing.T) {
	// increasing is judged in scan order, not sorted by correlation
	trend := SummarizeTrend([]scan.Result{okResult(0.5, 300), okResult(-0.5, 100)})
	require.NotNil(t, trend)
	assert.False(t, trend.Increasing)
	assert.InDelta(t, 200, trend.Slope, 1e-9)
}
