package profiling

import (
	"context"
	"math/rand/v2"
	"testing"

	"gomaic/adapters/simulate"
	"gomaic/domain/cohort"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeKnownColumn(t *testing.T) {
	s, err := NewDistributionAnalyzer().Analyze([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9})
	require.NoError(t, err)

	assert.InDelta(t, 5.0, s.Mean, 1e-12)
	assert.InDelta(t, 5.0, s.Median, 1e-12)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 9.0, s.Max)
	assert.InDelta(t, 2.7386127875, s.StdDev, 1e-9)
	assert.InDelta(t, 0.0, s.Skewness, 1e-12)
	assert.Less(t, s.Kurtosis, 0.0) // uniform spacing is platykurtic
	assert.GreaterOrEqual(t, s.NormalP, 0.0)
	assert.LessOrEqual(t, s.NormalP, 1.0)
}

func TestAnalyzeEmpty(t *testing.T) {
	_, err := NewDistributionAnalyzer().Analyze(nil)
	assert.Error(t, err)
}

func TestSampleCorrelation(t *testing.T) {
	r, err := SampleCorrelation([]float64{1, 2, 3, 4}, []float64{2, 4, 6, 8})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, r, 1e-12)

	r, err = SampleCorrelation([]float64{1, 2, 3, 4}, []float64{8, 6, 4, 2})
	require.NoError(t, err)
	assert.InDelta(t, -1.0, r, 1e-12)

	_, err = SampleCorrelation([]float64{1, 2}, []float64{1})
	assert.Error(t, err)
}

func TestProfileSimulatedCohort(t *testing.T) {
	p := cohort.Params{
		Correlation: -0.7,
		SampleSize:  5000,
		StdDevs:     [2]float64{2, 2},
		MeanA:       [2]float64{0, 0},
		MeanB:       [2]float64{2, 2},
	}
	c, err := simulate.NewBivariateSimulator().Simulate(context.Background(), p, rand.NewPCG(5, 5), 5)
	require.NoError(t, err)

	prof, err := NewProfiler().Profile(c)
	require.NoError(t, err)
	assert.Equal(t, -0.7, prof.Requested)
	require.Len(t, prof.Groups, 2)

	for g, gp := range prof.Groups {
		assert.Equal(t, 5000, gp.Size)
		assert.InDelta(t, -0.7, gp.Correlation, 0.05, "group %v", g)
		mu := p.Mean(g)
		assert.InDelta(t, mu[0], gp.Covariates[cohort.X1].Mean, 0.15)
		assert.InDelta(t, 2.0, gp.Covariates[cohort.X2].StdDev, 0.1)
	}
}
