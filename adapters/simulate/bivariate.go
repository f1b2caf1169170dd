package simulate

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"gomaic/domain/cohort"
	"gomaic/domain/core"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// BivariateSimulator draws both groups from bivariate normals sharing Σ = D·R·D.
type BivariateSimulator struct{}

// NewBivariateSimulator creates a new simulator
func NewBivariateSimulator() *BivariateSimulator {
	return &BivariateSimulator{}
}

// Simulate draws SampleSize rows for group A, then SampleSize rows for group B,
// consuming src in that order.
func (s *BivariateSimulator) Simulate(ctx context.Context, p cohort.Params, src rand.Source, seed uint64) (*cohort.Cohort, error) {
	if err := ValidateParams(p); err != nil {
		return nil, err
	}

	sigma := Covariance(p.StdDevs, p.Correlation)
	rows := make([]cohort.Observation, 0, 2*p.SampleSize)

	for _, g := range []cohort.Group{cohort.GroupSource, cohort.GroupTarget} {
		mu := p.Mean(g)
		dist, ok := distmv.NewNormal(mu[:], sigma, src)
		if !ok {
			return nil, core.NewInvalidParameterError("correlation", fmt.Sprintf("%v gives a covariance that is not positive definite", p.Correlation))
		}

		x := make([]float64, 2)
		for i := 0; i < p.SampleSize; i++ {
			if i%4096 == 0 {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
			}
			dist.Rand(x)
			rows = append(rows, cohort.Observation{X1: x[0], X2: x[1], Group: g})
		}
	}

	return &cohort.Cohort{Params: p, Seed: seed, Observations: rows}, nil
}

// Covariance builds D·R·D for two covariates.
func Covariance(sd [2]float64, rho float64) *mat.SymDense {
	cov := rho * sd[0] * sd[1]
	return mat.NewSymDense(2, []float64{
		sd[0] * sd[0], cov,
		cov, sd[1] * sd[1],
	})
}

// ValidateParams rejects parameters the simulator cannot draw from.
// A correlation of exactly ±1 is rejected: the covariance is singular.
func ValidateParams(p cohort.Params) error {
	switch {
	case math.IsNaN(p.Correlation):
		return core.NewInvalidParameterError("correlation", "is NaN")
	case p.Correlation < -1 || p.Correlation > 1:
		return core.NewInvalidParameterError("correlation", fmt.Sprintf("%v is outside [-1, 1]", p.Correlation))
	case math.Abs(p.Correlation) == 1:
		return core.NewInvalidParameterError("correlation", fmt.Sprintf("%v gives a singular covariance matrix", p.Correlation))
	case p.SampleSize <= 0:
		return core.NewInvalidParameterError("sample_size", fmt.Sprintf("must be positive, got %d", p.SampleSize))
	}
	for i, sd := range p.StdDevs {
		if !(sd > 0) || math.IsInf(sd, 0) {
			return core.NewInvalidParameterError(fmt.Sprintf("std_devs[%d]", i), fmt.Sprintf("must be a positive finite number, got %v", sd))
		}
	}
	for i := 0; i < 2; i++ {
		for _, m := range []float64{p.MeanA[i], p.MeanB[i]} {
			if math.IsNaN(m) || math.IsInf(m, 0) {
				return core.NewInvalidParameterError("means", "must be finite")
			}
		}
	}
	return nil
}
