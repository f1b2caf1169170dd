package ports

import (
	"context"

	"gomaic/domain/cohort"
	"gomaic/domain/core"
)

// BalanceRequest describes one moment-matching problem.
type BalanceRequest struct {
	Covariates    []core.CovariateKey
	ReweightGroup cohort.Group
	Tolerance     float64 // max absolute gap between weighted and target means
	MaxIterations int
}

// SolveStats reports how the solver got to its answer.
type SolveStats struct {
	Iterations  int
	MaxResidual float64
	Lambda      []float64 // dual coefficients, one per covariate
}

// BalanceSolver computes entropy-balancing weights.
//
// On success every weighted mean of the requested covariates in the reweighted
// group is within Tolerance of the other group's unweighted mean. Failures wrap
// core.ErrDegenerateInput or core.ErrBalanceInfeasible.
type BalanceSolver interface {
	Name() string
	Solve(ctx context.Context, c *cohort.Cohort, req BalanceRequest) (*cohort.WeightedCohort, SolveStats, error)
}
