package balance

import (
	"context"
	"fmt"

	"gomaic/domain/cohort"
	"gomaic/domain/core"
	"gomaic/ports"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	armijoC       = 1e-4
	minStep       = 1e-10
	tinyDecrement = 1e-14 // below this a full Newton step is taken without line search
)

// NewtonSolver runs damped Newton iterations on the entropy-balancing dual.
type NewtonSolver struct{}

// NewNewtonSolver creates a Newton dual solver
func NewNewtonSolver() *NewtonSolver {
	return &NewtonSolver{}
}

// Name returns the solver name
func (s *NewtonSolver) Name() string {
	return "newton"
}

// Solve computes entropy-balancing weights for req.ReweightGroup.
func (s *NewtonSolver) Solve(ctx context.Context, c *cohort.Cohort, req ports.BalanceRequest) (*cohort.WeightedCohort, ports.SolveStats, error) {
	d, err := newDual(c, req)
	if err != nil {
		return nil, ports.SolveStats{}, err
	}

	k := d.k
	lambda := make([]float64, k)
	trial := make([]float64, k)
	grad := make([]float64, k)
	hess := mat.NewSymDense(k, nil)
	step := mat.NewVecDense(k, nil)
	var chol mat.Cholesky

	f := d.value(lambda)
	d.gradient(grad)
	residual := maxAbs(grad)

	for iter := 0; iter < req.MaxIterations; iter++ {
		if residual <= req.Tolerance {
			return d.finish(c, req, lambda, iter, residual)
		}
		if err := ctx.Err(); err != nil {
			return nil, ports.SolveStats{Iterations: iter, MaxResidual: residual}, err
		}

		d.hessian(hess, grad)
		if ok := chol.Factorize(hess); !ok {
			return nil, ports.SolveStats{Iterations: iter, MaxResidual: residual},
				core.NewInfeasibleError(iter, residual, "dual Hessian is singular; target means are likely outside the convex hull")
		}
		if err := chol.SolveVecTo(step, mat.NewVecDense(k, grad)); err != nil {
			return nil, ports.SolveStats{Iterations: iter, MaxResidual: residual},
				core.NewInfeasibleError(iter, residual, fmt.Sprintf("Newton system: %v", err))
		}
		dir := step.RawVector().Data
		floats.Scale(-1, dir)

		slope := floats.Dot(grad, dir)
		t := 1.0
		if -slope > tinyDecrement {
			for {
				floats.AddScaledTo(trial, lambda, t, dir)
				if d.value(trial) <= f+armijoC*t*slope {
					break
				}
				t /= 2
				if t < minStep {
					return nil, ports.SolveStats{Iterations: iter, MaxResidual: residual},
						core.NewInfeasibleError(iter, residual, "line search stalled")
				}
			}
		}

		floats.AddScaled(lambda, t, dir)
		f = d.value(lambda)
		d.gradient(grad)
		residual = maxAbs(grad)
	}

	if residual <= req.Tolerance {
		return d.finish(c, req, lambda, req.MaxIterations, residual)
	}
	return nil, ports.SolveStats{Iterations: req.MaxIterations, MaxResidual: residual, Lambda: lambda},
		core.NewInfeasibleError(req.MaxIterations, residual, "iteration budget exhausted")
}
