package balance

import (
	"context"
	"fmt"

	"gomaic/domain/cohort"
	"gomaic/domain/core"
	"gomaic/ports"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// OptimizeSolver hands the entropy-balancing dual to gonum's optimize package.
// The moment residual is re-checked after Minimize returns, so the convergence
// contract does not depend on which status optimize reports.
type OptimizeSolver struct{}

// NewOptimizeSolver creates a solver using optimize.Newton
func NewOptimizeSolver() *OptimizeSolver {
	return &OptimizeSolver{}
}

// Name returns the solver name
func (s *OptimizeSolver) Name() string {
	return "optimize"
}

// Solve computes entropy-balancing weights for req.ReweightGroup.
func (s *OptimizeSolver) Solve(ctx context.Context, c *cohort.Cohort, req ports.BalanceRequest) (*cohort.WeightedCohort, ports.SolveStats, error) {
	d, err := newDual(c, req)
	if err != nil {
		return nil, ports.SolveStats{}, err
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			return d.value(x)
		},
		Grad: func(grad, x []float64) {
			d.value(x)
			d.gradient(grad)
		},
		Hess: func(hess *mat.SymDense, x []float64) {
			g := make([]float64, d.k)
			d.value(x)
			d.gradient(g)
			d.hessian(hess, g)
		},
		Status: func() (optimize.Status, error) {
			if err := ctx.Err(); err != nil {
				return optimize.Failure, err
			}
			return optimize.NotTerminated, nil
		},
	}

	settings := &optimize.Settings{
		GradientThreshold: req.Tolerance,
		MajorIterations:   req.MaxIterations,
		FuncEvaluations:   50 * req.MaxIterations,
		Converger:         optimize.NeverTerminate{},
	}

	result, minErr := optimize.Minimize(problem, make([]float64, d.k), settings, &optimize.Newton{})
	if err := ctx.Err(); err != nil {
		return nil, ports.SolveStats{}, err
	}
	if result == nil {
		return nil, ports.SolveStats{}, core.NewInfeasibleError(0, 0, fmt.Sprintf("optimize: %v", minErr))
	}

	// Re-evaluate at the returned point; the solver's cached gradient may be stale.
	grad := make([]float64, d.k)
	d.value(result.X)
	d.gradient(grad)
	residual := maxAbs(grad)
	iterations := result.Stats.MajorIterations

	lambda := append([]float64(nil), result.X...)
	if budget := min(polishSteps, req.MaxIterations-iterations); residual > req.Tolerance && budget > 0 {
		var n int
		lambda, residual, n = polish(d, lambda, grad, req.Tolerance, budget)
		iterations += n
	}

	if residual > req.Tolerance {
		reason := fmt.Sprintf("optimize stopped with status %v", result.Status)
		if minErr != nil {
			reason = fmt.Sprintf("%s: %v", reason, minErr)
		}
		return nil, ports.SolveStats{Iterations: iterations, MaxResidual: residual, Lambda: lambda},
			core.NewInfeasibleError(iterations, residual, reason)
	}
	d.value(lambda)
	return d.finish(c, req, lambda, iterations, residual)
}

const polishSteps = 5

// polish takes undamped Newton steps while they keep shrinking the residual.
// Line searches inside optimize can give up once f stops changing at machine
// precision even though the gradient is still above tolerance.
func polish(d *dual, lambda, grad []float64, tol float64, steps int) ([]float64, float64, int) {
	k := d.k
	hess := mat.NewSymDense(k, nil)
	step := mat.NewVecDense(k, nil)
	trial := make([]float64, k)
	trialGrad := make([]float64, k)
	var chol mat.Cholesky

	residual := maxAbs(grad)
	taken := 0
	for ; taken < steps && residual > tol; taken++ {
		d.value(lambda)
		d.hessian(hess, grad)
		if !chol.Factorize(hess) {
			break
		}
		if err := chol.SolveVecTo(step, mat.NewVecDense(k, grad)); err != nil {
			break
		}
		floats.SubTo(trial, lambda, step.RawVector().Data)
		d.value(trial)
		d.gradient(trialGrad)
		next := maxAbs(trialGrad)
		if !(next < residual) {
			break
		}
		copy(lambda, trial)
		copy(grad, trialGrad)
		residual = next
	}
	return lambda, residual, taken
}
