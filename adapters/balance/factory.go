package balance

import (
	"fmt"

	"gomaic/domain/scan"
	"gomaic/ports"
)

// NewSolver returns the solver registered under name.
func NewSolver(name string) (ports.BalanceSolver, error) {
	switch name {
	case scan.SolverNewton, "":
		return NewNewtonSolver(), nil
	case scan.SolverOptimize:
		return NewOptimizeSolver(), nil
	default:
		return nil, fmt.Errorf("unknown balance solver %q", name)
	}
}
