package testkit

import (
	"context"
	"sync"

	"gomaic/domain/cohort"
	"gomaic/ports"
)

// FailingSolver wraps a real solver and returns a canned error for chosen correlations.
type FailingSolver struct {
	Inner  ports.BalanceSolver
	FailAt map[float64]error

	mu    sync.Mutex
	calls []float64
}

// NewFailingSolver wraps the Newton solver
func NewFailingSolver(failAt map[float64]error) *FailingSolver {
	inner, _ := Solvers("newton")
	return &FailingSolver{Inner: inner, FailAt: failAt}
}

func (s *FailingSolver) Name() string {
	return "failing(" + s.Inner.Name() + ")"
}

func (s *FailingSolver) Solve(ctx context.Context, c *cohort.Cohort, req ports.BalanceRequest) (*cohort.WeightedCohort, ports.SolveStats, error) {
	s.mu.Lock()
	s.calls = append(s.calls, c.Params.Correlation)
	s.mu.Unlock()

	if err, ok := s.FailAt[c.Params.Correlation]; ok {
		return nil, ports.SolveStats{Iterations: req.MaxIterations}, err
	}
	return s.Inner.Solve(ctx, c, req)
}

// Calls returns the correlations the solver was asked to balance.
func (s *FailingSolver) Calls() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.calls...)
}

// Factory adapts a fixed solver to the scan service's solver lookup.
func Factory(s ports.BalanceSolver) func(string) (ports.BalanceSolver, error) {
	return func(string) (ports.BalanceSolver, error) { return s, nil }
}
