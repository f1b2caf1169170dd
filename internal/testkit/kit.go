package testkit

import (
	"context"
	"io"
	"math/rand/v2"

	"gomaic/adapters/balance"
	"gomaic/adapters/rng"
	"gomaic/adapters/simulate"
	"gomaic/domain/cohort"
	"gomaic/domain/scan"
	"gomaic/internal"
	"gomaic/internal/config"
	"gomaic/ports"
)

// ReferenceConfig returns the reference scenario (n=1000, SD 2, means (0,0)
// vs (2,2)) restricted to the given correlations. With no arguments the full
// default grid is used.
func ReferenceConfig(correlations ...float64) scan.Config {
	cfg := config.DefaultScan()
	if len(correlations) > 0 {
		cfg.Correlations = append([]float64(nil), correlations...)
	}
	return cfg
}

// ReferenceParams returns the simulator parameters of the reference scenario.
func ReferenceParams(rho float64) cohort.Params {
	return ReferenceConfig().Params(rho)
}

// QuietLogger discards everything below ERROR.
func QuietLogger() *internal.Logger {
	return internal.NewLoggerTo(io.Discard, internal.LogLevelError)
}

// RNG returns the production RNG adapter.
func RNG() ports.RNGPort {
	return rng.NewSeededAdapter()
}

// Simulator returns the production simulator.
func Simulator() ports.CohortSimulator {
	return simulate.NewBivariateSimulator()
}

// Cohort simulates a reference cohort with a fixed seed.
func Cohort(rho float64, seed uint64) (*cohort.Cohort, error) {
	return simulate.NewBivariateSimulator().Simulate(context.Background(), ReferenceParams(rho), rand.NewPCG(seed, 0), seed)
}

// Solvers resolves solver names the same way the CLI does.
func Solvers(name string) (ports.BalanceSolver, error) {
	return balance.NewSolver(name)
}
