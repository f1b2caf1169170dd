package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gomaic/domain/cohort"
	"gomaic/domain/core"
	"gomaic/domain/scan"
	"gomaic/internal"
	"gomaic/internal/config"
	"gomaic/internal/diagnostics"
	"gomaic/ports"

	"golang.org/x/sync/errgroup"
)

// simulateStage names the RNG stream used for cohort draws.
const simulateStage = "simulate"

// SolverFactory resolves a configured solver name.
type SolverFactory func(name string) (ports.BalanceSolver, error)

// ScanService runs simulate → balance → diagnose over a grid of correlations
type ScanService struct {
	simulator ports.CohortSimulator
	rngPort   ports.RNGPort
	solverFor SolverFactory
	logger    *internal.Logger
}

// NewScanService creates a scan service
func NewScanService(simulator ports.CohortSimulator, rngPort ports.RNGPort, solverFor SolverFactory, logger *internal.Logger) *ScanService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &ScanService{
		simulator: simulator,
		rngPort:   rngPort,
		solverFor: solverFor,
		logger:    logger,
	}
}

// Run executes the scan. Results keep the order of cfg.Correlations. A failure
// at one correlation is recorded on that row and the scan moves on; only an
// invalid configuration or a cancelled context aborts the run.
func (s *ScanService) Run(ctx context.Context, cfg scan.Config) (*scan.Report, error) {
	startTime := time.Now()

	if err := config.ValidateScan(cfg); err != nil {
		return nil, err
	}
	solver, err := s.solverFor(cfg.Solver)
	if err != nil {
		return nil, err
	}

	report := &scan.Report{
		ScanID:      core.NewScanID(),
		Fingerprint: cfg.Fingerprint(),
		CreatedAt:   startTime.UTC(),
		Config:      cfg,
		Results:     make([]scan.Result, len(cfg.Correlations)),
	}
	s.logger.Info("scan %s started: %d correlations, n=%d per group, solver=%s, workers=%d, fingerprint=%s",
		report.ScanID, len(cfg.Correlations), cfg.SampleSize, solver.Name(), cfg.Workers, report.Fingerprint.Short())

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i, rho := range cfg.Correlations {
		g.Go(func() error {
			res, err := s.runOne(gctx, cfg, solver, i, rho)
			if err != nil {
				return err
			}
			// each goroutine owns exactly one slot
			report.Results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scan %s aborted: %w", report.ScanID, err)
	}

	report.Trend = SummarizeTrend(report.Results)

	s.logger.Info("scan %s finished in %s: %d ok, %d failed",
		report.ScanID, time.Since(startTime).Round(time.Millisecond), len(report.Results)-report.Failed(), report.Failed())
	return report, nil
}

// runOne processes a single correlation value. The returned error is non-nil
// only when the context is done.
func (s *ScanService) runOne(ctx context.Context, cfg scan.Config, solver ports.BalanceSolver, index int, rho float64) (scan.Result, error) {
	res := scan.Result{Index: index, Correlation: rho}

	fail := func(err error) (scan.Result, error) {
		if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			return res, err
		}
		res.Status = scan.StatusFailed
		res.Failure = &scan.Failure{Kind: core.FailureKind(err), Message: err.Error()}
		res.Diagnostics = nil
		s.logger.Warn("rho=%v: %s: %v", rho, res.Failure.Kind, err)
		return res, nil
	}

	c, seed, err := s.simulate(ctx, cfg, index)
	res.Seed = seed
	if err != nil {
		return fail(err)
	}

	wc, stats, err := solver.Solve(ctx, c, ports.BalanceRequest{
		Covariates:    cohort.Covariates,
		ReweightGroup: cfg.ReweightGroup,
		Tolerance:     cfg.Tolerance,
		MaxIterations: cfg.MaxIterations,
	})
	res.Iterations = stats.Iterations
	if err != nil {
		return fail(err)
	}

	d, err := diagnostics.Summarize(wc, cfg.Tolerance)
	if err != nil {
		return fail(err)
	}

	res.Status = scan.StatusOK
	res.Diagnostics = d
	s.logger.Debug("rho=%v: ESS=%.2f of %d after %d iterations (residual %.2g)", rho, d.ESS, d.GroupSize, stats.Iterations, d.MaxResidual)
	return res, nil
}

// Cohort regenerates the cohort behind row index of a scan with cfg.
func (s *ScanService) Cohort(ctx context.Context, cfg scan.Config, index int) (*cohort.Cohort, error) {
	if index < 0 || index >= len(cfg.Correlations) {
		return nil, fmt.Errorf("row %d out of range [0, %d)", index, len(cfg.Correlations))
	}
	c, _, err := s.simulate(ctx, cfg, index)
	return c, err
}

func (s *ScanService) simulate(ctx context.Context, cfg scan.Config, index int) (*cohort.Cohort, uint64, error) {
	rho := cfg.Correlations[index]
	src, seed, err := s.rngPort.Stream(ctx, simulateStage, itemKey(index, rho), cfg.Seed)
	if err != nil {
		return nil, 0, err
	}
	c, err := s.simulator.Simulate(ctx, cfg.Params(rho), src, seed)
	return c, seed, err
}

// itemKey includes the index so repeated correlation values still get independent draws.
func itemKey(index int, rho float64) string {
	return fmt.Sprintf("%d:%g", index, rho)
}
