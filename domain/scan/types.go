package scan

import (
	"time"

	"gomaic/domain/cohort"
	"gomaic/domain/core"
)

// Solver names accepted in Config.Solver
const (
	SolverNewton   = "newton"
	SolverOptimize = "optimize"
)

// Config is the input record of a correlation scan.
type Config struct {
	Correlations  []float64    `json:"correlations" yaml:"correlations" validate:"required,min=1"`
	SampleSize    int          `json:"sample_size" yaml:"sample_size" validate:"gt=0"`
	StdDevs       [2]float64   `json:"std_devs" yaml:"std_devs" validate:"dive,gt=0"`
	MeanA         [2]float64   `json:"mean_a" yaml:"mean_a"`
	MeanB         [2]float64   `json:"mean_b" yaml:"mean_b"`
	Tolerance     float64      `json:"tolerance" yaml:"tolerance" validate:"gt=0"`
	MaxIterations int          `json:"max_iterations" yaml:"max_iterations" validate:"gt=0"`
	ReweightGroup cohort.Group `json:"reweight_group" yaml:"reweight_group" validate:"oneof=0 1"`
	Seed          int64        `json:"seed" yaml:"seed"`
	Workers       int          `json:"workers" yaml:"workers" validate:"gte=1"`
	Solver        string       `json:"solver" yaml:"solver" validate:"oneof=newton optimize"`
}

// Params returns the simulator parameters for one correlation value.
func (c Config) Params(correlation float64) cohort.Params {
	return cohort.Params{
		Correlation: correlation,
		SampleSize:  c.SampleSize,
		StdDevs:     c.StdDevs,
		MeanA:       c.MeanA,
		MeanB:       c.MeanB,
	}
}

// Fingerprint hashes every field that influences results. Workers is left out
// because results do not depend on it.
func (c Config) Fingerprint() core.Hash {
	return core.ComputeFingerprint(map[string]interface{}{
		"correlations":   c.Correlations,
		"sample_size":    c.SampleSize,
		"std_devs":       c.StdDevs,
		"mean_a":         c.MeanA,
		"mean_b":         c.MeanB,
		"tolerance":      c.Tolerance,
		"max_iterations": c.MaxIterations,
		"reweight_group": int(c.ReweightGroup),
		"seed":           c.Seed,
		"solver":         c.Solver,
	})
}

// Status tags a result row.
type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

// Failure explains why a correlation value produced no diagnostics.
type Failure struct {
	Kind    core.Kind `json:"kind"`
	Message string    `json:"message"`
}

// GroupMeans holds per-covariate means keyed by covariate.
type GroupMeans map[core.CovariateKey]float64

// WeightSummary describes the spread of the balancing weights.
type WeightSummary struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	// CV is the coefficient of variation (population SD over mean).
	CV float64 `json:"cv"`
}

// Diagnostics is everything computed from a successfully balanced cohort.
type Diagnostics struct {
	GroupSize       int                         `json:"group_size"`
	ESS             float64                     `json:"ess"`
	UnweightedMeans map[cohort.Group]GroupMeans `json:"unweighted_means"`
	WeightedMeans   GroupMeans                  `json:"weighted_means"`
	SMDBefore       GroupMeans                  `json:"smd_before"`
	SMDAfter        GroupMeans                  `json:"smd_after"`
	Weights         WeightSummary               `json:"weights"`
	SampleCorr      map[cohort.Group]float64    `json:"sample_correlation"`
	MaxResidual     float64                     `json:"max_residual"`
}

// Result is one row of a scan. Diagnostics is nil whenever Status is failed.
type Result struct {
	Index       int          `json:"index"`
	Correlation float64      `json:"correlation"`
	Seed        uint64       `json:"seed"`
	Status      Status       `json:"status"`
	Failure     *Failure     `json:"failure,omitempty"`
	Iterations  int          `json:"iterations,omitempty"`
	Diagnostics *Diagnostics `json:"diagnostics,omitempty"`
}

// OK reports whether the row carries diagnostics.
func (r Result) OK() bool {
	return r.Status == StatusOK && r.Diagnostics != nil
}

// ESS returns the effective sample size and whether it is defined for this row.
func (r Result) ESS() (float64, bool) {
	if !r.OK() {
		return 0, false
	}
	return r.Diagnostics.ESS, true
}

// Trend is a least-squares fit of ESS on correlation over the successful rows.
type Trend struct {
	Points     int     `json:"points"`
	Slope      float64 `json:"slope"`
	Intercept  float64 `json:"intercept"`
	RSquared   float64 `json:"r_squared"`
	Increasing bool    `json:"increasing"` // strictly increasing in input order
}

// Report is the complete output of a scan.
type Report struct {
	ScanID      core.ScanID `json:"scan_id"`
	Fingerprint core.Hash   `json:"fingerprint"`
	CreatedAt   time.Time   `json:"created_at"`
	Config      Config      `json:"config"`
	Results     []Result    `json:"results"`
	Trend       *Trend      `json:"trend,omitempty"`
}

// Failed counts failed rows.
func (r *Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if !res.OK() {
			n++
		}
	}
	return n
}
