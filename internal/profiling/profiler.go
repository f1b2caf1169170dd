package profiling

import (
	"fmt"

	"gomaic/domain/cohort"
	"gomaic/domain/core"

	"github.com/montanaflynn/stats"
)

// GroupProfile summarizes the simulated covariates of one group.
type GroupProfile struct {
	Group       cohort.Group                         `json:"group"`
	Size        int                                  `json:"size"`
	Covariates  map[core.CovariateKey]CovariateStats `json:"covariates"`
	Correlation float64                              `json:"correlation"` // realized Pearson r of X1, X2
}

// CohortProfile holds both groups' profiles.
type CohortProfile struct {
	Requested float64                       `json:"requested_correlation"`
	Groups    map[cohort.Group]GroupProfile `json:"groups"`
}

// Profiler computes cohort profiles
type Profiler struct {
	analyzer *DistributionAnalyzer
}

// NewProfiler creates a new profiler
func NewProfiler() *Profiler {
	return &Profiler{analyzer: NewDistributionAnalyzer()}
}

// Profile summarizes every covariate of both groups.
func (p *Profiler) Profile(c *cohort.Cohort) (*CohortProfile, error) {
	out := &CohortProfile{
		Requested: c.Params.Correlation,
		Groups:    make(map[cohort.Group]GroupProfile, 2),
	}
	for _, g := range []cohort.Group{cohort.GroupSource, cohort.GroupTarget} {
		gp, err := p.ProfileGroup(c, g)
		if err != nil {
			return nil, err
		}
		out.Groups[g] = *gp
	}
	return out, nil
}

// ProfileGroup summarizes one group.
func (p *Profiler) ProfileGroup(c *cohort.Cohort, g cohort.Group) (*GroupProfile, error) {
	gp := &GroupProfile{
		Group:      g,
		Size:       c.GroupSize(g),
		Covariates: make(map[core.CovariateKey]CovariateStats, len(cohort.Covariates)),
	}

	cols := make([][]float64, 0, len(cohort.Covariates))
	for _, key := range cohort.Covariates {
		col, err := c.Covariate(g, key)
		if err != nil {
			return nil, err
		}
		summary, err := p.analyzer.Analyze(col)
		if err != nil {
			return nil, fmt.Errorf("profile %v/%s: %w", g, key, err)
		}
		gp.Covariates[key] = summary
		cols = append(cols, col)
	}

	r, err := SampleCorrelation(cols[0], cols[1])
	if err != nil {
		return nil, fmt.Errorf("profile %v correlation: %w", g, err)
	}
	gp.Correlation = r
	return gp, nil
}

// SampleCorrelation returns the Pearson correlation of two equal-length columns.
func SampleCorrelation(x, y []float64) (float64, error) {
	if len(x) != len(y) {
		return 0, fmt.Errorf("column lengths differ: %d vs %d", len(x), len(y))
	}
	if len(x) < 2 {
		return 0, stats.ErrEmptyInput
	}
	return stats.Pearson(x, y)
}
