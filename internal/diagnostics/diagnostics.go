package diagnostics

import (
	"fmt"
	"math"

	"gomaic/domain/cohort"
	"gomaic/domain/core"
	"gomaic/domain/scan"
	"gomaic/internal/profiling"

	"github.com/montanaflynn/stats"
	gstat "gonum.org/v1/gonum/stat"
)

// minRoundingSlack is the floor of the balance-check slack for covariates near zero.
const minRoundingSlack = 1e-10

// roundingSlack absorbs the difference between the solver's centred residual
// and means recomputed from the raw columns. Summation error grows with the
// group size and the magnitude of the means, so the slack does too.
func roundingSlack(n int, target, weighted scan.GroupMeans) float64 {
	var scale float64
	for key, m := range target {
		scale = math.Max(scale, math.Max(math.Abs(m), math.Abs(weighted[key])))
	}
	return math.Max(minRoundingSlack, 4*float64(n)*scale*epsilon)
}

// UnweightedMeans returns the arithmetic mean of every covariate in both groups.
func UnweightedMeans(c *cohort.Cohort, keys []core.CovariateKey) (map[cohort.Group]scan.GroupMeans, error) {
	out := make(map[cohort.Group]scan.GroupMeans, 2)
	for _, g := range []cohort.Group{cohort.GroupSource, cohort.GroupTarget} {
		means := make(scan.GroupMeans, len(keys))
		for _, key := range keys {
			col, err := c.Covariate(g, key)
			if err != nil {
				return nil, err
			}
			m, err := stats.Mean(col)
			if err != nil {
				return nil, fmt.Errorf("mean of %s in group %v: %w", key, g, err)
			}
			means[key] = m
		}
		out[g] = means
	}
	return out, nil
}

// WeightedMeans returns the weighted means of the balanced covariates in the reweighted group.
func WeightedMeans(wc *cohort.WeightedCohort) (scan.GroupMeans, error) {
	means := make(scan.GroupMeans, len(wc.Balanced))
	for _, key := range wc.Balanced {
		col, err := wc.Covariate(wc.ReweightedGroup, key)
		if err != nil {
			return nil, err
		}
		if len(col) != len(wc.Weights) {
			return nil, fmt.Errorf("%d weights for %d observations in group %v", len(wc.Weights), len(col), wc.ReweightedGroup)
		}
		means[key] = gstat.Mean(col, wc.Weights)
	}
	return means, nil
}

// Summarize computes all diagnostics for a balanced cohort. It fails with
// core.ErrBalanceInfeasible when the weighted means miss the target means by
// more than tolerance.
func Summarize(wc *cohort.WeightedCohort, tolerance float64) (*scan.Diagnostics, error) {
	if wc == nil || wc.Cohort == nil {
		return nil, fmt.Errorf("diagnostics need a weighted cohort")
	}

	ess, err := ESS(wc.Weights)
	if err != nil {
		return nil, err
	}

	unweighted, err := UnweightedMeans(wc.Cohort, wc.Balanced)
	if err != nil {
		return nil, err
	}
	weighted, err := WeightedMeans(wc)
	if err != nil {
		return nil, err
	}

	target := unweighted[wc.TargetGroup()]
	var residual float64
	for _, key := range wc.Balanced {
		residual = math.Max(residual, math.Abs(weighted[key]-target[key]))
	}
	if !(residual <= tolerance+roundingSlack(len(wc.Weights), target, weighted)) {
		return nil, core.NewInfeasibleError(0, residual, "weighted means do not match the target means")
	}

	before, after, err := standardizedDifferences(wc, unweighted, weighted)
	if err != nil {
		return nil, err
	}

	weights, err := SummarizeWeights(wc.Weights)
	if err != nil {
		return nil, err
	}

	corr := make(map[cohort.Group]float64, 2)
	for _, g := range []cohort.Group{cohort.GroupSource, cohort.GroupTarget} {
		x1, err := wc.Covariate(g, cohort.X1)
		if err != nil {
			return nil, err
		}
		x2, err := wc.Covariate(g, cohort.X2)
		if err != nil {
			return nil, err
		}
		r, err := profiling.SampleCorrelation(x1, x2)
		if err != nil {
			return nil, fmt.Errorf("sample correlation in group %v: %w", g, err)
		}
		corr[g] = r
	}

	return &scan.Diagnostics{
		GroupSize:       len(wc.Weights),
		ESS:             ess,
		UnweightedMeans: unweighted,
		WeightedMeans:   weighted,
		SMDBefore:       before,
		SMDAfter:        after,
		Weights:         weights,
		SampleCorr:      corr,
		MaxResidual:     residual,
	}, nil
}

// standardizedDifferences returns (reweighted − target) / pooled SD, before and
// after weighting. The pooled SD uses unweighted sample variances of both groups.
func standardizedDifferences(wc *cohort.WeightedCohort, unweighted map[cohort.Group]scan.GroupMeans, weighted scan.GroupMeans) (scan.GroupMeans, scan.GroupMeans, error) {
	before := make(scan.GroupMeans, len(wc.Balanced))
	after := make(scan.GroupMeans, len(wc.Balanced))
	rg, tg := wc.ReweightedGroup, wc.TargetGroup()

	for _, key := range wc.Balanced {
		rcol, err := wc.Covariate(rg, key)
		if err != nil {
			return nil, nil, err
		}
		tcol, err := wc.Covariate(tg, key)
		if err != nil {
			return nil, nil, err
		}
		rv, err := stats.SampleVariance(rcol)
		if err != nil {
			return nil, nil, err
		}
		tv, err := stats.SampleVariance(tcol)
		if err != nil {
			return nil, nil, err
		}
		pooled := math.Sqrt((rv + tv) / 2)
		if pooled == 0 {
			before[key], after[key] = 0, 0
			continue
		}
		before[key] = (unweighted[rg][key] - unweighted[tg][key]) / pooled
		after[key] = (weighted[key] - unweighted[tg][key]) / pooled
	}
	return before, after, nil
}
