package app

import (
	"math"

	"gomaic/domain/scan"

	"gonum.org/v1/gonum/stat"
)

// SummarizeTrend fits ESS = intercept + slope·correlation over the successful
// rows. It returns nil when fewer than two distinct correlations succeeded.
func SummarizeTrend(results []scan.Result) *scan.Trend {
	var xs, ys []float64
	distinct := map[float64]struct{}{}
	for _, r := range results {
		ess, ok := r.ESS()
		if !ok {
			continue
		}
		xs = append(xs, r.Correlation)
		ys = append(ys, ess)
		distinct[r.Correlation] = struct{}{}
	}
	if len(distinct) < 2 {
		return nil
	}

	intercept, slope := stat.LinearRegression(xs, ys, nil, false)
	increasing := true
	for i := 1; i < len(ys); i++ {
		if !(ys[i] > ys[i-1]) {
			increasing = false
			break
		}
	}

	r2 := stat.RSquared(xs, ys, nil, intercept, slope)
	if math.IsNaN(r2) {
		// constant ESS: the fit is exact but R² is 0/0
		r2 = 1
	}

	return &scan.Trend{
		Points:     len(xs),
		Slope:      slope,
		Intercept:  intercept,
		RSquared:   r2,
		Increasing: increasing,
	}
}
