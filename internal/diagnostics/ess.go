package diagnostics

import (
	"fmt"
	"math"

	"gomaic/domain/scan"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
)

// ESS returns Kish's effective sample size (Σw)² / Σw².
//
// The result is scale invariant and never exceeds len(w). It equals len(w)
// only when all weights are equal; unequal weights whose ratio rounds to n
// are reported one ULP below n.
func ESS(w []float64) (float64, error) {
	if len(w) == 0 {
		return 0, fmt.Errorf("effective sample size of an empty weight vector")
	}
	for i, x := range w {
		if x < 0 || math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, fmt.Errorf("weight %d is %v; weights must be finite and nonnegative", i, x)
		}
	}
	sum := floats.Sum(w)
	sumSq := floats.Dot(w, w)
	if sumSq == 0 {
		return 0, fmt.Errorf("effective sample size undefined: all weights are zero")
	}

	n := float64(len(w))
	if allEqual(w) {
		return n, nil
	}
	ess := sum * sum / sumSq
	if ess >= n {
		// Cauchy-Schwarz bounds the exact ratio below n; only summation error gets here
		if ess-n > essRoundingBound(len(w)) {
			return 0, fmt.Errorf("effective sample size %v exceeds %d beyond rounding", ess, len(w))
		}
		return math.Nextafter(n, 0), nil
	}
	return ess, nil
}

// essRoundingBound is the worst-case excess of the computed ratio over n
// from summing n terms twice and dividing.
func essRoundingBound(n int) float64 {
	return 4 * float64(n) * float64(n) * epsilon
}

const epsilon = 0x1p-52

func allEqual(w []float64) bool {
	for _, x := range w[1:] {
		if x != w[0] {
			return false
		}
	}
	return true
}

// SummarizeWeights reports the range and coefficient of variation of the weights.
func SummarizeWeights(w []float64) (scan.WeightSummary, error) {
	lo, err := stats.Min(w)
	if err != nil {
		return scan.WeightSummary{}, err
	}
	hi, err := stats.Max(w)
	if err != nil {
		return scan.WeightSummary{}, err
	}
	mean, err := stats.Mean(w)
	if err != nil {
		return scan.WeightSummary{}, err
	}
	sd, err := stats.StandardDeviationPopulation(w)
	if err != nil {
		return scan.WeightSummary{}, err
	}
	cv := 0.0
	if mean != 0 {
		cv = sd / mean
	}
	return scan.WeightSummary{Min: lo, Max: hi, CV: cv}, nil
}
