package profiling

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// CovariateStats are summary and shape statistics of one covariate column.
type CovariateStats struct {
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"` // sample SD
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Median   float64 `json:"median"`
	Q25      float64 `json:"q25"`
	Q75      float64 `json:"q75"`
	Skewness float64 `json:"skewness"`
	Kurtosis float64 `json:"kurtosis"` // excess
	// Jarque-Bera normality test
	JarqueBera float64 `json:"jarque_bera"`
	NormalP    float64 `json:"normal_p"`
}

// DistributionAnalyzer handles distribution shape analysis
type DistributionAnalyzer struct{}

// NewDistributionAnalyzer creates a new distribution analyzer
func NewDistributionAnalyzer() *DistributionAnalyzer {
	return &DistributionAnalyzer{}
}

// Analyze computes summary statistics for a column
func (da *DistributionAnalyzer) Analyze(data []float64) (CovariateStats, error) {
	var out CovariateStats

	mean, err := stats.Mean(data)
	if err != nil {
		return out, err
	}

	stdDev, err := stats.StandardDeviationSample(data)
	if err != nil {
		return out, err
	}

	lo, err := stats.Min(data)
	if err != nil {
		return out, err
	}

	hi, err := stats.Max(data)
	if err != nil {
		return out, err
	}

	median, err := stats.Median(data)
	if err != nil {
		return out, err
	}

	q25, err := stats.Percentile(data, 25)
	if err != nil {
		return out, err
	}

	q75, err := stats.Percentile(data, 75)
	if err != nil {
		return out, err
	}

	skew, kurt := moments(data, mean)
	jb, p := jarqueBera(len(data), skew, kurt)

	out = CovariateStats{
		Mean:       mean,
		StdDev:     stdDev,
		Min:        lo,
		Max:        hi,
		Median:     median,
		Q25:        q25,
		Q75:        q75,
		Skewness:   skew,
		Kurtosis:   kurt,
		JarqueBera: jb,
		NormalP:    p,
	}
	return out, nil
}

// moments returns the population skewness and excess kurtosis.
func moments(data []float64, mean float64) (skew, kurt float64) {
	n := float64(len(data))
	if n < 4 {
		return 0, 0
	}
	var m2, m3, m4 float64
	for _, x := range data {
		d := x - mean
		d2 := d * d
		m2 += d2
		m3 += d2 * d
		m4 += d2 * d2
	}
	m2 /= n
	m3 /= n
	m4 /= n
	if m2 == 0 {
		return 0, 0
	}
	return m3 / math.Pow(m2, 1.5), m4/(m2*m2) - 3
}

// jarqueBera returns JB = n/6·(S² + K²/4) and its χ²(2) upper-tail p-value.
func jarqueBera(n int, skew, excessKurt float64) (float64, float64) {
	if n < 4 {
		return 0, 1
	}
	jb := float64(n) / 6 * (skew*skew + excessKurt*excessKurt/4)
	chi := distuv.ChiSquared{K: 2}
	return jb, chi.Survival(jb)
}
