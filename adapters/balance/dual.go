package balance

import (
	"fmt"
	"math"

	"gomaic/domain/cohort"
	"gomaic/domain/core"
	"gomaic/ports"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// dual is the Lagrange dual of entropy balancing with uniform base weights:
//
//	f(λ) = log( (1/n) Σ_i exp(λ·z_i) ),   z_i = x_i − t
//
// Its gradient is the weighted mean gap Σ p_i z_i and its Hessian the weighted
// covariance of z, where p = softmax(Zλ). The primal weights are n·p.
type dual struct {
	z      *mat.Dense // n×k centred covariates of the reweighted group
	target []float64
	n, k   int

	// scratch
	eta []float64
	p   []float64
}

// newDual validates the request and centres the reweighted group on the target means.
func newDual(c *cohort.Cohort, req ports.BalanceRequest) (*dual, error) {
	if c == nil || len(c.Observations) == 0 {
		return nil, core.NewDegenerateInputError("empty cohort")
	}
	if !req.ReweightGroup.Valid() {
		return nil, core.NewDegenerateInputError(fmt.Sprintf("unknown reweight group %d", int(req.ReweightGroup)))
	}
	if len(req.Covariates) == 0 {
		return nil, core.NewDegenerateInputError("no covariates to balance")
	}
	if !(req.Tolerance > 0) {
		return nil, core.NewDegenerateInputError(fmt.Sprintf("tolerance must be positive, got %v", req.Tolerance))
	}
	if req.MaxIterations <= 0 {
		return nil, core.NewDegenerateInputError(fmt.Sprintf("max iterations must be positive, got %d", req.MaxIterations))
	}

	k := len(req.Covariates)
	n := c.GroupSize(req.ReweightGroup)
	// k moment constraints plus normalization
	if n < k+1 {
		return nil, core.NewDegenerateInputError(fmt.Sprintf("reweighted group %v has %d observations for %d constraints", req.ReweightGroup, n, k+1))
	}
	if c.GroupSize(req.ReweightGroup.Other()) == 0 {
		return nil, core.NewDegenerateInputError(fmt.Sprintf("target group %v is empty", req.ReweightGroup.Other()))
	}

	z := mat.NewDense(n, k, nil)
	target := make([]float64, k)
	for j, key := range req.Covariates {
		tcol, err := c.Covariate(req.ReweightGroup.Other(), key)
		if err != nil {
			return nil, err
		}
		target[j] = stat.Mean(tcol, nil)

		col, err := c.Covariate(req.ReweightGroup, key)
		if err != nil {
			return nil, err
		}
		for i, v := range col {
			z.Set(i, j, v-target[j])
		}
	}

	return &dual{
		z:      z,
		target: target,
		n:      n,
		k:      k,
		eta:    make([]float64, n),
		p:      make([]float64, n),
	}, nil
}

// value evaluates f(λ) and leaves softmax probabilities in d.p.
func (d *dual) value(lambda []float64) float64 {
	for i := 0; i < d.n; i++ {
		d.eta[i] = floats.Dot(d.z.RawRowView(i), lambda)
	}
	lse := floats.LogSumExp(d.eta)
	for i, e := range d.eta {
		d.p[i] = math.Exp(e - lse)
	}
	return lse - math.Log(float64(d.n))
}

// gradient writes Σ p_i z_i into grad. value must have been called at the same λ.
func (d *dual) gradient(grad []float64) {
	for j := range grad {
		grad[j] = 0
	}
	for i, pi := range d.p {
		floats.AddScaled(grad, pi, d.z.RawRowView(i))
	}
}

// hessian writes Σ p_i z_i z_iᵀ − g gᵀ into h. value must have been called at the same λ.
func (d *dual) hessian(h *mat.SymDense, grad []float64) {
	for a := 0; a < d.k; a++ {
		for b := a; b < d.k; b++ {
			var s float64
			for i, pi := range d.p {
				row := d.z.RawRowView(i)
				s += pi * row[a] * row[b]
			}
			h.SetSym(a, b, s-grad[a]*grad[b])
		}
	}
}

// weights returns n·p for the last evaluated λ.
func (d *dual) weights() ([]float64, error) {
	w := make([]float64, d.n)
	for i, pi := range d.p {
		w[i] = pi * float64(d.n)
		if math.IsNaN(w[i]) || math.IsInf(w[i], 0) || w[i] < 0 {
			return nil, fmt.Errorf("weight %d is %v", i, w[i])
		}
	}
	return w, nil
}

func maxAbs(v []float64) float64 {
	var m float64
	for _, x := range v {
		if a := math.Abs(x); a > m || math.IsNaN(a) {
			m = a
		}
	}
	return m
}

// finish builds the weighted cohort once the residual is within tolerance.
func (d *dual) finish(c *cohort.Cohort, req ports.BalanceRequest, lambda []float64, iterations int, residual float64) (*cohort.WeightedCohort, ports.SolveStats, error) {
	stats := ports.SolveStats{
		Iterations:  iterations,
		MaxResidual: residual,
		Lambda:      append([]float64(nil), lambda...),
	}
	w, err := d.weights()
	if err != nil {
		return nil, stats, core.NewInfeasibleError(iterations, residual, err.Error())
	}
	return &cohort.WeightedCohort{
		Cohort:          c,
		ReweightedGroup: req.ReweightGroup,
		Balanced:        append([]core.CovariateKey(nil), req.Covariates...),
		Weights:         w,
	}, stats, nil
}
