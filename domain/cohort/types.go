package cohort

import (
	"fmt"

	"gomaic/domain/core"
)

// Group labels an observation's cohort.
type Group int

const (
	GroupSource Group = 0 // reference cohort, drawn around MeanA
	GroupTarget Group = 1 // target cohort, drawn around MeanB
)

// Other returns the opposite group.
func (g Group) Other() Group {
	if g == GroupSource {
		return GroupTarget
	}
	return GroupSource
}

func (g Group) Valid() bool {
	return g == GroupSource || g == GroupTarget
}

func (g Group) String() string {
	switch g {
	case GroupSource:
		return "A"
	case GroupTarget:
		return "B"
	default:
		return fmt.Sprintf("group(%d)", int(g))
	}
}

// Covariate keys carried by every observation
const (
	X1 core.CovariateKey = "X1"
	X2 core.CovariateKey = "X2"
)

// Covariates lists the balanced covariates in column order.
var Covariates = []core.CovariateKey{X1, X2}

// Observation is one simulated patient
type Observation struct {
	X1    float64 `json:"x1"`
	X2    float64 `json:"x2"`
	Group Group   `json:"group"`
}

// Value returns the named covariate.
func (o Observation) Value(key core.CovariateKey) (float64, bool) {
	switch key {
	case X1:
		return o.X1, true
	case X2:
		return o.X2, true
	default:
		return 0, false
	}
}

// Params are the generating parameters of a cohort table.
type Params struct {
	Correlation float64    `json:"correlation"`
	SampleSize  int        `json:"sample_size"` // per group
	StdDevs     [2]float64 `json:"std_devs"`
	MeanA       [2]float64 `json:"mean_a"`
	MeanB       [2]float64 `json:"mean_b"`
}

// Mean returns the generating mean vector of a group.
func (p Params) Mean(g Group) [2]float64 {
	if g == GroupTarget {
		return p.MeanB
	}
	return p.MeanA
}

// Cohort is the concatenated table of both groups: group A rows first, then group B.
type Cohort struct {
	Params       Params        `json:"params"`
	Seed         uint64        `json:"seed"`
	Observations []Observation `json:"observations"`
}

// GroupSize counts the observations in a group.
func (c *Cohort) GroupSize(g Group) int {
	n := 0
	for _, o := range c.Observations {
		if o.Group == g {
			n++
		}
	}
	return n
}

// Covariate extracts one covariate column for a group, in table order.
func (c *Cohort) Covariate(g Group, key core.CovariateKey) ([]float64, error) {
	out := make([]float64, 0, c.GroupSize(g))
	for _, o := range c.Observations {
		if o.Group != g {
			continue
		}
		v, ok := o.Value(key)
		if !ok {
			return nil, core.NewDegenerateInputError(fmt.Sprintf("unknown covariate %q", key))
		}
		out = append(out, v)
	}
	return out, nil
}

// WeightedCohort is a cohort plus balancing weights for the reweighted group.
// Weights[i] belongs to the i-th observation of ReweightedGroup in table order;
// observations of the other group carry an implicit weight of 1.
type WeightedCohort struct {
	*Cohort
	ReweightedGroup Group               `json:"reweighted_group"`
	Balanced        []core.CovariateKey `json:"balanced"`
	Weights         []float64           `json:"weights"`
}

// TargetGroup is the group whose unweighted means are matched.
func (w *WeightedCohort) TargetGroup() Group {
	return w.ReweightedGroup.Other()
}
