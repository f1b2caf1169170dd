package ports

import (
	"context"
	"math/rand/v2"

	"gomaic/domain/cohort"
)

// CohortSimulator draws a two-group cohort table.
type CohortSimulator interface {
	Simulate(ctx context.Context, p cohort.Params, src rand.Source, seed uint64) (*cohort.Cohort, error)
}
