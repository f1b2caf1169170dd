package ports

import (
	"context"
	"math/rand/v2"
)

// RNGPort provides seeded random number generation for deterministic operations
type RNGPort interface {
	// Stream derives an independent deterministic source for one stage of one scan item.
	// The same (stageName, itemKey, baseSeed) always yields the same stream.
	Stream(ctx context.Context, stageName, itemKey string, baseSeed int64) (rand.Source, uint64, error)
}
