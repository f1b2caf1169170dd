package rng

import (
	"context"
	"math/rand/v2"
)

// pcgIncrement is the fixed second PCG word; streams differ only through the seed.
const pcgIncrement = 0xda3e39cb94b95bdb

// SeededAdapter implements ports.RNGPort on top of math/rand/v2 PCG sources.
type SeededAdapter struct{}

// NewSeededAdapter creates an RNG adapter
func NewSeededAdapter() *SeededAdapter {
	return &SeededAdapter{}
}

// Stream derives a per-item seed from the stage name, item key and base seed.
// Equal inputs give equal streams across runs and across goroutines.
func (a *SeededAdapter) Stream(ctx context.Context, stageName, itemKey string, baseSeed int64) (rand.Source, uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	seed := DeriveSeed(stageName, itemKey, baseSeed)
	return rand.NewPCG(seed, pcgIncrement), seed, nil
}

// DeriveSeed mixes the inputs with djb2 and a splitmix64 finalizer.
func DeriveSeed(stageName, itemKey string, baseSeed int64) uint64 {
	seed := uint64(baseSeed)
	if stageName != "" {
		seed = mix(seed ^ hashString(stageName))
	}
	if itemKey != "" {
		seed = mix(seed ^ hashString(itemKey))
	}
	return mix(seed)
}

// hashString creates a simple hash for deterministic seeding
func hashString(s string) uint64 {
	var hash uint64 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint64(c) // djb2 algorithm
	}
	return hash
}

func mix(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
