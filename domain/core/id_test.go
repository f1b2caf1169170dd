package core

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

func TestComputeFingerprintIsOrderIndependent(t *testing.T) {
	a := ComputeFingerprint(map[string]interface{}{"n": 1000, "rho": -0.7, "seed": int64(42)})
	b := ComputeFingerprint(map[string]interface{}{"seed": int64(42), "rho": -0.7, "n": 1000})
	c := ComputeFingerprint(map[string]interface{}{"seed": int64(43), "rho": -0.7, "n": 1000})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a.Short(), 12)
}

func TestFailureKind(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{nil, KindNone},
		{NewInvalidParameterError("correlation", "must be in (-1, 1)"), KindInvalidParameter},
		{NewDegenerateInputError("too few rows"), KindDegenerateInput},
		{NewInfeasibleError(200, 0.3, "iteration budget exhausted"), KindBalanceInfeasible},
		{fmt.Errorf("wrapped: %w", context.Canceled), KindCanceled},
		{fmt.Errorf("boom"), KindInternal},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FailureKind(tt.err))
	}
}
