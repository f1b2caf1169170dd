package core

import (
	"context"
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Simulation errors
	ErrInvalidParameter = errors.New("invalid parameter")

	// Balancing errors
	ErrDegenerateInput   = errors.New("degenerate input")
	ErrBalanceInfeasible = errors.New("balance infeasible")
)

// Kind classifies a failure recorded against a single correlation value.
type Kind string

const (
	KindNone              Kind = ""
	KindInvalidParameter  Kind = "invalid_parameter"
	KindDegenerateInput   Kind = "degenerate_input"
	KindBalanceInfeasible Kind = "balance_infeasible"
	KindCanceled          Kind = "canceled"
	KindInternal          Kind = "internal"
)

// Error constructors with context
func NewInvalidParameterError(field string, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidParameter, field, reason)
}

func NewDegenerateInputError(reason string) error {
	return fmt.Errorf("%w: %s", ErrDegenerateInput, reason)
}

func NewInfeasibleError(iterations int, residual float64, reason string) error {
	return fmt.Errorf("%w after %d iterations (max residual %.3g): %s", ErrBalanceInfeasible, iterations, residual, reason)
}

// FailureKind maps an error onto the kind recorded in scan results.
func FailureKind(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInvalidParameter):
		return KindInvalidParameter
	case errors.Is(err, ErrDegenerateInput):
		return KindDegenerateInput
	case errors.Is(err, ErrBalanceInfeasible):
		return KindBalanceInfeasible
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindInternal
	}
}
