package model

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSpec marks bad caller input: an invalid profile or test spec,
	// a non-positive step, or a target that cannot be reached.
	ErrInvalidSpec = errors.New("invalid spec")
	// ErrDivergentState marks a numeric inconsistency detected while stepping.
	ErrDivergentState = errors.New("divergent state")
)

// SpecError describes a rejected input field. It matches ErrInvalidSpec.
type SpecError struct {
	Field  string
	Reason string
}

func (e *SpecError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid spec: %s", e.Reason)
	}
	return fmt.Sprintf("invalid spec: %s: %s", e.Field, e.Reason)
}

func (e *SpecError) Unwrap() error { return ErrInvalidSpec }

// Invalid builds a *SpecError.
func Invalid(field, format string, args ...any) error {
	return &SpecError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// StateError reports where a run diverged. It matches ErrDivergentState.
type StateError struct {
	Step   int
	T      float64
	Reason string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("divergent state at step %d (t=%.3fs): %s", e.Step, e.T, e.Reason)
}

func (e *StateError) Unwrap() error { return ErrDivergentState }
