package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrOverflow indicates a view whose blocks exceed the token budget
	// while overflow is configured to error rather than truncate.
	ErrOverflow = errors.New("token budget overflow")

	// ErrEstimatorRequired indicates a budgeted view request without an
	// estimator to enforce it.
	ErrEstimatorRequired = errors.New("token estimator required when a budget is set")

	// ErrUnhashedBlock indicates an AddBlock call with an empty hash.
	ErrUnhashedBlock = errors.New("block has no hash")
)

// OverflowError reports the budget and the tokens the view would need.
type OverflowError struct {
	Budget   int
	Required int
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("view requires %d tokens, budget is %d", e.Required, e.Budget)
}

func (e *OverflowError) Unwrap() error { return ErrOverflow }
