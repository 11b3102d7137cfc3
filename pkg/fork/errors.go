package fork

import (
	"errors"
	"fmt"
)

var (
	// ErrForbiddenFieldLeak indicates executor output containing a field
	// the task forbade. The check is fail-closed: a leak aborts the fork
	// result.
	ErrForbiddenFieldLeak = errors.New("forbidden field leaked into fork output")

	// ErrSchemaValidation indicates executor output that does not match
	// the task's output schema.
	ErrSchemaValidation = errors.New("fork output does not match schema")

	// ErrSensitivityViolation is returned by summarizer implementations
	// handed blocks above their sensitivity ceiling.
	ErrSensitivityViolation = errors.New("input exceeds sensitivity ceiling")

	// ErrNilExecutor indicates ExecuteFork called without a callback.
	ErrNilExecutor = errors.New("executor callback is required")
)

// ForbiddenFieldLeakError names the leaked field.
type ForbiddenFieldLeakError struct {
	Field string
}

func (e *ForbiddenFieldLeakError) Error() string {
	return fmt.Sprintf("forbidden field %q present in fork output", e.Field)
}

func (e *ForbiddenFieldLeakError) Unwrap() error { return ErrForbiddenFieldLeak }

// SchemaValidationError locates a schema mismatch in the output value.
type SchemaValidationError struct {
	Path   string
	Reason string
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("output%s: %s", e.Path, e.Reason)
}

func (e *SchemaValidationError) Unwrap() error { return ErrSchemaValidation }
