package codec

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is the base of all payload validation failures.
	ErrValidation = errors.New("payload validation failed")

	// ErrUnknownCodec indicates a registry lookup for an unregistered id.
	ErrUnknownCodec = errors.New("unknown codec")

	// ErrDuplicateCodec indicates a second registration for an existing id.
	ErrDuplicateCodec = errors.New("codec already registered")

	// ErrKindMismatch indicates a block kind the codec does not support.
	ErrKindMismatch = errors.New("kind not supported by codec")
)

// ValidationError reports a malformed payload field.
type ValidationError struct {
	CodecID string
	Field   string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("codec %s: field %q: %s", e.CodecID, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// validationErr is a shorthand constructor.
func validationErr(codecID, field, reason string) error {
	return &ValidationError{CodecID: codecID, Field: field, Reason: reason}
}
