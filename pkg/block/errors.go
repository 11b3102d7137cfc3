package block

import "errors"

var (
	// ErrKindOrderViolation indicates a block sequence that breaks the
	// canonical kind order.
	ErrKindOrderViolation = errors.New("kind order violation")

	// ErrInvalidMeta indicates metadata with missing or unknown fields.
	ErrInvalidMeta = errors.New("invalid block metadata")

	// ErrNotCanonicalizable indicates a payload value that cannot be
	// represented as canonical JSON (channels, funcs, NaN, cycles).
	ErrNotCanonicalizable = errors.New("payload is not canonicalizable")
)
