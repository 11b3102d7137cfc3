package policy

import "errors"

// ErrInvalidPolicy indicates a policy that fails sanity checks.
var ErrInvalidPolicy = errors.New("invalid policy")
