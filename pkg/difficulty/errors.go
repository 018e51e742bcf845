package difficulty

import "errors"

// ErrInvalidConfig indicates a tier or preset file that cannot be used.
// It is a malformed-input error and is never retried.
var ErrInvalidConfig = errors.New("invalid difficulty config")
