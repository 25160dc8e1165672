package reembed

import "errors"

// ErrInvalidMaxAttempts is returned by RetryWithBackoff when maxAttempts < 1.
var ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")
