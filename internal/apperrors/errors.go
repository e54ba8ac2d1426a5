package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrConflict indicates an optimistic-concurrency conflict, e.g. an expense that was
// linked by a concurrent evaluation between read and write.
var ErrConflict = errors.New("state conflict")
