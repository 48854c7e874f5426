package engine

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrNoRules indicates an empty rule group.
	ErrNoRules = errors.New("rule group has no rules")

	// ErrInvalidConfig indicates invalid evaluator configuration.
	ErrInvalidConfig = errors.New("invalid evaluator configuration")
)

// LibraryError indicates a failed library page fetch. The group evaluation
// is abandoned.
type LibraryError struct {
	LibraryID string
	Offset    int
	Cause     error
}

// Error returns the error message.
func (e *LibraryError) Error() string {
	return fmt.Sprintf("library %s offset %d: %v", e.LibraryID, e.Offset, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *LibraryError) Unwrap() error {
	return e.Cause
}

// LiteralError indicates a custom value that cannot be read as its declared
// type.
type LiteralError struct {
	Value string
	Type  string
	Cause error
}

// Error returns the error message.
func (e *LiteralError) Error() string {
	return fmt.Sprintf("literal %q is not a valid %s: %v", e.Value, e.Type, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *LiteralError) Unwrap() error {
	return e.Cause
}
