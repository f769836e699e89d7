package callable

import (
	"errors"
	"fmt"

	"github.com/jtomasevic/entityctl/internal/ids"
)

var (
	// ErrNotRegistered is returned when Execute/ExecuteAsync names an
	// unknown callable.
	ErrNotRegistered = errors.New("callable: not registered")
	// ErrUnsupportedArgumentPattern is returned when a provided argument
	// value's own shape cannot be classified into any of primitive,
	// reference, entity or entity-collection (spec.md §4.7) — e.g. a
	// channel or function value passed where an entity or primitive was
	// expected.
	ErrUnsupportedArgumentPattern = errors.New("callable: unsupported argument pattern")
	// ErrInputValidationFailed is returned when a resolved argument value
	// cannot be assigned to its declared parameter type.
	ErrInputValidationFailed = errors.New("callable: input validation failed")
	// ErrCancelled is returned by ExecuteAsync when ctx is cancelled before
	// the user function returns.
	ErrCancelled = errors.New("callable: cancelled")
)

// FunctionFailedError wraps a panic or error raised by a registered
// function, carrying its name and the call's execution id (spec.md §7).
type FunctionFailedError struct {
	Name        string
	ExecutionID ids.ExecutionID
	Cause       error
}

func (e *FunctionFailedError) Error() string {
	return fmt.Sprintf("callable: %q failed (execution %s): %v", e.Name, e.ExecutionID, e.Cause)
}
func (e *FunctionFailedError) Unwrap() error { return e.Cause }
