package address

import (
	"errors"
	"fmt"

	"github.com/jtomasevic/entityctl/internal/ids"
)

var (
	// ErrInvalidAddress is the sentinel behind every malformed-syntax error.
	ErrInvalidAddress = errors.New("address: invalid address syntax")
	// ErrEntityNotFound is the sentinel behind every unknown-logical-id error.
	ErrEntityNotFound = errors.New("address: entity not found")
	// ErrFieldNotFound is the sentinel behind every missing-path-step error.
	ErrFieldNotFound = errors.New("address: field not found")
)

// InvalidAddressError reports a malformed address string.
type InvalidAddressError struct {
	Input string
	Cause error
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("address: invalid address %q: %v", e.Input, e.Cause)
}
func (e *InvalidAddressError) Unwrap() error { return ErrInvalidAddress }

// EntityNotFoundError reports an address whose logical id is not currently published.
type EntityNotFoundError struct {
	LogicalID ids.LogicalID
}

func (e *EntityNotFoundError) Error() string {
	return fmt.Sprintf("address: entity %s not found", e.LogicalID)
}
func (e *EntityNotFoundError) Unwrap() error { return ErrEntityNotFound }

// FieldNotFoundError reports a path step with no matching field, index or
// key, carrying the set of names/keys that were actually available there
// (spec.md §4.6, step 4).
type FieldNotFoundError struct {
	Step      string
	Available []string
}

func (e *FieldNotFoundError) Error() string {
	return fmt.Sprintf("address: step %q not found; available: %v", e.Step, e.Available)
}
func (e *FieldNotFoundError) Unwrap() error { return ErrFieldNotFound }
