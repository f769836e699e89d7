package entity

import "errors"

// Error taxonomy for C1/C2/C3 (spec.md §7). Each is a sentinel so callers
// can use errors.Is; richer context is attached with fmt.Errorf("%w", ...).
var (
	// ErrMultiParentContainment is fatal to a tree build: an entity was
	// reached through two distinct parents.
	ErrMultiParentContainment = errors.New("entity: multi-parent containment")

	// ErrCycleDetected is fatal to a tree build: a back-edge was found
	// during traversal.
	ErrCycleDetected = errors.New("entity: cycle detected")

	// ErrRecursivePrimitiveField marks a declared field type that is
	// recursive but never passes through an entity type (spec.md §4.1).
	ErrRecursivePrimitiveField = errors.New("entity: recursive primitive field")
)
