package registry

import "errors"

var (
	// ErrNotFound names a lookup miss (by root, by lineage, by live id).
	// The Registry's own lookup methods report a miss through their
	// boolean result and do not return it.
	ErrNotFound = errors.New("registry: not found")
)
