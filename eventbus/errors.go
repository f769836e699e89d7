package eventbus

import "errors"

var (
	// ErrBusClosed is returned by Emit/EmitWithChildren once Close has run.
	ErrBusClosed = errors.New("eventbus: bus closed")
)
