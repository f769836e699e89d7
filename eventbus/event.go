// Package eventbus implements the in-process event bus (spec component
// C8): typed/glob/predicate subscriptions, parent/child correlation via a
// task-local context value, bounded concurrent dispatch, and a bounded
// history ring.
//
// Grounded on the teacher's event model (`pkg/event_network/event.go`'s
// plain `Event` struct with an id/type/domain/properties/timestamp shape)
// and its queue-based dispatch discipline
// (`pck/event_network/synapse_runtime.go`'s `Ingest` BFS queue), adapted
// from single-threaded rule evaluation to concurrent subscriber dispatch.
package eventbus

import (
	"time"

	"github.com/jtomasevic/entityctl/internal/ids"
)

// Event is one immutable fact emitted on the bus. Type is a dotted string
// such as "function.executing"; ParentID/LineageID correlate an event to
// the emission that produced it (spec.md §4.8 "parent/child correlation").
type Event struct {
	ID        ids.EventID
	Type      string
	ParentID  *ids.EventID
	LineageID *ids.EventID
	Payload   any
	Timestamp time.Time
}
