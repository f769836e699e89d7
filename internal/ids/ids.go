// Package ids mints the identifiers the entity store depends on.
//
// The store distinguishes two identity kinds that must never be
// interchangeable: a LogicalID (persistent, re-minted on every version)
// and a LiveID (process-local, re-minted on every load). They are typed
// distinctly so the compiler rejects accidental mixing, and minted from
// independent uuid.New() call sites so a logical id and a live id can
// never collide in value even though both are random v4 UUIDs.
package ids

import (
	"fmt"

	"github.com/google/uuid"
)

// LogicalID identifies one specific, immutable entity snapshot.
type LogicalID uuid.UUID

// LiveID identifies one in-memory instance, for the lifetime of the process.
type LiveID uuid.UUID

// LineageID identifies the equivalence class of all versions of one logical entity.
type LineageID uuid.UUID

// ExecutionID identifies a single callable invocation, for provenance linking.
type ExecutionID uuid.UUID

// EventID identifies one emission on the event bus.
type EventID uuid.UUID

func (id LogicalID) String() string   { return uuid.UUID(id).String() }
func (id LiveID) String() string      { return uuid.UUID(id).String() }
func (id LineageID) String() string   { return uuid.UUID(id).String() }
func (id ExecutionID) String() string { return uuid.UUID(id).String() }
func (id EventID) String() string     { return uuid.UUID(id).String() }

func (id LogicalID) IsZero() bool   { return id == LogicalID{} }
func (id LiveID) IsZero() bool      { return id == LiveID{} }
func (id LineageID) IsZero() bool   { return id == LineageID{} }
func (id ExecutionID) IsZero() bool { return id == ExecutionID{} }
func (id EventID) IsZero() bool     { return id == EventID{} }

// NewLogicalID mints a fresh logical id.
func NewLogicalID() LogicalID { return LogicalID(uuid.New()) }

// NewLiveID mints a fresh live id.
func NewLiveID() LiveID { return LiveID(uuid.New()) }

// NewLineageID mints a fresh lineage id.
func NewLineageID() LineageID { return LineageID(uuid.New()) }

// NewExecutionID mints a fresh execution id.
func NewExecutionID() ExecutionID { return ExecutionID(uuid.New()) }

// NewEventID mints a fresh event id.
func NewEventID() EventID { return EventID(uuid.New()) }

// ParseLogicalID parses the canonical hyphenated 8-4-4-4-12 form required by the address grammar.
func ParseLogicalID(s string) (LogicalID, error) {
	if len(s) != 36 {
		return LogicalID{}, fmt.Errorf("invalid logical id %q: want the hyphenated 8-4-4-4-12 form", s)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return LogicalID{}, err
	}
	return LogicalID(u), nil
}
