// Package entity implements the dual-identity entity model, the tree
// builder, the structural differ, and the versioning engine (spec
// components C1-C4): user-defined typed records participating in the
// store, the immutable tree snapshot built from a root, the diff against
// a stored predecessor, and the rekey-on-change publication procedure.
//
// Grounded on the teacher's EventNetwork (jtomasevic-synapse): a directed
// graph of immutable nodes connected by derivation edges, classified and
// traversed via small, explicit helper types rather than a reflection
// framework bolted on afterwards.
package entity

import (
	"time"

	"github.com/jtomasevic/entityctl/internal/ids"
)

// Base carries the identity and provenance fields every entity has.
// Concrete entity types embed Base by value and implement IsEntity by
// exposing a pointer to it.
type Base struct {
	LogicalID     ids.LogicalID
	LiveID        ids.LiveID
	RootLogicalID ids.LogicalID
	RootLiveID    ids.LiveID
	LineageID     ids.LineageID

	CreatedAt         time.Time
	PreviousLogicalID *ids.LogicalID
	ForkedAt          *time.Time

	DerivedFromFunction     *string
	DerivedFromExecutionID  *ids.ExecutionID
	SiblingOutputLogicalIDs map[ids.LogicalID]struct{}

	ContainerOf *string
}

// IsEntity is implemented by every entity type via an embedded Base.
// Classification and traversal are interface-driven, not class-driven,
// per spec.md §9's re-architecture mapping for entity subclassing.
type IsEntity interface {
	EntityBase() *Base
	EntityTypeName() string
}

// IsConfig marks a distinguished configuration entity subtype, used by
// the callable registry's ConfigParameterized argument pattern (spec.md
// §4.7). Concrete config entity types additionally embed ConfigMarker.
type IsConfig interface {
	IsEntity
	isConfig()
}

// ConfigMarker is embedded (in addition to Base) by configuration entity types.
type ConfigMarker struct{}

func (ConfigMarker) isConfig() {}

// NewBase initializes a Base for a freshly created, not-yet-published entity.
//
// LineageID is minted here, at construction, rather than deferred to "first
// promotion to root" as spec.md's lifecycle narrative frames it: Go gives
// us no separate construction/promotion hook to defer it to, and minting it
// early is observationally identical, since an entity's lineage is never
// consulted until it appears in a published tree.
func NewBase() Base {
	logical := ids.NewLogicalID()
	live := ids.NewLiveID()
	return Base{
		LogicalID:     logical,
		LiveID:        live,
		RootLogicalID: logical,
		RootLiveID:    live,
		LineageID:     ids.NewLineageID(),
		CreatedAt:     time.Now(),
	}
}

// Container is the synthesized wrapper entity for non-entity function
// returns (spec.md §4.7). WrappedValue holds the raw return value;
// ContainerOf records its Go type name.
type Container struct {
	Base
	WrappedValue any `yaml:"result" json:"result"`
}

func (c *Container) EntityBase() *Base       { return &c.Base }
func (c *Container) EntityTypeName() string  { return "Container" }

var _ IsEntity = (*Container)(nil)
