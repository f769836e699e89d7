package entity

import "github.com/jtomasevic/entityctl/internal/ids"

// Slot identifies how a child entity is reached from its parent: the
// declaring field, plus an optional container key (slice index, map key,
// or tuple slot index) for container fields. Two nodes in different trees
// "occupy the same slot" (spec.md §4.3 matching rule) when their Slot
// values are equal.
type Slot struct {
	Field string
	Key   string // "" for a plain entity field; index/map-key/tuple-slot otherwise
}

// Edge records one parent -> child containment relationship discovered
// during tree build.
type Edge struct {
	Parent ids.LogicalID
	Child  ids.LogicalID
	Slot   Slot
}

// Tree is a frozen snapshot of a reachability graph from one root
// (spec.md §3, "Tree snapshot"). It is never mutated after BuildTree (or
// Version) returns it.
type Tree struct {
	RootLogicalID ids.LogicalID

	// Nodes holds immutable copies of every entity reachable from the root.
	Nodes map[ids.LogicalID]IsEntity

	// Edges is indexed by the child id for O(1) "who is my parent" lookups.
	Edges map[ids.LogicalID]Edge

	// Children lists, in discovery order, the edges out of each parent —
	// needed to reconstruct slot ordering and to re-run the differ.
	Children map[ids.LogicalID][]Edge

	AncestryPaths map[ids.LogicalID][]ids.LogicalID

	NodeCount int
	MaxDepth  int
}

// Get returns the node by logical id, or false if it isn't part of this tree.
func (t *Tree) Get(id ids.LogicalID) (IsEntity, bool) {
	e, ok := t.Nodes[id]
	return e, ok
}

// Root returns the root entity of the tree.
func (t *Tree) Root() IsEntity {
	return t.Nodes[t.RootLogicalID]
}

// ParentOf returns the edge leading into id, if id is not the root.
func (t *Tree) ParentOf(id ids.LogicalID) (Edge, bool) {
	e, ok := t.Edges[id]
	return e, ok
}
