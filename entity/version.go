package entity

import (
	"time"

	"github.com/jtomasevic/entityctl/internal/ids"
)

// PublishOutcome classifies what Version did (spec.md §4.5 PublishOutcome).
type PublishOutcome int

const (
	Unchanged PublishOutcome = iota
	NewVersion
)

// VersionResult is the result of applying the differ to a candidate tree.
type VersionResult struct {
	Outcome          PublishOutcome
	OldRootLogicalID ids.LogicalID // zero value if this is the first publication
	NewRootLogicalID ids.LogicalID
	ChangedCount     int
	Tree             *Tree // the rekeyed, published tree; nil when Outcome == Unchanged

	// Rekeyed maps every node id of the tree passed as newTree to its id
	// in Tree (itself, for nodes that were not rekeyed). nil when
	// Outcome == Unchanged, since nothing was rekeyed.
	Rekeyed map[ids.LogicalID]ids.LogicalID
}

// Version implements the versioning engine (spec.md §4.4): it diffs
// newTree against oldTree, mints fresh logical ids for every changed
// node, carries unchanged nodes' ids forward unchanged, and rebuilds
// edges and ancestry paths over the (possibly new) ids from scratch —
// every publish fully recomputes ancestry_paths rather than patching it
// incrementally, per spec.md §9's note on stale-ancestry-path bugs in the
// source's own validation harness.
func Version(newTree, oldTree *Tree) (*VersionResult, error) {
	changed, err := Diff(newTree, oldTree)
	if err != nil {
		return nil, err
	}

	if len(changed) == 0 && oldTree != nil {
		return &VersionResult{
			Outcome:          Unchanged,
			OldRootLogicalID: oldTree.RootLogicalID,
			NewRootLogicalID: oldTree.RootLogicalID,
		}, nil
	}

	rekeyed := make(map[ids.LogicalID]ids.LogicalID, len(newTree.Nodes))
	for id := range newTree.Nodes {
		if changed[id] {
			rekeyed[id] = ids.NewLogicalID()
		} else {
			rekeyed[id] = id
		}
	}

	newRootID := rekeyed[newTree.RootLogicalID]
	rootLiveID := newTree.Root().EntityBase().LiveID

	rebuilt := &Tree{
		RootLogicalID: newRootID,
		Nodes:         make(map[ids.LogicalID]IsEntity, len(newTree.Nodes)),
		Edges:         make(map[ids.LogicalID]Edge, len(newTree.Edges)),
		Children:      make(map[ids.LogicalID][]Edge, len(newTree.Children)),
		AncestryPaths: make(map[ids.LogicalID][]ids.LogicalID, len(newTree.AncestryPaths)),
		MaxDepth:      newTree.MaxDepth,
	}

	now := time.Now()
	for oldID, original := range newTree.Nodes {
		newID := rekeyed[oldID]
		cloned := shallowCopy(original)
		base := cloned.EntityBase()

		if changed[oldID] {
			prev := oldID
			base.PreviousLogicalID = &prev
			base.ForkedAt = &now
		}
		base.LogicalID = newID
		base.RootLogicalID = newRootID
		base.RootLiveID = rootLiveID

		rebuilt.Nodes[newID] = cloned
	}

	for oldParentID, edges := range newTree.Children {
		newParentID := rekeyed[oldParentID]
		for _, edge := range edges {
			newChildID := rekeyed[edge.Child]
			newEdge := Edge{Parent: newParentID, Child: newChildID, Slot: edge.Slot}
			rebuilt.Edges[newChildID] = newEdge
			rebuilt.Children[newParentID] = append(rebuilt.Children[newParentID], newEdge)
		}
	}

	for oldID, path := range newTree.AncestryPaths {
		newPath := make([]ids.LogicalID, len(path))
		for i, p := range path {
			newPath[i] = rekeyed[p]
		}
		rebuilt.AncestryPaths[rekeyed[oldID]] = newPath
	}
	rebuilt.NodeCount = len(rebuilt.Nodes)

	var oldRoot ids.LogicalID
	if oldTree != nil {
		oldRoot = oldTree.RootLogicalID
	}

	return &VersionResult{
		Outcome:          NewVersion,
		OldRootLogicalID: oldRoot,
		NewRootLogicalID: newRootID,
		ChangedCount:     len(changed),
		Tree:             rebuilt,
		Rekeyed:          rekeyed,
	}, nil
}

// SyncIdentity copies the identity/provenance fields of src onto dst,
// leaving dst's domain fields untouched. Used by the registry to keep a
// caller's live instance consistent with the just-published snapshot
// (spec.md §4.4 step 5: "update live_index only for entities that are
// currently resident").
func SyncIdentity(dst, src IsEntity) {
	d := dst.EntityBase()
	s := src.EntityBase()
	d.LogicalID = s.LogicalID
	d.RootLogicalID = s.RootLogicalID
	d.RootLiveID = s.RootLiveID
	d.LineageID = s.LineageID
	d.PreviousLogicalID = s.PreviousLogicalID
	d.ForkedAt = s.ForkedAt
}
