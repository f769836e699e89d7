package entity

import (
	"reflect"
	"strings"

	"github.com/jtomasevic/entityctl/internal/hash"
	"github.com/jtomasevic/entityctl/internal/ids"
)

// Diff compares newTree against oldTree (the last published snapshot for
// the same root lineage, or nil for a first publication) and returns the
// set of logical ids in newTree that require rekeying: nodes whose
// content differs from their matched predecessor, plus every strict
// ancestor of such a node up to the root (spec.md §4.3).
//
// Matching is structural: a new node matches an old node when they
// occupy the same slot path (the sequence of field/container slots from
// the root), never by logical-id equality, since the differ runs before
// rekeying.
func Diff(newTree, oldTree *Tree) (map[ids.LogicalID]bool, error) {
	changed := map[ids.LogicalID]bool{}

	if oldTree == nil {
		for id := range newTree.Nodes {
			changed[id] = true
		}
		return changed, nil
	}

	oldBySlotPath := map[string]ids.LogicalID{}
	for id := range oldTree.Nodes {
		oldBySlotPath[slotPathKey(oldTree, id)] = id
	}

	newFP := fingerprintTree(newTree)
	oldFP := fingerprintTree(oldTree)

	for id := range newTree.Nodes {
		key := slotPathKey(newTree, id)
		oldID, matched := oldBySlotPath[key]

		if !matched || nodeDiffers(newTree, id, newFP, oldTree, oldID, oldFP) {
			changed[id] = true
		}
	}

	// Propagate: every strict ancestor of a changed node is also changed.
	for id := range changedSnapshot(changed) {
		for _, ancestor := range newTree.AncestryPaths[id] {
			if ancestor != id {
				changed[ancestor] = true
			}
		}
	}

	return changed, nil
}

func changedSnapshot(m map[ids.LogicalID]bool) map[ids.LogicalID]bool {
	out := make(map[ids.LogicalID]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// slotPathKey renders a node's ancestry as a string of slots, root-first,
// so two nodes in different trees can be compared for "same slot" without
// depending on logical-id equality.
func slotPathKey(t *Tree, id ids.LogicalID) string {
	path := t.AncestryPaths[id]
	var b strings.Builder
	for i, n := range path {
		if i == 0 {
			continue // root carries no slot of its own
		}
		edge := t.Edges[n]
		b.WriteString(edge.Slot.Field)
		b.WriteByte(':')
		b.WriteString(edge.Slot.Key)
		b.WriteByte('/')
	}
	return b.String()
}

// nodeDiffers reports whether newID (in newTree) differs in content from
// oldID (in oldTree): a type change, or unequal structural fingerprints
// (see fingerprintTree), which covers unequal primitive fields and a
// changed multiset of child fingerprints. Slot keys are not part of the
// fingerprint: a child added or moved under a new slot key is caught by
// Diff itself, since that child has no matching predecessor at its slot
// path (or matches a different one) and its ancestors are then marked by
// propagation.
func nodeDiffers(newTree *Tree, newID ids.LogicalID, newFP map[ids.LogicalID]uint64, oldTree *Tree, oldID ids.LogicalID, oldFP map[ids.LogicalID]uint64) bool {
	newEntity := newTree.Nodes[newID]
	oldEntity := oldTree.Nodes[oldID]

	if newEntity.EntityTypeName() != oldEntity.EntityTypeName() {
		return true
	}
	return newFP[newID] != oldFP[oldID]
}

// fingerprintTree computes a structural fingerprint for every node in t,
// bottom-up: a node's fingerprint folds its own primitive-field content
// hash (hash.Fields) together with its children's fingerprints
// (hash.Lineage, order-independent), so a changed field, or an added or
// removed child, anywhere in a subtree changes every ancestor's
// fingerprint without a full per-field deep-equality walk at every
// depth. Reordering children alone leaves the parent's fingerprint
// unchanged; Diff detects it through slot-path matching instead. Mirrors the teacher's lineage-hashing approach
// (internal/hash, adapted from pck/event_network/lineage_hashing.go).
func fingerprintTree(t *Tree) map[ids.LogicalID]uint64 {
	fp := make(map[ids.LogicalID]uint64, len(t.Nodes))
	var visit func(id ids.LogicalID) uint64
	visit = func(id ids.LogicalID) uint64 {
		if v, ok := fp[id]; ok {
			return v
		}
		self := contentFingerprint(t.Nodes[id])
		children := t.Children[id]
		childSigs := make([]uint64, len(children))
		for i, e := range children {
			childSigs[i] = visit(e.Child)
		}
		v := hash.Lineage(self, childSigs)
		fp[id] = v
		return v
	}
	for id := range t.Nodes {
		visit(id)
	}
	return fp
}

// contentFingerprint hashes e's own declared primitive fields, in
// declaration order, via hash.Fields.
func contentFingerprint(e IsEntity) uint64 {
	rv := reflect.ValueOf(e)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	descriptors, err := Classify(rv.Type())
	if err != nil {
		// Classification succeeded when the tree was built; a failure here
		// would be a bug, not a legitimate "differs" signal.
		return 0
	}

	values := make([]any, 0, len(descriptors))
	for _, d := range descriptors {
		if d.Kind != FieldPrimitive {
			continue
		}
		values = append(values, rv.Field(d.Index).Interface())
	}
	return hash.Fields(values...)
}
