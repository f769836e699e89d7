package entity

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/jtomasevic/entityctl/internal/ids"
)

// RootLookup tells the builder whether id is currently the root of some
// other published tree, so embedding-as-value (spec.md §4.2 step 3) can
// stop descending into it. A nil RootLookup always reports false, which
// is correct for a standalone build with no registry behind it.
type RootLookup func(id ids.LogicalID) bool

type queueItem struct {
	entity IsEntity
	path   []ids.LogicalID
	depth  int
	opaque bool // true: copy but do not expand children (embedded published root)
}

// BuildTree constructs an immutable Tree from root by breadth-first field
// traversal (spec.md §4.2). It is pure: it never mutates root or any
// reachable entity. The second return value maps every visited node's
// (pre-publish) logical id to the actual live entity instance discovered
// during traversal — the registry uses it to push rekeyed identity back
// onto a caller's live objects after a successful publish.
func BuildTree(root IsEntity, lookup RootLookup) (*Tree, map[ids.LogicalID]IsEntity, error) {
	if lookup == nil {
		lookup = func(ids.LogicalID) bool { return false }
	}

	rootID := root.EntityBase().LogicalID
	t := &Tree{
		RootLogicalID: rootID,
		Nodes:         map[ids.LogicalID]IsEntity{},
		Edges:         map[ids.LogicalID]Edge{},
		Children:      map[ids.LogicalID][]Edge{},
		AncestryPaths: map[ids.LogicalID][]ids.LogicalID{rootID: {rootID}},
	}
	live := map[ids.LogicalID]IsEntity{}

	pathOf := map[ids.LogicalID][]ids.LogicalID{rootID: {rootID}}
	queue := []queueItem{{entity: root, path: []ids.LogicalID{rootID}, depth: 0}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		curID := cur.entity.EntityBase().LogicalID
		t.Nodes[curID] = shallowCopy(cur.entity)
		live[curID] = cur.entity
		if cur.depth > t.MaxDepth {
			t.MaxDepth = cur.depth
		}

		if cur.opaque {
			continue
		}

		children, err := fieldChildren(cur.entity)
		if err != nil {
			return nil, nil, err
		}

		for _, ch := range children {
			childID := ch.child.EntityBase().LogicalID

			for _, ancestor := range cur.path {
				if ancestor == childID {
					return nil, nil, fmt.Errorf("%w: %s is its own ancestor via field %s",
						ErrCycleDetected, childID, ch.slot.Field)
				}
			}
			if _, seen := pathOf[childID]; seen {
				return nil, nil, fmt.Errorf("%w: %s reached through field %s and a prior path",
					ErrMultiParentContainment, childID, ch.slot.Field)
			}

			childPath := append(append([]ids.LogicalID(nil), cur.path...), childID)
			pathOf[childID] = childPath
			t.AncestryPaths[childID] = childPath

			t.Edges[childID] = Edge{Parent: curID, Child: childID, Slot: ch.slot}
			t.Children[curID] = append(t.Children[curID], t.Edges[childID])

			queue = append(queue, queueItem{
				entity: ch.child,
				path:   childPath,
				depth:  cur.depth + 1,
				opaque: lookup(childID) && childID != rootID,
			})
		}
	}

	t.NodeCount = len(t.Nodes)
	return t, live, nil
}

type foundChild struct {
	slot  Slot
	child IsEntity
}

// fieldChildren classifies e's fields and returns every reachable child
// entity together with the slot it was reached through, in deterministic
// (field-declaration, then container) order.
func fieldChildren(e IsEntity) ([]foundChild, error) {
	rv := reflect.ValueOf(e)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	descriptors, err := Classify(rv.Type())
	if err != nil {
		return nil, err
	}

	var out []foundChild
	for _, d := range descriptors {
		fv := rv.Field(d.Index)
		switch d.Kind {
		case FieldPrimitive:
			continue

		case FieldEntity:
			if child, ok := childEntity(fv); ok {
				out = append(out, foundChild{slot: Slot{Field: d.Name}, child: child})
			}

		case FieldEntitySlice, FieldEntitySet:
			for i := 0; i < fv.Len(); i++ {
				if child, ok := childEntity(fv.Index(i)); ok {
					out = append(out, foundChild{slot: Slot{Field: d.Name, Key: fmt.Sprint(i)}, child: child})
				}
			}

		case FieldEntityMap:
			keys := fv.MapKeys()
			sort.Slice(keys, func(i, j int) bool { return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface()) })
			for _, k := range keys {
				if child, ok := childEntity(fv.MapIndex(k)); ok {
					out = append(out, foundChild{slot: Slot{Field: d.Name, Key: fmt.Sprint(k.Interface())}, child: child})
				}
			}

		case FieldEntityTuple:
			if fv.Kind() == reflect.Array {
				for i := 0; i < fv.Len(); i++ {
					if child, ok := childEntity(fv.Index(i)); ok {
						out = append(out, foundChild{slot: Slot{Field: d.Name, Key: fmt.Sprint(i)}, child: child})
					}
				}
				continue
			}
			tup, ok := fv.Interface().(Tuple)
			if !ok {
				continue
			}
			for i, child := range tup.TupleEntities() {
				if child == nil {
					continue
				}
				out = append(out, foundChild{slot: Slot{Field: d.Name, Key: fmt.Sprint(i)}, child: child})
			}

		case FieldMixedContainer:
			switch fv.Kind() {
			case reflect.Slice:
				for i := 0; i < fv.Len(); i++ {
					if child, ok := childEntity(fv.Index(i)); ok {
						out = append(out, foundChild{slot: Slot{Field: d.Name, Key: fmt.Sprint(i)}, child: child})
					}
				}
			case reflect.Map:
				keys := fv.MapKeys()
				sort.Slice(keys, func(i, j int) bool { return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface()) })
				for _, k := range keys {
					if child, ok := childEntity(fv.MapIndex(k)); ok {
						out = append(out, foundChild{slot: Slot{Field: d.Name, Key: fmt.Sprint(k.Interface())}, child: child})
					}
				}
			}
		}
	}
	return out, nil
}

func childEntity(v reflect.Value) (IsEntity, bool) {
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return nil, false
	}
	e, ok := v.Interface().(IsEntity)
	return e, ok
}

// shallowCopy clones the struct e points to, so the published tree node
// is independent of the caller's live instance. It does not rewire
// nested entity-typed fields: a copied parent's pointer/slice/map fields
// still reference whatever live objects e referenced, not the separate
// copies BuildTree stores for those children in Tree.Nodes. Tree.Get,
// Tree.Children and Tree.AncestryPaths are the authoritative graph;
// walking a returned node's own struct fields to reach a child bypasses
// rekeying and should not be relied on after Version runs.
func shallowCopy(e IsEntity) IsEntity {
	rv := reflect.ValueOf(e)
	if rv.Kind() != reflect.Ptr {
		return e
	}
	clone := reflect.New(rv.Elem().Type())
	clone.Elem().Set(rv.Elem())
	return clone.Interface().(IsEntity)
}

// Clone returns a defensive copy of e, suitable for handing a published
// entity out to a caller that must treat it as borrowed and read-only
// (spec.md §4.7, §5): the registry never exposes a pointer a caller could
// mutate in place to corrupt an already-published snapshot. Like
// shallowCopy, it copies only e's own struct fields by value; nested
// entity-typed fields still point at whatever the original pointed at.
func Clone(e IsEntity) IsEntity {
	return shallowCopy(e)
}
