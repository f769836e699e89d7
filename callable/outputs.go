package callable

import (
	"context"
	"fmt"
	"reflect"

	"github.com/jtomasevic/entityctl/entity"
	"github.com/jtomasevic/entityctl/internal/ids"
)

// publishOutputs classifies a call's return values and publishes them
// through the entity registry (spec.md §4.7 "Output classification"):
// a single entity publishes as its own root; a tuple or collection whose
// every element is an entity publishes each as a sibling root, cross
// -linked via sibling_output_logical_ids; anything else (a scalar, a
// non-entity collection, or a mixed tuple) is wrapped in a Container and
// published as one root.
func (r *Registry) publishOutputs(ctx context.Context, d *Descriptor, outs []any, executionID ids.ExecutionID) (any, error) {
	if len(outs) == 1 {
		if rv := reflect.ValueOf(outs[0]); rv.Kind() == reflect.Slice && rv.Len() > 0 {
			elems := make([]any, rv.Len())
			allEntities := true
			for i := range elems {
				elems[i] = rv.Index(i).Interface()
				if _, ok := elems[i].(entity.IsEntity); !ok {
					allEntities = false
				}
			}
			if allEntities {
				return r.publishSiblings(ctx, d, elems, executionID)
			}
		}
		return r.publishOne(ctx, d, outs[0], executionID)
	}

	allEntities := len(outs) > 0
	for _, v := range outs {
		if _, ok := v.(entity.IsEntity); !ok {
			allEntities = false
			break
		}
	}
	if !allEntities {
		return r.publishOne(ctx, d, outs, executionID)
	}
	return r.publishSiblings(ctx, d, outs, executionID)
}

func (r *Registry) publishOne(ctx context.Context, d *Descriptor, v any, executionID ids.ExecutionID) (any, error) {
	e, ok := v.(entity.IsEntity)
	if !ok {
		typeName := fmt.Sprintf("%T", v)
		base := entity.NewBase()
		base.ContainerOf = &typeName
		e = &entity.Container{Base: base, WrappedValue: v}
	}

	name := d.Name
	base := e.EntityBase()
	base.DerivedFromFunction = &name
	base.DerivedFromExecutionID = &executionID

	result, err := r.reg.Publish(ctx, e)
	if err != nil {
		return nil, err
	}
	return result.NewRootLogicalID, nil
}

// publishSiblings publishes every entity in outs as its own root in a
// single cross-linked batch. Each output's final logical id is only
// known once the entity registry's differ has rekeyed it — which can
// only happen after BuildTree runs — so every sibling is first prepared
// (built, diffed, rekeyed, but not yet installed) to learn all of their
// final root ids, then each one's root node is patched in place with its
// siblings' ids, and only then is every one installed.
func (r *Registry) publishSiblings(ctx context.Context, d *Descriptor, outs []any, executionID ids.ExecutionID) (any, error) {
	entities := make([]entity.IsEntity, len(outs))
	name := d.Name
	for i, v := range outs {
		e := v.(entity.IsEntity)
		base := e.EntityBase()
		base.DerivedFromFunction = &name
		base.DerivedFromExecutionID = &executionID
		entities[i] = e
	}

	type prepared struct {
		result *entity.VersionResult
		live   map[ids.LogicalID]entity.IsEntity
	}
	preps := make([]prepared, len(entities))
	for i, e := range entities {
		result, live, err := r.reg.Prepare(ctx, e)
		if err != nil {
			return nil, err
		}
		preps[i] = prepared{result: result, live: live}
	}

	rootIDs := make([]ids.LogicalID, len(preps))
	for i, p := range preps {
		rootIDs[i] = p.result.NewRootLogicalID
	}

	for i, p := range preps {
		if p.result.Outcome == entity.Unchanged {
			continue
		}
		node, ok := p.result.Tree.Get(p.result.NewRootLogicalID)
		if !ok {
			continue
		}
		siblings := make(map[ids.LogicalID]struct{}, len(rootIDs)-1)
		for j, id := range rootIDs {
			if j != i {
				siblings[id] = struct{}{}
			}
		}
		node.EntityBase().SiblingOutputLogicalIDs = siblings
	}

	out := make([]ids.LogicalID, len(preps))
	for i, p := range preps {
		if err := r.reg.Install(ctx, entities[i], p.result, p.live); err != nil {
			return nil, err
		}
		out[i] = p.result.NewRootLogicalID
	}
	return out, nil
}
