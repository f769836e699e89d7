package entity

import (
	"fmt"
	"reflect"
	"sync"
)

// FieldKind classifies a declared field of an entity type (spec.md §3,
// "Field kinds"). The traversal in build.go switches on this.
type FieldKind int

const (
	FieldPrimitive FieldKind = iota
	FieldEntity
	FieldEntitySlice
	FieldEntitySet
	FieldEntityMap
	FieldEntityTuple
	FieldMixedContainer
)

func (k FieldKind) String() string {
	switch k {
	case FieldPrimitive:
		return "primitive"
	case FieldEntity:
		return "entity"
	case FieldEntitySlice:
		return "ordered-sequence-of-entity"
	case FieldEntitySet:
		return "set-of-entity"
	case FieldEntityMap:
		return "map-with-entity-values"
	case FieldEntityTuple:
		return "tuple-with-entity-slots"
	case FieldMixedContainer:
		return "mixed-container"
	default:
		return "unknown"
	}
}

// FieldDescriptor is the result of classifying one declared field.
type FieldDescriptor struct {
	Name      string
	Index     int // field index within the struct, for stable ordering
	Kind      FieldKind
	ElemType  reflect.Type // element type for container kinds
}

// Tuple is implemented by fixed-arity containers of entities (the Go
// stand-in for "tuple-with-entity-slots", since Go has no tuple type).
// TupleEntities() returns slots in declared order.
type Tuple interface {
	TupleEntities() []IsEntity
}

var entityInterfaceType = reflect.TypeOf((*IsEntity)(nil)).Elem()
var tupleInterfaceType = reflect.TypeOf((*Tuple)(nil)).Elem()

var classifyCache sync.Map // reflect.Type -> []FieldDescriptor

// Classify enumerates the declared fields of an entity struct type (not a
// pointer) with their field kind, per spec.md §4.1. Results are cached
// per type since a type's shape never changes at runtime.
func Classify(t reflect.Type) ([]FieldDescriptor, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := classifyCache.Load(t); ok {
		return cached.([]FieldDescriptor), nil
	}

	var out []FieldDescriptor
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		// Base/ConfigMarker carry identity, not domain data.
		if f.Anonymous && (f.Type == reflect.TypeOf(Base{}) || f.Type == reflect.TypeOf(ConfigMarker{})) {
			continue
		}

		kind, elem, err := classifyFieldType(f.Type, f.Tag.Get("ecs") == "set")
		if err != nil {
			return nil, fmt.Errorf("entity: classifying field %s.%s: %w", t.Name(), f.Name, err)
		}
		out = append(out, FieldDescriptor{Name: f.Name, Index: i, Kind: kind, ElemType: elem})
	}

	classifyCache.Store(t, out)
	return out, nil
}

func implementsEntity(t reflect.Type) bool {
	if t.Implements(entityInterfaceType) {
		return true
	}
	if t.Kind() != reflect.Ptr && reflect.PtrTo(t).Implements(entityInterfaceType) {
		// A value type whose pointer implements IsEntity cannot itself be
		// used as a field value satisfying IsEntity without addressing;
		// entity fields in this module are always declared as pointers.
		return false
	}
	return false
}

func classifyFieldType(t reflect.Type, setTag bool) (FieldKind, reflect.Type, error) {
	switch {
	case implementsEntity(t):
		return FieldEntity, t, nil

	case t.Implements(tupleInterfaceType):
		return FieldEntityTuple, t, nil

	case t.Kind() == reflect.Slice:
		elem := t.Elem()
		if elem.Kind() == reflect.Interface {
			return FieldMixedContainer, elem, nil
		}
		if implementsEntity(elem) {
			if setTag {
				return FieldEntitySet, elem, nil
			}
			return FieldEntitySlice, elem, nil
		}
		if ok, err := containsEntity(elem, map[reflect.Type]bool{}); err != nil {
			return 0, nil, err
		} else if ok {
			return FieldMixedContainer, elem, nil
		}
		return FieldPrimitive, nil, nil

	case t.Kind() == reflect.Array:
		elem := t.Elem()
		if implementsEntity(elem) {
			return FieldEntityTuple, elem, nil
		}
		return FieldPrimitive, nil, nil

	case t.Kind() == reflect.Map:
		val := t.Elem()
		if val.Kind() == reflect.Interface {
			return FieldMixedContainer, val, nil
		}
		if implementsEntity(val) {
			return FieldEntityMap, val, nil
		}
		if ok, err := containsEntity(val, map[reflect.Type]bool{}); err != nil {
			return 0, nil, err
		} else if ok {
			return FieldMixedContainer, val, nil
		}
		return FieldPrimitive, nil, nil

	case t.Kind() == reflect.Ptr:
		if implementsEntity(t) {
			return FieldEntity, t, nil
		}
		if ok, err := containsEntity(t.Elem(), map[reflect.Type]bool{}); err != nil {
			return 0, nil, err
		} else if ok {
			return 0, nil, fmt.Errorf("field points into a non-entity structure reaching an entity: unsupported shape")
		}
		return FieldPrimitive, nil, nil

	default:
		if ok, err := containsEntity(t, map[reflect.Type]bool{}); err != nil {
			return 0, nil, err
		} else if ok {
			return 0, nil, fmt.Errorf("entity reachable through an unsupported field shape")
		}
		return FieldPrimitive, nil, nil
	}
}

// containsEntity answers "is there an entity type anywhere inside t",
// recursing through pointers, slices, arrays, maps and plain structs.
// A repeated, non-entity struct type on the current path is a fatal
// self-referential primitive (spec.md §4.1) rather than infinite descent.
func containsEntity(t reflect.Type, visiting map[reflect.Type]bool) (bool, error) {
	if implementsEntity(t) {
		return true, nil
	}
	switch t.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Array:
		return containsEntity(t.Elem(), visiting)
	case reflect.Map:
		return containsEntity(t.Elem(), visiting)
	case reflect.Interface:
		// Cannot decide statically; treated as potentially mixed by the caller.
		return false, nil
	case reflect.Struct:
		if visiting[t] {
			return false, fmt.Errorf("%w: %s", ErrRecursivePrimitiveField, t.String())
		}
		visiting[t] = true
		defer delete(visiting, t)
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			ok, err := containsEntity(f.Type, visiting)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, nil
	}
}
