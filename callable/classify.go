package callable

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/jtomasevic/entityctl/address"
	"github.com/jtomasevic/entityctl/entity"
)

// ArgKind classifies one provided call argument value (spec.md §4.7).
type ArgKind int

const (
	ArgPrimitive ArgKind = iota
	ArgReference
	ArgEntity
	ArgEntityCollection
)

// ArgPattern is the overall shape of one call's arguments.
type ArgPattern int

const (
	PurePrimitives ArgPattern = iota
	SingleEntity
	MultiEntityComposition
	ConfigParameterized
)

func (p ArgPattern) String() string {
	switch p {
	case PurePrimitives:
		return "PurePrimitives"
	case SingleEntity:
		return "SingleEntity"
	case MultiEntityComposition:
		return "MultiEntityComposition"
	case ConfigParameterized:
		return "ConfigParameterized"
	default:
		return "unknown"
	}
}

// classifyValue determines an individual provided argument's kind and
// resolves it to the value that should be assigned into the args struct.
// A string beginning with '@' is always tried as an address first,
// regardless of the field's declared type, matching spec.md §4.7's
// "if its value is an address string -> reference" rule.
func classifyValue(raw any, resolver *address.Resolver) (ArgKind, any, error) {
	if s, ok := raw.(string); ok && strings.HasPrefix(s, "@") {
		resolved, err := resolver.Resolve(s)
		if err != nil {
			return 0, nil, err
		}
		return ArgReference, resolved, nil
	}

	if e, ok := raw.(entity.IsEntity); ok {
		return ArgEntity, e, nil
	}

	rv := reflect.ValueOf(raw)
	switch {
	case !rv.IsValid():
		return ArgPrimitive, raw, nil
	case rv.Kind() == reflect.Chan, rv.Kind() == reflect.Func, rv.Kind() == reflect.UnsafePointer:
		return 0, nil, fmt.Errorf("%w: argument value of kind %s has no entity/primitive classification", ErrUnsupportedArgumentPattern, rv.Kind())
	case rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array:
		if rv.Len() == 0 {
			return ArgPrimitive, raw, nil
		}
		allEntities := true
		for i := 0; i < rv.Len(); i++ {
			if _, ok := rv.Index(i).Interface().(entity.IsEntity); !ok {
				allEntities = false
				break
			}
		}
		if allEntities {
			return ArgEntityCollection, raw, nil
		}
		return ArgPrimitive, raw, nil
	default:
		return ArgPrimitive, raw, nil
	}
}

// classifyPattern derives the overall argument pattern from the per-field
// kinds of one call (spec.md §4.7). ConfigParameterized is decided solely
// by the registered function's declared args type, since it is static,
// not per-call.
func classifyPattern(isConfig bool, kinds map[string]ArgKind) ArgPattern {
	if isConfig {
		return ConfigParameterized
	}
	hasCollection := false
	entityCount := 0
	for _, k := range kinds {
		switch k {
		case ArgEntityCollection:
			hasCollection = true
		case ArgEntity, ArgReference:
			entityCount++
		}
	}
	switch {
	case hasCollection:
		return MultiEntityComposition
	case entityCount == 0:
		return PurePrimitives
	case entityCount == 1:
		return SingleEntity
	default:
		return MultiEntityComposition
	}
}
