package address

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/jtomasevic/entityctl/registry"
)

// Resolver dereferences addresses against a Registry. It is strictly
// read-only: resolving an address never triggers C4 versioning.
type Resolver struct {
	reg *registry.Registry
}

// NewResolver builds a Resolver bound to reg.
func NewResolver(reg *registry.Registry) *Resolver {
	return &Resolver{reg: reg}
}

// Resolve parses addr and dereferences it (spec.md §4.6): looks the
// logical id up via the registry's logical-to-root index, fetches the
// entity within its containing snapshot, then walks any trailing path —
// identifiers select struct fields, integer tokens index sequences,
// string tokens key maps. With no trailing path the entity itself is
// returned; otherwise the primitive value at the end of the path is.
func (r *Resolver) Resolve(addr string) (any, error) {
	parsed, err := Parse(addr)
	if err != nil {
		return nil, err
	}

	rootID, ok := r.reg.FindRootOf(parsed.LogicalID)
	if !ok {
		return nil, &EntityNotFoundError{LogicalID: parsed.LogicalID}
	}
	target, ok := r.reg.GetEntity(rootID, parsed.LogicalID)
	if !ok {
		return nil, &EntityNotFoundError{LogicalID: parsed.LogicalID}
	}
	if len(parsed.Path) == 0 {
		return target, nil
	}

	current := reflect.ValueOf(target)
	for _, step := range parsed.Path {
		next, available, ok := resolveStep(current, step)
		if !ok {
			return nil, &FieldNotFoundError{Step: step, Available: available}
		}
		current = next
	}
	return current.Interface(), nil
}

func resolveStep(v reflect.Value, step string) (reflect.Value, []string, bool) {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}, nil, false
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Struct:
		idx, available, ok := snakeFieldIndex(v.Type(), step)
		if !ok {
			return reflect.Value{}, available, false
		}
		return v.FieldByIndex(idx), nil, true

	case reflect.Slice, reflect.Array:
		i, err := strconv.Atoi(step)
		if err != nil || i < 0 || i >= v.Len() {
			return reflect.Value{}, nil, false
		}
		return v.Index(i), nil, true

	case reflect.Map:
		mv := v.MapIndex(reflect.ValueOf(step).Convert(v.Type().Key()))
		if !mv.IsValid() {
			available := make([]string, 0, v.Len())
			for _, k := range v.MapKeys() {
				available = append(available, k.String())
			}
			return reflect.Value{}, available, false
		}
		return mv, nil, true

	default:
		return reflect.Value{}, nil, false
	}
}

// snakeFieldIndex finds the field of t, declared directly on t (not
// promoted through an embedded Base/ConfigMarker — those carry identity,
// not domain data, matching entity.Classify's own treatment of them),
// whose snake_case name matches step.
func snakeFieldIndex(t reflect.Type, step string) ([]int, []string, bool) {
	var available []string
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || f.Anonymous || len(f.Index) != 1 {
			continue
		}
		name := toSnake(f.Name)
		available = append(available, name)
		if name == step {
			return f.Index, nil, true
		}
	}
	return nil, available, false
}

var (
	snakeAcronym = regexp.MustCompile(`([A-Z]+)([A-Z][a-z])`)
	snakeBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)
)

func toSnake(s string) string {
	s = snakeAcronym.ReplaceAllString(s, "${1}_${2}")
	s = snakeBoundary.ReplaceAllString(s, "${1}_${2}")
	return strings.ToLower(s)
}
