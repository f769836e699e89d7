package callable

import (
	"context"
	"fmt"
	"reflect"

	"github.com/jtomasevic/entityctl/entity"
)

var (
	ctxType    = reflect.TypeOf((*context.Context)(nil)).Elem()
	errType    = reflect.TypeOf((*error)(nil)).Elem()
	entityType = reflect.TypeOf((*entity.IsEntity)(nil)).Elem()
	configType = reflect.TypeOf((*entity.IsConfig)(nil)).Elem()
)

// FieldSpec describes one named, typed input of a registered callable.
// Go's reflect package exposes a function's parameter *types* but never
// their declared *names* (unlike the dynamic original this module is
// built from) — so every registered function takes exactly one argument
// struct after its leading context.Context, and FieldSpec is derived from
// that struct's own exported fields. This doubles as the literal
// mechanism the spec names for ConfigParameterized ("its fields are
// treated as named parameters"): here, EVERY call's named parameters come
// from a fields struct, config-backed or not.
type FieldSpec struct {
	Name  string
	Index int
	Type  reflect.Type
}

// Descriptor is the derived, immutable metadata for one registered
// callable (spec.md §3 "Callable metadata").
type Descriptor struct {
	Name     string
	ArgsType reflect.Type
	Outputs  []reflect.Type
	Input    []FieldSpec
	IsConfig bool

	fn reflect.Value
}

// deriveSchema inspects fn's declared signature — required shape
// func(context.Context, ArgsStruct) (Out..., error) or
// func(context.Context, ArgsStruct) (Out..., error) — and derives its
// input/output schema (spec.md §4.7 "Registration").
func deriveSchema(name string, fn any) (*Descriptor, error) {
	fv := reflect.ValueOf(fn)
	ft := fv.Type()
	if ft.Kind() != reflect.Func {
		return nil, fmt.Errorf("callable: %q: Register requires a func, got %s", name, ft)
	}
	if ft.NumIn() != 2 || !ft.In(0).Implements(ctxType) {
		return nil, fmt.Errorf("callable: %q: declared signature must be func(context.Context, ArgsStruct) (..., error)", name)
	}
	argsType := ft.In(1)
	if argsType.Kind() != reflect.Struct {
		return nil, fmt.Errorf("callable: %q: second parameter must be a struct of named arguments, got %s", name, argsType)
	}
	if ft.NumOut() < 1 || !ft.Out(ft.NumOut()-1).Implements(errType) {
		return nil, fmt.Errorf("callable: %q: declared signature must return (..., error)", name)
	}

	outs := make([]reflect.Type, ft.NumOut()-1)
	for i := range outs {
		outs[i] = ft.Out(i)
	}

	var input []FieldSpec
	for i := 0; i < argsType.NumField(); i++ {
		f := argsType.Field(i)
		if !f.IsExported() {
			continue
		}
		input = append(input, FieldSpec{Name: f.Name, Index: i, Type: f.Type})
	}

	isConfig := argsType.Implements(configType) || reflect.PtrTo(argsType).Implements(configType)

	return &Descriptor{
		Name:     name,
		ArgsType: argsType,
		Outputs:  outs,
		Input:    input,
		IsConfig: isConfig,
		fn:       fv,
	}, nil
}
