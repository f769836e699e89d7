package callable

import (
	"context"

	"github.com/jtomasevic/entityctl/entity"
)

// FunctionEntity is the published, versioned record of one registration
// under the callable registry (spec.md §11.1, "Function-entity
// self-registration"): the callable registry's own history is versioned
// like any other data, so re-registering the same name under a changed
// signature leaves an audit trail — a new FunctionEntity version, same
// lineage, rather than a silent in-place overwrite.
type FunctionEntity struct {
	entity.Base
	Name        string
	ArgsType    string
	OutputTypes []string
	IsConfig    bool
}

func (f *FunctionEntity) EntityBase() *entity.Base { return &f.Base }
func (f *FunctionEntity) EntityTypeName() string   { return "Function" }

var _ entity.IsEntity = (*FunctionEntity)(nil)

// publishFunctionEntity records d as a new (or first) version of the
// function entity registered under d.Name. It reuses the previously
// published live instance for that name, if any, so the new version
// shares its lineage_id — entity.Version then diffs the two and mints a
// fresh logical_id only when the signature actually changed. A nil
// backing registry (no store configured) is a no-op: self-registration
// is an enrichment, not a precondition for Register to succeed.
func (r *Registry) publishFunctionEntity(d *Descriptor) error {
	if r.reg == nil {
		return nil
	}

	outTypeNames := make([]string, len(d.Outputs))
	for i, t := range d.Outputs {
		outTypeNames[i] = t.String()
	}

	r.mu.Lock()
	fe, ok := r.functionEntities[d.Name]
	if !ok {
		base := entity.NewBase()
		fe = &FunctionEntity{Base: base}
		r.functionEntities[d.Name] = fe
	}
	r.mu.Unlock()

	fe.Name = d.Name
	fe.ArgsType = d.ArgsType.String()
	fe.OutputTypes = outTypeNames
	fe.IsConfig = d.IsConfig

	_, err := r.reg.Publish(context.Background(), fe)
	return err
}
