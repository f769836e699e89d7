package eventbus

import "context"

type parentKey struct{}

// withParent returns a context under which any Emit call transparently
// adopts parent as its correlation parent (spec.md §4.8's task-local
// nesting discipline — the Go analogue of the source's asyncio-scoped
// EventContext).
func withParent(ctx context.Context, parent Event) context.Context {
	return context.WithValue(ctx, parentKey{}, parent)
}

func parentFromContext(ctx context.Context) (Event, bool) {
	e, ok := ctx.Value(parentKey{}).(Event)
	return e, ok
}
