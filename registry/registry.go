// Package registry implements the Entity Registry (spec component C5):
// the single authoritative in-process store of published trees, indexed
// for root/lineage/live/type lookups. Installs take the write side of one
// sync.RWMutex and update the index maps in place; every lookup takes the
// read side of the same lock, so reads are not lock-free.
//
// Grounded on the teacher's re-architecture note (spec.md §9: "a single
// Registry value threaded through the core ... writer lock around index
// mutations; reads use copy-on-publish immutable maps") and, structurally,
// on the teacher's `InMemoryEventNetwork` (`pkg/event_network/in_memory_network.go`):
// a single struct holding several maps behind one `sync.RWMutex`, with a
// small method per query shape.
package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/jtomasevic/entityctl/entity"
	"github.com/jtomasevic/entityctl/eventbus"
	"github.com/jtomasevic/entityctl/internal/ids"
	"go.uber.org/zap"
)

// Options configures a new Registry.
type Options struct {
	Bus    *eventbus.Bus // optional; nil disables event emission
	Logger *zap.Logger   // nil defaults to zap.NewNop()
}

// Registry is the single authoritative store of published entity trees.
// All exported methods are safe for concurrent use.
type Registry struct {
	mu sync.RWMutex

	treeByRoot    map[ids.LogicalID]*entity.Tree
	lineageChain  map[ids.LineageID][]ids.LogicalID
	liveIndex     map[ids.LiveID]entity.IsEntity
	logicalToRoot map[ids.LogicalID]ids.LogicalID
	typeIndex     map[string]map[ids.LogicalID]struct{}

	bus    *eventbus.Bus
	logger *zap.Logger
}

// New creates an empty Registry.
func New(opts Options) *Registry {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Registry{
		treeByRoot:    map[ids.LogicalID]*entity.Tree{},
		lineageChain:  map[ids.LineageID][]ids.LogicalID{},
		liveIndex:     map[ids.LiveID]entity.IsEntity{},
		logicalToRoot: map[ids.LogicalID]ids.LogicalID{},
		typeIndex:     map[string]map[ids.LogicalID]struct{}{},
		bus:           opts.Bus,
		logger:        opts.Logger,
	}
}

// Publish builds a tree from root, diffs it against the last published
// snapshot of root's lineage (if any), rekeys what changed, and — unless
// the outcome is Unchanged — installs the result as the new latest
// snapshot of that lineage (spec.md §4.5). It mutates root's own identity
// fields in place (via entity.SyncIdentity) on a successful publish, so
// the caller's live instance reflects its newly published identity.
//
// Publish is Prepare followed unconditionally by Install; callable (C7)
// calls Prepare/Install directly instead when publishing a tuple of
// cross-referencing outputs, since their sibling_output_logical_ids can
// only be written into each one's tree node once every sibling's rekeyed
// root id is known — which means every sibling must be prepared before
// any of them is installed.
func (r *Registry) Publish(ctx context.Context, root entity.IsEntity) (*entity.VersionResult, error) {
	result, live, lineageID, err := r.prepare(ctx, root)
	if err != nil {
		return nil, err
	}
	if result.Outcome == entity.Unchanged {
		return result, nil
	}
	if err := r.install(ctx, lineageID, result, live); err != nil {
		return nil, err
	}
	return result, nil
}

// Prepare runs the build-diff-rekey pipeline for root without installing
// the result: the returned Tree is fully formed (including its rekeyed
// root id) but invisible to every read method until a matching Install
// call. Callers that need to mutate the tree's root node in place (e.g.
// to stamp in cross-references only known once siblings are all
// prepared) must do so between Prepare and Install — the tree is never
// read by anyone else in between.
func (r *Registry) Prepare(ctx context.Context, root entity.IsEntity) (*entity.VersionResult, map[ids.LogicalID]entity.IsEntity, error) {
	result, live, _, err := r.prepare(ctx, root)
	return result, live, err
}

// Install indexes a VersionResult previously returned by Prepare for the
// same root, syncing every live entity Prepare discovered to its rekeyed
// identity. A no-op on an Unchanged result, matching Publish.
func (r *Registry) Install(ctx context.Context, root entity.IsEntity, result *entity.VersionResult, live map[ids.LogicalID]entity.IsEntity) error {
	if result.Outcome == entity.Unchanged {
		return nil
	}
	return r.install(ctx, root.EntityBase().LineageID, result, live)
}

func (r *Registry) prepare(ctx context.Context, root entity.IsEntity) (*entity.VersionResult, map[ids.LogicalID]entity.IsEntity, ids.LineageID, error) {
	lookup := func(id ids.LogicalID) bool {
		r.mu.RLock()
		defer r.mu.RUnlock()
		_, ok := r.treeByRoot[id]
		return ok
	}

	newTree, live, err := entity.BuildTree(root, lookup)
	if err != nil {
		return nil, nil, ids.LineageID{}, err
	}

	r.emit(ctx, "entity.versioning", map[string]any{"lineage_id": root.EntityBase().LineageID.String()})

	lineageID := root.EntityBase().LineageID
	r.mu.RLock()
	chain := r.lineageChain[lineageID]
	var oldTree *entity.Tree
	if len(chain) > 0 {
		oldTree = r.treeByRoot[chain[len(chain)-1]]
	}
	r.mu.RUnlock()

	result, err := entity.Version(newTree, oldTree)
	if err != nil {
		return nil, nil, ids.LineageID{}, err
	}
	return result, live, lineageID, nil
}

func (r *Registry) install(ctx context.Context, lineageID ids.LineageID, result *entity.VersionResult, live map[ids.LogicalID]entity.IsEntity) error {
	r.mu.Lock()
	r.treeByRoot[result.NewRootLogicalID] = result.Tree
	r.lineageChain[lineageID] = append(r.lineageChain[lineageID], result.NewRootLogicalID)
	for id, node := range result.Tree.Nodes {
		r.logicalToRoot[id] = result.NewRootLogicalID
		typeName := node.EntityTypeName()
		if r.typeIndex[typeName] == nil {
			r.typeIndex[typeName] = map[ids.LogicalID]struct{}{}
		}
		r.typeIndex[typeName][id] = struct{}{}
	}
	for oldID, liveEntity := range live {
		newID, ok := result.Rekeyed[oldID]
		if !ok {
			continue
		}
		newNode, ok := result.Tree.Get(newID)
		if !ok {
			continue
		}
		entity.SyncIdentity(liveEntity, newNode)
		r.liveIndex[liveEntity.EntityBase().LiveID] = liveEntity
	}
	r.mu.Unlock()

	r.logger.Debug("published new version",
		zap.String("new_root", result.NewRootLogicalID.String()),
		zap.Int("changed_count", result.ChangedCount))
	r.emit(ctx, "entity.versioned", map[string]any{
		"old_root":      result.OldRootLogicalID.String(),
		"new_root":      result.NewRootLogicalID.String(),
		"changed_count": result.ChangedCount,
	})
	return nil
}

// GetTree returns the exact snapshot published under rootLogicalID.
func (r *Registry) GetTree(rootLogicalID ids.LogicalID) (*entity.Tree, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.treeByRoot[rootLogicalID]
	return t, ok
}

// GetLatestTree returns the most recently published snapshot of lineageID.
func (r *Registry) GetLatestTree(lineageID ids.LineageID) (*entity.Tree, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	chain := r.lineageChain[lineageID]
	if len(chain) == 0 {
		return nil, false
	}
	t, ok := r.treeByRoot[chain[len(chain)-1]]
	return t, ok
}

// GetEntity returns a defensive copy of logicalID's entity strictly within
// the named snapshot. The registry never hands out the pointer it stores
// internally: a caller (or a callable invoked with this value as a
// reference argument) can freely read or even mutate the returned copy
// without corrupting the published snapshot it was copied from.
func (r *Registry) GetEntity(rootLogicalID, logicalID ids.LogicalID) (entity.IsEntity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.treeByRoot[rootLogicalID]
	if !ok {
		return nil, false
	}
	e, ok := t.Get(logicalID)
	if !ok {
		return nil, false
	}
	return entity.Clone(e), true
}

// FindRootOf returns the root logical id of the snapshot currently
// containing logicalID.
func (r *Registry) FindRootOf(logicalID ids.LogicalID) (ids.LogicalID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	root, ok := r.logicalToRoot[logicalID]
	return root, ok
}

// LineageHistory returns the ordered sequence of root logical ids
// published for lineageID, oldest first.
func (r *Registry) LineageHistory(lineageID ids.LineageID) []ids.LogicalID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	chain := r.lineageChain[lineageID]
	out := make([]ids.LogicalID, len(chain))
	copy(out, chain)
	return out
}

// LiveLookup returns the in-memory instance currently registered under liveID.
func (r *Registry) LiveLookup(liveID ids.LiveID) (entity.IsEntity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.liveIndex[liveID]
	return e, ok
}

// TypeIndex returns the set of logical ids currently published under typeName.
func (r *Registry) TypeIndex(typeName string) []ids.LogicalID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.typeIndex[typeName]
	out := make([]ids.LogicalID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

func (r *Registry) emit(ctx context.Context, eventType string, payload map[string]any) {
	if r.bus == nil {
		return
	}
	if _, err := r.bus.Emit(ctx, eventbus.Event{Type: eventType, Payload: payload}); err != nil {
		r.logger.Warn("failed to emit registry event", zap.String("event_type", eventType), zap.Error(fmt.Errorf("%w", err)))
	}
}
