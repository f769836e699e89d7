// Package callable implements the Callable Registry & Execution
// Strategies (spec component C7): function registration with derived
// schemas, per-call argument classification, reference materialization
// through the address resolver, execution with panic/error recovery, and
// output classification that publishes results through the entity
// registry with provenance attached.
//
// Grounded on the teacher's Rule interface (`pck/event_network/rules.go`):
// a small registry of named, bound behaviors (`Process(event) error`)
// invoked uniformly regardless of what each one actually does — adapted
// here from a fixed rule interface to reflection-derived function
// registration, since a callable's shape is supplied by its caller, not
// known at compile time.
package callable

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/jtomasevic/entityctl/address"
	"github.com/jtomasevic/entityctl/eventbus"
	"github.com/jtomasevic/entityctl/internal/ids"
	"github.com/jtomasevic/entityctl/registry"
	"go.uber.org/zap"
)

// Options configures a new Registry.
type Options struct {
	Registry *registry.Registry
	Resolver *address.Resolver
	Bus      *eventbus.Bus // optional; nil disables event emission
	Logger   *zap.Logger   // nil defaults to zap.NewNop()

	// DefaultCallTimeout bounds the user function call phase only (never
	// the publish phase) when the caller's ctx carries no deadline of its
	// own. Zero disables the default (spec.md §9.3 config.Load).
	DefaultCallTimeout time.Duration
}

// Registry holds named callables and runs them against a backing entity
// Registry and address Resolver.
type Registry struct {
	mu        sync.RWMutex
	callables map[string]*Descriptor

	// functionEntities holds the live FunctionEntity instance last
	// published for each registered name, so a re-registration publishes
	// a new version of the same lineage instead of an unrelated one.
	functionEntities map[string]*FunctionEntity

	reg                *registry.Registry
	resolver           *address.Resolver
	bus                *eventbus.Bus
	logger             *zap.Logger
	defaultCallTimeout time.Duration
}

// New builds an empty Registry.
func New(opts Options) *Registry {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Registry{
		callables:          map[string]*Descriptor{},
		functionEntities:   map[string]*FunctionEntity{},
		reg:                opts.Registry,
		resolver:           opts.Resolver,
		bus:                opts.Bus,
		logger:             opts.Logger,
		defaultCallTimeout: opts.DefaultCallTimeout,
	}
}

// Register derives fn's input/output schema and stores it under name,
// replacing any prior registration under the same name (spec.md §4.7).
// It also publishes (or re-publishes) name's FunctionEntity, giving the
// callable registry's own registration history a versioned audit trail
// the same way any other published data gets one (spec.md §11.1).
func (r *Registry) Register(name string, fn any) error {
	d, err := deriveSchema(name, fn)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.callables[name] = d
	r.mu.Unlock()

	if err := r.publishFunctionEntity(d); err != nil {
		return fmt.Errorf("callable: publishing function entity for %q: %w", name, err)
	}
	return nil
}

// Describe returns the derived schema registered under name.
func (r *Registry) Describe(name string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.callables[name]
	return d, ok
}

// Names returns every currently registered callable name.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.callables))
	for name := range r.callables {
		out = append(out, name)
	}
	return out
}

// Result is one Execute outcome, delivered once on ExecuteAsync's channel.
type Result struct {
	Value any
	Err   error
}

// Execute invokes the callable registered under name synchronously
// (spec.md §6 "execute"). kwargs supplies named arguments matched against
// the callable's derived input schema; unsupplied fields are left zero.
func (r *Registry) Execute(ctx context.Context, name string, kwargs map[string]any) (any, error) {
	r.mu.RLock()
	d, ok := r.callables[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotRegistered, name)
	}
	return r.run(ctx, d, kwargs)
}

// ExecuteAsync invokes name on a worker goroutine, returning a channel
// that receives exactly one Result (spec.md §6 "aexecute"). Per spec.md
// §5's cancellation policy: cancelling ctx before the user function
// returns is reported to the caller as ErrCancelled without awaiting
// completion, but the underlying call keeps running — Go's cooperative
// cancellation means a function ignoring its own ctx cannot be force
// -stopped from outside, same as any goroutine. Cancelling after the
// function has returned is never honored (see run/execute: the publish
// phase runs on a context detached from the caller's cancellation).
func (r *Registry) ExecuteAsync(ctx context.Context, name string, kwargs map[string]any) <-chan Result {
	out := make(chan Result, 1)
	done := make(chan Result, 1)

	go func() {
		v, err := r.Execute(context.Background(), name, kwargs)
		done <- Result{Value: v, Err: err}
	}()

	go func() {
		select {
		case res := <-done:
			out <- res
		case <-ctx.Done():
			out <- Result{Err: fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())}
		}
	}()

	return out
}

func (r *Registry) run(ctx context.Context, d *Descriptor, kwargs map[string]any) (any, error) {
	executionID := ids.NewExecutionID()
	start := time.Now()

	if r.bus == nil {
		return r.execute(ctx, d, kwargs, executionID)
	}

	var outValue any
	var runErr error
	executing := eventbus.Event{
		Type:    "function.executing",
		Payload: map[string]any{"name": d.Name, "execution_id": executionID.String()},
	}
	_, _, err := r.bus.EmitWithChildren(ctx, executing, func(childCtx context.Context) (eventbus.Event, error) {
		outValue, runErr = r.execute(childCtx, d, kwargs, executionID)
		return r.executedEvent(d.Name, executionID, time.Since(start), runErr), nil
	})
	if err != nil {
		r.logger.Warn("failed to emit function execution events", zap.String("name", d.Name), zap.Error(err))
	}
	return outValue, runErr
}

func (r *Registry) executedEvent(name string, executionID ids.ExecutionID, duration time.Duration, err error) eventbus.Event {
	payload := map[string]any{
		"name":         name,
		"execution_id": executionID.String(),
		"duration_ms":  duration.Milliseconds(),
	}
	if err != nil {
		payload["phase"] = "failed"
		payload["error"] = err.Error()
	} else {
		payload["phase"] = "completed"
	}
	return eventbus.Event{Type: "function.executed", Payload: payload}
}

func (r *Registry) execute(ctx context.Context, d *Descriptor, kwargs map[string]any, executionID ids.ExecutionID) (any, error) {
	argsVal, kinds, err := r.buildArgs(d, kwargs)
	if err != nil {
		return nil, err
	}

	pattern := classifyPattern(d.IsConfig, kinds)
	r.emit(ctx, "strategy.detecting", map[string]any{"name": d.Name})
	r.emit(ctx, "strategy.detected", map[string]any{"name": d.Name, "pattern": pattern.String()})

	invokeCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && r.defaultCallTimeout > 0 {
		var cancel context.CancelFunc
		invokeCtx, cancel = context.WithTimeout(ctx, r.defaultCallTimeout)
		defer cancel()
	}

	outs, err := r.invoke(invokeCtx, d, argsVal)
	if err != nil {
		return nil, &FunctionFailedError{Name: d.Name, ExecutionID: executionID, Cause: err}
	}

	// Publication is never interrupted by a cancellation observed only
	// after the user function has already returned (spec.md §5).
	publishCtx := context.WithoutCancel(ctx)
	return r.publishOutputs(publishCtx, d, outs, executionID)
}

func (r *Registry) invoke(ctx context.Context, d *Descriptor, argsVal reflect.Value) (outs []any, err error) {
	if cErr := ctx.Err(); cErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrCancelled, cErr)
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()

	results := d.fn.Call([]reflect.Value{reflect.ValueOf(ctx), argsVal})
	errOut := results[len(results)-1]
	if !errOut.IsNil() {
		return nil, errOut.Interface().(error)
	}
	outs = make([]any, len(results)-1)
	for i, rv := range results[:len(results)-1] {
		outs[i] = rv.Interface()
	}
	return outs, nil
}

func (r *Registry) buildArgs(d *Descriptor, kwargs map[string]any) (reflect.Value, map[string]ArgKind, error) {
	argsVal := reflect.New(d.ArgsType).Elem()
	kinds := make(map[string]ArgKind, len(d.Input))

	for _, spec := range d.Input {
		raw, provided := kwargs[spec.Name]
		if !provided {
			continue
		}
		kind, resolved, err := classifyValue(raw, r.resolver)
		if err != nil {
			return reflect.Value{}, nil, err
		}
		kinds[spec.Name] = kind

		rv := reflect.ValueOf(resolved)
		if !rv.IsValid() {
			continue
		}
		fieldVal := argsVal.Field(spec.Index)
		if !rv.Type().AssignableTo(fieldVal.Type()) {
			if rv.Type().ConvertibleTo(fieldVal.Type()) {
				rv = rv.Convert(fieldVal.Type())
			} else {
				return reflect.Value{}, nil, fmt.Errorf("%w: field %s wants %s, got %s",
					ErrInputValidationFailed, spec.Name, fieldVal.Type(), rv.Type())
			}
		}
		fieldVal.Set(rv)
	}
	return argsVal, kinds, nil
}

func (r *Registry) emit(ctx context.Context, eventType string, payload map[string]any) {
	if r.bus == nil {
		return
	}
	if _, err := r.bus.Emit(ctx, eventbus.Event{Type: eventType, Payload: payload}); err != nil {
		r.logger.Warn("failed to emit callable event", zap.String("event_type", eventType), zap.Error(err))
	}
}
