package eventbus

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jtomasevic/entityctl/internal/ids"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Options configures a new Bus.
type Options struct {
	QueueCapacity      int           // bounded emit queue; 0 defaults to 256
	MaxConcurrentCalls int64         // bounded handler concurrency; 0 defaults to 32
	HistoryCapacity    int           // bounded ring buffer; 0 defaults to 512
	DefaultTimeout     time.Duration // used when a subscription sets none
	Logger             *zap.Logger   // nil defaults to zap.NewNop()
}

// Bus is a single-process, cooperative event bus. A background goroutine
// drains the emit queue and dispatches to matching subscribers, each
// handler run on its own goroutine bounded by a weighted semaphore.
type Bus struct {
	logger         *zap.Logger
	defaultTimeout time.Duration

	queue chan Event

	mu        sync.RWMutex
	subs      []*Subscription
	nextSubID int64

	historyMu  sync.Mutex
	history    []Event
	historyCap int

	statsMu  sync.Mutex
	total    int64
	perType  map[string]int64

	sem *semaphore.Weighted

	closeOnce sync.Once
	closed    chan struct{}
	cancel    context.CancelFunc
	drained   chan struct{}
	wg        sync.WaitGroup // outstanding handler goroutines
}

// New starts a Bus and its background drain goroutine.
func New(opts Options) *Bus {
	if opts.QueueCapacity <= 0 {
		opts.QueueCapacity = 256
	}
	if opts.MaxConcurrentCalls <= 0 {
		opts.MaxConcurrentCalls = 32
	}
	if opts.HistoryCapacity <= 0 {
		opts.HistoryCapacity = 512
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := &Bus{
		logger:         opts.Logger,
		defaultTimeout: opts.DefaultTimeout,
		queue:          make(chan Event, opts.QueueCapacity),
		historyCap:     opts.HistoryCapacity,
		perType:        map[string]int64{},
		sem:            semaphore.NewWeighted(opts.MaxConcurrentCalls),
		closed:         make(chan struct{}),
		cancel:         cancel,
		drained:        make(chan struct{}),
	}
	go b.run(ctx)
	return b
}

// Subscribe registers a new subscription and returns its id for Unsubscribe.
func (b *Bus) Subscribe(opts SubscriptionOptions) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextSubID++
	id := b.nextSubID
	b.subs = append(b.subs, &Subscription{id: id, opts: opts})
	return id
}

// Unsubscribe removes a previously registered subscription. A no-op if id
// is unknown (already removed, or never existed).
func (b *Bus) Unsubscribe(id int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// Emit queues event for dispatch, filling in ID/Timestamp if unset and
// inheriting ParentID/LineageID from ctx's task-local parent, if any
// (spec.md §4.8 "nesting discipline"). It blocks until the queue has
// capacity, ctx is cancelled, or the bus is closed.
func (b *Bus) Emit(ctx context.Context, event Event) (ids.EventID, error) {
	if event.ID.IsZero() {
		event.ID = ids.NewEventID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if parent, ok := parentFromContext(ctx); ok && event.ParentID == nil {
		pid := parent.ID
		event.ParentID = &pid
		lineage := pid
		if parent.LineageID != nil {
			lineage = *parent.LineageID
		}
		event.LineageID = &lineage
	}

	select {
	case <-b.closed:
		return event.ID, ErrBusClosed
	default:
	}

	select {
	case b.queue <- event:
	case <-ctx.Done():
		return event.ID, ctx.Err()
	case <-b.closed:
		return event.ID, ErrBusClosed
	}

	b.recordHistory(event)
	return event.ID, nil
}

// EmitWithChildren emits parent, then invokes each child factory in turn
// under a context that makes parent the task-local correlation parent for
// any event the factory emits (directly, or transitively through its own
// EmitWithChildren call) — spec.md §4.8's nesting discipline.
func (b *Bus) EmitWithChildren(ctx context.Context, parent Event, children ...func(context.Context) (Event, error)) (ids.EventID, []ids.EventID, error) {
	parentID, err := b.Emit(ctx, parent)
	if err != nil {
		return parentID, nil, err
	}
	parent.ID = parentID
	childCtx := withParent(ctx, parent)

	childIDs := make([]ids.EventID, 0, len(children))
	for _, factory := range children {
		childEvent, err := factory(childCtx)
		if err != nil {
			return parentID, childIDs, err
		}
		childID, err := b.Emit(childCtx, childEvent)
		if err != nil {
			return parentID, childIDs, err
		}
		childIDs = append(childIDs, childID)
	}
	return parentID, childIDs, nil
}

// Close stops accepting new emissions, cancels the drain goroutine, and
// waits for in-flight handler goroutines to observe their timeout context
// (if any) or return on their own.
func (b *Bus) Close() {
	b.closeOnce.Do(func() {
		close(b.closed)
		b.cancel()
	})
	b.wg.Wait()
}

func (b *Bus) run(ctx context.Context) {
	defer close(b.drained)
	for {
		select {
		case event := <-b.queue:
			b.dispatch(event)
		case <-ctx.Done():
			return
		}
	}
}

func (b *Bus) dispatch(event Event) {
	b.mu.RLock()
	matches := make([]*Subscription, 0, len(b.subs))
	for _, s := range b.subs {
		if s.matches(event) {
			matches = append(matches, s)
		}
	}
	b.mu.RUnlock()

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].opts.Priority > matches[j].opts.Priority
	})

	b.recordStats(event)

	for _, sub := range matches {
		sub := sub
		if err := b.sem.Acquire(context.Background(), 1); err != nil {
			b.logger.Warn("dropping handler, could not acquire concurrency slot",
				zap.String("event_type", event.Type))
			continue
		}
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			defer b.sem.Release(1)
			b.runHandler(sub, event)
		}()
	}
}

func (b *Bus) runHandler(sub *Subscription, event Event) {
	timeout := sub.opts.Timeout
	if timeout <= 0 {
		timeout = b.defaultTimeout
	}

	ctx := context.Background()
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		sub.opts.Handler(ctx, event)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		b.logger.Warn("event handler timed out",
			zap.String("event_type", event.Type), zap.Int64("subscription_id", sub.id))
		timeoutEvent := Event{Type: "bus.handler_timeout", Payload: event}
		if _, err := b.Emit(withParent(context.Background(), event), timeoutEvent); err != nil {
			b.logger.Warn("failed to emit handler timeout event", zap.Error(err))
		}
	}
}

func (b *Bus) recordHistory(event Event) {
	b.historyMu.Lock()
	defer b.historyMu.Unlock()
	b.history = append(b.history, event)
	if len(b.history) > b.historyCap {
		b.history = b.history[len(b.history)-b.historyCap:]
	}
}

func (b *Bus) recordStats(event Event) {
	b.statsMu.Lock()
	defer b.statsMu.Unlock()
	b.total++
	b.perType[event.Type]++
}

// History returns a copy of the last (up to HistoryCapacity) events, oldest first.
func (b *Bus) History() []Event {
	b.historyMu.Lock()
	defer b.historyMu.Unlock()
	out := make([]Event, len(b.history))
	copy(out, b.history)
	return out
}

// Stats reports total dispatched-event count, per-type counts, and the
// current queue depth.
type Stats struct {
	Total      int64
	PerType    map[string]int64
	QueueDepth int
}

func (b *Bus) Stats() Stats {
	b.statsMu.Lock()
	perType := make(map[string]int64, len(b.perType))
	for k, v := range b.perType {
		perType[k] = v
	}
	total := b.total
	b.statsMu.Unlock()

	return Stats{Total: total, PerType: perType, QueueDepth: len(b.queue)}
}
