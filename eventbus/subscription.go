package eventbus

import (
	"context"
	"time"

	"github.com/jtomasevic/entityctl/internal/fnglob"
)

// Handler processes one matched event. ctx carries the handler's
// per-event timeout, if any (spec.md §4.8 "cancellation & timeouts").
type Handler func(ctx context.Context, event Event)

// SubscriptionOptions configures one Subscribe call. An empty Type and
// empty Pattern match every event type; non-empty Type and Pattern are
// both applied (AND), as are a non-nil Predicate.
type SubscriptionOptions struct {
	Type      string // exact event-type match; "" = no type filter
	Pattern   string // '*'-segment glob over event-type; "" = no pattern filter
	Predicate func(Event) bool
	Priority  int // higher dispatches first within one event's matched set
	Timeout   time.Duration
	Handler   Handler
}

// Subscription is the bus's internal record of one SubscriptionOptions.
type Subscription struct {
	id       int64
	opts     SubscriptionOptions
}

func (s *Subscription) matches(e Event) bool {
	if s.opts.Type != "" && s.opts.Type != e.Type {
		return false
	}
	if s.opts.Pattern != "" && !fnglob.Match(s.opts.Pattern, e.Type) {
		return false
	}
	if s.opts.Predicate != nil && !s.opts.Predicate(e) {
		return false
	}
	return true
}
