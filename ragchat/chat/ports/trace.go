package chatports

import (
	"context"

	"github.com/google/uuid"
)

// Tracer emits spans and events for observability.
type Tracer interface {
	StartSpan(ctx context.Context, name string, attrs map[string]any) (context.Context, func(err error))
	Event(ctx context.Context, name string, attrs map[string]any)
}

// EventKind classifies a correlation event.
type EventKind string

const (
	EventKindChat      EventKind = "chat"
	EventKindQuery     EventKind = "query"
	EventKindRetrieve  EventKind = "retrieve"
	EventKindCondense  EventKind = "condense"
	EventKindCompleter EventKind = "completion"
)

// Event correlates the sub-calls of one top-level operation. It is tracing data only.
type Event struct {
	ID   string
	Kind EventKind
	Tags map[string]string
}

// NewEvent creates an event with a fresh random ID.
func NewEvent(kind EventKind, tags map[string]string) *Event {
	return &Event{ID: uuid.NewString(), Kind: kind, Tags: tags}
}

type eventKey struct{}

// WithEvent returns a child context carrying ev.
func WithEvent(ctx context.Context, ev *Event) context.Context {
	return context.WithValue(ctx, eventKey{}, ev)
}

// EventFromContext returns the event attached to ctx, if any.
func EventFromContext(ctx context.Context) (*Event, bool) {
	ev, ok := ctx.Value(eventKey{}).(*Event)
	return ev, ok && ev != nil
}

// EventID returns the ID of the event in ctx or "".
func EventID(ctx context.Context) string {
	if ev, ok := EventFromContext(ctx); ok {
		return ev.ID
	}
	return ""
}
