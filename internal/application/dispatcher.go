package application

import (
	"log"
	"sort"

	"github.com/HollowDragonX/clinicforge/internal/domain"
)

// EventHandler receives one dispatched event. A handler that returns an
// error has that error isolated by the dispatcher — it never prevents
// delivery to the handlers registered after it.
type EventHandler func(event domain.DomainEvent) error

// EventDispatcher is an in-process publish/subscribe router, keyed by
// event type. Subscriptions are append-only: there is no unsubscribe.
type EventDispatcher struct {
	subscriptions map[string][]EventHandler
}

func NewEventDispatcher() *EventDispatcher {
	return &EventDispatcher{subscriptions: make(map[string][]EventHandler)}
}

// Subscribe appends handler to the list for eventType. Registration
// order is preserved and is the delivery order for Dispatch.
func (d *EventDispatcher) Subscribe(eventType string, handler EventHandler) {
	d.subscriptions[eventType] = append(d.subscriptions[eventType], handler)
}

// Dispatch invokes every subscriber registered for event.EventType(), in
// registration order. A handler that panics or returns an error is
// logged and skipped; it never blocks delivery to the remaining
// subscribers, and the caller always observes Dispatch as having
// succeeded. Dispatching to a type with no subscribers is a silent
// no-op.
func (d *EventDispatcher) Dispatch(event domain.DomainEvent) {
	handlers := d.subscriptions[event.EventType()]
	if len(handlers) == 0 {
		return
	}
	RecordEventDispatched(event.EventType())
	for _, h := range handlers {
		d.invoke(h, event)
	}
}

func (d *EventDispatcher) invoke(h EventHandler, event domain.DomainEvent) {
	defer func() {
		if r := recover(); r != nil {
			handlerFailuresTotal.WithLabelValues(event.EventType()).Inc()
			log.Printf("event dispatcher: handler panicked on %s (event %s): %v",
				event.EventType(), event.EventID(), r)
		}
	}()
	if err := h(event); err != nil {
		handlerFailuresTotal.WithLabelValues(event.EventType()).Inc()
		log.Printf("event dispatcher: handler failed on %s (event %s): %v",
			event.EventType(), event.EventID(), err)
	}
}

// DispatchBatch delivers events in deterministic order: sorted by
// (AggregateID, AggregateVersion), then dispatched one at a time. Within
// one aggregate stream, delivery is therefore monotone in
// AggregateVersion; across streams no ordering is promised beyond sort
// stability. This is the call sync uses after a bulk transfer, since
// events arrive out of creation order there.
func (d *EventDispatcher) DispatchBatch(events []domain.DomainEvent) {
	ordered := make([]domain.DomainEvent, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.AggregateID() != b.AggregateID() {
			return a.AggregateID().String() < b.AggregateID().String()
		}
		return a.AggregateVersion() < b.AggregateVersion()
	})
	for _, e := range ordered {
		d.Dispatch(e)
	}
}
