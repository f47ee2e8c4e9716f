package application

import "github.com/HollowDragonX/clinicforge/internal/domain"

// Apply is a projection's pure fold step: given its current state and
// one event it is known to subscribe to, return the next state. It must
// not mutate state.
type Apply func(state domain.State, event domain.DomainEvent) domain.State

// ProjectionHandler is the shared machinery every projection uses:
// per-event-identity deduplication, silent skip of unsubscribed types,
// and full rebuild from history. Concrete projections are built by
// pairing ProjectionHandler with their own Apply function (see
// projections.NewPatientSummaryProjection) — the same embeddable-base
// shape used for aggregates in this module.
type ProjectionHandler struct {
	subscribedEventTypes map[string]bool
	apply                Apply
	state                domain.State
	processedEventIDs    map[domain.ID]bool
}

func NewProjectionHandler(subscribedEventTypes []string, apply Apply) *ProjectionHandler {
	set := make(map[string]bool, len(subscribedEventTypes))
	for _, t := range subscribedEventTypes {
		set[t] = true
	}
	return &ProjectionHandler{
		subscribedEventTypes: set,
		apply:                apply,
		state:                domain.State{},
		processedEventIDs:    make(map[domain.ID]bool),
	}
}

// State returns the projection's current derived view. Callers must
// treat it as read-only; mutation happens only through Handle and
// RebuildFrom.
func (p *ProjectionHandler) State() domain.State {
	return p.state
}

// Handle applies event if and only if its type is subscribed and it has
// not already been processed (deduplication by EventID). Both checks
// make repeated delivery of the same event a no-op.
func (p *ProjectionHandler) Handle(event domain.DomainEvent) {
	if !p.subscribedEventTypes[event.EventType()] {
		return
	}
	if p.processedEventIDs[event.EventID()] {
		return
	}
	p.state = p.apply(p.state, event)
	p.processedEventIDs[event.EventID()] = true
}

// RebuildFrom resets state and processed-identity tracking to empty,
// then replays events through Handle in order. The result depends only
// on the ordered set of events passed in.
func (p *ProjectionHandler) RebuildFrom(events []domain.DomainEvent) {
	p.state = domain.State{}
	p.processedEventIDs = make(map[domain.ID]bool)
	for _, e := range events {
		p.Handle(e)
	}
}
