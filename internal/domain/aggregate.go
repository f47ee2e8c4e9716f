package domain

import "time"

// State is an aggregate's derived, transient view of its own stream. It
// exists only for the lifetime of one ApplyEvent fold or one Execute
// call; an Aggregate implementation must hold no state of its own
// between calls.
type State map[string]any

// CloneState returns a shallow copy of s. ApplyEvent implementations use
// it to satisfy the purity invariant (apply_event must not mutate its
// input) without every aggregate hand-rolling the same copy loop.
func CloneState(s State) State {
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// CommandMetadata is the set of caller-supplied fields common to every
// command: who performed it, when, under what organizational scope, from
// which device, and with what traceability identifiers. Aggregates copy
// these verbatim onto every event they build (see BuildEvent).
type CommandMetadata struct {
	OccurredAt       time.Time
	PerformedBy      ID
	PerformerRole    string
	OrganizationID   ID
	FacilityID       ID
	DeviceID         string
	ConnectionStatus ConnectionStatus
	CorrelationID    ID
}

// PendingEvent is an event an aggregate has decided to emit but that has
// not yet been assigned a real AggregateVersion or persisted. Its
// AggregateVersion is always the placeholder 0. Only a command handler,
// immediately before calling EventStore.Append, may turn a PendingEvent
// into a DomainEvent via Finalize. Modeling this as a distinct type (per
// the placeholder-version design note) makes it a compile error to pass
// an un-persisted, version-less event anywhere a real DomainEvent is
// expected.
type PendingEvent struct {
	Metadata EventMetadata
	Payload  Payload
}

// Finalize assigns the real, contiguous stream version to a pending
// event, producing the DomainEvent that will actually be appended.
func (p PendingEvent) Finalize(version int) DomainEvent {
	m := p.Metadata
	m.AggregateVersion = version
	return DomainEvent{Metadata: m, Payload: p.Payload}
}

// BuildEvent constructs a PendingEvent carrying a fresh EventID and every
// metadata field inherited from the originating command. aggregateID is
// the stream this event belongs to; it need not equal the command's own
// target identifier field (a command can address more than one entity by
// name while still writing to a single aggregate stream).
func BuildEvent(cmd CommandMetadata, eventType, aggregateType string, aggregateID ID, payload Payload) PendingEvent {
	return PendingEvent{
		Metadata: EventMetadata{
			EventID:          NewID(),
			EventType:        eventType,
			SchemaVersion:    1,
			AggregateID:      aggregateID,
			AggregateType:    aggregateType,
			AggregateVersion: 0,
			OccurredAt:       cmd.OccurredAt,
			PerformedBy:      cmd.PerformedBy,
			PerformerRole:    cmd.PerformerRole,
			OrganizationID:   cmd.OrganizationID,
			FacilityID:       cmd.FacilityID,
			DeviceID:         cmd.DeviceID,
			ConnectionStatus: cmd.ConnectionStatus,
			CorrelationID:    cmd.CorrelationID,
			Visibility:       DefaultVisibility,
		},
		Payload: payload,
	}
}

// Aggregate is a consistency boundary: a pure fold from events to state,
// and a pure decision function from (state, command) to new events.
//
// Implementations must hold no per-instance state — AggregateType,
// InitialState, ApplyEvent and Execute must all be safe to call
// concurrently across unrelated aggregate instances, because no instance
// actually carries identity between calls. The aggregate_id only ever
// appears as a parameter (to Execute's caller, the command handler) or
// inside already-built events.
type Aggregate interface {
	// AggregateType names the stream kind this aggregate owns, e.g.
	// "Diagnosis".
	AggregateType() string

	// InitialState is the state before any event has been applied.
	InitialState() State

	// ApplyEvent is a pure, deterministic fold step. It must not mutate
	// state; unrecognized event types return state unchanged (use
	// CloneState even on the unchanged path so callers can never observe
	// a shared reference between two rehydrations).
	ApplyEvent(state State, event DomainEvent) State

	// Execute is a pure decision function. On success it returns the
	// ordered events the command causes; on an invariant violation it
	// returns a *DomainError and no events.
	Execute(state State, command any) ([]PendingEvent, error)
}

// Rehydrate reconstructs an aggregate's state by folding its complete
// event stream through ApplyEvent, starting from InitialState. The
// result depends only on the content and order of events.
func Rehydrate(a Aggregate, events []DomainEvent) State {
	state := a.InitialState()
	for _, e := range events {
		state = a.ApplyEvent(state, e)
	}
	return state
}
