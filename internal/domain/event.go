package domain

import (
	"errors"
	"fmt"
	"time"
)

// ConnectionStatus records whether an event was recorded while the
// originating device had a live connection to its peers, or offline.
type ConnectionStatus string

const (
	Online  ConnectionStatus = "online"
	Offline ConnectionStatus = "offline"
)

// Payload is the opaque, string-keyed body of an event. The store and
// dispatcher never interpret it; only aggregates and projections do,
// switching on EventType.
type Payload map[string]any

// Clone returns a shallow copy of the payload. Used wherever a Payload
// crosses an ownership boundary (event construction, projection state)
// so the original cannot be mutated through an alias.
func (p Payload) Clone() Payload {
	if p == nil {
		return nil
	}
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// DefaultVisibility is the read-side filter hint applied when a command
// does not specify one.
var DefaultVisibility = []string{"clinical_staff"}

// EventMetadata is the 17-field envelope carried by every domain event.
type EventMetadata struct {
	EventID          ID
	EventType        string
	SchemaVersion    int
	AggregateID      ID
	AggregateType    string
	AggregateVersion int
	OccurredAt       time.Time
	PerformedBy      ID
	PerformerRole    string
	OrganizationID   ID
	FacilityID       ID
	DeviceID         string
	ConnectionStatus ConnectionStatus
	CorrelationID    ID
	RecordedAt       *time.Time
	CausationID      ID
	Visibility       []string
}

// DomainEvent is the immutable record of something having occurred. The
// only transition any event ever undergoes is the store setting
// RecordedAt exactly once, via WithRecordedAt — which returns a new
// value rather than mutating the receiver.
type DomainEvent struct {
	Metadata EventMetadata
	Payload  Payload
}

func (e DomainEvent) EventID() ID                  { return e.Metadata.EventID }
func (e DomainEvent) EventType() string             { return e.Metadata.EventType }
func (e DomainEvent) AggregateID() ID               { return e.Metadata.AggregateID }
func (e DomainEvent) AggregateType() string         { return e.Metadata.AggregateType }
func (e DomainEvent) AggregateVersion() int         { return e.Metadata.AggregateVersion }
func (e DomainEvent) OccurredAt() time.Time         { return e.Metadata.OccurredAt }
func (e DomainEvent) RecordedAt() *time.Time        { return e.Metadata.RecordedAt }

// WithRecordedAt returns a copy of e with Metadata.RecordedAt set to t.
// It is the store's exclusive mutation: every other field is copied
// verbatim, including Payload (payloads are never copied deeply here —
// callers must not mutate a payload map once an event referencing it has
// been constructed).
func (e DomainEvent) WithRecordedAt(t time.Time) DomainEvent {
	m := e.Metadata
	m.RecordedAt = &t
	return DomainEvent{Metadata: m, Payload: e.Payload}
}

// WithAggregateVersion returns a copy of e with Metadata.AggregateVersion
// overwritten. The command handler does not use it: it assigns the
// persisted version to an aggregate's output through PendingEvent.Finalize.
func (e DomainEvent) WithAggregateVersion(v int) DomainEvent {
	m := e.Metadata
	m.AggregateVersion = v
	return DomainEvent{Metadata: m, Payload: e.Payload}
}

// --- error taxonomy ---

// ErrDomain is the sentinel matched by errors.Is against any DomainError.
var ErrDomain = errors.New("domain invariant violated")

// DomainError reports that an aggregate's execute rejected a command
// because an intra- or cross-aggregate invariant would be violated. No
// events are produced and nothing is persisted.
type DomainError struct {
	Reason string
}

func NewDomainError(format string, args ...any) *DomainError {
	return &DomainError{Reason: fmt.Sprintf(format, args...)}
}

func (e *DomainError) Error() string { return e.Reason }

func (e *DomainError) Is(target error) bool { return target == ErrDomain }

// ErrConcurrency is the sentinel matched by errors.Is against any
// ConcurrencyError.
var ErrConcurrency = errors.New("event store concurrency conflict")

// ConcurrencyError reports that an append's AggregateVersion did not
// equal stream_length+1. Under the single-writer-per-aggregate
// assumption this indicates a programmer error, not a normal runtime
// condition.
type ConcurrencyError struct {
	AggregateID     ID
	ExpectedVersion int
	ActualVersion   int
}

func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf("concurrency conflict on aggregate %s: expected version %d, got %d",
		e.AggregateID, e.ExpectedVersion, e.ActualVersion)
}

func (e *ConcurrencyError) Is(target error) bool { return target == ErrConcurrency }

// ErrEventValidation is reserved for future metadata-validation at the
// boundary between the command gateway and an aggregate. Nothing in this
// module raises it — it exists so that
// boundary has a typed error to grow into without a breaking change.
var ErrEventValidation = errors.New("event validation failed")

type EventValidationError struct {
	Reason string
}

func (e *EventValidationError) Error() string { return e.Reason }

func (e *EventValidationError) Is(target error) bool { return target == ErrEventValidation }
