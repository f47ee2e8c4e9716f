package domain

import "context"

// EventStore is the append-only, per-aggregate event log.
//
// Invariants enforced by every conforming implementation:
//   - Append is the only mutator; there is no remove or update.
//   - A successful Append leaves {1,...,N} as the exact set of persisted
//     AggregateVersion values for that stream (version contiguity).
//   - EventID is unique across the whole store; re-appending an event
//     with a known EventID is a no-op that returns the original.
//   - RecordedAt is assigned exactly once, by the store, in UTC.
type EventStore interface {
	// Append persists event to the stream identified by its AggregateID.
	// event.Metadata.AggregateVersion must equal StreamVersion(id)+1 or a
	// *ConcurrencyError is returned and nothing changes. If event.EventID
	// already exists, Append is a no-op that returns the event as
	// originally stored.
	Append(ctx context.Context, event DomainEvent) (DomainEvent, error)

	// ReadStream returns every event for aggregateID in ascending
	// AggregateVersion order, or an empty slice if the stream is unknown.
	ReadStream(ctx context.Context, aggregateID ID) ([]DomainEvent, error)

	// ReadStreamFrom is ReadStream filtered to AggregateVersion >= fromVersion.
	ReadStreamFrom(ctx context.Context, aggregateID ID, fromVersion int) ([]DomainEvent, error)

	// ReadAllEvents returns every event across every stream, in the
	// store's total recorded order.
	ReadAllEvents(ctx context.Context) ([]DomainEvent, error)

	// StreamVersion returns the highest AggregateVersion persisted for
	// aggregateID, or 0 if the stream is unknown.
	StreamVersion(ctx context.Context, aggregateID ID) (int, error)

	// EventExists reports whether eventID has already been persisted,
	// anywhere in the store.
	EventExists(ctx context.Context, eventID ID) (bool, error)
}
