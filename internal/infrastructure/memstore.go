// Package infrastructure provides durability adapters implementing
// domain.EventStore: an in-process map for tests and the single-node
// demo, and a pgx-backed adapter for durable deployment.
package infrastructure

import (
	"context"
	"sync"
	"time"

	"github.com/HollowDragonX/clinicforge/internal/domain"
)

// MemoryStore is an in-process, single-writer EventStore. It holds
// every stream in memory and is never durable across restarts — its
// role is tests and the single-node demo, not production storage (see
// PostgresStore for that).
type MemoryStore struct {
	mu        sync.RWMutex
	streams   map[domain.ID][]domain.DomainEvent
	allByID   map[domain.ID]bool
	allEvents []domain.DomainEvent
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		streams: make(map[domain.ID][]domain.DomainEvent),
		allByID: make(map[domain.ID]bool),
	}
}

// Append assigns event.RecordedAt and persists it at the end of its
// aggregate's stream. Append is idempotent by EventID: appending an
// event whose EventID is already present returns the previously stored
// event unchanged rather than duplicating it.
func (s *MemoryStore) Append(ctx context.Context, event domain.DomainEvent) (domain.DomainEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stream := s.streams[event.AggregateID()]

	if s.allByID[event.EventID()] {
		for _, e := range s.allEvents {
			if e.EventID() == event.EventID() {
				return e, nil
			}
		}
	}

	expected := len(stream) + 1
	if event.AggregateVersion() != expected {
		return domain.DomainEvent{}, &domain.ConcurrencyError{
			AggregateID:     event.AggregateID(),
			ExpectedVersion: expected,
			ActualVersion:   event.AggregateVersion(),
		}
	}

	recorded := event.WithRecordedAt(time.Now().UTC())
	s.streams[event.AggregateID()] = append(stream, recorded)
	s.allByID[event.EventID()] = true
	s.allEvents = append(s.allEvents, recorded)
	return recorded, nil
}

func (s *MemoryStore) ReadStream(ctx context.Context, aggregateID domain.ID) ([]domain.DomainEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.DomainEvent{}, s.streams[aggregateID]...), nil
}

func (s *MemoryStore) ReadStreamFrom(ctx context.Context, aggregateID domain.ID, fromVersion int) ([]domain.DomainEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stream := s.streams[aggregateID]
	out := make([]domain.DomainEvent, 0, len(stream))
	for _, e := range stream {
		if e.AggregateVersion() >= fromVersion {
			out = append(out, e)
		}
	}
	return out, nil
}

// ReadAllEvents returns every event in the total order they were
// appended — the store's own view of global recorded order, used by
// sync's full-sync path. Append is the only writer of allEvents, and it
// appends exactly once per persisted event under s.mu, so that order is
// recorded-at order by construction: no re-sort is needed, and two
// events whose RecordedAt happens to tie (a real possibility — clock
// resolution is coarse on some platforms) still come back in a stable,
// deterministic order rather than one reconstructed from Go's
// intentionally randomized map iteration.
func (s *MemoryStore) ReadAllEvents(ctx context.Context) ([]domain.DomainEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.DomainEvent{}, s.allEvents...), nil
}

func (s *MemoryStore) StreamVersion(ctx context.Context, aggregateID domain.ID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.streams[aggregateID]), nil
}

func (s *MemoryStore) EventExists(ctx context.Context, eventID domain.ID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.allByID[eventID], nil
}

var _ domain.EventStore = (*MemoryStore)(nil)
