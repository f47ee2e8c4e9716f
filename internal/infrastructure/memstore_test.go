package infrastructure

import (
	"context"
	"testing"
	"time"

	"github.com/HollowDragonX/clinicforge/internal/domain"
)

func buildTestEvent(aggregateID domain.ID, version int) domain.DomainEvent {
	meta := domain.CommandMetadata{
		OccurredAt:     time.Now().UTC(),
		PerformedBy:    domain.NewID(),
		OrganizationID: domain.NewID(),
		FacilityID:     domain.NewID(),
		CorrelationID:  domain.NewID(),
	}
	pending := domain.BuildEvent(meta, domain.EventPatientCheckedIn, "Encounter", aggregateID, domain.Payload{})
	return pending.Finalize(version)
}

func TestMemoryStoreAppendAndReadStream(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	aggregateID := domain.NewID()

	evt := buildTestEvent(aggregateID, 1)
	stored, err := store.Append(ctx, evt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.RecordedAt() == nil {
		t.Fatal("expected RecordedAt to be set by Append")
	}

	stream, err := store.ReadStream(ctx, aggregateID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stream) != 1 {
		t.Fatalf("expected 1 event in stream, got %d", len(stream))
	}
}

func TestMemoryStoreAppendIsIdempotentByEventID(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	aggregateID := domain.NewID()
	evt := buildTestEvent(aggregateID, 1)

	first, err := store.Append(ctx, evt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := store.Append(ctx, evt)
	if err != nil {
		t.Fatalf("unexpected error on repeat append: %v", err)
	}
	if first.EventID() != second.EventID() {
		t.Fatal("expected repeat append to return the same event")
	}

	stream, _ := store.ReadStream(ctx, aggregateID)
	if len(stream) != 1 {
		t.Fatalf("expected no duplicate stored, got %d events", len(stream))
	}
}

func TestMemoryStoreAppendRejectsVersionGap(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	aggregateID := domain.NewID()

	// Skipping straight to version 2 on an empty stream must fail.
	_, err := store.Append(ctx, buildTestEvent(aggregateID, 2))
	if err == nil {
		t.Fatal("expected a concurrency error for a non-contiguous version")
	}
	if _, ok := err.(*domain.ConcurrencyError); !ok {
		t.Fatalf("expected *domain.ConcurrencyError, got %T", err)
	}
}

func TestMemoryStoreReadStreamFromFiltersByVersion(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	aggregateID := domain.NewID()

	if _, err := store.Append(ctx, buildTestEvent(aggregateID, 1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Append(ctx, buildTestEvent(aggregateID, 2)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Append(ctx, buildTestEvent(aggregateID, 3)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	events, err := store.ReadStreamFrom(ctx, aggregateID, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events from version 2 onward, got %d", len(events))
	}
}

func TestMemoryStoreStreamVersionAndEventExists(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	aggregateID := domain.NewID()
	evt := buildTestEvent(aggregateID, 1)

	if _, err := store.Append(ctx, evt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	version, err := store.StreamVersion(ctx, aggregateID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if version != 1 {
		t.Fatalf("expected stream version 1, got %d", version)
	}

	exists, err := store.EventExists(ctx, evt.EventID())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists {
		t.Fatal("expected EventExists to report true for an appended event")
	}

	missing, err := store.EventExists(ctx, domain.NewID())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if missing {
		t.Fatal("expected EventExists to report false for an unknown event ID")
	}
}

func TestMemoryStoreReadAllEventsOrdersByRecordedAt(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	aggA := domain.NewID()
	aggB := domain.NewID()

	if _, err := store.Append(ctx, buildTestEvent(aggA, 1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Append(ctx, buildTestEvent(aggB, 1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	all, err := store.ReadAllEvents(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 events across both streams, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].RecordedAt().Before(*all[i-1].RecordedAt()) {
			t.Fatal("expected events ordered by RecordedAt")
		}
	}
}

// TestMemoryStoreReadAllEventsBreaksTiesByInsertionOrder exercises the
// case TestMemoryStoreReadAllEventsOrdersByRecordedAt can't: two events
// whose RecordedAt values tie. Append stamps RecordedAt from time.Now(),
// whose resolution is coarse enough on some platforms that back-to-back
// appends can land on the same instant, so this test forces the tie
// directly by overwriting RecordedAt on already-stored events rather
// than relying on the clock. Many interleaved streams are appended to
// first so that map iteration order (if ReadAllEvents still depended on
// it) would almost certainly disagree with append order.
func TestMemoryStoreReadAllEventsBreaksTiesByInsertionOrder(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	const streamCount = 25
	wantOrder := make([]domain.ID, 0, streamCount)
	for i := 0; i < streamCount; i++ {
		aggID := domain.NewID()
		stored, err := store.Append(ctx, buildTestEvent(aggID, 1))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		wantOrder = append(wantOrder, stored.EventID())
	}

	tied := time.Now().UTC()
	store.mu.Lock()
	for i, e := range store.allEvents {
		store.allEvents[i] = e.WithRecordedAt(tied)
	}
	store.mu.Unlock()

	all, err := store.ReadAllEvents(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != streamCount {
		t.Fatalf("expected %d events, got %d", streamCount, len(all))
	}
	for i, e := range all {
		if e.EventID() != wantOrder[i] {
			t.Fatalf("expected insertion order to survive a RecordedAt tie: position %d got event %v, want %v",
				i, e.EventID(), wantOrder[i])
		}
	}
}
