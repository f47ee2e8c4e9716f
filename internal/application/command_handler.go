package application

import (
	"context"

	"github.com/HollowDragonX/clinicforge/internal/domain"
)

// CommandHandler orchestrates the generic write path for one aggregate
// type: load -> rehydrate -> execute -> version-assign -> persist ->
// publish. Specialized handlers (see DiagnosisCommandHandler) wrap this
// with an extra cross-aggregate precondition step before rehydration.
type CommandHandler struct {
	store      domain.EventStore
	dispatcher *EventDispatcher
	aggregate  domain.Aggregate
}

func NewCommandHandler(store domain.EventStore, dispatcher *EventDispatcher, aggregate domain.Aggregate) *CommandHandler {
	return &CommandHandler{store: store, dispatcher: dispatcher, aggregate: aggregate}
}

// Handle runs command against the aggregate identified by aggregateID.
//
// If Execute rejects the command with a *domain.DomainError, nothing is
// read further, nothing is persisted, and nothing is dispatched — the
// handler returns that error untouched.
//
// If Append fails with a *domain.ConcurrencyError partway through a
// multi-event command, the events appended before the failure remain
// persisted (see design notes: this cannot happen under
// single-writer-per-aggregate and is treated as a programmer error).
func (h *CommandHandler) Handle(ctx context.Context, command any, aggregateID domain.ID) ([]domain.DomainEvent, error) {
	stream, err := h.store.ReadStream(ctx, aggregateID)
	if err != nil {
		return nil, err
	}

	state := domain.Rehydrate(h.aggregate, stream)

	version, err := h.store.StreamVersion(ctx, aggregateID)
	if err != nil {
		return nil, err
	}

	pending, err := h.aggregate.Execute(state, command)
	if err != nil {
		return nil, err
	}

	persisted := make([]domain.DomainEvent, 0, len(pending))
	for i, p := range pending {
		evt := p.Finalize(version + i + 1)
		stored, err := h.store.Append(ctx, evt)
		if err != nil {
			return persisted, err
		}
		persisted = append(persisted, stored)
	}

	for _, e := range persisted {
		h.dispatcher.Dispatch(e)
	}

	return persisted, nil
}
