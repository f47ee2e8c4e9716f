package application

import (
	"context"

	"github.com/HollowDragonX/clinicforge/internal/domain"
)

// DiagnosisCommandHandler extends the generic command handler with a
// cross-aggregate precondition: a diagnosis may only be confirmed
// against an encounter that is currently active. The check is
// eventually consistent — it folds the encounter's own stream, which on
// an offline device may be stale relative to another device's view of
// the same encounter (see design notes).
type DiagnosisCommandHandler struct {
	*CommandHandler
	encounterStore domain.EventStore
}

func NewDiagnosisCommandHandler(store domain.EventStore, dispatcher *EventDispatcher, encounterStore domain.EventStore) *DiagnosisCommandHandler {
	return &DiagnosisCommandHandler{
		CommandHandler: NewCommandHandler(store, dispatcher, domain.DiagnosisAggregate{}),
		encounterStore: encounterStore,
	}
}

// Handle checks encounter activity before doing anything else — in
// particular, before the diagnosis stream is even read. It shadows the
// embedded CommandHandler.Handle so callers always get the
// precondition check, while still satisfying the gateway's untyped
// Handler interface.
func (h *DiagnosisCommandHandler) Handle(ctx context.Context, command any, aggregateID domain.ID) ([]domain.DomainEvent, error) {
	cmd, ok := command.(domain.ConfirmDiagnosis)
	if !ok {
		return nil, domain.NewDomainError("expected ConfirmDiagnosis, got %T", command)
	}
	if err := h.checkEncounterActive(ctx, cmd.EncounterID); err != nil {
		return nil, err
	}
	return h.CommandHandler.Handle(ctx, cmd, aggregateID)
}

func (h *DiagnosisCommandHandler) checkEncounterActive(ctx context.Context, encounterID domain.ID) error {
	stream, err := h.encounterStore.ReadStream(ctx, encounterID)
	if err != nil {
		return err
	}

	status := "none"
	for _, e := range stream {
		switch e.EventType() {
		case domain.EventPatientCheckedIn:
			status = "checked_in"
		case domain.EventEncounterBegan, domain.EventEncounterReopened:
			status = "active"
		case domain.EventEncounterCompleted, domain.EventPatientDischarged:
			status = "completed"
		}
	}

	if status != "active" {
		return domain.NewDomainError(
			"Encounter %s is not active (INV-CJ-1) (status: %s); an encounter must be active for a diagnosis to be confirmed against it",
			encounterID, status,
		)
	}
	return nil
}
