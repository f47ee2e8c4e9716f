package application

import (
	"context"
	"testing"

	"github.com/HollowDragonX/clinicforge/internal/domain"
	"github.com/HollowDragonX/clinicforge/internal/infrastructure"
)

func bringEncounterToStatus(t *testing.T, ctx context.Context, store domain.EventStore, dispatcher *EventDispatcher, encounterID, patientID domain.ID, status string) {
	t.Helper()
	handler := NewCommandHandler(store, dispatcher, domain.EncounterAggregate{})

	if status == "none" {
		return
	}
	if _, err := handler.Handle(ctx, domain.CheckInPatient{CommandMetadata: testMetadata(), EncounterID: encounterID, PatientID: patientID}, encounterID); err != nil {
		t.Fatalf("check-in failed: %v", err)
	}
	if status == "checked_in" {
		return
	}
	if _, err := handler.Handle(ctx, domain.BeginEncounter{CommandMetadata: testMetadata(), EncounterID: encounterID, PractitionerID: domain.NewID()}, encounterID); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if status == "active" {
		return
	}
	if _, err := handler.Handle(ctx, domain.CompleteEncounter{CommandMetadata: testMetadata(), EncounterID: encounterID}, encounterID); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
}

func TestDiagnosisConfirmSucceedsWhenEncounterActive(t *testing.T) {
	ctx := context.Background()
	store := infrastructure.NewMemoryStore()
	dispatcher := NewEventDispatcher()

	encounterID := domain.NewID()
	patientID := domain.NewID()
	bringEncounterToStatus(t, ctx, store, dispatcher, encounterID, patientID, "active")

	diagnosisHandler := NewDiagnosisCommandHandler(store, dispatcher, store)
	diagnosisID := domain.NewID()
	cmd := domain.ConfirmDiagnosis{
		CommandMetadata: testMetadata(),
		DiagnosisID:     diagnosisID,
		EncounterID:     encounterID,
		PatientID:       patientID,
		Condition:       "hypertension",
		ICDCode:         "I10",
	}

	persisted, err := diagnosisHandler.Handle(ctx, cmd, diagnosisID)
	if err != nil {
		t.Fatalf("expected diagnosis to confirm against an active encounter, got %v", err)
	}
	if len(persisted) != 1 {
		t.Fatalf("expected 1 event, got %d", len(persisted))
	}
}

func TestDiagnosisConfirmRejectedWhenEncounterNotActive(t *testing.T) {
	cases := []string{"none", "checked_in", "completed"}
	for _, status := range cases {
		status := status
		t.Run(status, func(t *testing.T) {
			ctx := context.Background()
			store := infrastructure.NewMemoryStore()
			dispatcher := NewEventDispatcher()

			encounterID := domain.NewID()
			patientID := domain.NewID()
			bringEncounterToStatus(t, ctx, store, dispatcher, encounterID, patientID, status)

			diagnosisHandler := NewDiagnosisCommandHandler(store, dispatcher, store)
			diagnosisID := domain.NewID()
			cmd := domain.ConfirmDiagnosis{
				CommandMetadata: testMetadata(),
				DiagnosisID:     diagnosisID,
				EncounterID:     encounterID,
				PatientID:       patientID,
				Condition:       "hypertension",
				ICDCode:         "I10",
			}

			_, err := diagnosisHandler.Handle(ctx, cmd, diagnosisID)
			if err == nil {
				t.Fatalf("expected diagnosis confirmation to be rejected when encounter status is %s", status)
			}

			version, _ := store.StreamVersion(ctx, diagnosisID)
			if version != 0 {
				t.Fatalf("expected nothing persisted to the diagnosis stream, got version %d", version)
			}
		})
	}
}

func TestDiagnosisHandlerRejectsWrongCommandType(t *testing.T) {
	ctx := context.Background()
	store := infrastructure.NewMemoryStore()
	dispatcher := NewEventDispatcher()
	diagnosisHandler := NewDiagnosisCommandHandler(store, dispatcher, store)

	_, err := diagnosisHandler.Handle(ctx, domain.CheckInPatient{}, domain.NewID())
	if err == nil {
		t.Fatal("expected an error for a command type the diagnosis handler does not accept")
	}
}
