package application

import (
	"context"
	"testing"
	"time"

	"github.com/HollowDragonX/clinicforge/internal/domain"
	"github.com/HollowDragonX/clinicforge/internal/infrastructure"
)

func newWiredGateway() *CommandGateway {
	store := infrastructure.NewMemoryStore()
	dispatcher := NewEventDispatcher()
	encounterHandler := NewCommandHandler(store, dispatcher, domain.EncounterAggregate{})
	treatmentHandler := NewCommandHandler(store, dispatcher, domain.TreatmentAggregate{})
	observationHandler := NewCommandHandler(store, dispatcher, domain.ObservationAggregate{})
	diagnosisHandler := NewDiagnosisCommandHandler(store, dispatcher, store)

	gateway := NewCommandGateway()
	RegisterDefaultCommands(gateway, diagnosisHandler, encounterHandler, treatmentHandler, observationHandler)
	return gateway
}

func checkInEnvelope(encounterID, patientID string) map[string]any {
	return map[string]any{
		"command_type": "CheckInPatient",
		"payload": map[string]any{
			"occurred_at":       time.Now().UTC().Format(time.RFC3339Nano),
			"performed_by":      domain.NewID().String(),
			"performer_role":    "nurse",
			"organization_id":   domain.NewID().String(),
			"facility_id":       domain.NewID().String(),
			"device_id":         "tablet-1",
			"connection_status": "online",
			"correlation_id":    domain.NewID().String(),
			"encounter_id":      encounterID,
			"patient_id":        patientID,
		},
	}
}

func TestCommandGatewayRoutesValidEnvelope(t *testing.T) {
	gateway := newWiredGateway()
	encounterID := domain.NewID().String()
	patientID := domain.NewID().String()

	result := gateway.Handle(context.Background(), checkInEnvelope(encounterID, patientID))
	if !result.Success {
		t.Fatalf("expected success, got error: %s", result.Error)
	}
	if len(result.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(result.Events))
	}
}

func TestCommandGatewayRejectsMissingCommandType(t *testing.T) {
	gateway := newWiredGateway()
	result := gateway.Handle(context.Background(), map[string]any{"payload": map[string]any{}})
	if result.Success {
		t.Fatal("expected failure for missing command_type")
	}
}

func TestCommandGatewayRejectsMissingPayload(t *testing.T) {
	gateway := newWiredGateway()
	result := gateway.Handle(context.Background(), map[string]any{"command_type": "CheckInPatient"})
	if result.Success {
		t.Fatal("expected failure for missing payload")
	}
}

func TestCommandGatewayRejectsUnknownCommandType(t *testing.T) {
	gateway := newWiredGateway()
	result := gateway.Handle(context.Background(), map[string]any{
		"command_type": "DoSomethingUnknown",
		"payload":      map[string]any{},
	})
	if result.Success {
		t.Fatal("expected failure for unknown command_type")
	}
}

func TestCommandGatewayRejectsMissingRequiredField(t *testing.T) {
	gateway := newWiredGateway()
	envelope := checkInEnvelope(domain.NewID().String(), domain.NewID().String())
	delete(envelope["payload"].(map[string]any), "patient_id")

	result := gateway.Handle(context.Background(), envelope)
	if result.Success {
		t.Fatal("expected failure for missing required field patient_id")
	}
}

func TestCommandGatewayRejectsMalformedUUID(t *testing.T) {
	gateway := newWiredGateway()
	envelope := checkInEnvelope(domain.NewID().String(), "not-a-uuid")

	result := gateway.Handle(context.Background(), envelope)
	if result.Success {
		t.Fatal("expected failure for malformed patient_id UUID")
	}
}

func TestCommandGatewayPropagatesDomainRejection(t *testing.T) {
	gateway := newWiredGateway()
	encounterID := domain.NewID().String()
	patientID := domain.NewID().String()

	first := gateway.Handle(context.Background(), checkInEnvelope(encounterID, patientID))
	if !first.Success {
		t.Fatalf("expected first check-in to succeed, got %s", first.Error)
	}

	second := gateway.Handle(context.Background(), checkInEnvelope(encounterID, patientID))
	if second.Success {
		t.Fatal("expected second check-in on the same encounter to be rejected")
	}
}
