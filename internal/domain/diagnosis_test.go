package domain

import (
	"testing"
	"time"
)

func testCommandMetadata() CommandMetadata {
	return CommandMetadata{
		OccurredAt:       time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC),
		PerformedBy:      NewID(),
		PerformerRole:    "physician",
		OrganizationID:   NewID(),
		FacilityID:       NewID(),
		DeviceID:         "device-1",
		ConnectionStatus: Online,
		CorrelationID:    NewID(),
	}
}

func TestConfirmDiagnosisSucceedsFromUnconfirmed(t *testing.T) {
	agg := DiagnosisAggregate{}
	state := agg.InitialState()

	cmd := ConfirmDiagnosis{
		CommandMetadata: testCommandMetadata(),
		DiagnosisID:     NewID(),
		EncounterID:     NewID(),
		PatientID:       NewID(),
		Condition:       "hypertension",
		ICDCode:         "I10",
	}

	pending, err := agg.Execute(state, cmd)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected exactly one event, got %d", len(pending))
	}

	evt := pending[0].Finalize(1)
	if evt.EventType() != EventDiagnosisConfirmed {
		t.Errorf("expected %s, got %s", EventDiagnosisConfirmed, evt.EventType())
	}
	if evt.Payload["condition"] != "hypertension" {
		t.Errorf("condition not carried onto payload: %v", evt.Payload["condition"])
	}

	next := agg.ApplyEvent(state, evt)
	if next["status"] != "confirmed" {
		t.Errorf("expected status confirmed, got %v", next["status"])
	}
}

func TestConfirmDiagnosisRejectsAlreadyConfirmed(t *testing.T) {
	agg := DiagnosisAggregate{}
	confirmed := CloneState(agg.InitialState())
	confirmed["status"] = "confirmed"

	cmd := ConfirmDiagnosis{CommandMetadata: testCommandMetadata(), DiagnosisID: NewID()}

	_, err := agg.Execute(confirmed, cmd)
	if err == nil {
		t.Fatal("expected an error confirming an already-confirmed diagnosis")
	}
	if _, ok := err.(*DomainError); !ok {
		t.Fatalf("expected *DomainError, got %T", err)
	}
}

func TestConfirmDiagnosisRejectsWrongCommandType(t *testing.T) {
	agg := DiagnosisAggregate{}
	_, err := agg.Execute(agg.InitialState(), CheckInPatient{})
	if err == nil {
		t.Fatal("expected an error for a command type Diagnosis does not accept")
	}
}

func TestRehydrateDiagnosis(t *testing.T) {
	agg := DiagnosisAggregate{}
	cmd := ConfirmDiagnosis{
		CommandMetadata: testCommandMetadata(),
		DiagnosisID:     NewID(),
		Condition:       "flu",
		ICDCode:         "J11",
	}
	pending, err := agg.Execute(agg.InitialState(), cmd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	state := Rehydrate(agg, []DomainEvent{pending[0].Finalize(1)})
	if state["status"] != "confirmed" {
		t.Errorf("expected confirmed after rehydrate, got %v", state["status"])
	}
	if state["condition"] != "flu" {
		t.Errorf("expected condition flu, got %v", state["condition"])
	}
}
