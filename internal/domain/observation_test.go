package domain

import "testing"

func TestRecordVitalSignsSucceeds(t *testing.T) {
	agg := ObservationAggregate{}
	cmd := RecordVitalSigns{
		CommandMetadata: testCommandMetadata(),
		ObservationID:   NewID(),
		EncounterID:     NewID(),
		PatientID:       NewID(),
		Readings:        map[string]any{"heart_rate": 72, "systolic_bp": 120},
	}

	pending, err := agg.Execute(agg.InitialState(), cmd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	evt := pending[0].Finalize(1)
	if evt.EventType() != EventVitalSignsRecorded {
		t.Fatalf("expected %s, got %s", EventVitalSignsRecorded, evt.EventType())
	}

	state := agg.ApplyEvent(agg.InitialState(), evt)
	if state["last_event_type"] != EventVitalSignsRecorded {
		t.Errorf("expected last_event_type %s, got %v", EventVitalSignsRecorded, state["last_event_type"])
	}
}

func TestRecordVitalSignsRejectsEmptyReadings(t *testing.T) {
	agg := ObservationAggregate{}
	cmd := RecordVitalSigns{CommandMetadata: testCommandMetadata(), ObservationID: NewID()}
	_, err := agg.Execute(agg.InitialState(), cmd)
	if err == nil {
		t.Fatal("expected error recording empty vital signs")
	}
}

func TestReportSymptomSucceeds(t *testing.T) {
	agg := ObservationAggregate{}
	cmd := ReportSymptom{
		CommandMetadata: testCommandMetadata(),
		ObservationID:   NewID(),
		EncounterID:     NewID(),
		PatientID:       NewID(),
		Symptom:         "headache",
		Severity:        "moderate",
	}

	pending, err := agg.Execute(agg.InitialState(), cmd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	evt := pending[0].Finalize(1)
	if evt.EventType() != EventSymptomReported {
		t.Fatalf("expected %s, got %s", EventSymptomReported, evt.EventType())
	}
	if evt.Payload["symptom"] != "headache" {
		t.Errorf("symptom not carried onto payload: %v", evt.Payload["symptom"])
	}
}

func TestReportSymptomRejectsEmptySymptom(t *testing.T) {
	agg := ObservationAggregate{}
	cmd := ReportSymptom{CommandMetadata: testCommandMetadata(), ObservationID: NewID()}
	_, err := agg.Execute(agg.InitialState(), cmd)
	if err == nil {
		t.Fatal("expected error reporting an empty symptom")
	}
}

func TestObservationRejectsWrongCommandType(t *testing.T) {
	agg := ObservationAggregate{}
	_, err := agg.Execute(agg.InitialState(), CheckInPatient{})
	if err == nil {
		t.Fatal("expected an error for a command type Observation does not accept")
	}
}
