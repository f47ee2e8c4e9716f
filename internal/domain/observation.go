package domain

// Observation records clinical facts — vital signs and reported symptoms
// — that carry no lifecycle of their own: each command either succeeds
// and emits exactly one event, or fails only because the reading itself
// is malformed.
type RecordVitalSigns struct {
	CommandMetadata
	ObservationID ID
	EncounterID   ID
	PatientID     ID
	Readings      map[string]any
}

type ReportSymptom struct {
	CommandMetadata
	ObservationID ID
	EncounterID   ID
	PatientID     ID
	Symptom       string
	Severity      string
}

type ObservationAggregate struct{}

func (ObservationAggregate) AggregateType() string { return "Observation" }

func (ObservationAggregate) InitialState() State {
	return State{"last_event_type": nil}
}

func (ObservationAggregate) ApplyEvent(state State, event DomainEvent) State {
	next := CloneState(state)
	switch event.EventType() {
	case EventVitalSignsRecorded, EventSymptomReported:
		next["last_event_type"] = event.EventType()
	}
	return next
}

func (a ObservationAggregate) Execute(state State, command any) ([]PendingEvent, error) {
	switch cmd := command.(type) {
	case RecordVitalSigns:
		if len(cmd.Readings) == 0 {
			return nil, NewDomainError("Vital signs reading must not be empty")
		}
		payload := Payload{
			"patient_id":   cmd.PatientID.String(),
			"encounter_id": cmd.EncounterID.String(),
			"readings":     cmd.Readings,
		}
		evt := BuildEvent(cmd.CommandMetadata, EventVitalSignsRecorded, a.AggregateType(), cmd.ObservationID, payload)
		return []PendingEvent{evt}, nil

	case ReportSymptom:
		if cmd.Symptom == "" {
			return nil, NewDomainError("Symptom must not be empty")
		}
		payload := Payload{
			"patient_id":   cmd.PatientID.String(),
			"encounter_id": cmd.EncounterID.String(),
			"symptom":      cmd.Symptom,
			"severity":     cmd.Severity,
		}
		evt := BuildEvent(cmd.CommandMetadata, EventSymptomReported, a.AggregateType(), cmd.ObservationID, payload)
		return []PendingEvent{evt}, nil

	default:
		return nil, NewDomainError("Unknown command: %T", command)
	}
}
