package domain

// Encounter models the clinical visit lifecycle:
//
//	none -> checked_in -> active -> completed
//	                          ^          |
//	                          +-- reopened
//
// Encounter events are also replayed inline inside the Diagnosis
// command handler's cross-aggregate precondition check, but that replay
// alone never produces them — this aggregate is their write path, in
// the same idiom as Diagnosis, so the event catalog's encounter event
// types have a real producer.
type CheckInPatient struct {
	CommandMetadata
	EncounterID ID
	PatientID   ID
}

type BeginEncounter struct {
	CommandMetadata
	EncounterID    ID
	PractitionerID ID
}

type CompleteEncounter struct {
	CommandMetadata
	EncounterID ID
}

type ReopenEncounter struct {
	CommandMetadata
	EncounterID ID
}

type DischargePatient struct {
	CommandMetadata
	EncounterID ID
}

type EncounterAggregate struct{}

func (EncounterAggregate) AggregateType() string { return "Encounter" }

func (EncounterAggregate) InitialState() State {
	return State{
		"status":          "none",
		"patient_id":      nil,
		"practitioner_id": nil,
	}
}

func (EncounterAggregate) ApplyEvent(state State, event DomainEvent) State {
	next := CloneState(state)
	switch event.EventType() {
	case EventPatientCheckedIn:
		next["status"] = "checked_in"
		next["patient_id"] = event.Payload["patient_id"]
	case EventEncounterBegan:
		next["status"] = "active"
		next["practitioner_id"] = event.Payload["practitioner_id"]
	case EventEncounterCompleted:
		next["status"] = "completed"
	case EventEncounterReopened:
		next["status"] = "active"
	case EventPatientDischarged:
		next["status"] = "completed"
	}
	return next
}

func (a EncounterAggregate) Execute(state State, command any) ([]PendingEvent, error) {
	status, _ := state["status"].(string)

	switch cmd := command.(type) {
	case CheckInPatient:
		if status != "none" {
			return nil, NewDomainError("Patient already checked in (current status: %s)", status)
		}
		payload := Payload{
			"patient_id":    cmd.PatientID.String(),
			"checked_in_at": cmd.OccurredAt,
		}
		evt := BuildEvent(cmd.CommandMetadata, EventPatientCheckedIn, a.AggregateType(), cmd.EncounterID, payload)
		return []PendingEvent{evt}, nil

	case BeginEncounter:
		if status != "checked_in" {
			return nil, NewDomainError("Encounter must be checked in before it can begin (current status: %s)", status)
		}
		payload := Payload{
			"patient_id":      state["patient_id"],
			"practitioner_id": cmd.PractitionerID.String(),
			"began_at":        cmd.OccurredAt,
		}
		evt := BuildEvent(cmd.CommandMetadata, EventEncounterBegan, a.AggregateType(), cmd.EncounterID, payload)
		return []PendingEvent{evt}, nil

	case CompleteEncounter:
		if status != "active" {
			return nil, NewDomainError("Encounter is not active (current status: %s)", status)
		}
		payload := Payload{"completed_at": cmd.OccurredAt}
		evt := BuildEvent(cmd.CommandMetadata, EventEncounterCompleted, a.AggregateType(), cmd.EncounterID, payload)
		return []PendingEvent{evt}, nil

	case ReopenEncounter:
		if status != "completed" {
			return nil, NewDomainError("Only a completed encounter can be reopened (current status: %s)", status)
		}
		evt := BuildEvent(cmd.CommandMetadata, EventEncounterReopened, a.AggregateType(), cmd.EncounterID, Payload{})
		return []PendingEvent{evt}, nil

	case DischargePatient:
		if status == "none" || status == "completed" {
			return nil, NewDomainError("Patient cannot be discharged from status: %s", status)
		}
		evt := BuildEvent(cmd.CommandMetadata, EventPatientDischarged, a.AggregateType(), cmd.EncounterID, Payload{})
		return []PendingEvent{evt}, nil

	default:
		return nil, NewDomainError("Unknown command: %T", command)
	}
}
