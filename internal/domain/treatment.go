package domain

// Treatment models the lifecycle none -> started -> stopped.
// TreatmentStarted/TreatmentStopped are consumed by
// PatientSummaryProjection; this aggregate is their producer.
type StartTreatment struct {
	CommandMetadata
	TreatmentID ID
	DiagnosisID ID
	PatientID   ID
	Treatment   string
}

type StopTreatment struct {
	CommandMetadata
	TreatmentID ID
	PatientID   ID
	Reason      string
}

type TreatmentAggregate struct{}

func (TreatmentAggregate) AggregateType() string { return "Treatment" }

func (TreatmentAggregate) InitialState() State {
	return State{
		"status":       "none",
		"treatment":    nil,
		"diagnosis_id": nil,
		"patient_id":   nil,
	}
}

func (TreatmentAggregate) ApplyEvent(state State, event DomainEvent) State {
	next := CloneState(state)
	switch event.EventType() {
	case EventTreatmentStarted:
		next["status"] = "started"
		next["treatment"] = event.Payload["treatment"]
		next["diagnosis_id"] = event.Payload["diagnosis_id"]
		next["patient_id"] = event.Payload["patient_id"]
	case EventTreatmentStopped:
		next["status"] = "stopped"
	}
	return next
}

func (a TreatmentAggregate) Execute(state State, command any) ([]PendingEvent, error) {
	status, _ := state["status"].(string)

	switch cmd := command.(type) {
	case StartTreatment:
		if status != "none" {
			return nil, NewDomainError("Treatment already started (current status: %s)", status)
		}
		payload := Payload{
			"treatment_id": cmd.TreatmentID.String(),
			"diagnosis_id": cmd.DiagnosisID.String(),
			"patient_id":   cmd.PatientID.String(),
			"treatment":    cmd.Treatment,
		}
		evt := BuildEvent(cmd.CommandMetadata, EventTreatmentStarted, a.AggregateType(), cmd.TreatmentID, payload)
		return []PendingEvent{evt}, nil

	case StopTreatment:
		if status != "started" {
			return nil, NewDomainError("Treatment is not active (current status: %s)", status)
		}
		payload := Payload{
			"treatment_id": cmd.TreatmentID.String(),
			"patient_id":   cmd.PatientID.String(),
			"reason":       cmd.Reason,
		}
		evt := BuildEvent(cmd.CommandMetadata, EventTreatmentStopped, a.AggregateType(), cmd.TreatmentID, payload)
		return []PendingEvent{evt}, nil

	default:
		return nil, NewDomainError("Unknown command: %T", command)
	}
}
