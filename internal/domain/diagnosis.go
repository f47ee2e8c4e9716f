package domain

// ConfirmDiagnosis is the sole command the Diagnosis aggregate accepts:
// record a clinician's confirmed judgment against a patient and the
// encounter it was made during.
type ConfirmDiagnosis struct {
	CommandMetadata
	DiagnosisID ID
	EncounterID ID
	PatientID   ID
	Condition   string
	ICDCode     string
}

// DiagnosisAggregate models the lifecycle unconfirmed -> confirmed.
// Confirmation is terminal for this aggregate; revision and resolution
// are future extensions, not modeled here.
type DiagnosisAggregate struct{}

func (DiagnosisAggregate) AggregateType() string { return "Diagnosis" }

func (DiagnosisAggregate) InitialState() State {
	return State{
		"status":       "unconfirmed",
		"condition":    nil,
		"icd_code":     nil,
		"patient_id":   nil,
		"encounter_id": nil,
	}
}

func (DiagnosisAggregate) ApplyEvent(state State, event DomainEvent) State {
	next := CloneState(state)
	switch event.EventType() {
	case EventDiagnosisConfirmed:
		next["status"] = "confirmed"
		next["condition"] = event.Payload["condition"]
		next["icd_code"] = event.Payload["icd_code"]
		next["patient_id"] = event.Payload["patient_id"]
		next["encounter_id"] = event.Payload["encounter_id"]
	}
	return next
}

func (DiagnosisAggregate) Execute(state State, command any) ([]PendingEvent, error) {
	cmd, ok := command.(ConfirmDiagnosis)
	if !ok {
		return nil, NewDomainError("Unknown command: %T", command)
	}

	if state["status"] != "unconfirmed" {
		return nil, NewDomainError("Diagnosis already confirmed")
	}

	payload := Payload{
		"diagnosis_id": cmd.DiagnosisID.String(),
		"encounter_id": cmd.EncounterID.String(),
		"patient_id":   cmd.PatientID.String(),
		"condition":    cmd.Condition,
		"icd_code":     cmd.ICDCode,
	}

	evt := BuildEvent(cmd.CommandMetadata, EventDiagnosisConfirmed, "Diagnosis", cmd.DiagnosisID, payload)
	return []PendingEvent{evt}, nil
}
