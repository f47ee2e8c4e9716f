package application

import (
	"context"
	"fmt"
	"time"

	"github.com/HollowDragonX/clinicforge/internal/domain"
)

// Handler is the untyped shape every command handler presents to the
// gateway: CommandHandler.Handle already has this signature;
// DiagnosisCommandHandler.Handle shadows its embedded version to add
// the same signature with a precondition check.
type Handler interface {
	Handle(ctx context.Context, command any, aggregateID domain.ID) ([]domain.DomainEvent, error)
}

// CommandResult is always returned by Handle — the gateway never
// returns a Go error to its caller, matching the reference gateway's
// "never throws" contract.
type CommandResult struct {
	Success bool
	Events  []domain.DomainEvent
	Error   string
}

type commandMapper func(payload map[string]any) (any, error)

type commandRegistration struct {
	handler          Handler
	aggregateIDField string
	requiredFields   []string
	uuidFields       []string
	mapper           commandMapper
}

// CommandGateway is the single write-side entry point for external
// callers: it accepts raw request envelopes, validates their shape,
// maps them to typed commands, and routes to the registered handler.
// It performs envelope validation only — no business logic.
type CommandGateway struct {
	registrations map[string]commandRegistration
}

func NewCommandGateway() *CommandGateway {
	return &CommandGateway{registrations: make(map[string]commandRegistration)}
}

// Register associates commandType with the handler that executes it,
// the payload field naming the target aggregate, and the shape the
// payload must have before mapping is attempted.
func (g *CommandGateway) Register(commandType string, handler Handler, aggregateIDField string, requiredFields, uuidFields []string, mapper commandMapper) {
	g.registrations[commandType] = commandRegistration{
		handler:          handler,
		aggregateIDField: aggregateIDField,
		requiredFields:   requiredFields,
		uuidFields:       uuidFields,
		mapper:           mapper,
	}
}

// Handle processes one raw request envelope. It never returns a Go
// error — every failure mode, from a malformed envelope to a rejected
// domain command, is reported via CommandResult.Error.
func (g *CommandGateway) Handle(ctx context.Context, request map[string]any) CommandResult {
	commandType, ok := request["command_type"].(string)
	if !ok || commandType == "" {
		return CommandResult{Error: "Missing required field: command_type"}
	}

	payload, ok := request["payload"].(map[string]any)
	if !ok {
		return CommandResult{Error: "Missing required field: payload"}
	}

	reg, ok := g.registrations[commandType]
	if !ok {
		return CommandResult{Error: fmt.Sprintf("Unknown command type: %s", commandType)}
	}

	for _, field := range reg.requiredFields {
		if _, present := payload[field]; !present {
			return CommandResult{Error: fmt.Sprintf("Missing required field in payload: %s", field)}
		}
	}

	parsed := make(map[string]any, len(payload))
	for k, v := range payload {
		parsed[k] = v
	}
	for _, field := range reg.uuidFields {
		raw, present := parsed[field]
		if !present {
			continue
		}
		id, err := domain.ParseID(fmt.Sprint(raw))
		if err != nil {
			return CommandResult{Error: fmt.Sprintf("Invalid UUID for field: %s", field)}
		}
		parsed[field] = id
	}

	command, err := reg.mapper(parsed)
	if err != nil {
		return CommandResult{Error: err.Error()}
	}

	rawAggregateID, present := parsed[reg.aggregateIDField]
	if !present {
		return CommandResult{Error: fmt.Sprintf("Missing required field in payload: %s", reg.aggregateIDField)}
	}
	aggregateID, ok := rawAggregateID.(domain.ID)
	if !ok {
		aggregateID, err = domain.ParseID(fmt.Sprint(rawAggregateID))
		if err != nil {
			return CommandResult{Error: fmt.Sprintf("Invalid UUID for field: %s", reg.aggregateIDField)}
		}
	}

	events, err := reg.handler.Handle(ctx, command, aggregateID)
	if err != nil {
		RecordCommandRejected(commandType, reasonFor(err))
		return CommandResult{Error: err.Error()}
	}
	RecordCommandHandled(commandType)
	return CommandResult{Success: true, Events: events}
}

func reasonFor(err error) string {
	switch err.(type) {
	case *domain.DomainError:
		return "domain"
	case *domain.ConcurrencyError:
		return "concurrency"
	default:
		return "unknown"
	}
}

// --- field helpers shared by mappers ---

func requireID(p map[string]any, key string) (domain.ID, error) {
	v, ok := p[key]
	if !ok {
		return domain.ID{}, fmt.Errorf("missing field: %s", key)
	}
	if id, ok := v.(domain.ID); ok {
		return id, nil
	}
	return domain.ParseID(fmt.Sprint(v))
}

func requireString(p map[string]any, key string) (string, error) {
	v, ok := p[key]
	if !ok {
		return "", fmt.Errorf("missing field: %s", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %s must be a string", key)
	}
	return s, nil
}

func optionalString(p map[string]any, key string) string {
	s, _ := p[key].(string)
	return s
}

func requireTime(p map[string]any, key string) (time.Time, error) {
	v, ok := p[key]
	if !ok {
		return time.Time{}, fmt.Errorf("missing field: %s", key)
	}
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, fmt.Errorf("field %s is not a valid timestamp: %w", key, err)
		}
		return parsed, nil
	default:
		return time.Time{}, fmt.Errorf("field %s must be a timestamp", key)
	}
}

func requireReadings(p map[string]any, key string) (map[string]any, error) {
	v, ok := p[key]
	if !ok {
		return nil, fmt.Errorf("missing field: %s", key)
	}
	readings, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("field %s must be an object", key)
	}
	return readings, nil
}

func commandMetadata(p map[string]any) (domain.CommandMetadata, error) {
	occurredAt, err := requireTime(p, "occurred_at")
	if err != nil {
		return domain.CommandMetadata{}, err
	}
	performedBy, err := requireID(p, "performed_by")
	if err != nil {
		return domain.CommandMetadata{}, err
	}
	performerRole, err := requireString(p, "performer_role")
	if err != nil {
		return domain.CommandMetadata{}, err
	}
	organizationID, err := requireID(p, "organization_id")
	if err != nil {
		return domain.CommandMetadata{}, err
	}
	facilityID, err := requireID(p, "facility_id")
	if err != nil {
		return domain.CommandMetadata{}, err
	}
	deviceID, err := requireString(p, "device_id")
	if err != nil {
		return domain.CommandMetadata{}, err
	}
	connectionStatus, err := requireString(p, "connection_status")
	if err != nil {
		return domain.CommandMetadata{}, err
	}
	correlationID, err := requireID(p, "correlation_id")
	if err != nil {
		return domain.CommandMetadata{}, err
	}
	return domain.CommandMetadata{
		OccurredAt:       occurredAt,
		PerformedBy:      performedBy,
		PerformerRole:    performerRole,
		OrganizationID:   organizationID,
		FacilityID:       facilityID,
		DeviceID:         deviceID,
		ConnectionStatus: domain.ConnectionStatus(connectionStatus),
		CorrelationID:    correlationID,
	}, nil
}

// --- command mappers ---

func mapConfirmDiagnosis(p map[string]any) (any, error) {
	meta, err := commandMetadata(p)
	if err != nil {
		return nil, err
	}
	diagnosisID, err := requireID(p, "diagnosis_id")
	if err != nil {
		return nil, err
	}
	encounterID, err := requireID(p, "encounter_id")
	if err != nil {
		return nil, err
	}
	patientID, err := requireID(p, "patient_id")
	if err != nil {
		return nil, err
	}
	condition, err := requireString(p, "condition")
	if err != nil {
		return nil, err
	}
	icdCode, err := requireString(p, "icd_code")
	if err != nil {
		return nil, err
	}
	return domain.ConfirmDiagnosis{
		CommandMetadata: meta,
		DiagnosisID:     diagnosisID,
		EncounterID:     encounterID,
		PatientID:       patientID,
		Condition:       condition,
		ICDCode:         icdCode,
	}, nil
}

func mapCheckInPatient(p map[string]any) (any, error) {
	meta, err := commandMetadata(p)
	if err != nil {
		return nil, err
	}
	encounterID, err := requireID(p, "encounter_id")
	if err != nil {
		return nil, err
	}
	patientID, err := requireID(p, "patient_id")
	if err != nil {
		return nil, err
	}
	return domain.CheckInPatient{CommandMetadata: meta, EncounterID: encounterID, PatientID: patientID}, nil
}

func mapBeginEncounter(p map[string]any) (any, error) {
	meta, err := commandMetadata(p)
	if err != nil {
		return nil, err
	}
	encounterID, err := requireID(p, "encounter_id")
	if err != nil {
		return nil, err
	}
	practitionerID, err := requireID(p, "practitioner_id")
	if err != nil {
		return nil, err
	}
	return domain.BeginEncounter{CommandMetadata: meta, EncounterID: encounterID, PractitionerID: practitionerID}, nil
}

func mapCompleteEncounter(p map[string]any) (any, error) {
	meta, err := commandMetadata(p)
	if err != nil {
		return nil, err
	}
	encounterID, err := requireID(p, "encounter_id")
	if err != nil {
		return nil, err
	}
	return domain.CompleteEncounter{CommandMetadata: meta, EncounterID: encounterID}, nil
}

func mapReopenEncounter(p map[string]any) (any, error) {
	meta, err := commandMetadata(p)
	if err != nil {
		return nil, err
	}
	encounterID, err := requireID(p, "encounter_id")
	if err != nil {
		return nil, err
	}
	return domain.ReopenEncounter{CommandMetadata: meta, EncounterID: encounterID}, nil
}

func mapDischargePatient(p map[string]any) (any, error) {
	meta, err := commandMetadata(p)
	if err != nil {
		return nil, err
	}
	encounterID, err := requireID(p, "encounter_id")
	if err != nil {
		return nil, err
	}
	return domain.DischargePatient{CommandMetadata: meta, EncounterID: encounterID}, nil
}

func mapStartTreatment(p map[string]any) (any, error) {
	meta, err := commandMetadata(p)
	if err != nil {
		return nil, err
	}
	treatmentID, err := requireID(p, "treatment_id")
	if err != nil {
		return nil, err
	}
	diagnosisID, err := requireID(p, "diagnosis_id")
	if err != nil {
		return nil, err
	}
	patientID, err := requireID(p, "patient_id")
	if err != nil {
		return nil, err
	}
	treatment, err := requireString(p, "treatment")
	if err != nil {
		return nil, err
	}
	return domain.StartTreatment{
		CommandMetadata: meta,
		TreatmentID:     treatmentID,
		DiagnosisID:     diagnosisID,
		PatientID:       patientID,
		Treatment:       treatment,
	}, nil
}

func mapStopTreatment(p map[string]any) (any, error) {
	meta, err := commandMetadata(p)
	if err != nil {
		return nil, err
	}
	treatmentID, err := requireID(p, "treatment_id")
	if err != nil {
		return nil, err
	}
	patientID, err := requireID(p, "patient_id")
	if err != nil {
		return nil, err
	}
	return domain.StopTreatment{
		CommandMetadata: meta,
		TreatmentID:     treatmentID,
		PatientID:       patientID,
		Reason:          optionalString(p, "reason"),
	}, nil
}

func mapRecordVitalSigns(p map[string]any) (any, error) {
	meta, err := commandMetadata(p)
	if err != nil {
		return nil, err
	}
	observationID, err := requireID(p, "observation_id")
	if err != nil {
		return nil, err
	}
	encounterID, err := requireID(p, "encounter_id")
	if err != nil {
		return nil, err
	}
	patientID, err := requireID(p, "patient_id")
	if err != nil {
		return nil, err
	}
	readings, err := requireReadings(p, "readings")
	if err != nil {
		return nil, err
	}
	return domain.RecordVitalSigns{
		CommandMetadata: meta,
		ObservationID:   observationID,
		EncounterID:     encounterID,
		PatientID:       patientID,
		Readings:        readings,
	}, nil
}

func mapReportSymptom(p map[string]any) (any, error) {
	meta, err := commandMetadata(p)
	if err != nil {
		return nil, err
	}
	observationID, err := requireID(p, "observation_id")
	if err != nil {
		return nil, err
	}
	encounterID, err := requireID(p, "encounter_id")
	if err != nil {
		return nil, err
	}
	patientID, err := requireID(p, "patient_id")
	if err != nil {
		return nil, err
	}
	symptom, err := requireString(p, "symptom")
	if err != nil {
		return nil, err
	}
	return domain.ReportSymptom{
		CommandMetadata: meta,
		ObservationID:   observationID,
		EncounterID:     encounterID,
		PatientID:       patientID,
		Symptom:         symptom,
		Severity:        optionalString(p, "severity"),
	}, nil
}

// commonRequired is the field set shared by every command: the
// CommandMetadata envelope. Individual registrations append their own
// aggregate-specific identifiers.
var commonRequired = []string{
	"occurred_at", "performed_by", "performer_role", "organization_id",
	"facility_id", "device_id", "connection_status", "correlation_id",
}

var commonUUIDs = []string{"performed_by", "organization_id", "facility_id", "correlation_id"}

func withCommon(fields ...string) []string {
	return append(append([]string{}, commonRequired...), fields...)
}

func withCommonUUIDs(fields ...string) []string {
	return append(append([]string{}, commonUUIDs...), fields...)
}

// RegisterDefaultCommands wires every command this module defines onto
// gateway, using the handlers supplied. Encounter, Treatment, and
// Observation each route through a plain CommandHandler; Diagnosis
// routes through DiagnosisCommandHandler for its cross-aggregate
// precondition.
func RegisterDefaultCommands(gateway *CommandGateway, diagnosis *DiagnosisCommandHandler, encounter, treatment, observation *CommandHandler) {
	gateway.Register("ConfirmDiagnosis", diagnosis, "diagnosis_id",
		withCommon("diagnosis_id", "encounter_id", "patient_id", "condition", "icd_code"),
		withCommonUUIDs("diagnosis_id", "encounter_id", "patient_id"),
		mapConfirmDiagnosis)

	gateway.Register("CheckInPatient", encounter, "encounter_id",
		withCommon("encounter_id", "patient_id"),
		withCommonUUIDs("encounter_id", "patient_id"),
		mapCheckInPatient)

	gateway.Register("BeginEncounter", encounter, "encounter_id",
		withCommon("encounter_id", "practitioner_id"),
		withCommonUUIDs("encounter_id", "practitioner_id"),
		mapBeginEncounter)

	gateway.Register("CompleteEncounter", encounter, "encounter_id",
		withCommon("encounter_id"),
		withCommonUUIDs("encounter_id"),
		mapCompleteEncounter)

	gateway.Register("ReopenEncounter", encounter, "encounter_id",
		withCommon("encounter_id"),
		withCommonUUIDs("encounter_id"),
		mapReopenEncounter)

	gateway.Register("DischargePatient", encounter, "encounter_id",
		withCommon("encounter_id"),
		withCommonUUIDs("encounter_id"),
		mapDischargePatient)

	gateway.Register("StartTreatment", treatment, "treatment_id",
		withCommon("treatment_id", "diagnosis_id", "patient_id", "treatment"),
		withCommonUUIDs("treatment_id", "diagnosis_id", "patient_id"),
		mapStartTreatment)

	gateway.Register("StopTreatment", treatment, "treatment_id",
		withCommon("treatment_id", "patient_id"),
		withCommonUUIDs("treatment_id", "patient_id"),
		mapStopTreatment)

	gateway.Register("RecordVitalSigns", observation, "observation_id",
		withCommon("observation_id", "encounter_id", "patient_id", "readings"),
		withCommonUUIDs("observation_id", "encounter_id", "patient_id"),
		mapRecordVitalSigns)

	gateway.Register("ReportSymptom", observation, "observation_id",
		withCommon("observation_id", "encounter_id", "patient_id", "symptom"),
		withCommonUUIDs("observation_id", "encounter_id", "patient_id"),
		mapReportSymptom)
}
