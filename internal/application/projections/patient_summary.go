// Package projections holds the illustrative read-side views built on
// top of application.ProjectionHandler.
package projections

import (
	"time"

	"github.com/HollowDragonX/clinicforge/internal/application"
	"github.com/HollowDragonX/clinicforge/internal/domain"
)

// NewPatientSummaryProjection builds the patient-summary view: active
// conditions, active and stopped treatments, and a running vitals log
// (see DESIGN.md for why vitals are included here).
func NewPatientSummaryProjection() *application.ProjectionHandler {
	return application.NewProjectionHandler(
		[]string{
			domain.EventDiagnosisConfirmed,
			domain.EventTreatmentStarted,
			domain.EventTreatmentStopped,
			domain.EventVitalSignsRecorded,
		},
		applyPatientSummary,
	)
}

func applyPatientSummary(state domain.State, event domain.DomainEvent) domain.State {
	next := domain.CloneState(state)
	activeConditions := cloneRecordMap(state, "active_conditions")
	activeTreatments := cloneRecordMap(state, "active_treatments")
	stoppedTreatments := cloneRecordMap(state, "stopped_treatments")
	vitals := cloneVitals(state)

	switch event.EventType() {
	case domain.EventDiagnosisConfirmed:
		diagnosisID, _ := event.Payload["diagnosis_id"].(string)
		activeConditions[diagnosisID] = map[string]any{
			"condition":  event.Payload["condition"],
			"icd_code":   event.Payload["icd_code"],
			"patient_id": event.Payload["patient_id"],
		}

	case domain.EventTreatmentStarted:
		treatmentID, _ := event.Payload["treatment_id"].(string)
		activeTreatments[treatmentID] = map[string]any{
			"treatment":    event.Payload["treatment"],
			"diagnosis_id": event.Payload["diagnosis_id"],
			"patient_id":   event.Payload["patient_id"],
		}

	case domain.EventTreatmentStopped:
		treatmentID, _ := event.Payload["treatment_id"].(string)
		stoppedEntry := map[string]any{
			"reason":     event.Payload["reason"],
			"patient_id": event.Payload["patient_id"],
		}
		// If the treatment was active, fold its original fields into the
		// stopped record and remove it from the active map. If it was
		// not active, still record the stop with just reason/patient_id
		// — this must never fail.
		if original, ok := activeTreatments[treatmentID]; ok {
			for k, v := range original {
				stoppedEntry[k] = v
			}
			delete(activeTreatments, treatmentID)
		}
		stoppedTreatments[treatmentID] = stoppedEntry

	case domain.EventVitalSignsRecorded:
		vitals = append(vitals, map[string]any{
			"recorded_at":  event.OccurredAt().Format(time.RFC3339Nano),
			"readings":     event.Payload["readings"],
			"patient_id":   event.Payload["patient_id"],
			"encounter_id": event.Payload["encounter_id"],
		})
	}

	next["active_conditions"] = activeConditions
	next["active_treatments"] = activeTreatments
	next["stopped_treatments"] = stoppedTreatments
	next["vitals"] = vitals
	return next
}

func cloneRecordMap(state domain.State, key string) map[string]map[string]any {
	out := make(map[string]map[string]any)
	existing, _ := state[key].(map[string]map[string]any)
	for k, v := range existing {
		entry := make(map[string]any, len(v))
		for ek, ev := range v {
			entry[ek] = ev
		}
		out[k] = entry
	}
	return out
}

func cloneVitals(state domain.State) []map[string]any {
	existing, _ := state["vitals"].([]map[string]any)
	out := make([]map[string]any, len(existing))
	copy(out, existing)
	return out
}

// MapPatientSummary turns PatientSummaryProjection's state into the
// response shape a GetPatientSummary query returns: each record map
// keyed by id becomes a list with "id" folded in, in no particular
// order (Go map iteration order is not stable; callers that need a
// stable order should sort on the response).
func MapPatientSummary(state map[string]any, params map[string]any) map[string]any {
	return map[string]any{
		"active_conditions":  recordList(state, "active_conditions"),
		"active_treatments":  recordList(state, "active_treatments"),
		"stopped_treatments": recordList(state, "stopped_treatments"),
		"vitals":             state["vitals"],
	}
}

func recordList(state map[string]any, key string) []map[string]any {
	records, _ := state[key].(map[string]map[string]any)
	out := make([]map[string]any, 0, len(records))
	for id, fields := range records {
		entry := make(map[string]any, len(fields)+1)
		entry["id"] = id
		for k, v := range fields {
			entry[k] = v
		}
		out = append(out, entry)
	}
	return out
}
