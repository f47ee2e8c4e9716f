package domain

// Event type strings. Dotted, catalog-selector identifiers — stable
// across schema versions; payload shape evolution is tracked by
// EventMetadata.SchemaVersion, not by renaming the type.
const (
	EventPatientCheckedIn   = "clinical.encounter.PatientCheckedIn"
	EventEncounterBegan     = "clinical.encounter.EncounterBegan"
	EventEncounterCompleted = "clinical.encounter.EncounterCompleted"
	EventEncounterReopened  = "clinical.encounter.EncounterReopened"
	EventPatientDischarged  = "clinical.encounter.PatientDischarged"

	EventDiagnosisConfirmed = "clinical.judgment.DiagnosisConfirmed"
	EventTreatmentStarted   = "clinical.judgment.TreatmentStarted"
	EventTreatmentStopped   = "clinical.judgment.TreatmentStopped"

	EventVitalSignsRecorded = "clinical.observation.VitalSignsRecorded"
	EventSymptomReported    = "clinical.observation.SymptomReported"
)
