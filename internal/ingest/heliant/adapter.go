// Package heliant polls a Heliant hospital-information-system database
// over SQL Server and turns newly-admitted and newly-discharged
// patients into Command Gateway requests (CheckInPatient,
// DischargePatient). It never writes to the clinical event store
// itself and never exposes a read-model API — every fact it learns
// from the legacy system is submitted as a command, the same path any
// other caller would use.
package heliant

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "github.com/denisenkom/go-mssqldb" // SQL Server driver

	"github.com/HollowDragonX/clinicforge/internal/application"
	"github.com/HollowDragonX/clinicforge/internal/domain"
	"github.com/HollowDragonX/clinicforge/internal/ingest"
	"github.com/HollowDragonX/clinicforge/internal/shared/types"
)

// Config holds Heliant-specific table names on top of the common
// legacy-source connection and polling settings.
type Config struct {
	ingest.Config

	PatientTable         string
	HospitalizationTable string
	LabResultTable       string
	PrescriptionTable    string
	DiagnosisTable       string

	// OrganizationID and FacilityID are stamped onto every command this
	// adapter submits — a Heliant instance belongs to exactly one
	// facility.
	OrganizationID domain.ID
	FacilityID     domain.ID
	DeviceID       string
}

// DefaultHeliantConfig returns Heliant's default table names layered
// on ingest's default connection settings.
func DefaultHeliantConfig() Config {
	return Config{
		Config:               ingest.DefaultConfig(),
		PatientTable:         "dbo.Patients",
		HospitalizationTable: "dbo.Hospitalizations",
		LabResultTable:       "dbo.LabResults",
		PrescriptionTable:    "dbo.Prescriptions",
		DiagnosisTable:       "dbo.Diagnoses",
	}
}

// Adapter implements ingest.Source for a Heliant SQL Server instance.
// It polls for admissions and discharges on a timer and submits each
// one as a command through the supplied gateway.
type Adapter struct {
	db      *sql.DB
	config  Config
	gateway *application.CommandGateway

	running  bool
	mu       sync.RWMutex
	cancel   context.CancelFunc
	lastPoll time.Time
	wg       sync.WaitGroup
}

// New creates a Heliant source that submits commands through gateway.
func New(cfg Config, gateway *application.CommandGateway) (*Adapter, error) {
	return &Adapter{config: cfg, gateway: gateway}, nil
}

// Start opens the database connection and begins the polling loop.
func (a *Adapter) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return fmt.Errorf("adapter already running")
	}

	connStr := fmt.Sprintf("server=%s;port=%d;database=%s;user id=%s;password=%s",
		a.config.Host, a.config.Port, a.config.Database, a.config.User, a.config.Password)
	if a.config.SSLMode != "disable" {
		connStr += ";encrypt=true;TrustServerCertificate=true"
	}

	db, err := sql.Open("sqlserver", connStr)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	a.db = db
	a.running = true
	a.lastPoll = time.Now().Add(-a.config.PollInterval)

	pollCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.wg.Add(1)
	go a.pollLoop(pollCtx)

	return nil
}

// Stop cancels the polling loop and closes the database connection.
func (a *Adapter) Stop(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.running {
		return nil
	}

	if a.cancel != nil {
		a.cancel()
	}

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if a.db != nil {
		a.db.Close()
	}

	a.running = false
	return nil
}

func (a *Adapter) Health(ctx context.Context) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.running {
		return fmt.Errorf("adapter not running")
	}
	return a.db.PingContext(ctx)
}

func (a *Adapter) SourceSystem() string { return "heliant" }

func (a *Adapter) SourceInstitution() string { return a.config.InstitutionName }

func (a *Adapter) IsConnected() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.running && a.db != nil
}

func (a *Adapter) pollLoop(ctx context.Context) {
	defer a.wg.Done()

	ticker := time.NewTicker(a.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.mu.Lock()
			lastPoll := a.lastPoll
			a.lastPoll = time.Now()
			a.mu.Unlock()

			if err := a.pollAdmissions(ctx, lastPoll); err != nil {
				log.Printf("heliant: error polling admissions: %v", err)
			}
			if err := a.pollDischarges(ctx, lastPoll); err != nil {
				log.Printf("heliant: error polling discharges: %v", err)
			}
		}
	}
}

// pollAdmissions submits a CheckInPatient command for every
// hospitalization admitted since the last poll.
func (a *Adapter) pollAdmissions(ctx context.Context, since time.Time) error {
	query := fmt.Sprintf(`
		SELECT h.HospitalizationID, h.AdmissionDate, p.JMBG
		FROM %s h
		INNER JOIN %s p ON h.PatientID = p.PatientID
		WHERE h.AdmissionDate > @since
		ORDER BY h.AdmissionDate ASC
	`, a.config.HospitalizationTable, a.config.PatientTable)

	rows, err := a.db.QueryContext(ctx, query, sql.Named("since", since))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var encounterLocalID, rawJMBG string
		var admittedAt time.Time
		if err := rows.Scan(&encounterLocalID, &admittedAt, &rawJMBG); err != nil {
			log.Printf("heliant: scan admission: %v", err)
			continue
		}

		jmbg, err := types.ParseJMBG(rawJMBG)
		if err != nil {
			log.Printf("heliant: admission %s: invalid JMBG, skipping: %v", encounterLocalID, err)
			continue
		}

		request := a.commandEnvelope("CheckInPatient", admittedAt, map[string]any{
			"encounter_id": domain.NewDeterministicID(a.SourceSystem()+":encounter", encounterLocalID).String(),
			"patient_id":   domain.NewDeterministicID(a.SourceSystem()+":patient", jmbg.String()).String(),
		})
		a.submit(ctx, request)
	}
	return nil
}

// pollDischarges submits a DischargePatient command for every
// hospitalization discharged since the last poll.
func (a *Adapter) pollDischarges(ctx context.Context, since time.Time) error {
	query := fmt.Sprintf(`
		SELECT h.HospitalizationID, h.DischargeDate
		FROM %s h
		WHERE h.DischargeDate > @since AND h.DischargeDate IS NOT NULL
		ORDER BY h.DischargeDate ASC
	`, a.config.HospitalizationTable)

	rows, err := a.db.QueryContext(ctx, query, sql.Named("since", since))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var encounterLocalID string
		var dischargedAt time.Time
		if err := rows.Scan(&encounterLocalID, &dischargedAt); err != nil {
			log.Printf("heliant: scan discharge: %v", err)
			continue
		}

		request := a.commandEnvelope("DischargePatient", dischargedAt, map[string]any{
			"encounter_id": domain.NewDeterministicID(a.SourceSystem()+":encounter", encounterLocalID).String(),
		})
		a.submit(ctx, request)
	}
	return nil
}

func (a *Adapter) submit(ctx context.Context, request map[string]any) {
	result := a.gateway.Handle(ctx, request)
	if !result.Success {
		log.Printf("heliant: command rejected: %s", result.Error)
	}
}

// commandEnvelope builds the request envelope every polled row maps
// to: a command_type, plus a payload carrying the fields every command
// requires (CommandMetadata) merged with the command-specific fields.
func (a *Adapter) commandEnvelope(commandType string, occurredAt time.Time, fields map[string]any) map[string]any {
	payload := map[string]any{
		"occurred_at":       occurredAt.UTC().Format(time.RFC3339Nano),
		"performed_by":      a.deviceActorID().String(),
		"performer_role":    "system:heliant-ingest",
		"organization_id":   a.config.OrganizationID.String(),
		"facility_id":       a.config.FacilityID.String(),
		"device_id":         a.config.DeviceID,
		"connection_status": string(domain.Online),
		"correlation_id":    domain.NewID().String(),
	}
	for k, v := range fields {
		payload[k] = v
	}
	return map[string]any{"command_type": commandType, "payload": payload}
}

// deviceActorID is the identity stamped as performed_by on every
// command this adapter submits: this adapter, not a human clinician,
// performed the check-in or discharge.
func (a *Adapter) deviceActorID() domain.ID {
	return domain.NewDeterministicID(a.SourceSystem()+":device", a.config.DeviceID)
}

var _ ingest.Source = (*Adapter)(nil)
