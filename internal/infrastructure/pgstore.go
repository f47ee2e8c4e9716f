package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/HollowDragonX/clinicforge/internal/domain"
)

// PostgresStore is the durable domain.EventStore adapter. It owns a
// single table, clinical.events, holding every aggregate's stream; a
// unique constraint on (aggregate_id, aggregate_version) gives the
// database itself a backstop for the version check a ConcurrencyError
// reports, and event_id as primary key gives idempotent append its
// duplicate-key detection.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Schema is the DDL this store expects to already exist. Migrations
// are out of scope for this module; a deployment applies it once.
const Schema = `
CREATE SCHEMA IF NOT EXISTS clinical;

CREATE TABLE IF NOT EXISTS clinical.events (
	insert_seq        BIGSERIAL,
	event_id          UUID PRIMARY KEY,
	event_type        TEXT NOT NULL,
	schema_version    INT NOT NULL,
	aggregate_id      UUID NOT NULL,
	aggregate_type    TEXT NOT NULL,
	aggregate_version INT NOT NULL,
	occurred_at       TIMESTAMPTZ NOT NULL,
	performed_by      UUID NOT NULL,
	performer_role    TEXT NOT NULL,
	organization_id   UUID NOT NULL,
	facility_id       UUID NOT NULL,
	device_id         TEXT NOT NULL,
	connection_status TEXT NOT NULL,
	correlation_id    UUID NOT NULL,
	causation_id      UUID,
	recorded_at       TIMESTAMPTZ NOT NULL,
	visibility        TEXT[] NOT NULL,
	payload           JSONB NOT NULL,
	UNIQUE (aggregate_id, aggregate_version)
);

CREATE INDEX IF NOT EXISTS events_recorded_at_idx ON clinical.events (recorded_at, insert_seq);
`

func (s *PostgresStore) Append(ctx context.Context, event domain.DomainEvent) (domain.DomainEvent, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.DomainEvent{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if existing, ok, err := readByEventID(ctx, tx, event.EventID()); err != nil {
		return domain.DomainEvent{}, err
	} else if ok {
		return existing, nil
	}

	var currentVersion int
	err = tx.QueryRow(ctx,
		`SELECT aggregate_version FROM clinical.events WHERE aggregate_id = $1 ORDER BY aggregate_version DESC LIMIT 1 FOR UPDATE`,
		event.AggregateID(),
	).Scan(&currentVersion)
	if err == pgx.ErrNoRows {
		currentVersion, err = 0, nil
	}
	if err != nil {
		return domain.DomainEvent{}, fmt.Errorf("lock stream: %w", err)
	}

	if event.AggregateVersion() != currentVersion+1 {
		return domain.DomainEvent{}, &domain.ConcurrencyError{
			AggregateID:     event.AggregateID(),
			ExpectedVersion: currentVersion + 1,
			ActualVersion:   event.AggregateVersion(),
		}
	}

	payloadJSON, err := json.Marshal(event.Payload)
	if err != nil {
		return domain.DomainEvent{}, fmt.Errorf("marshal payload: %w", err)
	}

	recordedAt := time.Now().UTC()
	m := event.Metadata

	_, err = tx.Exec(ctx, `
		INSERT INTO clinical.events (
			event_id, event_type, schema_version,
			aggregate_id, aggregate_type, aggregate_version,
			occurred_at, performed_by, performer_role,
			organization_id, facility_id, device_id,
			connection_status, correlation_id, causation_id,
			recorded_at, visibility, payload
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18
		)`,
		m.EventID, m.EventType, m.SchemaVersion,
		m.AggregateID, m.AggregateType, m.AggregateVersion,
		m.OccurredAt, m.PerformedBy, m.PerformerRole,
		m.OrganizationID, m.FacilityID, m.DeviceID,
		string(m.ConnectionStatus), m.CorrelationID, m.CausationID,
		recordedAt, m.Visibility, payloadJSON,
	)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return domain.DomainEvent{}, &domain.ConcurrencyError{
				AggregateID:     event.AggregateID(),
				ExpectedVersion: currentVersion + 1,
				ActualVersion:   event.AggregateVersion(),
			}
		}
		return domain.DomainEvent{}, fmt.Errorf("insert event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.DomainEvent{}, fmt.Errorf("commit transaction: %w", err)
	}

	return event.WithRecordedAt(recordedAt), nil
}

func (s *PostgresStore) ReadStream(ctx context.Context, aggregateID domain.ID) ([]domain.DomainEvent, error) {
	rows, err := s.pool.Query(ctx, selectColumns+` WHERE aggregate_id = $1 ORDER BY aggregate_version`, aggregateID)
	if err != nil {
		return nil, fmt.Errorf("read stream: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *PostgresStore) ReadStreamFrom(ctx context.Context, aggregateID domain.ID, fromVersion int) ([]domain.DomainEvent, error) {
	rows, err := s.pool.Query(ctx,
		selectColumns+` WHERE aggregate_id = $1 AND aggregate_version >= $2 ORDER BY aggregate_version`,
		aggregateID, fromVersion)
	if err != nil {
		return nil, fmt.Errorf("read stream from version: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ReadAllEvents returns every event across all streams ordered by
// recorded_at, with ties broken by insert_seq (the order rows were
// committed in, via the table's BIGSERIAL column) and, if that ever
// ties too, by event_id — so two events recorded in the same clock
// tick still come back in a stable order on every call rather than
// whatever order Postgres happens to pick.
func (s *PostgresStore) ReadAllEvents(ctx context.Context) ([]domain.DomainEvent, error) {
	rows, err := s.pool.Query(ctx, selectColumns+` ORDER BY recorded_at, insert_seq, event_id`)
	if err != nil {
		return nil, fmt.Errorf("read all events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *PostgresStore) StreamVersion(ctx context.Context, aggregateID domain.ID) (int, error) {
	var version int
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(aggregate_version), 0) FROM clinical.events WHERE aggregate_id = $1`,
		aggregateID,
	).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("stream version: %w", err)
	}
	return version, nil
}

func (s *PostgresStore) EventExists(ctx context.Context, eventID domain.ID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM clinical.events WHERE event_id = $1)`, eventID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("event exists: %w", err)
	}
	return exists, nil
}

const selectColumns = `
	SELECT event_id, event_type, schema_version,
		aggregate_id, aggregate_type, aggregate_version,
		occurred_at, performed_by, performer_role,
		organization_id, facility_id, device_id,
		connection_status, correlation_id, causation_id,
		recorded_at, visibility, payload
	FROM clinical.events`

func readByEventID(ctx context.Context, tx pgx.Tx, eventID domain.ID) (domain.DomainEvent, bool, error) {
	row := tx.QueryRow(ctx, selectColumns+` WHERE event_id = $1`, eventID)
	event, err := scanOne(row)
	if err == pgx.ErrNoRows {
		return domain.DomainEvent{}, false, nil
	}
	if err != nil {
		return domain.DomainEvent{}, false, fmt.Errorf("read by event id: %w", err)
	}
	return event, true, nil
}

func scanOne(row pgx.Row) (domain.DomainEvent, error) {
	var (
		m           domain.EventMetadata
		connStatus  string
		recordedAt  time.Time
		payloadJSON []byte
	)
	err := row.Scan(
		&m.EventID, &m.EventType, &m.SchemaVersion,
		&m.AggregateID, &m.AggregateType, &m.AggregateVersion,
		&m.OccurredAt, &m.PerformedBy, &m.PerformerRole,
		&m.OrganizationID, &m.FacilityID, &m.DeviceID,
		&connStatus, &m.CorrelationID, &m.CausationID,
		&recordedAt, &m.Visibility, &payloadJSON,
	)
	if err != nil {
		return domain.DomainEvent{}, err
	}
	m.ConnectionStatus = domain.ConnectionStatus(connStatus)
	m.RecordedAt = &recordedAt

	var payload domain.Payload
	if err := json.Unmarshal(payloadJSON, &payload); err != nil {
		return domain.DomainEvent{}, fmt.Errorf("unmarshal payload: %w", err)
	}

	return domain.DomainEvent{Metadata: m, Payload: payload}, nil
}

func scanEvents(rows pgx.Rows) ([]domain.DomainEvent, error) {
	var events []domain.DomainEvent
	for rows.Next() {
		event, err := scanOne(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

var _ domain.EventStore = (*PostgresStore)(nil)
