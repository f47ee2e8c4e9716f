// Package ingest defines the outer adapter contract for legacy
// hospital-information-system connectors: each Source polls (or
// streams from) an external system and turns what it finds into
// Command Gateway requests, rather than exposing a read-model API of
// its own. It sits outside the domain/application/infrastructure/sync
// layering contract entirely: permitted to depend on both domain (to
// shape payloads) and application (to call the gateway).
package ingest

import (
	"context"
	"time"
)

// Source is the lifecycle and identity contract every legacy-system
// connector implements. It says nothing about what data a source
// carries — that is connector-specific — only how it starts, stops,
// and reports its own health and provenance.
type Source interface {
	SourceSystem() string
	SourceInstitution() string
	IsConnected() bool

	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Health(ctx context.Context) error
}

// Config holds the connection and polling settings common to every
// SQL-backed legacy source.
type Config struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string

	InstitutionCode string
	InstitutionName string

	PollInterval    time.Duration
	BatchSize       int
	RetryAttempts   int
	RetryDelay      time.Duration
	ConnectionRetry time.Duration
}

// DefaultConfig returns the settings a SQL Server-backed source starts
// from absent explicit configuration.
func DefaultConfig() Config {
	return Config{
		Port:            1433,
		SSLMode:         "disable",
		PollInterval:    30 * time.Second,
		BatchSize:       100,
		RetryAttempts:   3,
		RetryDelay:      5 * time.Second,
		ConnectionRetry: 30 * time.Second,
	}
}
