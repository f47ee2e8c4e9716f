package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config aggregates every environment-driven setting the clinical engine
// and its outer adapters need.
type Config struct {
	Server  ServerConfig
	Store   StoreConfig
	Auth    AuthConfig
	Heliant HeliantConfig
}

// ServerConfig configures the HTTP demo that wraps the command/query
// gateways.
type ServerConfig struct {
	Port        int
	Env         string
	RequireAuth bool
}

// StoreConfig configures the durable (PostgreSQL) event store adapter.
// The in-memory adapter needs no configuration.
type StoreConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

func (d StoreConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

// AuthConfig configures the JWT middleware on the HTTP demo.
type AuthConfig struct {
	JWTSecret string
}

// HeliantConfig configures the legacy hospital-information-system
// polling adapter.
type HeliantConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	PollInterval int // seconds

	PatientTable         string
	HospitalizationTable string
	LabResultTable       string
	PrescriptionTable    string
	DiagnosisTable       string
}

func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Port:        getEnvInt("SERVER_PORT", 8080),
			Env:         getEnv("ENV", "development"),
			RequireAuth: getEnvBool("REQUIRE_AUTH", getEnv("ENV", "development") == "production"),
		},
		Store: StoreConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "clinicengine"),
			Password: getEnv("DB_PASSWORD", "clinicengine"),
			Database: getEnv("DB_NAME", "clinicengine"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-in-prod"),
		},
		Heliant: HeliantConfig{
			Host:                 getEnv("HELIANT_HOST", "localhost"),
			Port:                 getEnvInt("HELIANT_PORT", 1433),
			User:                 getEnv("HELIANT_USER", "sa"),
			Password:             getEnv("HELIANT_PASSWORD", ""),
			Database:             getEnv("HELIANT_DATABASE", "heliant"),
			SSLMode:              getEnv("HELIANT_SSLMODE", "disable"),
			PollInterval:         getEnvInt("HELIANT_POLL_INTERVAL_SECONDS", 30),
			PatientTable:         getEnv("HELIANT_PATIENT_TABLE", "dbo.Patients"),
			HospitalizationTable: getEnv("HELIANT_HOSPITALIZATION_TABLE", "dbo.Hospitalizations"),
			LabResultTable:       getEnv("HELIANT_LAB_RESULT_TABLE", "dbo.LabResults"),
			PrescriptionTable:    getEnv("HELIANT_PRESCRIPTION_TABLE", "dbo.Prescriptions"),
			DiagnosisTable:       getEnv("HELIANT_DIAGNOSIS_TABLE", "dbo.Diagnoses"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
