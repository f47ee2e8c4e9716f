package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/HollowDragonX/clinicforge/internal/application"
	"github.com/HollowDragonX/clinicforge/internal/application/projections"
	"github.com/HollowDragonX/clinicforge/internal/domain"
	"github.com/HollowDragonX/clinicforge/internal/infrastructure"
	"github.com/HollowDragonX/clinicforge/internal/ingest/heliant"
	"github.com/HollowDragonX/clinicforge/internal/shared/auth"
	"github.com/HollowDragonX/clinicforge/internal/shared/config"
	"github.com/HollowDragonX/clinicforge/internal/shared/database"
	apperrors "github.com/HollowDragonX/clinicforge/internal/shared/errors"
	"github.com/HollowDragonX/clinicforge/internal/shared/metrics"
	secmiddleware "github.com/HollowDragonX/clinicforge/internal/shared/middleware"
)

// App holds the wiring a running clinic-engine node needs: the event
// store every command handler shares, the
// dispatcher events flow through to reach projections, and the two
// gateways external callers actually talk to.
type App struct {
	Config     *config.Config
	Store      domain.EventStore
	DB         *database.DB
	Dispatcher *application.EventDispatcher
	Commands   *application.CommandGateway
	Queries    *application.QueryGateway
	Heliant    *heliant.Adapter
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	app := &App{Config: cfg}

	// The durable Postgres store is preferred; absent a reachable
	// database this node falls back to the in-memory store, the same
	// one its own tests run against. A single offline device can run
	// indefinitely on the in-memory store and only needs Postgres (or
	// another peer) to sync with the rest of the world.
	db, err := database.New(ctx, cfg.Store)
	if err != nil {
		fmt.Printf("Warning: Postgres not available: %v\n", err)
		fmt.Println("Running on the in-memory event store...")
		app.Store = infrastructure.NewMemoryStore()
	} else {
		app.DB = db
		defer db.Close()
		app.Store = infrastructure.NewPostgresStore(db.Pool)
		fmt.Println("Event store: Postgres")
	}

	app.Dispatcher = application.NewEventDispatcher()

	patientSummary := projections.NewPatientSummaryProjection()
	for _, eventType := range []string{
		domain.EventDiagnosisConfirmed,
		domain.EventTreatmentStarted,
		domain.EventTreatmentStopped,
		domain.EventVitalSignsRecorded,
	} {
		app.Dispatcher.Subscribe(eventType, func(e domain.DomainEvent) error {
			patientSummary.Handle(e)
			return nil
		})
	}

	// Bootstrap every projection from recorded history before serving
	// any request, so a freshly started node doesn't answer queries
	// from an empty state while waiting for new events to arrive.
	history, err := app.Store.ReadAllEvents(ctx)
	if err != nil {
		fmt.Printf("Warning: failed to read event history for projection bootstrap: %v\n", err)
	} else {
		patientSummary.RebuildFrom(history)
	}

	encounterHandler := application.NewCommandHandler(app.Store, app.Dispatcher, domain.EncounterAggregate{})
	treatmentHandler := application.NewCommandHandler(app.Store, app.Dispatcher, domain.TreatmentAggregate{})
	observationHandler := application.NewCommandHandler(app.Store, app.Dispatcher, domain.ObservationAggregate{})
	diagnosisHandler := application.NewDiagnosisCommandHandler(app.Store, app.Dispatcher, app.Store)

	app.Commands = application.NewCommandGateway()
	application.RegisterDefaultCommands(app.Commands, diagnosisHandler, encounterHandler, treatmentHandler, observationHandler)

	app.Queries = application.NewQueryGateway()
	app.Queries.Register("GetPatientSummary", patientSummary, projections.MapPatientSummary)

	// The Heliant ingest adapter is optional: a node with no legacy
	// hospital system to poll runs the command/query gateways alone.
	if cfg.Heliant.Password != "" {
		heliantCfg := heliant.DefaultHeliantConfig()
		heliantCfg.Host = cfg.Heliant.Host
		heliantCfg.Port = cfg.Heliant.Port
		heliantCfg.User = cfg.Heliant.User
		heliantCfg.Password = cfg.Heliant.Password
		heliantCfg.Database = cfg.Heliant.Database
		heliantCfg.SSLMode = cfg.Heliant.SSLMode
		heliantCfg.PollInterval = time.Duration(cfg.Heliant.PollInterval) * time.Second
		heliantCfg.PatientTable = cfg.Heliant.PatientTable
		heliantCfg.HospitalizationTable = cfg.Heliant.HospitalizationTable
		heliantCfg.LabResultTable = cfg.Heliant.LabResultTable
		heliantCfg.PrescriptionTable = cfg.Heliant.PrescriptionTable
		heliantCfg.DiagnosisTable = cfg.Heliant.DiagnosisTable
		heliantCfg.OrganizationID = domain.NewDeterministicID("org", cfg.Heliant.Database)
		heliantCfg.FacilityID = domain.NewDeterministicID("facility", cfg.Heliant.Database)
		heliantCfg.DeviceID = cfg.Heliant.Database

		adapter, err := heliant.New(heliantCfg, app.Commands)
		if err != nil {
			fmt.Printf("Warning: Heliant adapter failed to initialize: %v\n", err)
		} else {
			app.Heliant = adapter
			if err := adapter.Start(ctx); err != nil {
				fmt.Printf("Warning: Heliant adapter failed to start: %v\n", err)
			} else {
				fmt.Printf("Heliant ingest adapter polling %s@%s:%d\n", cfg.Heliant.Database, cfg.Heliant.Host, cfg.Heliant.Port)
			}
		}
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(secmiddleware.SecurityHeaders)
	r.Use(secmiddleware.InputSanitizer)
	r.Use(metrics.Middleware)
	r.Use(secmiddleware.CORS(secmiddleware.DefaultCORSConfig()))

	r.Get("/health", healthHandler(app))
	r.Get("/ready", readyHandler(app))
	r.Handle("/metrics", metrics.Handler())
	r.Get("/", infoHandler)

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Server.RequireAuth {
			r.Use(auth.Middleware(cfg.Auth))
		}
		r.Post("/commands", commandHandler(app))
		r.Post("/queries", queryHandler(app))
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan bool)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		fmt.Println("\nShutting down server...")

		if app.Heliant != nil {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := app.Heliant.Stop(stopCtx); err != nil {
				fmt.Printf("Heliant adapter shutdown error: %v\n", err)
			}
			cancel()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Server shutdown error: %v\n", err)
		}
		close(done)
	}()

	fmt.Println("============================================")
	fmt.Println("Clinical Record Engine")
	fmt.Println("============================================")
	fmt.Printf("Environment: %s\n", cfg.Server.Env)
	fmt.Printf("Server:      http://localhost:%d\n", cfg.Server.Port)
	fmt.Printf("Commands:    http://localhost:%d/api/v1/commands\n", cfg.Server.Port)
	fmt.Printf("Queries:     http://localhost:%d/api/v1/queries\n", cfg.Server.Port)
	fmt.Printf("Health:      http://localhost:%d/health\n", cfg.Server.Port)
	fmt.Println("============================================")

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}

	<-done
	fmt.Println("Server stopped")
}

func infoHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"name":    "Clinical Record Engine",
		"version": "0.1.0",
		"docs":    "/api/v1",
	})
}

func healthHandler(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	}
}

func readyHandler(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{"server": "ready"}

		if app.DB != nil {
			if err := app.DB.Health(r.Context()); err != nil {
				checks["postgres"] = "not ready: " + err.Error()
			} else {
				checks["postgres"] = "ready"
			}
		} else {
			checks["postgres"] = "not configured"
		}

		if app.Heliant != nil {
			if err := app.Heliant.Health(r.Context()); err != nil {
				checks["heliant"] = "not ready: " + err.Error()
			} else {
				checks["heliant"] = "ready"
			}
		} else {
			checks["heliant"] = "not configured"
		}

		allReady := true
		for _, status := range checks {
			if status != "ready" && status != "not configured" {
				allReady = false
				break
			}
		}

		status := http.StatusOK
		if !allReady {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"status": map[bool]string{true: "ready", false: "not ready"}[allReady],
			"checks": checks,
		})
	}
}

// commandHandler decodes a raw request envelope and routes it through
// the command gateway unchanged — the gateway alone decides what is
// valid.
func commandHandler(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var request map[string]any
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			writeAppError(w, apperrors.BadRequest("malformed JSON body"))
			return
		}

		result := app.Commands.Handle(r.Context(), request)
		status := http.StatusOK
		if !result.Success {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, result)
	}
}

func queryHandler(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var request map[string]any
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			writeAppError(w, apperrors.BadRequest("malformed JSON body"))
			return
		}

		result := app.Queries.Handle(request)
		status := http.StatusOK
		if !result.Success {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, result)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeAppError translates an *errors.AppError raised at the HTTP
// boundary (malformed requests, not domain rejections — those already
// have their own CommandResult/QueryResult shape) into its declared
// status code and body.
func writeAppError(w http.ResponseWriter, err *apperrors.AppError) {
	writeJSON(w, err.HTTPStatus, err)
}
