// Command server runs the QAOA optimization HTTP service.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aristath/qaoa/internal/config"
	"github.com/aristath/qaoa/internal/database"
	"github.com/aristath/qaoa/internal/events"
	"github.com/aristath/qaoa/internal/modules/qaoa"
	"github.com/aristath/qaoa/internal/modules/runs"
	"github.com/aristath/qaoa/internal/modules/simulator"
	"github.com/aristath/qaoa/internal/scheduler"
	"github.com/aristath/qaoa/internal/server"
	"github.com/aristath/qaoa/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Int("port", cfg.Port).
		Str("backend", cfg.DefaultBackend).
		Int("max_qubits", cfg.MaxQubits).
		Msg("Starting QAOA service")

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	// Run history database
	db, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "runs.db"),
		Profile: database.ProfileCache,
		Name:    "runs",
	})
	if err != nil {
		return fmt.Errorf("failed to open runs database: %w", err)
	}
	defer db.Close()

	runsRepo, err := runs.NewRepository(db.Conn(), log)
	if err != nil {
		return fmt.Errorf("failed to initialize runs repository: %w", err)
	}

	// Event bus for SSE streaming
	eventBus := events.NewBus()
	eventManager := events.NewManager(eventBus, log)

	// Backends
	local := simulator.New(simulator.Config{
		MaxQubits: cfg.MaxQubits,
		Seed:      cfg.SimulatorSeed,
	}, log)

	var remote *simulator.RemoteBackend
	if cfg.EvaluatorServiceURL != "" {
		remote = simulator.NewRemoteBackend(cfg.EvaluatorServiceURL, log)
	}

	service := qaoa.NewService(qaoa.ServiceConfig{
		Local:  local,
		Remote: remote,
		Runs:   runsRepo,
		Events: eventManager,
		Seed:   cfg.SimulatorSeed,
		Log:    log,
	})

	// Background jobs
	sched := scheduler.New(log)
	retention := time.Duration(cfg.RunRetentionDays) * 24 * time.Hour
	pruneJob := scheduler.NewPruneRunsJob(runsRepo, retention, log)
	if err := sched.AddJob("@daily", pruneJob); err != nil {
		return fmt.Errorf("failed to register prune job: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	srv := server.New(server.Config{
		Log:      log,
		Config:   cfg,
		Service:  service,
		RunsRepo: runsRepo,
		EventBus: eventBus,
	})

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	log.Info().Msg("Shutdown complete")
	return nil
}
