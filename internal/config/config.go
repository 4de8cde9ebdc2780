// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Backend selector values accepted at the API boundary.
const (
	BackendSimulator = "simulator"
	BackendRemote    = "remote"
)

// Config holds application configuration
type Config struct {
	DataDir             string // Base directory for databases (always absolute)
	Port                int
	LogLevel            string
	DevMode             bool
	DefaultBackend      string // "simulator" or "remote"
	EvaluatorServiceURL string // Remote evaluator microservice (used by the "remote" backend)
	MaxQubits           int    // Exact-simulation ceiling; requests beyond it are rejected
	SimulatorSeed       int64  // 0 means time-seeded sampling
	RunRetentionDays    int    // Runs older than this are pruned by the retention job
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("QAOA_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:             absDataDir,
		Port:                getEnvAsInt("QAOA_PORT", 8000),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		DevMode:             getEnvAsBool("DEV_MODE", false),
		DefaultBackend:      getEnv("QAOA_BACKEND", BackendSimulator),
		EvaluatorServiceURL: getEnv("EVALUATOR_SERVICE_URL", "http://localhost:9000"),
		MaxQubits:           getEnvAsInt("QAOA_MAX_QUBITS", 20),
		SimulatorSeed:       int64(getEnvAsInt("QAOA_SIMULATOR_SEED", 0)),
		RunRetentionDays:    getEnvAsInt("QAOA_RUN_RETENTION_DAYS", 30),
	}

	if cfg.DefaultBackend != BackendSimulator && cfg.DefaultBackend != BackendRemote {
		return nil, fmt.Errorf("unsupported backend %q (must be %q or %q)",
			cfg.DefaultBackend, BackendSimulator, BackendRemote)
	}

	if cfg.MaxQubits < 1 {
		return nil, fmt.Errorf("QAOA_MAX_QUBITS must be positive, got %d", cfg.MaxQubits)
	}

	return cfg, nil
}

// getEnv retrieves an environment variable value, returning a fallback if the
// variable is not set or is empty.
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
