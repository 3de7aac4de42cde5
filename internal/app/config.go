package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/vk/sotgo/internal/tracestore"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ControllerPath string // hcl file or directory

	LogFormat       string
	LogLevel        string
	HealthcheckPort int

	// Cycles bounds the run; zero runs until the context is cancelled.
	Cycles int
	// Period overrides the period of the controller file when positive.
	Period time.Duration

	TelemetryURL string
	TraceBackend string
	TraceDSN     string
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ControllerPath == "" {
		return nil, errors.New("ControllerPath is a required configuration field and cannot be empty")
	}
	if cfg.Cycles < 0 {
		return nil, fmt.Errorf("cycles must not be negative, got %d", cfg.Cycles)
	}
	if cfg.Period < 0 {
		return nil, fmt.Errorf("period must not be negative, got %s", cfg.Period)
	}
	switch cfg.TraceBackend {
	case "":
		cfg.TraceBackend = tracestore.BackendMemory
	case tracestore.BackendMemory, tracestore.BackendSQLite, tracestore.BackendPostgres:
	default:
		return nil, fmt.Errorf("unknown trace backend %q", cfg.TraceBackend)
	}
	if cfg.TraceBackend != tracestore.BackendMemory && cfg.TraceDSN == "" {
		return nil, fmt.Errorf("trace backend %q requires a DSN", cfg.TraceBackend)
	}
	return &cfg, nil
}
