package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/vk/sotgo/internal/config"
	"github.com/vk/sotgo/internal/controller"
	"github.com/vk/sotgo/internal/ctxlog"
	"github.com/vk/sotgo/internal/gain"
	"github.com/vk/sotgo/internal/model"
	"github.com/vk/sotgo/internal/pool"
	"github.com/vk/sotgo/internal/task"
	"github.com/vk/sotgo/internal/telemetry"
	"github.com/vk/sotgo/internal/tracestore"
)

// metaTask is the part of the metatask bundles the application drives.
type metaTask interface {
	Name() string
	Task() *task.Task
	Gain() *gain.Adaptive
	Keep() error
	Close() error
}

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
	model  *config.Model

	robot      *model.Linear
	pool       *pool.Pool
	controller *controller.Controller

	publisher telemetry.Publisher
	traces    tracestore.Store
	stats     *cycleStats

	// mu guards metatasks, which HTTP handlers read and deferred
	// mutations change.
	mu        sync.RWMutex
	metatasks map[string]metaTask

	httpServer *http.Server
}

// NewApp loads the controller configuration and assembles the task stack.
// The returned App owns the telemetry connection and the trace store until
// Run returns or Close is called.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader) (*App, error) {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	cfgModel, err := loader.Load(ctx, appConfig.ControllerPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if appConfig.Period > 0 {
		cfgModel.Controller.Period = appConfig.Period
	}
	logger.Debug("Configuration loaded.", "tasks", len(cfgModel.Tasks), "period", cfgModel.Controller.Period)

	a := &App{
		outW:      outW,
		logger:    logger,
		config:    appConfig,
		model:     cfgModel,
		pool:      pool.New(),
		stats:     newCycleStats(cfgModel.Controller.Period),
		metatasks: make(map[string]metaTask),
	}
	if err := a.assemble(); err != nil {
		return nil, fmt.Errorf("failed to assemble controller: %w", err)
	}
	logger.Info("Controller assembled.", "run_id", a.controller.RunID(), "stack", a.controller.Tasks())

	if err := a.openOutputs(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) openOutputs(ctx context.Context) error {
	traces, err := tracestore.Open(ctx, a.config.TraceBackend, a.config.TraceDSN)
	if err != nil {
		return fmt.Errorf("failed to open trace store: %w", err)
	}
	a.traces = traces

	publishers := telemetry.Multi{telemetry.Log{}}
	if a.config.TelemetryURL != "" {
		sio, err := telemetry.DialSocketIO(ctx, telemetry.SocketIOConfig{URL: a.config.TelemetryURL})
		if err != nil {
			_ = traces.Close()
			return fmt.Errorf("failed to connect telemetry: %w", err)
		}
		publishers = append(publishers, sio)
	}
	a.publisher = publishers
	return nil
}

// Close releases the telemetry connection and the trace store.
func (a *App) Close() error {
	var errs []error
	if a.publisher != nil {
		errs = append(errs, a.publisher.Close())
	}
	if a.traces != nil {
		errs = append(errs, a.traces.Close())
	}
	return errors.Join(errs...)
}

// Controller returns the application's controller. This is primarily for testing.
func (a *App) Controller() *controller.Controller {
	return a.controller
}

// Traces returns the trace store the cycles are recorded into.
func (a *App) Traces() tracestore.Store {
	return a.traces
}

func (a *App) metaTask(name string) (metaTask, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	mt, ok := a.metatasks[name]
	return mt, ok
}
