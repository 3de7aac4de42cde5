package app

import (
	"context"
	"time"

	"github.com/vk/sotgo/internal/controller"
	"github.com/vk/sotgo/internal/ctxlog"
)

// Run drives the control loop until the configured number of cycles has
// run or ctx is cancelled. A failed cycle is reported and the loop goes
// on; only startup problems make Run return an error.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")
	defer func() {
		if err := a.Close(); err != nil {
			a.logger.Error("Failed to close outputs.", "error", err)
		}
	}()

	if a.config.HealthcheckPort > 0 {
		if err := a.startServer(ctx, a.config.HealthcheckPort); err != nil {
			return err
		}
		defer a.closeServer(ctx)
	}

	period := a.model.Controller.Period
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	a.logger.Info("Control loop starting.", "period", period, "cycles", a.config.Cycles, "stack", a.controller.Tasks())
	for n := 0; a.config.Cycles == 0 || n < a.config.Cycles; n++ {
		select {
		case <-ctx.Done():
			a.logger.Info("Control loop cancelled.", "cycles", n)
			a.logSummary()
			return nil
		case <-ticker.C:
		}
		report, _ := a.controller.Cycle(ctx)
		a.record(ctx, report)
	}

	a.logSummary()
	a.logger.Debug("App.Run method finished.")
	return nil
}

// record hands a report to the statistics, the publishers and the trace
// store. Output failures are logged and never stop the loop.
func (a *App) record(ctx context.Context, report *controller.Report) {
	a.stats.add(report.Duration, report.Failed())
	if err := a.publisher.Publish(ctx, report); err != nil {
		a.logger.Warn("Failed to publish cycle report.", "time", report.Time, "error", err)
	}
	if err := a.traces.Record(ctx, report); err != nil {
		a.logger.Warn("Failed to record cycle trace.", "time", report.Time, "error", err)
	}
}

func (a *App) logSummary() {
	s := a.stats.summary()
	a.logger.Info("Control loop finished.",
		"cycles", s.Cycles,
		"failures", s.Failures,
		"deadline_misses", s.DeadlineMisses,
		"mean_us", s.MeanUS,
		"p95_us", s.P95US,
		"max_us", s.MaxUS,
	)
	if d, ok := a.traces.(interface{ Dropped() int64 }); ok && d.Dropped() > 0 {
		a.logger.Warn("Cycle traces were dropped by a slow trace store.", "dropped", d.Dropped())
	}
}
