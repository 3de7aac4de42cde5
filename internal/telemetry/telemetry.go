// Package telemetry publishes cycle reports outside of the control loop.
package telemetry

import (
	"context"
	"errors"

	"github.com/vk/sotgo/internal/controller"
	"github.com/vk/sotgo/internal/ctxlog"
)

// Publisher receives every cycle report. Publish is called from the loop
// goroutine and must not block on the network.
type Publisher interface {
	Publish(ctx context.Context, r *controller.Report) error
	Close() error
}

// Log writes reports to the context logger: successful cycles at debug,
// failed ones at error.
type Log struct{}

func (Log) Publish(ctx context.Context, r *controller.Report) error {
	logger := ctxlog.FromContext(ctxlog.With(ctx, "run_id", r.RunID, "time", r.Time))
	if r.Failed() {
		logger.Error("Control cycle failed.", "error", r.Err, "duration", r.Duration)
		return nil
	}
	logger.Debug("Control cycle complete.", "tasks", len(r.Tasks), "duration", r.Duration, "dispatched", r.Dispatched)
	return nil
}

func (Log) Close() error { return nil }

// Multi fans a report out to several publishers.
type Multi []Publisher

// Publish forwards r to every publisher, even when one of them fails.
func (m Multi) Publish(ctx context.Context, r *controller.Report) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
