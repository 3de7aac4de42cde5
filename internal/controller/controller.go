package controller

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/vk/sotgo/internal/ctxlog"
	"github.com/vk/sotgo/internal/linalg"
	"github.com/vk/sotgo/internal/model"
	"github.com/vk/sotgo/internal/pool"
	"github.com/vk/sotgo/internal/signal"
	"github.com/vk/sotgo/internal/solver"
	"github.com/vk/sotgo/internal/task"
	"gonum.org/v1/gonum/mat"
)

// ErrStackBusy is returned by stack mutations attempted while the task
// triples are being pulled.
var ErrStackBusy = errors.New("task stack is busy: mutation rejected during recomputation")

// Dispatcher sends a joint command to the robot.
type Dispatcher interface {
	Dispatch(ctx context.Context, t signal.Time, command *mat.VecDense) error
}

// Mutation is a deferred change applied on the loop between cycles.
type Mutation func(c *Controller) error

type pending struct {
	fn   Mutation
	done chan error
}

// Config holds the collaborators of a controller.
type Config struct {
	Model      model.Model
	Solver     solver.Solver
	Dispatcher Dispatcher
	// Pool, when set, is rendered into the graph of each snapshot.
	Pool *pool.Pool
	// Start is the time of the cycle before the first one.
	Start signal.Time
}

// Controller owns the task stack and runs the cycles.
type Controller struct {
	model      model.Model
	solver     solver.Solver
	dispatcher Dispatcher
	pool       *pool.Pool
	runID      uuid.UUID

	stack []*task.Task
	time  signal.Time
	busy  atomic.Bool
	dirty bool

	mu       sync.Mutex
	deferred []pending
	snapshot Snapshot
}

// New creates a controller with an empty stack.
func New(cfg Config) (*Controller, error) {
	if cfg.Model == nil {
		return nil, errors.New("controller: a model is required")
	}
	if cfg.Solver == nil {
		return nil, errors.New("controller: a solver is required")
	}
	if cfg.Dispatcher == nil {
		return nil, errors.New("controller: a dispatcher is required")
	}
	c := &Controller{
		model:      cfg.Model,
		solver:     cfg.Solver,
		dispatcher: cfg.Dispatcher,
		pool:       cfg.Pool,
		runID:      uuid.New(),
		time:       cfg.Start,
		dirty:      true,
	}
	c.snapshot = Snapshot{RunID: c.runID, Time: c.time}
	return c, nil
}

// RunID identifies the session in reports.
func (c *Controller) RunID() uuid.UUID { return c.runID }

// Time is the time of the last cycle.
func (c *Controller) Time() signal.Time { return c.time }

// Model returns the model the controller advances.
func (c *Controller) Model() model.Model { return c.model }

// Busy reports whether the task triples are being pulled.
func (c *Controller) Busy() bool { return c.busy.Load() }

// Defer queues fn to run on the loop at the start of the next cycle. The
// returned channel receives its result.
func (c *Controller) Defer(fn Mutation) <-chan error {
	done := make(chan error, 1)
	c.mu.Lock()
	c.deferred = append(c.deferred, pending{fn: fn, done: done})
	c.mu.Unlock()
	return done
}

func (c *Controller) applyDeferred(ctx context.Context) {
	c.mu.Lock()
	queue := c.deferred
	c.deferred = nil
	c.mu.Unlock()

	if len(queue) == 0 {
		return
	}
	c.dirty = true
	logger := ctxlog.FromContext(ctx)
	for _, p := range queue {
		err := p.fn(c)
		if err != nil {
			logger.Warn("Deferred mutation failed.", "time", c.time, "error", err)
		}
		p.done <- err
	}
}

// Cycle runs one control cycle. The report is never nil; on failure it
// carries the error, which is also returned, and no command was sent.
func (c *Controller) Cycle(ctx context.Context) (*Report, error) {
	c.applyDeferred(ctx)

	c.time++
	t := c.time
	report := &Report{RunID: c.runID, Time: t, Started: time.Now()}
	defer func() {
		report.Duration = time.Since(report.Started)
		c.publish(report)
	}()

	c.model.Advance(t)
	levels, err := c.pull(t, report)
	if err != nil {
		report.Err = err
		return report, err
	}

	cmd, err := c.solver.Solve(levels)
	if err != nil {
		report.Err = fmt.Errorf("solving at t=%d: %w", t, err)
		return report, report.Err
	}
	if err := c.dispatcher.Dispatch(ctx, t, cmd); err != nil {
		report.Err = fmt.Errorf("dispatching at t=%d: %w", t, err)
		return report, report.Err
	}
	report.Command = append([]float64(nil), cmd.RawVector().Data...)
	report.Dispatched = true
	return report, nil
}

// pull reads the triple of every stacked task at t with the guard raised.
func (c *Controller) pull(t signal.Time, report *Report) ([]solver.Level, error) {
	c.busy.Store(true)
	defer c.busy.Store(false)

	levels := make([]solver.Level, 0, len(c.stack))
	for _, tk := range c.stack {
		e, err := tk.ErrorOut().Get(t)
		if err != nil {
			return nil, fmt.Errorf("task %s: %w", tk.Name(), err)
		}
		j, err := tk.JacobianOut().Get(t)
		if err != nil {
			return nil, fmt.Errorf("task %s: %w", tk.Name(), err)
		}
		g, err := tk.ControlGain().Get(t)
		if err != nil {
			return nil, fmt.Errorf("task %s: %w", tk.Name(), err)
		}
		levels = append(levels, solver.Level{Name: tk.Name(), Error: e, Jacobian: j, Gain: g})
		report.Tasks = append(report.Tasks, TaskReport{
			Name:      tk.Name(),
			Rows:      e.Len(),
			ErrorNorm: linalg.Norm(e),
			Gain:      g,
		})
	}
	return levels, nil
}

func (c *Controller) publish(report *Report) {
	var graph string
	if c.dirty && c.pool != nil {
		var buf bytes.Buffer
		if err := c.pool.WriteGraph(&buf, "sot"); err == nil {
			graph = buf.String()
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot.Time = report.Time
	c.snapshot.Stack = c.names()
	c.snapshot.Last = report
	if c.dirty && c.pool != nil {
		c.snapshot.Graph = graph
	}
	c.dirty = false
}

// Snapshot returns a copy of the state published by the last cycle.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.snapshot
	s.Stack = append([]string(nil), c.snapshot.Stack...)
	return s
}
