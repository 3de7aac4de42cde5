package tracestore

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/vk/sotgo/internal/controller"
)

// Defaults of the asynchronous writer Open puts in front of SQL stores.
const (
	DefaultQueue        = 1024
	DefaultWriteTimeout = time.Second
)

// ErrClosed is returned when recording into a closed store.
var ErrClosed = errors.New("trace store closed")

// Async records into another store from a background writer, so Record
// never waits on the backend. Reports arriving while the queue is full are
// dropped and counted.
type Async struct {
	store   Store
	timeout time.Duration
	queue   chan *controller.Report
	done    chan struct{}
	dropped atomic.Int64

	// mu guards closed against sends racing with Close.
	mu     sync.RWMutex
	closed bool

	errMu   sync.Mutex
	lastErr error
}

// NewAsync starts the writer of store. Every write is given timeout to
// complete.
func NewAsync(store Store, queue int, timeout time.Duration) *Async {
	if queue <= 0 {
		queue = DefaultQueue
	}
	if timeout <= 0 {
		timeout = DefaultWriteTimeout
	}
	a := &Async{
		store:   store,
		timeout: timeout,
		queue:   make(chan *controller.Report, queue),
		done:    make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Async) run() {
	defer close(a.done)
	for r := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		err := a.store.Record(ctx, r)
		cancel()
		if err != nil {
			a.errMu.Lock()
			a.lastErr = err
			a.errMu.Unlock()
		}
	}
}

// Record queues r for the writer. The error is the last write failure
// since the previous call, if any.
func (a *Async) Record(_ context.Context, r *controller.Report) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}
	select {
	case a.queue <- r:
	default:
		a.dropped.Add(1)
	}
	return a.takeErr()
}

func (a *Async) takeErr() error {
	a.errMu.Lock()
	defer a.errMu.Unlock()
	err := a.lastErr
	a.lastErr = nil
	return err
}

// Dropped returns the number of reports lost to a full queue.
func (a *Async) Dropped() int64 { return a.dropped.Load() }

// List reads from the underlying store. Queued reports are not visible yet.
func (a *Async) List(ctx context.Context, runID uuid.UUID, limit int) ([]Record, error) {
	return a.store.List(ctx, runID, limit)
}

func (a *Async) Summary(ctx context.Context, runID uuid.UUID) (Summary, error) {
	return a.store.Summary(ctx, runID)
}

// Close waits for the queued reports to be written, then closes the
// underlying store. Calling it again does nothing.
func (a *Async) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()

	<-a.done
	return errors.Join(a.takeErr(), a.store.Close())
}
