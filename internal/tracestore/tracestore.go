// Package tracestore records cycle reports for offline inspection.
//
// Two backends are available: an in-memory ring used by default and in
// tests, and a SQL store reached through sqlx that runs on sqlite or
// postgres. The control loop never writes to SQL directly; Async queues
// the reports for a background writer.
package tracestore

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/vk/sotgo/internal/controller"
)

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Record is the persisted form of one cycle.
type Record struct {
	RunID      string  `db:"run_id" json:"run_id"`
	Cycle      int64   `db:"cycle" json:"cycle"`
	StartedNS  int64   `db:"started_ns" json:"started_ns"`
	DurationNS int64   `db:"duration_ns" json:"duration_ns"`
	Tasks      int     `db:"tasks" json:"tasks"`
	ErrorNorm  float64 `db:"error_norm" json:"error_norm"`
	Dispatched bool    `db:"dispatched" json:"dispatched"`
	Error      string  `db:"error_message" json:"error,omitempty"`
}

// Summary counts the cycles recorded for a run.
type Summary struct {
	Cycles   int `db:"cycles" json:"cycles"`
	Failures int `db:"failures" json:"failures"`
}

// Store persists cycle reports.
type Store interface {
	Record(ctx context.Context, r *controller.Report) error
	// List returns the last limit records of a run, oldest first.
	List(ctx context.Context, runID uuid.UUID, limit int) ([]Record, error)
	Summary(ctx context.Context, runID uuid.UUID) (Summary, error)
	Close() error
}

// Open creates the store of the named backend. dsn is ignored by the
// memory backend, which keeps the last DefaultCapacity records. SQL stores
// are written through an Async writer.
func Open(ctx context.Context, backend, dsn string) (Store, error) {
	switch backend {
	case "", BackendMemory:
		return NewMemory(DefaultCapacity), nil
	case BackendSQLite, BackendPostgres:
		if dsn == "" {
			return nil, fmt.Errorf("trace backend %q requires a DSN", backend)
		}
		s, err := OpenSQL(ctx, backend, dsn)
		if err != nil {
			return nil, err
		}
		return NewAsync(s, DefaultQueue, DefaultWriteTimeout), nil
	default:
		return nil, fmt.Errorf("unknown trace backend %q, expected %q, %q or %q", backend, BackendMemory, BackendSQLite, BackendPostgres)
	}
}

// NewRecord flattens a report. ErrorNorm is the norm of all task errors
// stacked together.
func NewRecord(r *controller.Report) Record {
	var sq float64
	for _, t := range r.Tasks {
		sq += t.ErrorNorm * t.ErrorNorm
	}
	return Record{
		RunID:      r.RunID.String(),
		Cycle:      int64(r.Time),
		StartedNS:  r.Started.UnixNano(),
		DurationNS: int64(r.Duration),
		Tasks:      len(r.Tasks),
		ErrorNorm:  math.Sqrt(sq),
		Dispatched: r.Dispatched,
		Error:      r.ErrorMessage(),
	}
}

// Started returns the wall-clock start of the cycle.
func (r Record) Started() time.Time { return time.Unix(0, r.StartedNS) }
