package tracestore

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/vk/sotgo/internal/controller"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know.
	sqlx.BindDriver(BackendSQLite, sqlx.QUESTION)
}

const schema = `
CREATE TABLE IF NOT EXISTS cycle_traces (
	run_id        TEXT             NOT NULL,
	cycle         BIGINT           NOT NULL,
	started_ns    BIGINT           NOT NULL,
	duration_ns   BIGINT           NOT NULL,
	tasks         INTEGER          NOT NULL,
	error_norm    DOUBLE PRECISION NOT NULL,
	dispatched    BOOLEAN          NOT NULL,
	error_message TEXT             NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, cycle)
)`

// SQL stores records in a cycle_traces table.
type SQL struct {
	db *sqlx.DB
}

// OpenSQL connects with the given driver, checks the connection and
// creates the table when missing.
func OpenSQL(ctx context.Context, driver, dsn string) (*SQL, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s trace store: %w", driver, err)
	}
	if driver == BackendSQLite {
		// An in-memory sqlite database lives and dies with its connection.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to %s trace store: %w", driver, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating trace table: %w", err)
	}
	return &SQL{db: db}, nil
}

func (s *SQL) Record(ctx context.Context, r *controller.Report) error {
	rec := NewRecord(r)
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO cycle_traces (run_id, cycle, started_ns, duration_ns, tasks, error_norm, dispatched, error_message)
		VALUES (:run_id, :cycle, :started_ns, :duration_ns, :tasks, :error_norm, :dispatched, :error_message)
	`, rec)
	if err != nil {
		return fmt.Errorf("recording cycle %d: %w", rec.Cycle, err)
	}
	return nil
}

func (s *SQL) List(ctx context.Context, runID uuid.UUID, limit int) ([]Record, error) {
	query := `
		SELECT run_id, cycle, started_ns, duration_ns, tasks, error_norm, dispatched, error_message
		FROM cycle_traces
		WHERE run_id = ?
		ORDER BY cycle DESC`
	args := []any{runID.String()}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var out []Record
	if err := s.db.SelectContext(ctx, &out, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("listing cycles of run %s: %w", runID, err)
	}
	slices.Reverse(out)
	return out, nil
}

func (s *SQL) Summary(ctx context.Context, runID uuid.UUID) (Summary, error) {
	var sum Summary
	err := s.db.GetContext(ctx, &sum, s.db.Rebind(`
		SELECT COUNT(*) AS cycles,
		       COALESCE(SUM(CASE WHEN error_message <> '' THEN 1 ELSE 0 END), 0) AS failures
		FROM cycle_traces
		WHERE run_id = ?
	`), runID.String())
	if err != nil {
		return Summary{}, fmt.Errorf("summarizing run %s: %w", runID, err)
	}
	return sum, nil
}

func (s *SQL) Close() error {
	return s.db.Close()
}
