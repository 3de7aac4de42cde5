package tracestore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/sotgo/internal/controller"
	"github.com/vk/sotgo/internal/signal"
)

func report(run uuid.UUID, t signal.Time, err error) *controller.Report {
	return &controller.Report{
		RunID:    run,
		Time:     t,
		Started:  time.Unix(1700000000, int64(t)*int64(time.Millisecond)),
		Duration: 250 * time.Microsecond,
		Tasks: []controller.TaskReport{
			{Name: "taskWrist", Rows: 6, ErrorNorm: 3},
			{Name: "taskCom", Rows: 2, ErrorNorm: 4},
		},
		Dispatched: err == nil,
		Err:        err,
	}
}

func TestNewRecord(t *testing.T) {
	run := uuid.New()
	rec := NewRecord(report(run, 7, errors.New("task taskWrist: unset")))
	assert.Equal(t, run.String(), rec.RunID)
	assert.EqualValues(t, 7, rec.Cycle)
	assert.Equal(t, 2, rec.Tasks)
	assert.InDelta(t, 5, rec.ErrorNorm, 1e-12)
	assert.False(t, rec.Dispatched)
	assert.Equal(t, "task taskWrist: unset", rec.Error)
	assert.EqualValues(t, 250000, rec.DurationNS)
	assert.True(t, rec.Started().Equal(time.Unix(1700000000, 7*int64(time.Millisecond))))
}

// exercise runs the same scenario against any backend.
func exercise(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	run, other := uuid.New(), uuid.New()

	for i := signal.Time(1); i <= 5; i++ {
		var err error
		if i == 3 {
			err = errors.New("solver failed")
		}
		require.NoError(t, s.Record(ctx, report(run, i, err)))
	}
	require.NoError(t, s.Record(ctx, report(other, 1, nil)))

	all, err := s.List(ctx, run, 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i, rec := range all {
		assert.EqualValues(t, i+1, rec.Cycle, "records are listed oldest first")
	}
	assert.Equal(t, "solver failed", all[2].Error)
	assert.False(t, all[2].Dispatched)
	assert.True(t, all[3].Dispatched)

	last, err := s.List(ctx, run, 2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.EqualValues(t, 4, last[0].Cycle)
	assert.EqualValues(t, 5, last[1].Cycle)

	sum, err := s.Summary(ctx, run)
	require.NoError(t, err)
	assert.Equal(t, Summary{Cycles: 5, Failures: 1}, sum)

	none, err := s.Summary(ctx, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, Summary{}, none)

	empty, err := s.List(ctx, uuid.New(), 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemory(t *testing.T) {
	s := NewMemory(0)
	exercise(t, s)
	require.NoError(t, s.Close())
}

func TestMemory_Eviction(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(3)
	run, other := uuid.New(), uuid.New()

	cycles := func(recs []Record) []int64 {
		var out []int64
		for _, r := range recs {
			out = append(out, r.Cycle)
		}
		return out
	}

	for i := signal.Time(1); i <= 5; i++ {
		require.NoError(t, s.Record(ctx, report(run, i, nil)))
	}
	recs, err := s.List(ctx, run, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 4, 5}, cycles(recs))

	// Two more laps around the ring.
	for i := signal.Time(6); i <= 10; i++ {
		require.NoError(t, s.Record(ctx, report(run, i, nil)))
	}
	require.NoError(t, s.Record(ctx, report(other, 1, nil)))

	recs, err = s.List(ctx, run, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{9, 10}, cycles(recs))
	recs, err = s.List(ctx, run, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{10}, cycles(recs))
	recs, err = s.List(ctx, other, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, cycles(recs))

	sum, err := s.Summary(ctx, run)
	require.NoError(t, err)
	assert.Equal(t, 10, sum.Cycles, "totals survive eviction")
}

// gatedStore holds every write until release is closed.
type gatedStore struct {
	*Memory
	started chan struct{}
	release chan struct{}
}

func newGatedStore() *gatedStore {
	return &gatedStore{
		Memory:  NewMemory(0),
		started: make(chan struct{}, 16),
		release: make(chan struct{}),
	}
}

func (g *gatedStore) Record(ctx context.Context, r *controller.Report) error {
	g.started <- struct{}{}
	select {
	case <-g.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	return g.Memory.Record(ctx, r)
}

func TestAsync_DropsWhenFull(t *testing.T) {
	ctx := context.Background()
	inner := newGatedStore()
	s := NewAsync(inner, 1, time.Minute)
	run := uuid.New()

	require.NoError(t, s.Record(ctx, report(run, 1, nil)))
	<-inner.started // the writer now holds cycle 1

	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, s.Record(ctx, report(run, 2, nil)))
		assert.NoError(t, s.Record(ctx, report(run, 3, nil)))
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Record blocked on a busy backend")
	}
	assert.EqualValues(t, 1, s.Dropped())

	close(inner.release)
	require.NoError(t, s.Close())

	sum, err := inner.Summary(ctx, run)
	require.NoError(t, err)
	assert.Equal(t, Summary{Cycles: 2}, sum, "Close drains the queue")
	assert.ErrorIs(t, s.Record(ctx, report(run, 4, nil)), ErrClosed)
	assert.NoError(t, s.Close())
}

func TestAsync_WriteTimeout(t *testing.T) {
	ctx := context.Background()
	inner := newGatedStore()
	s := NewAsync(inner, 0, 10*time.Millisecond)

	require.NoError(t, s.Record(ctx, report(uuid.New(), 1, nil)))
	assert.ErrorIs(t, s.Close(), context.DeadlineExceeded)
}

func TestAsync_SQLite(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "traces.db")
	s, err := Open(ctx, BackendSQLite, dsn)
	require.NoError(t, err)
	require.IsType(t, &Async{}, s)

	run := uuid.New()
	for i := signal.Time(1); i <= 20; i++ {
		require.NoError(t, s.Record(ctx, report(run, i, nil)))
	}
	require.NoError(t, s.Close())

	db, err := OpenSQL(ctx, BackendSQLite, dsn)
	require.NoError(t, err)
	defer db.Close()
	sum, err := db.Summary(ctx, run)
	require.NoError(t, err)
	assert.Equal(t, Summary{Cycles: 20}, sum)
}

func TestSQLite(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQL(ctx, BackendSQLite, filepath.Join(t.TempDir(), "traces.db"))
	require.NoError(t, err)
	defer s.Close()
	exercise(t, s)
}

func TestSQLite_Duplicate(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQL(ctx, BackendSQLite, ":memory:")
	require.NoError(t, err)
	defer s.Close()

	run := uuid.New()
	require.NoError(t, s.Record(ctx, report(run, 1, nil)))
	err = s.Record(ctx, report(run, 1, nil))
	assert.ErrorContains(t, err, "recording cycle 1")
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, "", "")
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	_, err = Open(ctx, BackendPostgres, "")
	assert.ErrorContains(t, err, "requires a DSN")

	_, err = Open(ctx, "redis", "localhost")
	assert.ErrorContains(t, err, `unknown trace backend "redis"`)
}
