package tracestore

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/vk/sotgo/internal/controller"
)

// DefaultCapacity is the number of records kept by the memory store of Open.
const DefaultCapacity = 4096

// Memory keeps the most recent records in a ring.
type Memory struct {
	mu       sync.RWMutex
	capacity int
	records  []Record
	// next is the slot overwritten by the next record once the ring is
	// full, which is also the oldest record.
	next int
	// Totals survive eviction.
	totals map[string]Summary
}

// NewMemory creates a memory store keeping at most capacity records.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Memory{capacity: capacity, totals: make(map[string]Summary)}
}

func (m *Memory) Record(_ context.Context, r *controller.Report) error {
	rec := NewRecord(r)
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.records) < m.capacity {
		m.records = append(m.records, rec)
	} else {
		m.records[m.next] = rec
		m.next = (m.next + 1) % m.capacity
	}

	s := m.totals[rec.RunID]
	s.Cycles++
	if rec.Error != "" {
		s.Failures++
	}
	m.totals[rec.RunID] = s
	return nil
}

func (m *Memory) List(_ context.Context, runID uuid.UUID, limit int) ([]Record, error) {
	id := runID.String()
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Record
	n := len(m.records)
	for k := 1; k <= n && (limit <= 0 || len(out) < limit); k++ {
		rec := m.records[(m.next-k+n)%n]
		if rec.RunID == id {
			out = append(out, rec)
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (m *Memory) Summary(_ context.Context, runID uuid.UUID) (Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totals[runID.String()], nil
}

func (m *Memory) Close() error { return nil }
