package app

import (
	"sync"
	"time"

	"github.com/montanaflynn/stats"
)

// statsWindow is the number of recent cycle durations kept for the
// percentile.
const statsWindow = 2048

// CycleStats summarizes the cycles run so far. Durations are in
// microseconds over the last statsWindow cycles; the counters cover the
// whole run.
type CycleStats struct {
	Cycles         int     `json:"cycles"`
	Failures       int     `json:"failures"`
	DeadlineMisses int     `json:"deadline_misses"`
	MeanUS         float64 `json:"mean_us"`
	P95US          float64 `json:"p95_us"`
	MaxUS          float64 `json:"max_us"`
}

type cycleStats struct {
	period time.Duration

	mu        sync.Mutex
	durations []float64
	next      int
	cycles    int
	failures  int
	misses    int
}

func newCycleStats(period time.Duration) *cycleStats {
	return &cycleStats{period: period, durations: make([]float64, 0, statsWindow)}
}

// add records one cycle. A cycle lasting longer than the period misses
// its deadline.
func (s *cycleStats) add(d time.Duration, failed bool) {
	us := float64(d) / float64(time.Microsecond)
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.durations) < statsWindow {
		s.durations = append(s.durations, us)
	} else {
		s.durations[s.next] = us
		s.next = (s.next + 1) % statsWindow
	}
	s.cycles++
	if failed {
		s.failures++
	}
	if d > s.period {
		s.misses++
	}
}

func (s *cycleStats) summary() CycleStats {
	s.mu.Lock()
	data := stats.Float64Data(append([]float64(nil), s.durations...))
	out := CycleStats{Cycles: s.cycles, Failures: s.failures, DeadlineMisses: s.misses}
	s.mu.Unlock()

	if data.Len() == 0 {
		return out
	}
	// Errors are only returned for empty input.
	out.MeanUS, _ = stats.Mean(data)
	out.P95US, _ = stats.Percentile(data, 95)
	out.MaxUS, _ = stats.Max(data)
	return out
}
