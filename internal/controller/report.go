package controller

import (
	"time"

	"github.com/google/uuid"
	"github.com/vk/sotgo/internal/signal"
)

// TaskReport is the state of one stacked task at the end of a cycle.
type TaskReport struct {
	Name      string  `json:"name"`
	Rows      int     `json:"rows"`
	ErrorNorm float64 `json:"error_norm"`
	Gain      float64 `json:"gain"`
}

// Report describes one cycle.
type Report struct {
	RunID      uuid.UUID     `json:"run_id"`
	Time       signal.Time   `json:"time"`
	Started    time.Time     `json:"started"`
	Duration   time.Duration `json:"duration_ns"`
	Tasks      []TaskReport  `json:"tasks"`
	Command    []float64     `json:"command,omitempty"`
	Dispatched bool          `json:"dispatched"`
	Err        error         `json:"-"`
}

// Failed reports whether the cycle ended without dispatching.
func (r *Report) Failed() bool { return r.Err != nil }

// ErrorMessage returns the cycle error text, empty on success.
func (r *Report) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Snapshot is a copy of the controller state safe to read from any
// goroutine.
type Snapshot struct {
	RunID uuid.UUID
	Time  signal.Time
	Stack []string
	Last  *Report
	Graph string
}
