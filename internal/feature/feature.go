// Package feature computes task-space errors and Jacobians from model
// signals and a reference.
//
// A feature has three inputs, the measured position, the desired reference
// and the Jacobian of the position, and two outputs, the error and the
// Jacobian restricted to the selected dimensions. Point6d tracks the pose of
// an operating point; Vector tracks a plain vector such as the center of
// mass.
package feature

import (
	"github.com/vk/sotgo/internal/entity"
	"github.com/vk/sotgo/internal/signal"
	"gonum.org/v1/gonum/mat"
)

// Feature is the surface tasks consume.
type Feature interface {
	entity.Object
	// ErrorOut is the selected task-space error.
	ErrorOut() *signal.Signal[*mat.VecDense]
	// JacobianOut is the selected rows of the input Jacobian.
	JacobianOut() *signal.Signal[*mat.Dense]
	// Dimension is the number of selected rows.
	Dimension() int
	// Keep sets the reference to the position measured at t.
	Keep(t signal.Time) error
}

func fullMask(n int) []bool {
	m := make([]bool, n)
	for i := range m {
		m[i] = true
	}
	return m
}
