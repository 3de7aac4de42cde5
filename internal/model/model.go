// Package model defines the kinematic model the controller reads from and
// ships Linear, a stand-in whose poses are affine in the joint state.
package model

import (
	"github.com/vk/sotgo/internal/entity"
	"github.com/vk/sotgo/internal/signal"
	"gonum.org/v1/gonum/mat"
)

// Model exposes the position and Jacobian signals of the robot's operating
// points and of its center of mass.
type Model interface {
	entity.Object
	// Position is the 4x4 homogeneous pose of an operating point.
	Position(op string) (*signal.Signal[*mat.Dense], error)
	// Jacobian is the 6 x NumJoints Jacobian of an operating point.
	Jacobian(op string) (*signal.Signal[*mat.Dense], error)
	CenterOfMass() *signal.Signal[*mat.VecDense]
	CenterOfMassJacobian() *signal.Signal[*mat.Dense]
	NumJoints() int
	// Advance moves the model to t. It is called once per cycle before
	// any task signal is read.
	Advance(t signal.Time)
	// Time is the last time passed to Advance.
	Time() signal.Time
}
