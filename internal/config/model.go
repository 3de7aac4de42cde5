package config

import (
	"context"
	"time"
)

// Loader reads controller assembly files into a Model.
type Loader interface {
	Load(ctx context.Context, paths ...string) (*Model, error)
}

// Task kinds.
const (
	KindPose         = "6d"
	KindCenterOfMass = "com"
)

// Default values applied by Model.Normalize.
const (
	DefaultPeriod    = 5 * time.Millisecond
	DefaultDamping   = 1e-3
	DefaultRobotName = "robot"
)

// Model is a complete controller assembly.
type Model struct {
	Controller Controller
	Robot      *Robot
	// Tasks in stack order: the first one has the highest priority.
	Tasks []*Task
}

// Controller holds the loop timing.
type Controller struct {
	Period time.Duration
	// DT is the integration step of dispatched commands, in seconds.
	// Zero means Period.
	DT      float64
	Damping float64
}

// Robot is a linear kinematic model.
type Robot struct {
	Kind            string
	Name            string
	Joints          int
	InitialState    []float64
	OperatingPoints []*OperatingPoint
	CenterOfMass    *Affine
}

// Affine is x = Jacobian·q + Offset.
type Affine struct {
	Jacobian [][]float64
	Offset   []float64
}

// OperatingPoint is a named affine map to a 6-D pose coordinate.
type OperatingPoint struct {
	Name string
	Affine
}

// Task is one objective to build and stack.
type Task struct {
	Kind    string
	Name    string
	OpPoint string
	// Reference is [x y z rx ry rz] for a pose and [x y z] for a center of
	// mass. It may be empty when Keep is set.
	Reference []float64
	Mask      []bool
	Keep      bool
	Gain      *Gain
}

// Gain is either a constant or the three adaptive parameters.
type Gain struct {
	Constant   *float64
	AtZero     float64
	AtInfinity float64
	Decay      float64
}

// OperatingPoint returns the robot operating point named name.
func (r *Robot) OperatingPoint(name string) (*OperatingPoint, bool) {
	for _, op := range r.OperatingPoints {
		if op.Name == name {
			return op, true
		}
	}
	return nil, false
}
