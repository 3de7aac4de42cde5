package model

import (
	"context"
	"fmt"
	"sort"

	"github.com/vk/sotgo/internal/entity"
	"github.com/vk/sotgo/internal/linalg"
	"github.com/vk/sotgo/internal/signal"
	"gonum.org/v1/gonum/mat"
)

type operatingPoint struct {
	jacobian *mat.Dense
	offset   *mat.VecDense
	position *signal.Signal[*mat.Dense]
	jq       *signal.Signal[*mat.Dense]
}

// Linear is a kinematic model whose operating point coordinates are
// x = J·q + offset, with x = [p; w] and w the rotation vector of the pose.
// The center of mass is c = Jc·q + offset. Jacobians are constant.
type Linear struct {
	*entity.Entity
	joints int
	time   signal.Time

	state  *signal.Signal[*mat.VecDense]
	points map[string]*operatingPoint

	comJacobian *mat.Dense
	comOffset   *mat.VecDense
	com         *signal.Signal[*mat.VecDense]
	comJ        *signal.Signal[*mat.Dense]
}

// NewLinear creates a model with a zero state. Its center of mass stays
// unset until SetCenterOfMass is called.
func NewLinear(name string, joints int) (*Linear, error) {
	if joints <= 0 {
		return nil, fmt.Errorf("model %s: joint count must be positive, got %d", name, joints)
	}
	m := &Linear{
		Entity: entity.New("ModelLinear", name),
		joints: joints,
		points: make(map[string]*operatingPoint),
	}
	m.state = signal.NewConstant(m.SignalPath("state"), mat.NewVecDense(joints, nil))
	m.com = signal.New[*mat.VecDense](m.SignalPath("com"))
	m.comJ = signal.New[*mat.Dense](m.SignalPath("Jcom"))
	m.Register("state", m.state)
	m.Register("com", m.com)
	m.Register("Jcom", m.comJ)
	return m, nil
}

// AddOperatingPoint declares an operating point with a 6 x joints Jacobian
// and a 6-entry offset.
func (m *Linear) AddOperatingPoint(op string, jacobian *mat.Dense, offset []float64) error {
	if _, ok := m.points[op]; ok {
		return fmt.Errorf("model %s: operating point %q declared twice", m.Name(), op)
	}
	if r, c := jacobian.Dims(); r != 6 || c != m.joints {
		return fmt.Errorf("model %s: operating point %q jacobian must be 6x%d, got %dx%d", m.Name(), op, m.joints, r, c)
	}
	if len(offset) != 6 {
		return fmt.Errorf("model %s: operating point %q offset must have 6 entries, got %d", m.Name(), op, len(offset))
	}

	pt := &operatingPoint{
		jacobian: mat.DenseCopyOf(jacobian),
		offset:   linalg.Vec(offset...),
	}
	pt.position = signal.New[*mat.Dense](m.SignalPath("position_" + op))
	pt.jq = signal.NewConstant(m.SignalPath("Jq_"+op), pt.jacobian)
	if err := pt.position.SetFunction(func(t signal.Time) (*mat.Dense, error) {
		x, err := m.affine(t, pt.jacobian, pt.offset)
		if err != nil {
			return nil, err
		}
		r := linalg.ExpSO3([3]float64{x.AtVec(3), x.AtVec(4), x.AtVec(5)})
		return linalg.Homogeneous(r, [3]float64{x.AtVec(0), x.AtVec(1), x.AtVec(2)}), nil
	}, m.state); err != nil {
		return err
	}

	m.points[op] = pt
	m.Register("position_"+op, pt.position)
	m.Register("Jq_"+op, pt.jq)
	return nil
}

// SetCenterOfMass configures the center of mass with a 3 x joints Jacobian
// and a 3-entry offset.
func (m *Linear) SetCenterOfMass(jacobian *mat.Dense, offset []float64) error {
	if r, c := jacobian.Dims(); r != 3 || c != m.joints {
		return fmt.Errorf("model %s: center of mass jacobian must be 3x%d, got %dx%d", m.Name(), m.joints, r, c)
	}
	if len(offset) != 3 {
		return fmt.Errorf("model %s: center of mass offset must have 3 entries, got %d", m.Name(), len(offset))
	}
	m.comJacobian = mat.DenseCopyOf(jacobian)
	m.comOffset = linalg.Vec(offset...)
	m.comJ.Set(m.comJacobian)
	return m.com.SetFunction(func(t signal.Time) (*mat.VecDense, error) {
		return m.affine(t, m.comJacobian, m.comOffset)
	}, m.state)
}

func (m *Linear) affine(t signal.Time, jacobian *mat.Dense, offset *mat.VecDense) (*mat.VecDense, error) {
	q, err := m.state.Get(t)
	if err != nil {
		return nil, err
	}
	r, _ := jacobian.Dims()
	x := mat.NewVecDense(r, nil)
	x.MulVec(jacobian, q)
	x.AddVec(x, offset)
	return x, nil
}

func (m *Linear) Position(op string) (*signal.Signal[*mat.Dense], error) {
	pt, ok := m.points[op]
	if !ok {
		return nil, m.unknown(op)
	}
	return pt.position, nil
}

func (m *Linear) Jacobian(op string) (*signal.Signal[*mat.Dense], error) {
	pt, ok := m.points[op]
	if !ok {
		return nil, m.unknown(op)
	}
	return pt.jq, nil
}

func (m *Linear) unknown(op string) error {
	return fmt.Errorf("model %s has no operating point %q; available: %v", m.Name(), op, m.OperatingPoints())
}

// OperatingPoints returns the declared operating point names, sorted.
func (m *Linear) OperatingPoints() []string {
	names := make([]string, 0, len(m.points))
	for name := range m.points {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *Linear) CenterOfMass() *signal.Signal[*mat.VecDense]      { return m.com }
func (m *Linear) CenterOfMassJacobian() *signal.Signal[*mat.Dense] { return m.comJ }
func (m *Linear) NumJoints() int                                   { return m.joints }
func (m *Linear) Advance(t signal.Time)                            { m.time = t }
func (m *Linear) Time() signal.Time                                { return m.time }

// State is the joint state input. Dispatched commands are integrated
// into it.
func (m *Linear) State() *signal.Signal[*mat.VecDense] { return m.state }

// SetState replaces the joint state.
func (m *Linear) SetState(q []float64) error {
	if len(q) != m.joints {
		return fmt.Errorf("model %s: state must have %d entries, got %d", m.Name(), m.joints, len(q))
	}
	m.state.Set(linalg.Vec(q...))
	return nil
}

// Integrate advances the joint state by dt·qdot.
func (m *Linear) Integrate(qdot *mat.VecDense, dt float64) error {
	if qdot.Len() != m.joints {
		return fmt.Errorf("model %s: command has %d entries, expected %d", m.Name(), qdot.Len(), m.joints)
	}
	q, err := m.state.Get(m.time)
	if err != nil {
		return err
	}
	next := mat.NewVecDense(m.joints, nil)
	next.AddScaledVec(q, dt, qdot)
	m.state.Set(next)
	return nil
}

// Integrator dispatches joint velocity commands by integrating them into a
// linear model's state.
type Integrator struct {
	Model *Linear
	DT    float64
}

// Dispatch integrates command over one period.
func (i *Integrator) Dispatch(_ context.Context, _ signal.Time, command *mat.VecDense) error {
	return i.Model.Integrate(command, i.DT)
}
