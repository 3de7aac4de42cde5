package config

import (
	"errors"
	"fmt"
)

// Normalize fills the defaults the loaders leave to the model.
func (m *Model) Normalize() {
	if m.Controller.Period <= 0 {
		m.Controller.Period = DefaultPeriod
	}
	if m.Controller.DT <= 0 {
		m.Controller.DT = m.Controller.Period.Seconds()
	}
	if m.Controller.Damping <= 0 {
		m.Controller.Damping = DefaultDamping
	}
	if m.Robot != nil {
		if m.Robot.Name == "" {
			m.Robot.Name = DefaultRobotName
		}
		if m.Robot.InitialState == nil && m.Robot.Joints > 0 {
			m.Robot.InitialState = make([]float64, m.Robot.Joints)
		}
		for _, op := range m.Robot.OperatingPoints {
			if op.Offset == nil {
				op.Offset = make([]float64, 6)
			}
		}
		if com := m.Robot.CenterOfMass; com != nil && com.Offset == nil {
			com.Offset = make([]float64, 3)
		}
	}
	for _, t := range m.Tasks {
		if t.Kind == KindCenterOfMass && t.Mask == nil {
			t.Mask = []bool{true, true, true}
		}
	}
}

// Validate checks the model is complete and consistent. Every problem is
// reported, not only the first.
func (m *Model) Validate() error {
	var errs []error
	if m.Robot == nil {
		errs = append(errs, errors.New("a model block is required"))
	} else {
		errs = append(errs, m.Robot.validate()...)
	}

	seen := make(map[string]bool)
	for _, t := range m.Tasks {
		if seen[t.Name] {
			errs = append(errs, fmt.Errorf("task %q declared twice", t.Name))
		}
		seen[t.Name] = true
		errs = append(errs, t.validate(m.Robot)...)
	}
	return errors.Join(errs...)
}

func (r *Robot) validate() []error {
	var errs []error
	if r.Kind != "linear" {
		errs = append(errs, fmt.Errorf("model %q: unsupported kind, only \"linear\" is available", r.Kind))
	}
	if r.Joints <= 0 {
		return append(errs, fmt.Errorf("model: joints must be positive, got %d", r.Joints))
	}
	if len(r.InitialState) != r.Joints {
		errs = append(errs, fmt.Errorf("model: initial_state has %d entries, expected %d", len(r.InitialState), r.Joints))
	}
	for _, op := range r.OperatingPoints {
		if err := op.check(6, r.Joints); err != nil {
			errs = append(errs, fmt.Errorf("operating_point %q: %w", op.Name, err))
		}
	}
	if r.CenterOfMass != nil {
		if err := r.CenterOfMass.check(3, r.Joints); err != nil {
			errs = append(errs, fmt.Errorf("center_of_mass: %w", err))
		}
	}
	return errs
}

func (a *Affine) check(rows, cols int) error {
	if len(a.Jacobian) != rows {
		return fmt.Errorf("jacobian has %d rows, expected %d", len(a.Jacobian), rows)
	}
	for i, row := range a.Jacobian {
		if len(row) != cols {
			return fmt.Errorf("jacobian row %d has %d entries, expected %d", i, len(row), cols)
		}
	}
	if len(a.Offset) != rows {
		return fmt.Errorf("offset has %d entries, expected %d", len(a.Offset), rows)
	}
	return nil
}

func (t *Task) validate(robot *Robot) []error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("task %q: "+format, append([]any{t.Name}, args...)...))
	}

	refLen := 0
	switch t.Kind {
	case KindPose:
		refLen = 6
		if t.OpPoint == "" {
			fail("op_point is required")
		} else if robot != nil {
			if _, ok := robot.OperatingPoint(t.OpPoint); !ok {
				fail("unknown operating point %q", t.OpPoint)
			}
		}
		if t.Mask != nil && len(t.Mask) != 6 {
			fail("mask has %d entries, expected 6", len(t.Mask))
		}
	case KindCenterOfMass:
		refLen = 3
		if robot != nil && robot.CenterOfMass == nil {
			fail("the model has no center_of_mass block")
		}
		if len(t.Mask) != 3 {
			fail("mask has %d entries, expected 3", len(t.Mask))
		}
	default:
		fail("unknown kind %q, expected %q or %q", t.Kind, KindPose, KindCenterOfMass)
	}

	switch {
	case t.Reference == nil && !t.Keep:
		fail("either reference or keep = true is required")
	case t.Reference != nil && refLen > 0 && len(t.Reference) != refLen:
		fail("reference has %d entries, expected %d", len(t.Reference), refLen)
	}

	if g := t.Gain; g != nil && g.Constant == nil {
		if !(g.Decay > 0) {
			fail("gain decay must be strictly positive, got %g", g.Decay)
		}
		if g.AtZero < g.AtInfinity {
			fail("gain at_zero (%g) must not be lower than at_infinity (%g)", g.AtZero, g.AtInfinity)
		}
	}
	return errs
}
