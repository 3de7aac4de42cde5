// Package task aggregates features into one stacked error and Jacobian
// block, scaled by a control gain.
package task

import (
	"fmt"

	"github.com/vk/sotgo/internal/entity"
	"github.com/vk/sotgo/internal/feature"
	"github.com/vk/sotgo/internal/linalg"
	"github.com/vk/sotgo/internal/signal"
	"gonum.org/v1/gonum/mat"
)

// Task stacks the errors and Jacobians of its features in insertion order.
//
// Outputs:
//   - error: the member errors, concatenated
//   - jacobian: the member Jacobians, concatenated in the same order
//   - controlLaw: -controlGain · error
//
// controlGain is an input, usually plugged from a gain entity.
type Task struct {
	*entity.Entity
	features []feature.Feature

	errOut      *signal.Signal[*mat.VecDense]
	jacOut      *signal.Signal[*mat.Dense]
	controlGain *signal.Signal[float64]
	controlLaw  *signal.Signal[*mat.VecDense]
}

// New creates an empty task. Its control gain is unset.
func New(name string) *Task {
	t := &Task{Entity: entity.New("Task", name)}
	t.errOut = signal.New[*mat.VecDense](t.SignalPath("error"))
	t.jacOut = signal.New[*mat.Dense](t.SignalPath("jacobian"))
	t.controlGain = signal.New[float64](t.SignalPath("controlGain"))
	t.controlLaw = signal.New[*mat.VecDense](t.SignalPath("controlLaw"))

	_ = t.rewire(nil)
	_ = t.controlLaw.SetFunction(t.computeControlLaw, t.controlGain, t.errOut)

	t.Register("error", t.errOut)
	t.Register("jacobian", t.jacOut)
	t.Register("controlGain", t.controlGain)
	t.Register("controlLaw", t.controlLaw)
	return t
}

// rewire points the stacked outputs at features. Outputs and their
// dependents are invalidated.
func (t *Task) rewire(features []feature.Feature) error {
	errDeps := make([]signal.Port, 0, len(features))
	jacDeps := make([]signal.Port, 0, 2*len(features))
	for _, f := range features {
		errDeps = append(errDeps, f.ErrorOut())
		jacDeps = append(jacDeps, f.ErrorOut(), f.JacobianOut())
	}

	members := append([]feature.Feature(nil), features...)
	if err := t.errOut.SetFunction(func(at signal.Time) (*mat.VecDense, error) {
		return t.stackErrors(members, at)
	}, errDeps...); err != nil {
		return err
	}
	if err := t.jacOut.SetFunction(func(at signal.Time) (*mat.Dense, error) {
		return t.stackJacobians(members, at)
	}, jacDeps...); err != nil {
		// Restore the error output on the previous members, which were
		// accepted once already.
		_ = t.rewire(t.features)
		return err
	}
	t.features = members
	return nil
}

func (t *Task) stackErrors(members []feature.Feature, at signal.Time) (*mat.VecDense, error) {
	blocks := make([]*mat.VecDense, 0, len(members))
	for _, f := range members {
		e, err := f.ErrorOut().Get(at)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, e)
	}
	return linalg.StackVecs(blocks...), nil
}

func (t *Task) stackJacobians(members []feature.Feature, at signal.Time) (*mat.Dense, error) {
	blocks := make([]*mat.Dense, 0, len(members))
	cols := -1
	for _, f := range members {
		e, err := f.ErrorOut().Get(at)
		if err != nil {
			return nil, err
		}
		j, err := f.JacobianOut().Get(at)
		if err != nil {
			return nil, err
		}
		if rows := linalg.Rows(j); rows != e.Len() {
			return nil, &DimensionMismatchError{Task: t.Name(), Feature: f.Name(), What: "jacobian rows", Got: rows, Want: e.Len()}
		}
		if linalg.IsEmpty(j) {
			continue
		}
		if c := linalg.Cols(j); cols >= 0 && c != cols {
			return nil, &DimensionMismatchError{Task: t.Name(), Feature: f.Name(), What: "jacobian columns", Got: c, Want: cols}
		}
		cols = linalg.Cols(j)
		blocks = append(blocks, j)
	}
	return linalg.StackRows(blocks...)
}

func (t *Task) computeControlLaw(at signal.Time) (*mat.VecDense, error) {
	g, err := t.controlGain.Get(at)
	if err != nil {
		return nil, err
	}
	e, err := t.errOut.Get(at)
	if err != nil {
		return nil, err
	}
	if e.Len() == 0 {
		return &mat.VecDense{}, nil
	}
	out := mat.NewVecDense(e.Len(), nil)
	out.ScaleVec(-g, e)
	return out, nil
}

// Add appends a feature. Its rows follow those of the features already in
// the task.
func (t *Task) Add(f feature.Feature) error {
	if t.Has(f.Name()) {
		return &DuplicateFeatureError{Task: t.Name(), Feature: f.Name()}
	}
	features := append(append([]feature.Feature(nil), t.features...), f)
	if err := t.rewire(features); err != nil {
		return fmt.Errorf("adding %s to task %s: %w", f.Name(), t.Name(), err)
	}
	return nil
}

// Remove drops a feature. The rows of the features after it move up.
func (t *Task) Remove(name string) error {
	kept := make([]feature.Feature, 0, len(t.features))
	for _, f := range t.features {
		if f.Name() != name {
			kept = append(kept, f)
		}
	}
	if len(kept) == len(t.features) {
		return &UnknownFeatureError{Task: t.Name(), Feature: name}
	}
	return t.rewire(kept)
}

// Clear drops every feature.
func (t *Task) Clear() {
	_ = t.rewire(nil)
}

// Has reports whether the task contains a feature named name.
func (t *Task) Has(name string) bool {
	for _, f := range t.features {
		if f.Name() == name {
			return true
		}
	}
	return false
}

// Features returns the members in stacking order.
func (t *Task) Features() []feature.Feature {
	return append([]feature.Feature(nil), t.features...)
}

// Dimension is the row count of the stacked error.
func (t *Task) Dimension() int {
	n := 0
	for _, f := range t.features {
		n += f.Dimension()
	}
	return n
}

func (t *Task) ErrorOut() *signal.Signal[*mat.VecDense]   { return t.errOut }
func (t *Task) JacobianOut() *signal.Signal[*mat.Dense]   { return t.jacOut }
func (t *Task) ControlGain() *signal.Signal[float64]      { return t.controlGain }
func (t *Task) ControlLaw() *signal.Signal[*mat.VecDense] { return t.controlLaw }
