package feature

import (
	"fmt"

	"github.com/vk/sotgo/internal/entity"
	"github.com/vk/sotgo/internal/linalg"
	"github.com/vk/sotgo/internal/signal"
	"gonum.org/v1/gonum/mat"
)

// Vector tracks a vector position, such as the center of mass, by plain
// subtraction.
type Vector struct {
	*entity.Entity
	dim  int
	mask []bool

	position   *signal.Signal[*mat.VecDense]
	reference  *signal.Signal[*mat.VecDense]
	jacobianIn *signal.Signal[*mat.Dense]

	errOut *signal.Signal[*mat.VecDense]
	jacOut *signal.Signal[*mat.Dense]
}

// NewVector creates a feature over a dim-dimensional position.
func NewVector(name string, dim int) *Vector {
	f := &Vector{
		Entity: entity.New("FeatureVector", name),
		dim:    dim,
		mask:   fullMask(dim),
	}
	f.position = signal.New[*mat.VecDense](f.SignalPath("position"))
	f.reference = signal.New[*mat.VecDense](f.SignalPath("reference"))
	f.jacobianIn = signal.New[*mat.Dense](f.SignalPath("Jq"))
	f.errOut = signal.New[*mat.VecDense](f.SignalPath("error"))
	f.jacOut = signal.New[*mat.Dense](f.SignalPath("jacobian"))

	_ = f.errOut.SetFunction(f.computeError, f.position, f.reference)
	_ = f.jacOut.SetFunction(f.computeJacobian, f.jacobianIn)

	f.Register("position", f.position)
	f.Register("reference", f.reference)
	f.Register("Jq", f.jacobianIn)
	f.Register("error", f.errOut)
	f.Register("jacobian", f.jacOut)
	return f
}

func (f *Vector) computeError(t signal.Time) (*mat.VecDense, error) {
	pos, err := f.position.Get(t)
	if err != nil {
		return nil, err
	}
	ref, err := f.reference.Get(t)
	if err != nil {
		return nil, err
	}
	if pos.Len() != f.dim || ref.Len() != f.dim {
		return nil, fmt.Errorf("position has %d entries and reference %d, expected %d", pos.Len(), ref.Len(), f.dim)
	}
	diff := mat.NewVecDense(f.dim, nil)
	diff.SubVec(pos, ref)
	return linalg.SelectVec(diff, f.mask)
}

func (f *Vector) computeJacobian(t signal.Time) (*mat.Dense, error) {
	j, err := f.jacobianIn.Get(t)
	if err != nil {
		return nil, err
	}
	if rows := linalg.Rows(j); rows != f.dim {
		return nil, fmt.Errorf("jacobian has %d rows, expected %d", rows, f.dim)
	}
	return linalg.SelectRows(j, f.mask)
}

// SetSelection restricts the feature to the dimensions flagged in mask.
func (f *Vector) SetSelection(mask []bool) error {
	if len(mask) != f.dim {
		return fmt.Errorf("feature %s: selection needs %d flags, got %d", f.Name(), f.dim, len(mask))
	}
	f.mask = append([]bool(nil), mask...)
	f.errOut.Invalidate()
	f.jacOut.Invalidate()
	return nil
}

// Selection returns a copy of the selection mask.
func (f *Vector) Selection() []bool { return append([]bool(nil), f.mask...) }

// SetReference sets a constant reference.
func (f *Vector) SetReference(ref *mat.VecDense) error {
	if ref.Len() != f.dim {
		return fmt.Errorf("feature %s: reference has %d entries, expected %d", f.Name(), ref.Len(), f.dim)
	}
	f.reference.Set(mat.VecDenseCopyOf(ref))
	return nil
}

// Keep sets the reference to the position measured at t.
func (f *Vector) Keep(t signal.Time) error {
	pos, err := f.position.Get(t)
	if err != nil {
		return fmt.Errorf("keep %s: %w", f.Name(), err)
	}
	f.reference.Set(mat.VecDenseCopyOf(pos))
	return nil
}

func (f *Vector) Dimension() int { return linalg.Count(f.mask) }

func (f *Vector) Position() *signal.Signal[*mat.VecDense]  { return f.position }
func (f *Vector) Reference() *signal.Signal[*mat.VecDense] { return f.reference }
func (f *Vector) JacobianIn() *signal.Signal[*mat.Dense]   { return f.jacobianIn }
func (f *Vector) ErrorOut() *signal.Signal[*mat.VecDense]  { return f.errOut }
func (f *Vector) JacobianOut() *signal.Signal[*mat.Dense]  { return f.jacOut }
