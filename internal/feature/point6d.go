package feature

import (
	"fmt"

	"github.com/vk/sotgo/internal/entity"
	"github.com/vk/sotgo/internal/linalg"
	"github.com/vk/sotgo/internal/signal"
	"gonum.org/v1/gonum/mat"
)

// Point6d tracks the pose of an operating point.
//
// Position and reference are 4x4 homogeneous transforms. The error is
// [p - p*; log(R·R*ᵀ)], both halves expressed in the world frame, and the
// Jacobian input has 6 rows (linear then angular).
type Point6d struct {
	*entity.Entity
	mask []bool

	position   *signal.Signal[*mat.Dense]
	reference  *signal.Signal[*mat.Dense]
	jacobianIn *signal.Signal[*mat.Dense]

	errOut *signal.Signal[*mat.VecDense]
	jacOut *signal.Signal[*mat.Dense]
}

// NewPoint6d creates a pose feature with every dimension selected and an
// unset reference.
func NewPoint6d(name string) *Point6d {
	f := &Point6d{
		Entity: entity.New("FeaturePoint6d", name),
		mask:   fullMask(6),
	}
	f.position = signal.New[*mat.Dense](f.SignalPath("position"))
	f.reference = signal.New[*mat.Dense](f.SignalPath("reference"))
	f.jacobianIn = signal.New[*mat.Dense](f.SignalPath("Jq"))
	f.errOut = signal.New[*mat.VecDense](f.SignalPath("error"))
	f.jacOut = signal.New[*mat.Dense](f.SignalPath("jacobian"))

	// Fresh inputs cannot depend on the outputs.
	_ = f.errOut.SetFunction(f.computeError, f.position, f.reference)
	_ = f.jacOut.SetFunction(f.computeJacobian, f.jacobianIn)

	f.Register("position", f.position)
	f.Register("reference", f.reference)
	f.Register("Jq", f.jacobianIn)
	f.Register("error", f.errOut)
	f.Register("jacobian", f.jacOut)
	return f
}

func (f *Point6d) computeError(t signal.Time) (*mat.VecDense, error) {
	pos, err := f.position.Get(t)
	if err != nil {
		return nil, err
	}
	ref, err := f.reference.Get(t)
	if err != nil {
		return nil, err
	}
	r, p, err := linalg.SplitHomogeneous(pos)
	if err != nil {
		return nil, fmt.Errorf("position: %w", err)
	}
	rr, pr, err := linalg.SplitHomogeneous(ref)
	if err != nil {
		return nil, fmt.Errorf("reference: %w", err)
	}

	var dr mat.Dense
	dr.Mul(r, rr.T())
	w := linalg.LogSO3(&dr)

	full := linalg.Vec(p[0]-pr[0], p[1]-pr[1], p[2]-pr[2], w[0], w[1], w[2])
	return linalg.SelectVec(full, f.mask)
}

func (f *Point6d) computeJacobian(t signal.Time) (*mat.Dense, error) {
	j, err := f.jacobianIn.Get(t)
	if err != nil {
		return nil, err
	}
	if rows := linalg.Rows(j); rows != 6 {
		return nil, fmt.Errorf("jacobian has %d rows, expected 6", rows)
	}
	return linalg.SelectRows(j, f.mask)
}

// SetSelection restricts the feature to the dimensions flagged in mask,
// ordered x, y, z, rx, ry, rz.
func (f *Point6d) SetSelection(mask []bool) error {
	if len(mask) != 6 {
		return fmt.Errorf("feature %s: selection needs 6 flags, got %d", f.Name(), len(mask))
	}
	f.mask = append([]bool(nil), mask...)
	f.errOut.Invalidate()
	f.jacOut.Invalidate()
	return nil
}

// Selection returns a copy of the selection mask.
func (f *Point6d) Selection() []bool { return append([]bool(nil), f.mask...) }

// SetReference sets a constant 4x4 reference pose.
func (f *Point6d) SetReference(ref *mat.Dense) error {
	if r, c := ref.Dims(); r != 4 || c != 4 {
		return fmt.Errorf("feature %s: reference must be 4x4, got %dx%d", f.Name(), r, c)
	}
	f.reference.Set(mat.DenseCopyOf(ref))
	return nil
}

// Keep sets the reference to the pose measured at t.
func (f *Point6d) Keep(t signal.Time) error {
	pos, err := f.position.Get(t)
	if err != nil {
		return fmt.Errorf("keep %s: %w", f.Name(), err)
	}
	f.reference.Set(mat.DenseCopyOf(pos))
	return nil
}

func (f *Point6d) Dimension() int { return linalg.Count(f.mask) }

func (f *Point6d) Position() *signal.Signal[*mat.Dense]    { return f.position }
func (f *Point6d) Reference() *signal.Signal[*mat.Dense]   { return f.reference }
func (f *Point6d) JacobianIn() *signal.Signal[*mat.Dense]  { return f.jacobianIn }
func (f *Point6d) ErrorOut() *signal.Signal[*mat.VecDense] { return f.errOut }
func (f *Point6d) JacobianOut() *signal.Signal[*mat.Dense] { return f.jacOut }
