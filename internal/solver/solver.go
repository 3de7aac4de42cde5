// Package solver turns the stacked task errors of one cycle into a joint
// velocity command.
package solver

import (
	"errors"
	"fmt"

	"github.com/vk/sotgo/internal/linalg"
	"gonum.org/v1/gonum/mat"
)

// Level is the contribution of one task, read at a single timestamp.
type Level struct {
	Name     string
	Error    *mat.VecDense
	Jacobian *mat.Dense
	Gain     float64
}

// Solver computes a joint command from levels in decreasing priority.
type Solver interface {
	Solve(levels []Level) (*mat.VecDense, error)
}

// Hierarchical is a damped least-squares solver with null-space projection:
// each level is solved as well as possible without disturbing the levels
// above it.
//
//	qdot_k = qdot_{k-1} + (J_k P_{k-1})^+ (-gain_k e_k - J_k qdot_{k-1})
//
// with A^+ = Aᵀ(AAᵀ + μ²I)⁻¹ and P_k the exact projector onto the null
// space of the Jacobians of levels 1..k.
type Hierarchical struct {
	joints  int
	damping float64
}

// NewHierarchical creates a solver for joints joints. damping is μ and
// must be positive.
func NewHierarchical(joints int, damping float64) (*Hierarchical, error) {
	if joints <= 0 {
		return nil, fmt.Errorf("solver: joint count must be positive, got %d", joints)
	}
	if !(damping > 0) || !linalg.Finite(damping) {
		return nil, fmt.Errorf("solver: damping must be positive and finite, got %g", damping)
	}
	return &Hierarchical{joints: joints, damping: damping}, nil
}

func (h *Hierarchical) Solve(levels []Level) (*mat.VecDense, error) {
	n := h.joints
	qdot := mat.NewVecDense(n, nil)
	proj := linalg.Identity(n)
	stacked := &mat.Dense{}

	for _, lv := range levels {
		m := lv.Error.Len()
		if m == 0 {
			continue
		}
		if r, c := lv.Jacobian.Dims(); r != m || c != n {
			return nil, fmt.Errorf("level %s: jacobian is %dx%d, expected %dx%d", lv.Name, r, c, m, n)
		}

		var jp mat.Dense
		jp.Mul(lv.Jacobian, proj)

		// rhs = -gain·e - J·qdot
		rhs := mat.NewVecDense(m, nil)
		rhs.MulVec(lv.Jacobian, qdot)
		rhs.AddScaledVec(rhs, lv.Gain, lv.Error)
		rhs.ScaleVec(-1, rhs)

		var a mat.Dense
		a.Mul(&jp, jp.T())
		for i := 0; i < m; i++ {
			a.Set(i, i, a.At(i, i)+h.damping*h.damping)
		}

		var y mat.VecDense
		if err := y.SolveVec(&a, rhs); err != nil {
			return nil, fmt.Errorf("level %s: %w", lv.Name, err)
		}
		var dq mat.VecDense
		dq.MulVec(jp.T(), &y)
		qdot.AddVec(qdot, &dq)

		var err error
		if stacked, err = linalg.StackRows(stacked, lv.Jacobian); err != nil {
			return nil, fmt.Errorf("level %s: %w", lv.Name, err)
		}
		if proj, err = nullProjector(stacked); err != nil {
			return nil, fmt.Errorf("level %s: %w", lv.Name, err)
		}
	}
	return qdot, nil
}

// nullProjector returns I - V_r V_rᵀ, V_r being the right singular vectors
// of j with a non-negligible singular value.
func nullProjector(j *mat.Dense) (*mat.Dense, error) {
	_, n := j.Dims()
	var svd mat.SVD
	if !svd.Factorize(j, mat.SVDThin) {
		return nil, errors.New("singular value decomposition did not converge")
	}
	values := svd.Values(nil)
	var v mat.Dense
	svd.VTo(&v)

	tol := 1e-10
	if len(values) > 0 && values[0] > 1 {
		tol *= values[0]
	}
	proj := linalg.Identity(n)
	for k, sigma := range values {
		if sigma <= tol {
			break
		}
		col := mat.Col(nil, k, &v)
		var outer mat.Dense
		outer.Outer(1, mat.NewVecDense(n, col), mat.NewVecDense(n, col))
		proj.Sub(proj, &outer)
	}
	return proj, nil
}
