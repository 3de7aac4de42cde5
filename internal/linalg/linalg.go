// Package linalg holds the few gonum helpers the controller needs on top of
// mat: empty-safe norms, row selection and vertical stacking.
package linalg

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Norm returns the Euclidean norm of v. An empty vector has norm 0.
func Norm(v *mat.VecDense) float64 {
	if v == nil || v.Len() == 0 {
		return 0
	}
	return mat.Norm(v, 2)
}

// Vec returns a vector holding a copy of data. An empty slice yields an
// empty vector.
func Vec(data ...float64) *mat.VecDense {
	if len(data) == 0 {
		return &mat.VecDense{}
	}
	return mat.NewVecDense(len(data), append([]float64(nil), data...))
}

// Rows returns the row count of m, 0 for nil.
func Rows(m mat.Matrix) int {
	if m == nil {
		return 0
	}
	r, _ := m.Dims()
	return r
}

// Cols returns the column count of m, 0 for nil.
func Cols(m mat.Matrix) int {
	if m == nil {
		return 0
	}
	_, c := m.Dims()
	return c
}

// IsEmpty reports whether m has no element.
func IsEmpty(m mat.Matrix) bool {
	return Rows(m) == 0 || Cols(m) == 0
}

// SelectVec returns the entries of v whose index is selected by mask.
// mask must have v.Len() entries.
func SelectVec(v *mat.VecDense, mask []bool) (*mat.VecDense, error) {
	if v.Len() != len(mask) {
		return nil, fmt.Errorf("selection mask has %d entries, vector has %d", len(mask), v.Len())
	}
	out := make([]float64, 0, len(mask))
	for i, keep := range mask {
		if keep {
			out = append(out, v.AtVec(i))
		}
	}
	return Vec(out...), nil
}

// SelectRows returns the rows of m selected by mask.
func SelectRows(m *mat.Dense, mask []bool) (*mat.Dense, error) {
	r, c := m.Dims()
	if r != len(mask) {
		return nil, fmt.Errorf("selection mask has %d entries, matrix has %d rows", len(mask), r)
	}
	n := Count(mask)
	if n == 0 || c == 0 {
		return &mat.Dense{}, nil
	}
	out := mat.NewDense(n, c, nil)
	row := 0
	for i, keep := range mask {
		if keep {
			out.SetRow(row, mat.Row(nil, i, m))
			row++
		}
	}
	return out, nil
}

// Count returns the number of selected entries of mask.
func Count(mask []bool) int {
	n := 0
	for _, keep := range mask {
		if keep {
			n++
		}
	}
	return n
}

// StackVecs concatenates vectors vertically.
func StackVecs(vs ...*mat.VecDense) *mat.VecDense {
	total := 0
	for _, v := range vs {
		total += v.Len()
	}
	if total == 0 {
		return &mat.VecDense{}
	}
	out := mat.NewVecDense(total, nil)
	row := 0
	for _, v := range vs {
		for i := 0; i < v.Len(); i++ {
			out.SetVec(row, v.AtVec(i))
			row++
		}
	}
	return out
}

// StackRows concatenates matrices vertically. Every non-empty block must
// have the same column count.
func StackRows(ms ...*mat.Dense) (*mat.Dense, error) {
	total, cols := 0, -1
	for _, m := range ms {
		r, c := m.Dims()
		if r == 0 {
			continue
		}
		if cols >= 0 && c != cols {
			return nil, fmt.Errorf("cannot stack a %d-column block under %d columns", c, cols)
		}
		cols = c
		total += r
	}
	if total == 0 || cols <= 0 {
		return &mat.Dense{}, nil
	}
	out := mat.NewDense(total, cols, nil)
	row := 0
	for _, m := range ms {
		r, _ := m.Dims()
		for i := 0; i < r; i++ {
			out.SetRow(row, mat.Row(nil, i, m))
			row++
		}
	}
	return out, nil
}

// Finite reports whether x is neither NaN nor infinite.
func Finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
