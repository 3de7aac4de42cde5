package linalg

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Identity returns the n×n identity matrix.
func Identity(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}

// Homogeneous builds the 4×4 transform with rotation r and translation p.
func Homogeneous(r mat.Matrix, p [3]float64) *mat.Dense {
	m := Identity(4)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m.Set(i, j, r.At(i, j))
		}
		m.Set(i, 3, p[i])
	}
	return m
}

// SplitHomogeneous returns the rotation and translation of a 4×4 transform.
func SplitHomogeneous(m mat.Matrix) (*mat.Dense, [3]float64, error) {
	var p [3]float64
	if r, c := m.Dims(); r != 4 || c != 4 {
		return nil, p, fmt.Errorf("expected a 4x4 homogeneous matrix, got %dx%d", r, c)
	}
	rot := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			rot.Set(i, j, m.At(i, j))
		}
		p[i] = m.At(i, 3)
	}
	return rot, p, nil
}

// ExpSO3 returns the rotation matrix of the rotation vector w.
func ExpSO3(w [3]float64) *mat.Dense {
	theta := math.Sqrt(w[0]*w[0] + w[1]*w[1] + w[2]*w[2])
	k := mat.NewDense(3, 3, []float64{
		0, -w[2], w[1],
		w[2], 0, -w[0],
		-w[1], w[0], 0,
	})
	r := Identity(3)
	if theta < 1e-12 {
		r.Add(r, k)
		return r
	}
	var k2 mat.Dense
	k2.Mul(k, k)

	var a, b mat.Dense
	a.Scale(math.Sin(theta)/theta, k)
	b.Scale((1-math.Cos(theta))/(theta*theta), &k2)
	r.Add(r, &a)
	r.Add(r, &b)
	return r
}

// LogSO3 returns the rotation vector of the rotation matrix r.
func LogSO3(r mat.Matrix) [3]float64 {
	c := (r.At(0, 0) + r.At(1, 1) + r.At(2, 2) - 1) / 2
	c = math.Max(-1, math.Min(1, c))
	v := [3]float64{
		(r.At(2, 1) - r.At(1, 2)) / 2,
		(r.At(0, 2) - r.At(2, 0)) / 2,
		(r.At(1, 0) - r.At(0, 1)) / 2,
	}
	s := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	theta := math.Atan2(s, c)

	switch {
	case theta < 1e-9:
		return v
	case math.Pi-theta < 1e-6:
		// The antisymmetric part vanishes near π: recover the axis from
		// the symmetric part.
		k := 0
		for i := 1; i < 3; i++ {
			if r.At(i, i) > r.At(k, k) {
				k = i
			}
		}
		var axis [3]float64
		axis[k] = math.Sqrt(math.Max(0, (r.At(k, k)-c)/(1-c)))
		for j := 0; j < 3; j++ {
			if j != k {
				axis[j] = (r.At(k, j) + r.At(j, k)) / (2 * (1 - c) * axis[k])
			}
		}
		if axis[0]*v[0]+axis[1]*v[1]+axis[2]*v[2] < 0 {
			axis = [3]float64{-axis[0], -axis[1], -axis[2]}
		}
		return [3]float64{theta * axis[0], theta * axis[1], theta * axis[2]}
	default:
		f := theta / s
		return [3]float64{f * v[0], f * v[1], f * v[2]}
	}
}
