package linalg

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestNorm(t *testing.T) {
	assert.Equal(t, 0.0, Norm(nil))
	assert.Equal(t, 0.0, Norm(&mat.VecDense{}))
	assert.InDelta(t, 5.0, Norm(Vec(3, 4)), 1e-15)
}

func TestSelect(t *testing.T) {
	v, err := SelectVec(Vec(1, 2, 3), []bool{true, false, true})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 3}, v.RawVector().Data)

	_, err = SelectVec(Vec(1, 2), []bool{true})
	assert.Error(t, err)

	m := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})
	sel, err := SelectRows(m, []bool{false, true, true})
	require.NoError(t, err)
	assert.True(t, mat.Equal(mat.NewDense(2, 2, []float64{3, 4, 5, 6}), sel))

	none, err := SelectRows(m, []bool{false, false, false})
	require.NoError(t, err)
	assert.True(t, IsEmpty(none))
	assert.Equal(t, 2, Count([]bool{true, false, true}))
}

func TestStack(t *testing.T) {
	v := StackVecs(Vec(1, 2), &mat.VecDense{}, Vec(3))
	assert.Equal(t, []float64{1, 2, 3}, v.RawVector().Data)
	assert.Equal(t, 0, StackVecs().Len())

	a := mat.NewDense(1, 2, []float64{1, 2})
	b := mat.NewDense(2, 2, []float64{3, 4, 5, 6})
	m, err := StackRows(a, &mat.Dense{}, b)
	require.NoError(t, err)
	assert.True(t, mat.Equal(mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6}), m))

	_, err = StackRows(a, mat.NewDense(1, 3, nil))
	assert.ErrorContains(t, err, "3-column block")

	empty, err := StackRows()
	require.NoError(t, err)
	assert.Equal(t, 0, Rows(empty))
}

func TestSO3_RoundTrip(t *testing.T) {
	cases := map[string][3]float64{
		"identity":   {0, 0, 0},
		"tiny":       {1e-11, -2e-11, 0},
		"small":      {0.01, 0.02, -0.03},
		"quarter x":  {math.Pi / 2, 0, 0},
		"generic":    {0.3, -1.1, 0.7},
		"near pi z":  {0, 0, math.Pi - 1e-8},
		"near pi xy": {(math.Pi - 1e-7) / math.Sqrt2, (math.Pi - 1e-7) / math.Sqrt2, 0},
	}
	for name, w := range cases {
		t.Run(name, func(t *testing.T) {
			r := ExpSO3(w)
			got := LogSO3(r)
			for i := range 3 {
				assert.InDelta(t, w[i], got[i], 1e-6, "component %d", i)
			}

			// r is orthonormal.
			var rtr mat.Dense
			rtr.Mul(r.T(), r)
			assert.True(t, mat.EqualApprox(Identity(3), &rtr, 1e-12))
		})
	}
}

func TestHomogeneous(t *testing.T) {
	r := ExpSO3([3]float64{0, 0, 0.5})
	m := Homogeneous(r, [3]float64{1, 2, 3})

	rot, p, err := SplitHomogeneous(m)
	require.NoError(t, err)
	assert.Equal(t, [3]float64{1, 2, 3}, p)
	assert.True(t, mat.Equal(r, rot))
	assert.Equal(t, 1.0, m.At(3, 3))

	_, _, err = SplitHomogeneous(Identity(3))
	assert.ErrorContains(t, err, "4x4")
	assert.True(t, Finite(1))
	assert.False(t, Finite(math.NaN()))
}
