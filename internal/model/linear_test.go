package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/sotgo/internal/linalg"
	"gonum.org/v1/gonum/mat"
)

func newArm(t *testing.T) *Linear {
	t.Helper()
	m, err := NewLinear("robot", 2)
	require.NoError(t, err)
	require.NoError(t, m.AddOperatingPoint("wrist", mat.NewDense(6, 2, []float64{
		1, 0,
		0, 1,
		0, 0,
		0, 0,
		0, 0,
		0, 1,
	}), []float64{0, 0, 1, 0, 0, 0}))
	require.NoError(t, m.SetCenterOfMass(mat.NewDense(3, 2, []float64{0.5, 0, 0, 0.5, 0, 0}), []float64{0, 0, 0.8}))
	return m
}

func TestLinear_Signals(t *testing.T) {
	m := newArm(t)
	require.NoError(t, m.SetState([]float64{0.2, 0.4}))
	m.Advance(3)
	assert.EqualValues(t, 3, m.Time())

	pos, err := m.Position("wrist")
	require.NoError(t, err)
	p, err := pos.Get(m.Time())
	require.NoError(t, err)
	rot, tr, err := linalg.SplitHomogeneous(p)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.2, 0.4, 1}, tr[:], 1e-12)
	w := linalg.LogSO3(rot)
	assert.InDelta(t, 0.4, w[2], 1e-12)

	jq, err := m.Jacobian("wrist")
	require.NoError(t, err)
	j, err := jq.Get(m.Time())
	require.NoError(t, err)
	assert.Equal(t, 6, linalg.Rows(j))

	c, err := m.CenterOfMass().Get(m.Time())
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.1, 0.2, 0.8}, c.RawVector().Data, 1e-12)

	_, err = m.Position("ankle")
	assert.ErrorContains(t, err, `no operating point "ankle"`)
	assert.Equal(t, []string{"wrist"}, m.OperatingPoints())
}

func TestLinear_Integrate(t *testing.T) {
	m := newArm(t)
	in := &Integrator{Model: m, DT: 0.1}

	c, err := m.CenterOfMass().Get(1)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 0, 0.8}, c.RawVector().Data, 1e-12)

	require.NoError(t, in.Dispatch(context.Background(), 1, linalg.Vec(1, -2)))
	assert.False(t, m.CenterOfMass().Valid(), "integrating invalidates the model outputs")

	q, err := m.State().Get(1)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.1, -0.2}, q.RawVector().Data, 1e-12)

	assert.Error(t, in.Dispatch(context.Background(), 1, linalg.Vec(1)))
}

func TestLinear_Validation(t *testing.T) {
	_, err := NewLinear("robot", 0)
	assert.Error(t, err)

	m := newArm(t)
	assert.ErrorContains(t, m.AddOperatingPoint("wrist", mat.NewDense(6, 2, nil), make([]float64, 6)), "declared twice")
	assert.ErrorContains(t, m.AddOperatingPoint("elbow", mat.NewDense(3, 2, nil), make([]float64, 6)), "6x2")
	assert.Error(t, m.AddOperatingPoint("elbow", mat.NewDense(6, 2, nil), make([]float64, 3)))
	assert.Error(t, m.SetCenterOfMass(mat.NewDense(3, 3, nil), make([]float64, 3)))
	assert.Error(t, m.SetState([]float64{1}))
}

func TestLinear_UnsetCenterOfMass(t *testing.T) {
	m, err := NewLinear("robot", 1)
	require.NoError(t, err)
	_, err = m.CenterOfMass().Get(0)
	assert.Error(t, err)
}
