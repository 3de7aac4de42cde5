package feature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/sotgo/internal/linalg"
	"github.com/vk/sotgo/internal/signal"
	"gonum.org/v1/gonum/mat"
)

func pose(p [3]float64, w [3]float64) *mat.Dense {
	return linalg.Homogeneous(linalg.ExpSO3(w), p)
}

func TestPoint6d_Error(t *testing.T) {
	f := NewPoint6d("featureWrist")
	f.Position().Set(pose([3]float64{1, 2, 3}, [3]float64{0, 0, 0.2}))
	require.NoError(t, f.SetReference(pose([3]float64{0.5, 2, 2}, [3]float64{0, 0, 0.05})))

	e, err := f.ErrorOut().Get(1)
	require.NoError(t, err)
	want := []float64{0.5, 0, 1, 0, 0, 0.15}
	for i, w := range want {
		assert.InDelta(t, w, e.AtVec(i), 1e-12, "row %d", i)
	}
}

func TestPoint6d_Selection(t *testing.T) {
	f := NewPoint6d("featureWrist")
	f.Position().Set(pose([3]float64{1, 2, 3}, [3]float64{}))
	f.Reference().Set(linalg.Identity(4))
	jac := mat.NewDense(6, 2, []float64{
		1, 0,
		0, 1,
		1, 1,
		2, 0,
		0, 2,
		2, 2,
	})
	f.JacobianIn().Set(jac)

	e, err := f.ErrorOut().Get(1)
	require.NoError(t, err)
	assert.Equal(t, 6, e.Len())

	require.NoError(t, f.SetSelection([]bool{true, false, true, false, false, false}))
	assert.Equal(t, 2, f.Dimension())
	assert.False(t, f.ErrorOut().Valid(), "changing the selection invalidates the error")

	e, err = f.ErrorOut().Get(1)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 3}, e.RawVector().Data)

	j, err := f.JacobianOut().Get(1)
	require.NoError(t, err)
	assert.True(t, mat.Equal(mat.NewDense(2, 2, []float64{1, 0, 1, 1}), j))

	assert.Error(t, f.SetSelection([]bool{true}))
}

func TestPoint6d_Keep(t *testing.T) {
	f := NewPoint6d("featureWrist")
	pos := pose([3]float64{0.3, -0.2, 0.9}, [3]float64{0.4, 0.1, -0.3})
	f.Position().Set(pos)
	require.NoError(t, f.SetReference(linalg.Identity(4)))

	e, err := f.ErrorOut().Get(7)
	require.NoError(t, err)
	assert.Greater(t, linalg.Norm(e), 0.5)

	require.NoError(t, f.Keep(7))
	e, err = f.ErrorOut().Get(7)
	require.NoError(t, err)
	assert.InDelta(t, 0, linalg.Norm(e), 1e-12)

	// The reference is a copy: moving the measured pose brings the error back.
	f.Position().Set(pose([3]float64{0.3, -0.2, 1.0}, [3]float64{0.4, 0.1, -0.3}))
	e, err = f.ErrorOut().Get(8)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, e.AtVec(2), 1e-12)
}

func TestPoint6d_Errors(t *testing.T) {
	f := NewPoint6d("featureWrist")

	_, err := f.ErrorOut().Get(1)
	var unset *signal.UnsetSignalError
	require.ErrorAs(t, err, &unset)
	assert.Equal(t, "featureWrist.position", unset.Signal)

	assert.ErrorAs(t, f.Keep(1), &unset)

	f.Position().Set(linalg.Identity(3))
	f.Reference().Set(linalg.Identity(4))
	_, err = f.ErrorOut().Get(1)
	assert.ErrorContains(t, err, "4x4")

	f.JacobianIn().Set(mat.NewDense(3, 2, nil))
	_, err = f.JacobianOut().Get(1)
	assert.ErrorContains(t, err, "expected 6")

	assert.Error(t, f.SetReference(linalg.Identity(3)))
}

func TestVector(t *testing.T) {
	f := NewVector("featureCom", 3)
	f.Position().Set(linalg.Vec(1, 2, 3))
	require.NoError(t, f.SetReference(linalg.Vec(0, 0, 1)))
	f.JacobianIn().Set(mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6}))

	t.Run("full", func(t *testing.T) {
		e, err := f.ErrorOut().Get(1)
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2, 2}, e.RawVector().Data)
		assert.Equal(t, 3, f.Dimension())
	})

	t.Run("masked", func(t *testing.T) {
		require.NoError(t, f.SetSelection([]bool{true, true, false}))
		e, err := f.ErrorOut().Get(1)
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2}, e.RawVector().Data)

		j, err := f.JacobianOut().Get(1)
		require.NoError(t, err)
		assert.True(t, mat.Equal(mat.NewDense(2, 2, []float64{1, 2, 3, 4}), j))
	})

	t.Run("keep", func(t *testing.T) {
		require.NoError(t, f.Keep(2))
		e, err := f.ErrorOut().Get(2)
		require.NoError(t, err)
		assert.Equal(t, 0.0, linalg.Norm(e))
	})

	t.Run("dimension checks", func(t *testing.T) {
		assert.Error(t, f.SetReference(linalg.Vec(1, 2)))
		assert.Error(t, f.SetSelection([]bool{true}))

		f.Position().Set(linalg.Vec(1, 2))
		_, err := f.ErrorOut().Get(3)
		assert.ErrorContains(t, err, "expected 3")
	})
}

func TestFeature_Interface(t *testing.T) {
	for _, f := range []Feature{NewPoint6d("a"), NewVector("b", 3)} {
		assert.Equal(t, []string{"Jq", "error", "jacobian", "position", "reference"}, f.(interface{ SignalNames() []string }).SignalNames())
	}
}
