package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/sotgo/internal/model"
	"gonum.org/v1/gonum/mat"
)

// NewRobot returns a three-joint linear model with a "wrist" operating
// point and a center of mass. Each joint moves one axis of the wrist, in
// translation and in rotation; the center of mass follows the joints at
// half speed.
func NewRobot(t *testing.T) *model.Linear {
	t.Helper()
	m, err := model.NewLinear("robot", 3)
	require.NoError(t, err)

	wrist := mat.NewDense(6, 3, nil)
	for i := range 6 {
		wrist.Set(i, i%3, 1)
	}
	require.NoError(t, m.AddOperatingPoint("wrist", wrist, []float64{0, 0, 1, 0, 0, 0}))
	require.NoError(t, m.SetCenterOfMass(mat.NewDense(3, 3, []float64{
		0.5, 0, 0,
		0, 0.5, 0,
		0, 0, 0.5,
	}), []float64{0, 0, 0.8}))
	return m
}
