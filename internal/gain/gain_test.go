package gain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/sotgo/internal/linalg"
)

func TestAdaptive_Law(t *testing.T) {
	g := NewAdaptive("gainWrist")
	require.NoError(t, g.Set(2, 0.5, 3))

	assert.Equal(t, 2.0, g.Value(0), "gain(0) is valueAtZero")

	prev := g.Value(0)
	for _, norm := range []float64{1e-6, 0.01, 0.1, 0.5, 1, 2, 10, 100} {
		v := g.Value(norm)
		assert.LessOrEqual(t, v, prev, "non-increasing at |e|=%g", norm)
		assert.GreaterOrEqual(t, v, 0.5)
		prev = v
	}
	assert.InDelta(t, 0.5, g.Value(1e3), 1e-12, "approaches valueAtInfinity")
	assert.InDelta(t, 0.5+1.5*math.Exp(-3), g.Value(1), 1e-15)
}

func TestAdaptive_DegenerateConstant(t *testing.T) {
	g := NewAdaptive("gainRarm")
	require.NoError(t, g.Set(0.1, 0.1, 125e3))

	for _, norm := range []float64{0, 1e-9, 1e-3, 1, 1e6} {
		assert.InDelta(t, 0.1, g.Value(norm), 1e-15)
	}
}

func TestAdaptive_SetValidation(t *testing.T) {
	tests := []struct {
		name             string
		zero, inf, decay float64
		param            string
	}{
		{"zero decay", 1, 0.1, 0, "decayRate"},
		{"negative decay", 1, 0.1, -2, "decayRate"},
		{"NaN decay", 1, 0.1, math.NaN(), "decayRate"},
		{"infinite decay", 1, 0.1, math.Inf(1), "decayRate"},
		{"NaN at zero", math.NaN(), 0.1, 1, "valueAtZero"},
		{"infinite at infinity", 1, math.Inf(-1), 1, "valueAtInfinity"},
		{"increasing law", 0.1, 1, 1, "valueAtZero"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := NewAdaptive("g")
			require.NoError(t, g.Set(3, 1, 2))

			err := g.Set(tc.zero, tc.inf, tc.decay)
			var invalid *InvalidGainParameterError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tc.param, invalid.Param)

			zero, inf, decay := g.Params()
			assert.Equal(t, []float64{3, 1, 2}, []float64{zero, inf, decay}, "parameters unchanged on error")
		})
	}
}

func TestAdaptive_SetByPoint(t *testing.T) {
	g := NewAdaptive("g")
	require.NoError(t, g.SetByPoint(1, 0.1, 0.5, 0.4))
	assert.InDelta(t, 0.4, g.Value(0.5), 1e-12)
	assert.Equal(t, 1.0, g.Value(0))

	var invalid *InvalidGainParameterError
	assert.ErrorAs(t, g.SetByPoint(1, 0.1, 0, 0.4), &invalid)
	assert.ErrorAs(t, g.SetByPoint(1, 0.1, 0.5, 1), &invalid)
	assert.ErrorAs(t, g.SetByPoint(1, 0.1, 0.5, 0.1), &invalid)
}

func TestAdaptive_SetConstant(t *testing.T) {
	g := NewAdaptive("g")
	require.NoError(t, g.SetConstant(0.7))
	assert.Equal(t, 0.7, g.Value(0))
	assert.Equal(t, 0.7, g.Value(12))
}

func TestAdaptive_Signals(t *testing.T) {
	g := NewAdaptive("gainCom")
	require.NoError(t, g.Set(1, 0, 1))
	g.ErrorIn().Set(linalg.Vec(3, 4))

	v, err := g.Out().Get(1)
	require.NoError(t, err)
	assert.InDelta(t, math.Exp(-5), v, 1e-15)

	require.NoError(t, g.Set(2, 0, 1))
	assert.False(t, g.Out().Valid(), "reconfiguring invalidates the cached gain")
	v, err = g.Out().Get(1)
	require.NoError(t, err)
	assert.InDelta(t, 2*math.Exp(-5), v, 1e-15)

	names := g.SignalNames()
	assert.Equal(t, []string{"error", "gain"}, names)
}

func TestConstant(t *testing.T) {
	g, err := NewConstant("gainHold", 0.3)
	require.NoError(t, err)

	v, err := g.Out().Get(9)
	require.NoError(t, err)
	assert.Equal(t, 0.3, v)
	assert.Equal(t, 0.3, g.Value(100))

	var invalid *InvalidGainParameterError
	assert.ErrorAs(t, g.Set(math.Inf(1)), &invalid)

	_, err = NewConstant("bad", math.NaN())
	assert.ErrorAs(t, err, &invalid)
}

func TestGain_Interface(t *testing.T) {
	c, err := NewConstant("c", 1)
	require.NoError(t, err)
	for _, g := range []Gain{NewAdaptive("a"), c} {
		assert.NotNil(t, g.ErrorIn())
		assert.NotNil(t, g.Out())
	}
}
