// Package gain provides the entities mapping a task error to the scalar gain
// of its control law.
//
// Two kinds exist. Constant returns a fixed value whatever the error.
// Adaptive follows
//
//	gain(e) = valueAtInfinity + (valueAtZero - valueAtInfinity) * exp(-decayRate * |e|)
//
// which equals valueAtZero on target and decays towards valueAtInfinity as
// the error grows: far from the target the gain stays small and the robot
// does not overshoot, near the target it rises for a fast convergence.
//
// Both expose an "error" input signal, plugged from the task error, and a
// "gain" output signal, plugged into the task control gain.
package gain

import (
	"fmt"
	"math"

	"github.com/vk/sotgo/internal/entity"
	"github.com/vk/sotgo/internal/linalg"
	"github.com/vk/sotgo/internal/signal"
	"gonum.org/v1/gonum/mat"
)

// InvalidGainParameterError is returned when a gain is configured with
// values outside its domain.
type InvalidGainParameterError struct {
	Gain   string
	Param  string
	Value  float64
	Reason string
}

func (e *InvalidGainParameterError) Error() string {
	return fmt.Sprintf("gain %s: invalid %s=%g: %s", e.Gain, e.Param, e.Value, e.Reason)
}

// Gain is the common surface of constant and adaptive gains.
type Gain interface {
	entity.Object
	// ErrorIn is the input the task error is plugged into.
	ErrorIn() *signal.Signal[*mat.VecDense]
	// Out is the gain value, computed from ErrorIn.
	Out() *signal.Signal[float64]
	// Value evaluates the gain for an error norm.
	Value(norm float64) float64
}

// Constant is a gain that ignores its input.
type Constant struct {
	*entity.Entity
	value float64
	errIn *signal.Signal[*mat.VecDense]
	out   *signal.Signal[float64]
}

// NewConstant creates a constant gain.
func NewConstant(name string, value float64) (*Constant, error) {
	g := &Constant{Entity: entity.New("GainConstant", name)}
	g.errIn = signal.New[*mat.VecDense](g.SignalPath("error"))
	g.out = signal.New[float64](g.SignalPath("gain"))
	g.Register("error", g.errIn)
	g.Register("gain", g.out)
	if err := g.Set(value); err != nil {
		return nil, err
	}
	return g, nil
}

// Set changes the value of the gain.
func (g *Constant) Set(value float64) error {
	if !linalg.Finite(value) {
		return &InvalidGainParameterError{Gain: g.Name(), Param: "value", Value: value, Reason: "must be finite"}
	}
	g.value = value
	g.out.Set(value)
	return nil
}

func (g *Constant) ErrorIn() *signal.Signal[*mat.VecDense] { return g.errIn }
func (g *Constant) Out() *signal.Signal[float64]           { return g.out }
func (g *Constant) Value(float64) float64                  { return g.value }

// Adaptive is a gain decreasing with the error norm.
type Adaptive struct {
	*entity.Entity
	atZero     float64
	atInfinity float64
	decayRate  float64

	errIn *signal.Signal[*mat.VecDense]
	out   *signal.Signal[float64]
}

// NewAdaptive creates an adaptive gain. It is configured with Set before use;
// until then it behaves as a constant gain of valueAtZero = valueAtInfinity = 0.1.
func NewAdaptive(name string) *Adaptive {
	g := &Adaptive{
		Entity:     entity.New("GainAdaptive", name),
		atZero:     0.1,
		atInfinity: 0.1,
		decayRate:  1,
	}
	g.errIn = signal.New[*mat.VecDense](g.SignalPath("error"))
	g.out = signal.New[float64](g.SignalPath("gain"))
	// The only dependency is a fresh input: no cycle is possible.
	_ = g.out.SetFunction(g.compute, g.errIn)
	g.Register("error", g.errIn)
	g.Register("gain", g.out)
	return g
}

func (g *Adaptive) compute(t signal.Time) (float64, error) {
	e, err := g.errIn.Get(t)
	if err != nil {
		return 0, err
	}
	return g.Value(linalg.Norm(e)), nil
}

// Set configures the gain. decayRate must be strictly positive and
// valueAtZero must not be lower than valueAtInfinity.
func (g *Adaptive) Set(valueAtZero, valueAtInfinity, decayRate float64) error {
	switch {
	case !linalg.Finite(valueAtZero):
		return &InvalidGainParameterError{Gain: g.Name(), Param: "valueAtZero", Value: valueAtZero, Reason: "must be finite"}
	case !linalg.Finite(valueAtInfinity):
		return &InvalidGainParameterError{Gain: g.Name(), Param: "valueAtInfinity", Value: valueAtInfinity, Reason: "must be finite"}
	case !(decayRate > 0) || math.IsInf(decayRate, 1):
		return &InvalidGainParameterError{Gain: g.Name(), Param: "decayRate", Value: decayRate, Reason: "must be strictly positive and finite"}
	case valueAtZero < valueAtInfinity:
		return &InvalidGainParameterError{Gain: g.Name(), Param: "valueAtZero", Value: valueAtZero,
			Reason: fmt.Sprintf("must not be lower than valueAtInfinity=%g", valueAtInfinity)}
	}
	g.atZero, g.atInfinity, g.decayRate = valueAtZero, valueAtInfinity, decayRate
	g.out.Invalidate()
	return nil
}

// SetConstant makes the gain return value for every error.
func (g *Adaptive) SetConstant(value float64) error {
	return g.Set(value, value, 1)
}

// SetByPoint configures the gain so that it equals gainAtNorm when the error
// norm is norm. gainAtNorm must lie strictly between the two limits.
func (g *Adaptive) SetByPoint(valueAtZero, valueAtInfinity, norm, gainAtNorm float64) error {
	if !(norm > 0) || !linalg.Finite(norm) {
		return &InvalidGainParameterError{Gain: g.Name(), Param: "norm", Value: norm, Reason: "must be strictly positive and finite"}
	}
	if !(gainAtNorm > valueAtInfinity && gainAtNorm < valueAtZero) {
		return &InvalidGainParameterError{Gain: g.Name(), Param: "gainAtNorm", Value: gainAtNorm,
			Reason: fmt.Sprintf("must lie strictly between %g and %g", valueAtInfinity, valueAtZero)}
	}
	rate := -math.Log((gainAtNorm-valueAtInfinity)/(valueAtZero-valueAtInfinity)) / norm
	return g.Set(valueAtZero, valueAtInfinity, rate)
}

// Params returns (valueAtZero, valueAtInfinity, decayRate).
func (g *Adaptive) Params() (float64, float64, float64) {
	return g.atZero, g.atInfinity, g.decayRate
}

// Value evaluates the gain for an error norm.
func (g *Adaptive) Value(norm float64) float64 {
	return g.atInfinity + (g.atZero-g.atInfinity)*math.Exp(-g.decayRate*norm)
}

func (g *Adaptive) ErrorIn() *signal.Signal[*mat.VecDense] { return g.errIn }
func (g *Adaptive) Out() *signal.Signal[float64]           { return g.out }
