// Package metatask assembles the Feature+Task+Gain bundle of one control
// objective and wires it to the model.
//
// For an objective named "Wrist" the bundle is made of the entities
// "featureWrist", "taskWrist" and "gainWrist", plugged as
//
//	model.position(op) -> featureWrist.position
//	model.Jq(op)       -> featureWrist.Jq
//	taskWrist.error    -> gainWrist.error
//	gainWrist.gain     -> taskWrist.controlGain
//
// and registered together. The gain is adaptive and starts as the constant
// 0.1 (valueAtZero = valueAtInfinity = 0.1, decayRate = 125e3).
package metatask

import (
	"errors"
	"fmt"

	"github.com/vk/sotgo/internal/entity"
	"github.com/vk/sotgo/internal/feature"
	"github.com/vk/sotgo/internal/gain"
	"github.com/vk/sotgo/internal/model"
	"github.com/vk/sotgo/internal/signal"
	"github.com/vk/sotgo/internal/task"
)

// Default adaptive gain parameters of a new bundle.
const (
	DefaultGainAtZero     = 0.1
	DefaultGainAtInfinity = 0.1
	DefaultGainDecay      = 125e3
)

// Registry receives the entities of a bundle.
type Registry interface {
	Add(obj entity.Object) error
	Remove(name string) error
}

// input is a plugged signal of the bundle, whatever its value type.
type input interface {
	Unplug()
}

// bundle holds what every objective shares: the task, its gain and the
// registry they live in.
type bundle struct {
	name  string
	reg   Registry
	model model.Model
	task  *task.Task
	gain  *gain.Adaptive
	feat  feature.Feature
	// inputs are the feature signals plugged from the model.
	inputs []input
}

func newBundle(reg Registry, m model.Model, name string, f feature.Feature, inputs ...input) (*bundle, error) {
	b := &bundle{
		name:   name,
		reg:    reg,
		model:  m,
		task:   task.New("task" + name),
		gain:   gain.NewAdaptive("gain" + name),
		feat:   f,
		inputs: inputs,
	}
	if err := b.gain.Set(DefaultGainAtZero, DefaultGainAtInfinity, DefaultGainDecay); err != nil {
		return nil, err
	}
	if err := b.task.Add(f); err != nil {
		return nil, err
	}
	if err := signal.Plug(b.task.ErrorOut(), b.gain.ErrorIn()); err != nil {
		return nil, err
	}
	if err := signal.Plug(b.gain.Out(), b.task.ControlGain()); err != nil {
		b.disconnect()
		return nil, err
	}
	return b, nil
}

// disconnect unplugs the feature from the model and the gain from the
// task, so that nothing upstream reaches the bundle anymore.
func (b *bundle) disconnect() {
	for _, in := range b.inputs {
		in.Unplug()
	}
	b.gain.ErrorIn().Unplug()
	b.task.ControlGain().Unplug()
}

// register adds the three entities, undoing the partial registration when
// one of them is rejected.
func (b *bundle) register() error {
	var added []string
	for _, obj := range []entity.Object{b.feat, b.task, b.gain} {
		if err := b.reg.Add(obj); err != nil {
			for _, name := range added {
				_ = b.reg.Remove(name)
			}
			return fmt.Errorf("registering %s: %w", b.name, err)
		}
		added = append(added, obj.Name())
	}
	return nil
}

// Name is the objective name, without the entity prefixes.
func (b *bundle) Name() string { return b.name }

func (b *bundle) Task() *task.Task     { return b.task }
func (b *bundle) Gain() *gain.Adaptive { return b.gain }
func (b *bundle) Model() model.Model   { return b.model }

// Keep freezes the objective at the pose measured at the model's current
// time.
func (b *bundle) Keep() error {
	return b.feat.Keep(b.model.Time())
}

// Close disconnects the bundle from the model and removes its entities
// from the registry.
func (b *bundle) Close() error {
	b.disconnect()
	var errs []error
	for _, name := range []string{b.feat.Name(), b.task.Name(), b.gain.Name()} {
		if err := b.reg.Remove(name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
