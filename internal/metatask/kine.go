package metatask

import (
	"fmt"

	"github.com/vk/sotgo/internal/feature"
	"github.com/vk/sotgo/internal/model"
	"github.com/vk/sotgo/internal/signal"
	"gonum.org/v1/gonum/mat"
)

// Kine6d drives the pose of an operating point.
type Kine6d struct {
	*bundle
	opPoint string
	feature *feature.Point6d
}

// NewKine6d builds and registers the bundle tracking opPoint of m.
func NewKine6d(reg Registry, m model.Model, opPoint, name string) (*Kine6d, error) {
	pos, err := m.Position(opPoint)
	if err != nil {
		return nil, err
	}
	jac, err := m.Jacobian(opPoint)
	if err != nil {
		return nil, err
	}

	f := feature.NewPoint6d("feature" + name)
	b, err := newBundle(reg, m, name, f, f.Position(), f.JacobianIn())
	if err != nil {
		return nil, fmt.Errorf("building %s: %w", name, err)
	}
	if err := connect(b, func() error {
		if err := signal.Plug(pos, f.Position()); err != nil {
			return err
		}
		return signal.Plug(jac, f.JacobianIn())
	}); err != nil {
		return nil, err
	}
	return &Kine6d{bundle: b, opPoint: opPoint, feature: f}, nil
}

// OpPoint is the tracked operating point.
func (k *Kine6d) OpPoint() string { return k.opPoint }

func (k *Kine6d) Feature() *feature.Point6d { return k.feature }

// SetReference sets the desired 4x4 pose.
func (k *Kine6d) SetReference(ref *mat.Dense) error {
	return k.feature.SetReference(ref)
}

// KineCom drives the center of mass along the dimensions selected by its
// mask.
type KineCom struct {
	*bundle
	feature *feature.Vector
}

// NewKineCom builds and registers the bundle tracking the center of mass of
// m. mask selects among x, y and z.
func NewKineCom(reg Registry, m model.Model, name string, mask []bool) (*KineCom, error) {
	f := feature.NewVector("feature"+name, 3)
	if err := f.SetSelection(mask); err != nil {
		return nil, err
	}
	b, err := newBundle(reg, m, name, f, f.Position(), f.JacobianIn())
	if err != nil {
		return nil, fmt.Errorf("building %s: %w", name, err)
	}
	if err := connect(b, func() error {
		if err := signal.Plug(m.CenterOfMass(), f.Position()); err != nil {
			return err
		}
		return signal.Plug(m.CenterOfMassJacobian(), f.JacobianIn())
	}); err != nil {
		return nil, err
	}
	return &KineCom{bundle: b, feature: f}, nil
}

// connect plugs the bundle inputs with plug and registers its entities.
// On failure the bundle is left unplugged and unregistered.
func connect(b *bundle, plug func() error) error {
	if err := plug(); err != nil {
		b.disconnect()
		return err
	}
	if err := b.register(); err != nil {
		b.disconnect()
		return err
	}
	return nil
}

func (k *KineCom) Feature() *feature.Vector { return k.feature }

// SetReference sets the desired center of mass.
func (k *KineCom) SetReference(ref *mat.VecDense) error {
	return k.feature.SetReference(ref)
}
