package app

import (
	"fmt"

	"github.com/vk/sotgo/internal/config"
	"github.com/vk/sotgo/internal/controller"
	"github.com/vk/sotgo/internal/linalg"
	"github.com/vk/sotgo/internal/metatask"
	"github.com/vk/sotgo/internal/model"
	"github.com/vk/sotgo/internal/solver"
	"gonum.org/v1/gonum/mat"
)

// assemble builds the model, the controller and the declared tasks, in
// stack order.
func (a *App) assemble() error {
	robot, err := buildRobot(a.model.Robot)
	if err != nil {
		return err
	}
	if err := a.pool.Add(robot); err != nil {
		return err
	}
	a.robot = robot

	sol, err := solver.NewHierarchical(robot.NumJoints(), a.model.Controller.Damping)
	if err != nil {
		return err
	}
	ctrl, err := controller.New(controller.Config{
		Model:      robot,
		Solver:     sol,
		Dispatcher: &model.Integrator{Model: robot, DT: a.model.Controller.DT},
		Pool:       a.pool,
	})
	if err != nil {
		return err
	}
	a.controller = ctrl

	for _, t := range a.model.Tasks {
		mt, err := a.buildTask(t)
		if err != nil {
			return fmt.Errorf("task %q: %w", t.Name, err)
		}
		if err := ctrl.Push(mt.Task()); err != nil {
			return fmt.Errorf("task %q: %w", t.Name, closeOnError(mt, err))
		}
		a.metatasks[t.Name] = mt
		a.logger.Debug("Task stacked.", "name", t.Name, "kind", t.Kind, "rows", mt.Task().Dimension())
	}
	return nil
}

func buildRobot(r *config.Robot) (*model.Linear, error) {
	robot, err := model.NewLinear(r.Name, r.Joints)
	if err != nil {
		return nil, err
	}
	for _, op := range r.OperatingPoints {
		if err := robot.AddOperatingPoint(op.Name, matrix(op.Jacobian), op.Offset); err != nil {
			return nil, err
		}
	}
	if com := r.CenterOfMass; com != nil {
		if err := robot.SetCenterOfMass(matrix(com.Jacobian), com.Offset); err != nil {
			return nil, err
		}
	}
	if err := robot.SetState(r.InitialState); err != nil {
		return nil, err
	}
	return robot, nil
}

func (a *App) buildTask(t *config.Task) (metaTask, error) {
	var mt metaTask
	switch t.Kind {
	case config.KindPose:
		k, err := metatask.NewKine6d(a.pool, a.robot, t.OpPoint, t.Name)
		if err != nil {
			return nil, err
		}
		mt = k
		if t.Mask != nil {
			if err := k.Feature().SetSelection(t.Mask); err != nil {
				return nil, closeOnError(mt, err)
			}
		}
		if t.Reference != nil {
			if err := k.SetReference(pose(t.Reference)); err != nil {
				return nil, closeOnError(mt, err)
			}
		}
	case config.KindCenterOfMass:
		k, err := metatask.NewKineCom(a.pool, a.robot, t.Name, t.Mask)
		if err != nil {
			return nil, err
		}
		mt = k
		if t.Reference != nil {
			if err := k.SetReference(linalg.Vec(t.Reference...)); err != nil {
				return nil, closeOnError(mt, err)
			}
		}
	default:
		return nil, fmt.Errorf("unknown task kind %q", t.Kind)
	}

	if err := applyGain(mt, t.Gain); err != nil {
		return nil, closeOnError(mt, err)
	}
	if t.Keep {
		if err := mt.Keep(); err != nil {
			return nil, closeOnError(mt, err)
		}
	}
	return mt, nil
}

func applyGain(mt metaTask, g *config.Gain) error {
	switch {
	case g == nil:
		return nil
	case g.Constant != nil:
		return mt.Gain().SetConstant(*g.Constant)
	default:
		return mt.Gain().Set(g.AtZero, g.AtInfinity, g.Decay)
	}
}

func closeOnError(mt metaTask, err error) error {
	_ = mt.Close()
	return err
}

// pose converts [x y z rx ry rz] into a homogeneous matrix, the rotation
// being given as a rotation vector.
func pose(v []float64) *mat.Dense {
	r := linalg.ExpSO3([3]float64{v[3], v[4], v[5]})
	return linalg.Homogeneous(r, [3]float64{v[0], v[1], v[2]})
}

func matrix(rows [][]float64) *mat.Dense {
	m := mat.NewDense(len(rows), len(rows[0]), nil)
	for i, row := range rows {
		m.SetRow(i, row)
	}
	return m
}
