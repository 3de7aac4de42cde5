// Package hcl loads controller assembly files written in HCL into the
// format-agnostic config.Model.
package hcl

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/sotgo/internal/config"
	"github.com/vk/sotgo/internal/ctxlog"
	"github.com/vk/sotgo/internal/fsutil"
)

// Loader is the HCL implementation of config.Loader.
type Loader struct{}

// NewLoader creates an HCL loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file found under paths. Tasks are stacked in the
// order they appear, files being read in the order of fsutil's walk. At
// most one controller and one model block may be declared across files.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.FindFilesByExtension(".hcl", paths...)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl file found in %v", paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	model := &config.Model{}
	parser := hclparse.NewParser()
	var seenController bool

	for _, file := range files {
		f, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		if diags := gohcl.DecodeBody(f.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		for _, c := range root.Controllers {
			if seenController {
				return nil, fmt.Errorf("%s: controller block declared more than once", file)
			}
			seenController = true
			if err := translateController(c, &model.Controller); err != nil {
				return nil, fmt.Errorf("%s: %w", file, err)
			}
		}
		for _, m := range root.Models {
			if model.Robot != nil {
				return nil, fmt.Errorf("%s: model block declared more than once", file)
			}
			robot, err := translateModel(m)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", file, err)
			}
			model.Robot = robot
		}
		for _, t := range root.Tasks {
			task, err := translateTask(t)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", file, err)
			}
			model.Tasks = append(model.Tasks, task)
		}
	}

	model.Normalize()
	if err := model.Validate(); err != nil {
		return nil, fmt.Errorf("invalid controller configuration: %w", err)
	}
	logger.Debug("HCL loading complete.", "tasks", len(model.Tasks), "joints", model.Robot.Joints, "period", model.Controller.Period)
	return model, nil
}

func translateController(b *controllerBlock, out *config.Controller) error {
	if b.Period != nil {
		d, err := time.ParseDuration(*b.Period)
		if err != nil {
			return fmt.Errorf("controller period: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("controller period must be positive, got %s", d)
		}
		out.Period = d
	}
	if b.DT != nil {
		out.DT = *b.DT
	}
	if b.Damping != nil {
		out.Damping = *b.Damping
	}
	return nil
}

func translateModel(b *modelBlock) (*config.Robot, error) {
	r := &config.Robot{Kind: b.Kind, Joints: b.Joints}
	if b.Name != nil {
		r.Name = *b.Name
	}
	if _, err := decodeFloats(b.InitialState, &r.InitialState); err != nil {
		return nil, fmt.Errorf("model initial_state: %w", err)
	}
	for _, p := range b.OperatingPoints {
		op := &config.OperatingPoint{Name: p.Name}
		if err := decodeAffine(p.Jacobian, p.Offset, &op.Affine); err != nil {
			return nil, fmt.Errorf("operating_point %q: %w", p.Name, err)
		}
		r.OperatingPoints = append(r.OperatingPoints, op)
	}
	switch len(b.CenterOfMass) {
	case 0:
	case 1:
		r.CenterOfMass = &config.Affine{}
		if err := decodeAffine(b.CenterOfMass[0].Jacobian, b.CenterOfMass[0].Offset, r.CenterOfMass); err != nil {
			return nil, fmt.Errorf("center_of_mass: %w", err)
		}
	default:
		return nil, fmt.Errorf("model %q: center_of_mass declared %d times", b.Kind, len(b.CenterOfMass))
	}
	return r, nil
}

func decodeAffine(jacobian, offset hcl.Expression, out *config.Affine) error {
	ok, err := decodeMatrix(jacobian, &out.Jacobian)
	if err != nil {
		return fmt.Errorf("jacobian: %w", err)
	}
	if !ok {
		return fmt.Errorf("jacobian is required")
	}
	if _, err := decodeFloats(offset, &out.Offset); err != nil {
		return fmt.Errorf("offset: %w", err)
	}
	return nil
}

func translateTask(b *taskBlock) (*config.Task, error) {
	t := &config.Task{Kind: b.Kind, Name: b.Name}
	if b.OpPoint != nil {
		t.OpPoint = *b.OpPoint
	}
	if b.Keep != nil {
		t.Keep = *b.Keep
	}
	if _, err := decodeFloats(b.Reference, &t.Reference); err != nil {
		return nil, fmt.Errorf("task %q reference: %w", b.Name, err)
	}
	if _, err := decodeBools(b.Mask, &t.Mask); err != nil {
		return nil, fmt.Errorf("task %q mask: %w", b.Name, err)
	}

	switch len(b.Gain) {
	case 0:
	case 1:
		g, err := translateGain(b.Gain[0])
		if err != nil {
			return nil, fmt.Errorf("task %q: %w", b.Name, err)
		}
		t.Gain = g
	default:
		return nil, fmt.Errorf("task %q: gain declared %d times", b.Name, len(b.Gain))
	}
	return t, nil
}

func translateGain(b *gainBlock) (*config.Gain, error) {
	adaptive := b.AtZero != nil || b.AtInfinity != nil || b.Decay != nil
	switch {
	case b.Constant != nil && adaptive:
		return nil, fmt.Errorf("gain: constant excludes at_zero, at_infinity and decay")
	case b.Constant != nil:
		return &config.Gain{Constant: b.Constant}, nil
	case b.AtZero == nil || b.AtInfinity == nil || b.Decay == nil:
		return nil, fmt.Errorf("gain: at_zero, at_infinity and decay are all required without constant")
	}
	return &config.Gain{AtZero: *b.AtZero, AtInfinity: *b.AtInfinity, Decay: *b.Decay}, nil
}
