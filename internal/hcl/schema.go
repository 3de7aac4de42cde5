package hcl

import "github.com/hashicorp/hcl/v2"

// fileRoot decodes the top-level blocks of one file.
type fileRoot struct {
	Controllers []*controllerBlock `hcl:"controller,block"`
	Models      []*modelBlock      `hcl:"model,block"`
	Tasks       []*taskBlock       `hcl:"task,block"`
}

type controllerBlock struct {
	Period  *string  `hcl:"period,optional"`
	DT      *float64 `hcl:"dt,optional"`
	Damping *float64 `hcl:"damping,optional"`
}

// Matrices and vectors are kept as expressions and converted with cty, so
// that integers, tuples and lists are all accepted.
type modelBlock struct {
	Kind            string         `hcl:"kind,label"`
	Name            *string        `hcl:"name,optional"`
	Joints          int            `hcl:"joints"`
	InitialState    hcl.Expression `hcl:"initial_state,optional"`
	OperatingPoints []*pointBlock  `hcl:"operating_point,block"`
	CenterOfMass    []*affineBlock `hcl:"center_of_mass,block"`
}

type pointBlock struct {
	Name     string         `hcl:"name,label"`
	Jacobian hcl.Expression `hcl:"jacobian"`
	Offset   hcl.Expression `hcl:"offset,optional"`
}

type affineBlock struct {
	Jacobian hcl.Expression `hcl:"jacobian"`
	Offset   hcl.Expression `hcl:"offset,optional"`
}

type taskBlock struct {
	Kind      string         `hcl:"kind,label"`
	Name      string         `hcl:"name,label"`
	OpPoint   *string        `hcl:"op_point,optional"`
	Reference hcl.Expression `hcl:"reference,optional"`
	Mask      hcl.Expression `hcl:"mask,optional"`
	Keep      *bool          `hcl:"keep,optional"`
	Gain      []*gainBlock   `hcl:"gain,block"`
}

type gainBlock struct {
	Constant   *float64 `hcl:"constant,optional"`
	AtZero     *float64 `hcl:"at_zero,optional"`
	AtInfinity *float64 `hcl:"at_infinity,optional"`
	Decay      *float64 `hcl:"decay,optional"`
}
