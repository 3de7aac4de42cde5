package hcl

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/sotgo/internal/config"
	"github.com/vk/sotgo/internal/testutil"
)

const robotHCL = `
controller {
  period  = "2ms"
  damping = 0.01
}

model "linear" {
  name          = "arm"
  joints        = 2
  initial_state = [0.1, -0.1]

  operating_point "wrist" {
    jacobian = [
      [1, 0],
      [0, 1],
      [0, 0],
      [0, 0],
      [0, 0],
      [1, 1],
    ]
    offset = [0, 0, 0.5, 0, 0, 0]
  }

  center_of_mass {
    jacobian = [[0.5, 0], [0, 0.5], [0, 0]]
  }
}
`

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return dir
}

func TestLoad(t *testing.T) {
	ctx, _ := testutil.LoggerContext()
	dir := writeFiles(t, map[string]string{
		"00-robot.hcl": robotHCL,
		"10-tasks.hcl": `
task "6d" "wrist" {
  op_point  = "wrist"
  reference = [0.2, 0.1, 0.5, 0, 0, 0]
  mask      = [true, true, true, false, false, true]
  gain {
    at_zero     = 1
    at_infinity = 0.1
    decay       = 5
  }
}

task "com" "com" {
  mask = [true, true, false]
  keep = true
  gain {
    constant = 0.5
  }
}
`,
	})

	m, err := NewLoader().Load(ctx, dir)
	require.NoError(t, err)

	assert.Equal(t, 2*time.Millisecond, m.Controller.Period)
	assert.InDelta(t, 0.002, m.Controller.DT, 1e-15)
	assert.Equal(t, 0.01, m.Controller.Damping)

	require.NotNil(t, m.Robot)
	assert.Equal(t, "arm", m.Robot.Name)
	assert.Equal(t, []float64{0.1, -0.1}, m.Robot.InitialState)
	op, ok := m.Robot.OperatingPoint("wrist")
	require.True(t, ok)
	assert.Equal(t, []float64{1, 1}, op.Jacobian[5])
	assert.Equal(t, []float64{0, 0, 0.5, 0, 0, 0}, op.Offset)
	assert.Equal(t, []float64{0, 0, 0}, m.Robot.CenterOfMass.Offset, "offsets default to zero")

	half := 0.5
	want := []*config.Task{
		{
			Kind: "6d", Name: "wrist", OpPoint: "wrist",
			Reference: []float64{0.2, 0.1, 0.5, 0, 0, 0},
			Mask:      []bool{true, true, true, false, false, true},
			Gain:      &config.Gain{AtZero: 1, AtInfinity: 0.1, Decay: 5},
		},
		{
			Kind: "com", Name: "com",
			Mask: []bool{true, true, false},
			Keep: true,
			Gain: &config.Gain{Constant: &half},
		},
	}
	if diff := cmp.Diff(want, m.Tasks); diff != "" {
		t.Errorf("tasks mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  string
	}{
		{
			name:  "syntax",
			files: map[string]string{"a.hcl": `model "linear" {`},
			want:  "failed to parse HCL file",
		},
		{
			name:  "unknown block",
			files: map[string]string{"a.hcl": robotHCL + `solver "qp" {}`},
			want:  "failed to decode HCL file",
		},
		{
			name:  "bad period",
			files: map[string]string{"a.hcl": `controller { period = "fast" }` + "\n" + `model "linear" { joints = 1 }`},
			want:  "controller period",
		},
		{
			name:  "two models",
			files: map[string]string{"a.hcl": robotHCL, "b.hcl": `model "linear" { joints = 1 }`},
			want:  "model block declared more than once",
		},
		{
			name: "mixed gain",
			files: map[string]string{"a.hcl": robotHCL + `
task "com" "com" {
  keep = true
  gain {
    constant = 1
    decay    = 2
  }
}`},
			want: "constant excludes",
		},
		{
			name: "incomplete gain",
			files: map[string]string{"a.hcl": robotHCL + `
task "com" "com" {
  keep = true
  gain { at_zero = 1 }
}`},
			want: "all required",
		},
		{
			name: "wrong type",
			files: map[string]string{"a.hcl": robotHCL + `
task "com" "com" {
  keep = true
  mask = ["yes", 3]
}`},
			want: `task "com" mask`,
		},
		{
			name: "validation",
			files: map[string]string{"a.hcl": robotHCL + `
task "6d" "hand" {
  op_point  = "hand"
  reference = [0, 0, 0, 0, 0, 0]
}`},
			want: `unknown operating point "hand"`,
		},
		{
			name:  "empty dir",
			files: map[string]string{"readme.txt": "nothing"},
			want:  "no .hcl file found",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx, _ := testutil.LoggerContext()
			dir := writeFiles(t, tc.files)
			_, err := NewLoader().Load(ctx, dir)
			assert.ErrorContains(t, err, tc.want)
		})
	}
}
