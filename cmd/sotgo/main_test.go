package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_LoadError(t *testing.T) {
	t.Parallel()

	invalidHCL := `
		model "linear" {
			joints = 3
		// Missing closing brace here
	`
	filePath := filepath.Join(t.TempDir(), "controller.hcl")
	require.NoError(t, os.WriteFile(filePath, []byte(invalidHCL), 0o600))

	err := run(context.Background(), &bytes.Buffer{}, []string{filePath})

	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to load configuration")
	require.Contains(t, err.Error(), "failed to parse")
}

func TestRun_Cycles(t *testing.T) {
	t.Parallel()

	config := `
controller {
  period = "1ms"
}

model "linear" {
  joints = 1
  operating_point "tip" {
    jacobian = [[1], [0], [0], [0], [0], [0]]
  }
}

task "6d" "tip" {
  op_point  = "tip"
  reference = [0.5, 0, 0, 0, 0, 0]
  mask      = [true, false, false, false, false, false]
}
`
	filePath := filepath.Join(t.TempDir(), "controller.hcl")
	require.NoError(t, os.WriteFile(filePath, []byte(config), 0o600))
	out := &bytes.Buffer{}

	err := run(context.Background(), out, []string{"-cycles", "5", "-env-file", os.DevNull, filePath})

	require.NoError(t, err)
	require.Contains(t, out.String(), "Control loop finished.")
	require.Contains(t, out.String(), "cycles=5")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(context.Background(), out, []string{"-h"})

	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	err := run(context.Background(), &bytes.Buffer{}, []string{"--this-is-not-a-valid-flag"})

	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}
