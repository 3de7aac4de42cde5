package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindFilesByExtension(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.hcl", "a.hcl", "notes.txt", "sub/c.hcl"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, nil, 0o644))
	}

	got, err := FindFilesByExtension(".hcl", dir, filepath.Join(dir, "a.hcl"), filepath.Join(dir, "notes.txt"))
	require.NoError(t, err)
	want := []string{
		filepath.Join(dir, "a.hcl"),
		filepath.Join(dir, "b.hcl"),
		filepath.Join(dir, "sub", "c.hcl"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}

	_, err = FindFilesByExtension(".hcl", filepath.Join(dir, "missing"))
	assert.Error(t, err)
	assert.Panics(t, func() { _, _ = FindFilesByExtension("", dir) })
}
