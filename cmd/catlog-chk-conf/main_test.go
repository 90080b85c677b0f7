package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func TestCheck(t *testing.T) {
	good := writeFile(t, "good.conf", "[rules]\napp.INFO >stdout\n")
	bad := writeFile(t, "bad.conf", "[rules]\napp.LOUD >stdout\n")

	stdout, stderr, err := run(t, good)
	require.NoError(t, err)
	assert.Equal(t, "--["+good+"] syntax right\n", stdout)
	assert.Empty(t, stderr)

	stdout, stderr, err = run(t, good, bad)
	require.Error(t, err)
	assert.Contains(t, stdout, "--["+good+"] syntax right")
	assert.Contains(t, stderr, "--["+bad+"] syntax error")
	assert.Contains(t, err.Error(), "1 of 2")
}

func TestCheck_Quiet(t *testing.T) {
	bad := writeFile(t, "bad.conf", "[global]\nnot a setting = 1\n")

	stdout, stderr, err := run(t, "-q", bad)
	require.Error(t, err)
	assert.Empty(t, stdout)
	assert.Empty(t, stderr)
}

func TestCheck_NeedsAFile(t *testing.T) {
	_, _, err := run(t)
	assert.Error(t, err)
}
