package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "growthgraph version "+version)
}

func TestRunWritesFrame(t *testing.T) {
	path := filepath.Join(t.TempDir(), "growth.svg")

	_, err := execute(t, "run", "--ticks", "10", "--output", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
	assert.Contains(t, string(data), "Tick: 10")
	assert.Contains(t, string(data), `stroke-width="5"`)
}

func TestRunToStdout(t *testing.T) {
	out, err := execute(t, "run", "--ticks", "2", "--format", "dot", "-o", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "graph G {")
}

func TestRunWithConfigAndSeeds(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "growth.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(`
simulation:
  seed: 11
render:
  format: json
logging:
  level: error
`), 0600))
	seedPath := filepath.Join(dir, "seeds.txt")
	require.NoError(t, os.WriteFile(seedPath, []byte("200 200 30 12\n600 400 30 12\n"), 0600))

	out, err := execute(t, "--config", configPath, "--seeds", seedPath, "run", "--ticks", "0", "-o", "-")
	require.NoError(t, err)
	assert.Contains(t, out, `"nodeCount": 24`)
}

func TestRunRejectsBadInput(t *testing.T) {
	_, err := execute(t, "run", "--ticks", "-1", "-o", "-")
	assert.ErrorContains(t, err, "ticks")

	configPath := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("driver:\n  fps: 0\n"), 0600))
	_, err = execute(t, "--config", configPath, "run", "-o", "-")
	assert.ErrorContains(t, err, "invalid config")

	_, err = execute(t, "run", "--ticks", "1", "--format", "png", "-o", "-")
	assert.ErrorContains(t, err, "unsupported output format")
}

func TestNewLogger(t *testing.T) {
	logger, err := newLogger("warn", false)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(-1))

	logger, err = newLogger("error", true)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(-1), "debug flag wins over the configured level")

	_, err = newLogger("loud", false)
	assert.Error(t, err)
}
