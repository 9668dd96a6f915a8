package cmd

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cataloghq/catalogmcp/internal/config"
)

func runCommandErr(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestConfigInit(t *testing.T) {
	t.Chdir(t.TempDir())

	out := runCommand(t, "config", "init")
	assert.Contains(t, out, ".catalogmcp.yaml")

	_, err := os.Stat(".catalogmcp.yaml")
	require.NoError(t, err)

	// The generated template must load and validate cleanly.
	cfg, err := config.Load(".catalogmcp.yaml")
	require.NoError(t, err)
	assert.Equal(t, "s3", cfg.Buckets.Source)
	assert.Equal(t, 10, cfg.Search.DefaultLimit)
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	t.Chdir(t.TempDir())

	runCommand(t, "config", "init")
	_, err := runCommandErr(t, "config", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	out := runCommand(t, "config", "init", "--force")
	assert.Contains(t, out, ".catalogmcp.yaml")
}
