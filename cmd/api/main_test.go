package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmdConfigFlag(t *testing.T) {
	cmd := newRootCmd()

	f := cmd.Flags().Lookup("config")
	require.NotNil(t, f)
	assert.Equal(t, "config.yaml", f.DefValue)
	assert.Equal(t, "c", f.Shorthand)

	require.NoError(t, cmd.ParseFlags([]string{"-c", "prod.yaml"}))
	assert.Equal(t, "prod.yaml", f.Value.String())
}

func TestRootCmdRejectsArgs(t *testing.T) {
	cmd := newRootCmd()
	assert.Error(t, cmd.Args(cmd, []string{"extra"}))
}

// TestServeWithoutDatabase - startup fails before anything listens
func TestServeWithoutDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	err := serve(t.Context(), "/nonexistent/config.yaml")
	assert.ErrorContains(t, err, "DATABASE_URL")
}
