package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stackvity/docfmt/internal/cli"
)

func execute(t *testing.T, args ...string) (int, string) {
	t.Helper()
	exitCode = 0
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	code := Execute()
	return code, out.String()
}

func TestVersionFlag(t *testing.T) {
	code, out := execute(t, "--version")
	assert.Equal(t, cli.ExitOK, code)
	assert.Contains(t, out, "docfmt version")
}

func TestUnknownFlagIsUsageError(t *testing.T) {
	code, out := execute(t, "--no-such-flag")
	assert.Equal(t, cli.ExitUsage, code)
	assert.Contains(t, out, "unknown flag")
}

func TestHelpListsCoreFlags(t *testing.T) {
	code, out := execute(t, "--help")
	assert.Equal(t, cli.ExitOK, code)
	assert.Contains(t, out, "--check")
	assert.Contains(t, out, "--line-length")
	assert.Contains(t, out, "--raw-input")
}
