package shell

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func TestRunCapturesStdout(t *testing.T) {
	r := &ExecRunner{}

	out, err := r.Run(context.Background(), "echo", "hello", "world")
	require.NoError(t, err, "echo should succeed")
	assert.Equal(t, "hello world", out, "stdout should be captured and trimmed")
}

func TestRunShellUsesShellSyntax(t *testing.T) {
	r := &ExecRunner{}

	out, err := r.RunShell(context.Background(), "echo one && echo two")
	require.NoError(t, err, "shell pipeline should succeed")
	assert.Equal(t, "one\ntwo", out, "both commands should run")
}

func TestRunFailureCarriesOutput(t *testing.T) {
	r := &ExecRunner{}

	_, err := r.RunShell(context.Background(), "echo oops >&2; exit 3")
	require.Error(t, err, "non-zero exit should be an error")

	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr), "error should be a CommandError")
	assert.Equal(t, "oops", cmdErr.Stderr, "stderr should be captured")
	assert.Contains(t, cmdErr.Error(), "oops", "message should surface stderr")
}

func TestRunMissingBinary(t *testing.T) {
	r := &ExecRunner{}

	_, err := r.Run(context.Background(), "definitely-not-a-real-binary-xyz")
	require.Error(t, err, "missing binary should be an error")
}
