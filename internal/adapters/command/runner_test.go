package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecRunner_CapturesStdout(t *testing.T) {
	t.Parallel()

	result, err := NewExecRunner().Run(context.Background(), "sh", "-c", "echo hello")
	require.NoError(t, err)
	assert.True(t, result.Success())
	assert.Equal(t, "hello\n", result.Stdout)
}

func TestExecRunner_NonZeroExitIsNotAnError(t *testing.T) {
	t.Parallel()

	result, err := NewExecRunner().Run(context.Background(), "sh", "-c", "echo oops >&2; exit 3")
	require.NoError(t, err)
	assert.False(t, result.Success())
	assert.Equal(t, 3, result.ExitCode)
	assert.Equal(t, "oops\n", result.Stderr)
}

func TestExecRunner_MissingBinaryIsAnError(t *testing.T) {
	t.Parallel()

	_, err := NewExecRunner().Run(context.Background(), "definitely-not-a-binary-xyz")
	assert.Error(t, err)
}

func TestExecRunner_ContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewExecRunner().Run(ctx, "sleep", "10")
	assert.Error(t, err)
}
