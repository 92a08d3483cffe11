// Package command provides command execution adapters.
package command

import (
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/stagehand-dev/stagehand/internal/ports"
)

// ExecRunner executes real shell commands through os/exec.
type ExecRunner struct{}

// NewExecRunner creates a new ExecRunner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes a command and returns the result. A non-zero exit code is
// reported in the result, not as an error; errors mean the command could
// not be started or was killed by context cancellation.
func (r *ExecRunner) Run(ctx context.Context, command string, args ...string) (ports.CommandResult, error) {
	cmd := exec.CommandContext(ctx, command, args...)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := ports.CommandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, err
	}

	return result, nil
}

// Ensure ExecRunner implements ports.CommandRunner.
var _ ports.CommandRunner = (*ExecRunner)(nil)
