package ports

import (
	"context"
)

// CommandResult represents the result of executing a shell command.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success returns true if the command exited with code 0.
func (r CommandResult) Success() bool {
	return r.ExitCode == 0
}

// CommandCall records a command invocation, used by test fakes to assert
// on what was executed.
type CommandCall struct {
	Command string
	Args    []string
}

// CommandRunner executes shell commands. Provisioning backends (package
// managers, service binaries) are reached exclusively through this port.
type CommandRunner interface {
	Run(ctx context.Context, command string, args ...string) (CommandResult, error)
}
