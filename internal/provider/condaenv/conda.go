// Package condaenv provisions package-manager environments and language
// runtimes through the conda CLI.
package condaenv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stagehand-dev/stagehand/internal/ports"
)

// Conda client errors.
var (
	ErrConda     = errors.New("conda error")
	ErrEnvExists = errors.New("conda environment already exists")
)

// condaClient is a thin wrapper over the conda CLI. All calls request
// JSON output so results are machine-parseable.
type condaClient struct {
	runner ports.CommandRunner
}

func newCondaClient(runner ports.CommandRunner) *condaClient {
	return &condaClient{runner: runner}
}

// available reports whether the conda binary is on the path and working.
func (c *condaClient) available(ctx context.Context) bool {
	result, err := c.runner.Run(ctx, "conda", "--version")
	return err == nil && result.Success()
}

// listPackages returns the installed packages of an environment prefix
// as name -> version. A missing prefix is an ErrConda.
func (c *condaClient) listPackages(ctx context.Context, prefix string) (map[string]string, error) {
	result, err := c.runner.Run(ctx, "conda", "list", "--prefix", prefix, "--json")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConda, err)
	}
	if !result.Success() {
		return nil, fmt.Errorf("%w: conda list failed: %s", ErrConda, condaMessage(result))
	}

	var listed []struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	}
	if err := json.Unmarshal([]byte(result.Stdout), &listed); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON from conda: %w", ErrConda, err)
	}

	packages := make(map[string]string, len(listed))
	for _, pkg := range listed {
		packages[pkg.Name] = pkg.Version
	}
	return packages, nil
}

// createEnv creates an environment at prefix with the given package
// specs. Returns ErrEnvExists if the prefix is already an environment.
func (c *condaClient) createEnv(ctx context.Context, prefix string, specs, channels []string) error {
	args := []string{"create", "--yes", "--json", "--prefix", prefix}
	for _, channel := range channels {
		args = append(args, "--channel", channel)
	}
	args = append(args, specs...)

	result, err := c.runner.Run(ctx, "conda", args...)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConda, err)
	}
	if !result.Success() {
		msg := condaMessage(result)
		if strings.Contains(msg, "prefix already exists") {
			return fmt.Errorf("%w: %s", ErrEnvExists, prefix)
		}
		return fmt.Errorf("%w: conda create failed: %s", ErrConda, msg)
	}
	return nil
}

// installPackages installs package specs into an existing environment.
func (c *condaClient) installPackages(ctx context.Context, prefix string, specs, channels []string) error {
	args := []string{"install", "--yes", "--json", "--prefix", prefix}
	for _, channel := range channels {
		args = append(args, "--channel", channel)
	}
	args = append(args, specs...)

	result, err := c.runner.Run(ctx, "conda", args...)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConda, err)
	}
	if !result.Success() {
		return fmt.Errorf("%w: conda install failed: %s", ErrConda, condaMessage(result))
	}
	return nil
}

// condaMessage extracts the error message from a failed conda call,
// preferring the JSON "message" field over raw stderr.
func condaMessage(result ports.CommandResult) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal([]byte(result.Stdout), &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return strings.TrimSpace(result.Stderr)
}

// parseSpec splits a package spec ("numpy" or "numpy=1.26") into name
// and version constraint.
func parseSpec(spec string) (name, version string) {
	parts := strings.SplitN(spec, "=", 2)
	name = parts[0]
	if len(parts) == 2 {
		version = strings.TrimLeft(parts[1], "=")
	}
	return name, version
}
