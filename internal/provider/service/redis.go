// Package service provides providers that run local development services
// on demand. Redis is the only flavor today.
package service

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/stagehand-dev/stagehand/internal/domain/provision"
	"github.com/stagehand-dev/stagehand/internal/domain/requirement"
	"github.com/stagehand-dev/stagehand/internal/domain/state"
	"github.com/stagehand-dev/stagehand/internal/ports"
)

const (
	redisBasePort  = 6379
	redisPortRange = 10
)

// RedisProvider launches a project-scoped redis-server when no reachable
// instance is recorded.
type RedisProvider struct {
	runner ports.CommandRunner
}

// NewRedisProvider creates a redis provider over the given command runner.
func NewRedisProvider(runner ports.CommandRunner) *RedisProvider {
	return &RedisProvider{runner: runner}
}

// Name returns the provider name.
func (p *RedisProvider) Name() string {
	return "redis"
}

// Matches reports whether the requirement is a redis service.
func (p *RedisProvider) Matches(req requirement.Requirement) bool {
	if req.Kind() != requirement.KindService {
		return false
	}
	params, ok := req.Parameters().(requirement.ServiceParams)
	return ok && params.Flavor == "redis"
}

// Check pings the recorded instance. Without a recorded port there is
// nothing to probe and the requirement is unsatisfied.
func (p *RedisProvider) Check(ctx provision.RunContext, req requirement.Requirement, cfg state.Reader) requirement.Status {
	port, ok := cfg.Value(req.Identity().String(), "port")
	if !ok {
		return requirement.Unsatisfied("no redis instance has been started for this project")
	}

	if !p.ping(ctx, port) {
		return requirement.Unsatisfied(fmt.Sprintf("recorded redis on port %s is not responding", port))
	}

	return requirement.Satisfied(fmt.Sprintf("redis is running on port %s", port))
}

// Provision starts a daemonized redis-server on the first free port at or
// above the default and records how to reach it.
func (p *RedisProvider) Provision(ctx provision.RunContext, req requirement.Requirement, cfg state.Reader) (requirement.Status, []state.Entry, error) {
	if ctx.Cancelled() {
		return requirement.Cancelled("cancelled before redis startup"), nil, nil
	}

	port, err := freePort(redisBasePort, redisPortRange)
	if err != nil {
		return requirement.Unsatisfied("no free port for redis", err.Error()), nil, err
	}

	runDir := filepath.Join(ctx.ProjectDir(), ".stagehand")
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return requirement.Unsatisfied("cannot create service run directory", err.Error()), nil, err
	}
	pidfile := filepath.Join(runDir, fmt.Sprintf("redis-%d.pid", port))

	result, err := p.runner.Run(ctx.Context(), "redis-server",
		"--port", strconv.Itoa(port),
		"--daemonize", "yes",
		"--pidfile", pidfile,
		"--dir", runDir,
	)
	if err != nil {
		if ctx.Cancelled() {
			return requirement.Cancelled("redis startup interrupted"), nil, nil
		}
		return requirement.Unsatisfied("redis-server could not be launched", err.Error()), nil, err
	}
	if !result.Success() {
		return requirement.Unsatisfied("redis-server exited during startup", result.Stderr),
			nil, fmt.Errorf("redis-server exited with code %d", result.ExitCode)
	}

	identity := req.Identity().String()
	url, _ := state.NewEntry(state.MustNewKey(identity, ""),
		fmt.Sprintf("redis://localhost:%d", port), state.OriginAuto)
	portEntry, _ := state.NewEntry(state.MustNewKey(identity, "port"),
		strconv.Itoa(port), state.OriginAuto)
	pidEntry, _ := state.NewEntry(state.MustNewKey(identity, "pidfile"),
		pidfile, state.OriginAuto)

	return requirement.Satisfied(fmt.Sprintf("started redis on port %d", port)),
		[]state.Entry{url, portEntry, pidEntry}, nil
}

// Unprepare shuts down the recorded instance. An unreachable instance is
// treated as already stopped.
func (p *RedisProvider) Unprepare(ctx provision.RunContext, req requirement.Requirement, cfg state.Reader) error {
	port, ok := cfg.Value(req.Identity().String(), "port")
	if !ok {
		return nil
	}
	if !p.ping(ctx, port) {
		return nil
	}

	result, err := p.runner.Run(ctx.Context(), "redis-cli", "-p", port, "shutdown", "nosave")
	if err != nil {
		return fmt.Errorf("stopping redis on port %s: %w", port, err)
	}
	// redis-cli reports a connection reset when the server obeys the
	// shutdown, so a non-zero exit alone is not a failure.
	if !result.Success() && p.ping(ctx, port) {
		return fmt.Errorf("redis on port %s refused to shut down: %s", port, result.Stderr)
	}
	return nil
}

func (p *RedisProvider) ping(ctx provision.RunContext, port string) bool {
	result, err := p.runner.Run(ctx.Context(), "redis-cli", "-p", port, "ping")
	return err == nil && result.Success() && strings.EqualFold(strings.TrimSpace(result.Stdout), "PONG")
}

// freePort returns the first bindable TCP port in [base, base+span).
func freePort(base, span int) (int, error) {
	for port := base; port < base+span; port++ {
		l, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err != nil {
			continue
		}
		l.Close()
		return port, nil
	}
	return 0, fmt.Errorf("ports %d-%d are all in use", base, base+span-1)
}

// Ensure RedisProvider implements both contracts.
var (
	_ provision.Provider   = (*RedisProvider)(nil)
	_ provision.Unpreparer = (*RedisProvider)(nil)
)
