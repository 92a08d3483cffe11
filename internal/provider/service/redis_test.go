package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagehand-dev/stagehand/internal/domain/provision"
	"github.com/stagehand-dev/stagehand/internal/domain/requirement"
	"github.com/stagehand-dev/stagehand/internal/domain/state"
	"github.com/stagehand-dev/stagehand/internal/ports"
)

// scriptedRunner answers commands from a handler and records every call.
type scriptedRunner struct {
	calls   []ports.CommandCall
	handler func(command string, args []string) (ports.CommandResult, error)
}

func (r *scriptedRunner) Run(_ context.Context, command string, args ...string) (ports.CommandResult, error) {
	r.calls = append(r.calls, ports.CommandCall{Command: command, Args: args})
	if r.handler != nil {
		return r.handler(command, args)
	}
	return ports.CommandResult{}, nil
}

func (r *scriptedRunner) commandLines() []string {
	lines := make([]string, 0, len(r.calls))
	for _, c := range r.calls {
		lines = append(lines, c.Command+" "+strings.Join(c.Args, " "))
	}
	return lines
}

func redisReq(t *testing.T) requirement.Requirement {
	t.Helper()
	req, err := requirement.New(requirement.KindService,
		requirement.MustNewIdentity("REDIS_URL"),
		requirement.ServiceParams{Flavor: "redis"})
	require.NoError(t, err)
	return req
}

func runCtx(dir string) provision.RunContext {
	return provision.NewRunContext(context.Background()).WithProjectDir(dir)
}

func pongOnPing(command string, args []string) (ports.CommandResult, error) {
	if command == "redis-cli" && args[len(args)-1] == "ping" {
		return ports.CommandResult{Stdout: "PONG\n"}, nil
	}
	return ports.CommandResult{}, nil
}

func TestRedisProvider_Matches(t *testing.T) {
	t.Parallel()

	p := NewRedisProvider(&scriptedRunner{})
	assert.True(t, p.Matches(redisReq(t)))

	other, err := requirement.New(requirement.KindVariable,
		requirement.MustNewIdentity("PORT"), requirement.VariableParams{})
	require.NoError(t, err)
	assert.False(t, p.Matches(other))
}

func TestRedisProvider_Check_NoRecordedInstance(t *testing.T) {
	t.Parallel()

	p := NewRedisProvider(&scriptedRunner{})
	status := p.Check(runCtx(t.TempDir()), redisReq(t), state.NewStore())

	require.True(t, status.Conclusive())
	assert.False(t, status.IsSatisfied())
}

func TestRedisProvider_Check_RecordedInstanceResponds(t *testing.T) {
	t.Parallel()

	runner := &scriptedRunner{handler: pongOnPing}
	store := state.NewStore()
	entry, _ := state.NewEntry(state.MustNewKey("REDIS_URL", "port"), "6380", state.OriginAuto)
	store.Merge(entry, false)

	p := NewRedisProvider(runner)
	status := p.Check(runCtx(t.TempDir()), redisReq(t), store)
	assert.True(t, status.IsSatisfied())

	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{"-p", "6380", "ping"}, runner.calls[0].Args)
}

func TestRedisProvider_Check_RecordedInstanceDown(t *testing.T) {
	t.Parallel()

	runner := &scriptedRunner{handler: func(string, []string) (ports.CommandResult, error) {
		return ports.CommandResult{ExitCode: 1, Stderr: "Could not connect"}, nil
	}}
	store := state.NewStore()
	entry, _ := state.NewEntry(state.MustNewKey("REDIS_URL", "port"), "6380", state.OriginAuto)
	store.Merge(entry, false)

	p := NewRedisProvider(runner)
	status := p.Check(runCtx(t.TempDir()), redisReq(t), store)
	assert.False(t, status.IsSatisfied())
}

func TestRedisProvider_Provision_StartsServerAndRecordsAddress(t *testing.T) {
	t.Parallel()

	runner := &scriptedRunner{}
	dir := t.TempDir()

	p := NewRedisProvider(runner)
	status, entries, err := p.Provision(runCtx(dir), redisReq(t), state.NewStore())
	require.NoError(t, err)
	assert.True(t, status.IsSatisfied())

	require.Len(t, entries, 3)
	byKey := map[string]state.Entry{}
	for _, e := range entries {
		byKey[e.Key().String()] = e
	}

	url := byKey["REDIS_URL"]
	port := byKey["REDIS_URL#port"]
	pidfile := byKey["REDIS_URL#pidfile"]
	assert.True(t, strings.HasPrefix(url.Value(), "redis://localhost:"), "url = %s", url.Value())
	assert.NotEmpty(t, port.Value())
	assert.Contains(t, pidfile.Value(), ".stagehand")

	started := false
	for _, line := range runner.commandLines() {
		if strings.HasPrefix(line, "redis-server --port "+port.Value()) &&
			strings.Contains(line, "--daemonize yes") {
			started = true
		}
	}
	assert.True(t, started, "redis-server was not launched: %v", runner.commandLines())
}

func TestRedisProvider_Provision_StartupFailure(t *testing.T) {
	t.Parallel()

	runner := &scriptedRunner{handler: func(command string, _ []string) (ports.CommandResult, error) {
		if command == "redis-server" {
			return ports.CommandResult{ExitCode: 1, Stderr: "bad config"}, nil
		}
		return ports.CommandResult{}, nil
	}}

	p := NewRedisProvider(runner)
	status, entries, err := p.Provision(runCtx(t.TempDir()), redisReq(t), state.NewStore())
	require.Error(t, err)
	assert.False(t, provision.IsFatal(err))
	assert.False(t, status.IsSatisfied())
	assert.Empty(t, entries)
}

func TestRedisProvider_Unprepare(t *testing.T) {
	t.Parallel()

	alive := true
	runner := &scriptedRunner{handler: func(command string, args []string) (ports.CommandResult, error) {
		if command == "redis-cli" && args[len(args)-1] == "ping" {
			if alive {
				return ports.CommandResult{Stdout: "PONG"}, nil
			}
			return ports.CommandResult{ExitCode: 1}, nil
		}
		if command == "redis-cli" && args[2] == "shutdown" {
			alive = false
			return ports.CommandResult{}, nil
		}
		return ports.CommandResult{}, nil
	}}

	store := state.NewStore()
	entry, _ := state.NewEntry(state.MustNewKey("REDIS_URL", "port"), "6379", state.OriginAuto)
	store.Merge(entry, false)

	p := NewRedisProvider(runner)
	require.NoError(t, p.Unprepare(runCtx(t.TempDir()), redisReq(t), store))
	assert.False(t, alive)
}

func TestRedisProvider_Unprepare_NothingRecordedIsNoOp(t *testing.T) {
	t.Parallel()

	runner := &scriptedRunner{}
	p := NewRedisProvider(runner)

	require.NoError(t, p.Unprepare(runCtx(t.TempDir()), redisReq(t), state.NewStore()))
	assert.Empty(t, runner.calls)
}
