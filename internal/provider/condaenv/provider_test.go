package condaenv

import (
	"context"
	"errors"
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
	calls   []string
	handler func(command string, args []string) (ports.CommandResult, error)
}

func (r *scriptedRunner) Run(_ context.Context, command string, args ...string) (ports.CommandResult, error) {
	r.calls = append(r.calls, command+" "+strings.Join(args, " "))
	if r.handler != nil {
		return r.handler(command, args)
	}
	return ports.CommandResult{}, nil
}

func (r *scriptedRunner) called(fragment string) bool {
	for _, call := range r.calls {
		if strings.Contains(call, fragment) {
			return true
		}
	}
	return false
}

func packageEnvReq(t *testing.T, packages ...string) requirement.Requirement {
	t.Helper()
	req, err := requirement.New(requirement.KindPackageEnv,
		requirement.MustNewIdentity("env:default"),
		requirement.PackageEnvParams{Name: "default", Packages: packages})
	require.NoError(t, err)
	return req
}

func envSpecReq(t *testing.T, runtime, version string) requirement.Requirement {
	t.Helper()
	req, err := requirement.New(requirement.KindEnvSpec,
		requirement.MustNewIdentity("runtime:"+runtime),
		requirement.EnvSpecParams{Runtime: runtime, Version: version})
	require.NoError(t, err)
	return req
}

func runCtx(dir string) provision.RunContext {
	return provision.NewRunContext(context.Background()).WithProjectDir(dir)
}

func TestCondaClient_ListPackages(t *testing.T) {
	runner := &scriptedRunner{handler: func(_ string, args []string) (ports.CommandResult, error) {
		if args[0] == "list" {
			return ports.CommandResult{Stdout: `[{"name":"numpy","version":"1.26.0"},{"name":"pandas","version":"2.2.1"}]`}, nil
		}
		return ports.CommandResult{}, nil
	}}

	packages, err := newCondaClient(runner).listPackages(context.Background(), "/proj/envs/default")
	require.NoError(t, err)
	assert.Equal(t, "1.26.0", packages["numpy"])
	assert.Equal(t, "2.2.1", packages["pandas"])
}

func TestCondaClient_ListPackages_UsesJSONErrorMessage(t *testing.T) {
	runner := &scriptedRunner{handler: func(string, []string) (ports.CommandResult, error) {
		return ports.CommandResult{
			ExitCode: 1,
			Stdout:   `{"message": "environment does not exist"}`,
			Stderr:   "raw noise",
		}, nil
	}}

	_, err := newCondaClient(runner).listPackages(context.Background(), "/nope")
	require.ErrorIs(t, err, ErrConda)
	assert.Contains(t, err.Error(), "environment does not exist")
}

func TestCondaClient_CreateEnv_DetectsExistingPrefix(t *testing.T) {
	runner := &scriptedRunner{handler: func(string, []string) (ports.CommandResult, error) {
		return ports.CommandResult{
			ExitCode: 1,
			Stdout:   `{"message": "prefix already exists: /proj/envs/default"}`,
		}, nil
	}}

	err := newCondaClient(runner).createEnv(context.Background(), "/proj/envs/default", []string{"numpy"}, nil)
	assert.ErrorIs(t, err, ErrEnvExists)
}

func TestProvider_Matches(t *testing.T) {
	p := NewProvider(&scriptedRunner{})

	assert.True(t, p.Matches(packageEnvReq(t, "numpy")))
	assert.True(t, p.Matches(envSpecReq(t, "python", "")))

	other, err := requirement.New(requirement.KindVariable,
		requirement.MustNewIdentity("PORT"), requirement.VariableParams{})
	require.NoError(t, err)
	assert.False(t, p.Matches(other))
}

func TestProvider_CheckPackageEnv_CondaUnavailableIsInconclusive(t *testing.T) {
	runner := &scriptedRunner{handler: func(_ string, args []string) (ports.CommandResult, error) {
		if args[0] == "--version" {
			return ports.CommandResult{}, errors.New("conda: command not found")
		}
		return ports.CommandResult{}, nil
	}}

	status := NewProvider(runner).Check(runCtx("/proj"), packageEnvReq(t, "numpy"), state.NewStore())
	assert.False(t, status.Conclusive())
}

func TestProvider_CheckPackageEnv_Satisfied(t *testing.T) {
	runner := &scriptedRunner{handler: func(_ string, args []string) (ports.CommandResult, error) {
		if args[0] == "list" {
			return ports.CommandResult{Stdout: `[{"name":"numpy","version":"1.26.0"}]`}, nil
		}
		return ports.CommandResult{}, nil
	}}

	status := NewProvider(runner).Check(runCtx("/proj"), packageEnvReq(t, "numpy=1.26"), state.NewStore())
	assert.True(t, status.IsSatisfied())
}

func TestProvider_CheckPackageEnv_ReportsMissingPackages(t *testing.T) {
	runner := &scriptedRunner{handler: func(_ string, args []string) (ports.CommandResult, error) {
		if args[0] == "list" {
			return ports.CommandResult{Stdout: `[{"name":"numpy","version":"1.24.0"}]`}, nil
		}
		return ports.CommandResult{}, nil
	}}

	status := NewProvider(runner).Check(runCtx("/proj"), packageEnvReq(t, "numpy=1.26", "pandas"), state.NewStore())
	require.True(t, status.Conclusive())
	assert.False(t, status.IsSatisfied())
	assert.Contains(t, status.Detail(), "numpy=1.26")
	assert.Contains(t, status.Detail(), "pandas")
}

func TestProvider_CheckPackageEnv_UsesRecordedPrefix(t *testing.T) {
	var listedPrefix string
	runner := &scriptedRunner{handler: func(_ string, args []string) (ports.CommandResult, error) {
		if args[0] == "list" {
			listedPrefix = args[2]
			return ports.CommandResult{Stdout: `[]`}, nil
		}
		return ports.CommandResult{}, nil
	}}

	store := state.NewStore()
	entry, _ := state.NewEntry(state.MustNewKey("env:default", "prefix"), "/elsewhere/envs/default", state.OriginAuto)
	store.Merge(entry, false)

	NewProvider(runner).Check(runCtx("/proj"), packageEnvReq(t, "numpy"), store)
	assert.Equal(t, "/elsewhere/envs/default", listedPrefix)
}

func TestProvider_ProvisionPackageEnv_RecordsPrefix(t *testing.T) {
	runner := &scriptedRunner{}

	status, entries, err := NewProvider(runner).Provision(runCtx("/proj"), packageEnvReq(t, "numpy"), state.NewStore())
	require.NoError(t, err)
	assert.True(t, status.IsSatisfied())

	require.Len(t, entries, 2)
	assert.Equal(t, "env:default", entries[0].Key().String())
	assert.Equal(t, "env:default#prefix", entries[1].Key().String())
	assert.Equal(t, "/proj/envs/default", entries[0].Value())
	assert.Equal(t, state.OriginAuto, entries[0].Origin())
	assert.True(t, runner.called("conda create"))
}

func TestProvider_ProvisionPackageEnv_ExistingEnvInstallsInstead(t *testing.T) {
	runner := &scriptedRunner{handler: func(_ string, args []string) (ports.CommandResult, error) {
		if args[0] == "create" {
			return ports.CommandResult{ExitCode: 1, Stdout: `{"message": "prefix already exists"}`}, nil
		}
		return ports.CommandResult{}, nil
	}}

	_, _, err := NewProvider(runner).Provision(runCtx("/proj"), packageEnvReq(t, "numpy"), state.NewStore())
	require.NoError(t, err)
	assert.True(t, runner.called("conda install"))
}

func TestProvider_Provision_NetworkDisabled(t *testing.T) {
	runner := &scriptedRunner{}
	ctx := provision.NewRunContext(context.Background()).WithProjectDir("/proj").WithAllowNetwork(false)

	_, _, err := NewProvider(runner).Provision(ctx, packageEnvReq(t, "numpy"), state.NewStore())
	assert.ErrorIs(t, err, provision.ErrNetworkDisabled)
	assert.Empty(t, runner.calls)
}

func TestProvider_CheckEnvSpec_SystemRuntime(t *testing.T) {
	runner := &scriptedRunner{handler: func(command string, _ []string) (ports.CommandResult, error) {
		if command == "python" {
			return ports.CommandResult{Stdout: "Python 3.11.4\n"}, nil
		}
		return ports.CommandResult{}, nil
	}}

	status := NewProvider(runner).Check(runCtx("/proj"), envSpecReq(t, "python", ">=3.10"), state.NewStore())
	assert.True(t, status.IsSatisfied())
}

func TestProvider_CheckEnvSpec_VersionTooOld(t *testing.T) {
	runner := &scriptedRunner{handler: func(command string, _ []string) (ports.CommandResult, error) {
		if command == "python" {
			return ports.CommandResult{Stdout: "Python 3.8.1\n"}, nil
		}
		return ports.CommandResult{}, nil
	}}

	status := NewProvider(runner).Check(runCtx("/proj"), envSpecReq(t, "python", ">=3.10"), state.NewStore())
	require.True(t, status.Conclusive())
	assert.False(t, status.IsSatisfied())
}

func TestProvider_CheckEnvSpec_UsesRecordedPrefix(t *testing.T) {
	runner := &scriptedRunner{handler: func(command string, _ []string) (ports.CommandResult, error) {
		if command == "/proj/envs/runtime-python/bin/python" {
			return ports.CommandResult{Stdout: "Python 3.12.1\n"}, nil
		}
		return ports.CommandResult{}, errors.New("not found")
	}}

	store := state.NewStore()
	entry, _ := state.NewEntry(state.MustNewKey("runtime:python", "prefix"), "/proj/envs/runtime-python", state.OriginAuto)
	store.Merge(entry, false)

	status := NewProvider(runner).Check(runCtx("/proj"), envSpecReq(t, "python", ">=3.10"), store)
	assert.True(t, status.IsSatisfied())
}

func TestParseRuntimeVersion(t *testing.T) {
	tests := []struct {
		out  string
		want string
	}{
		{"Python 3.11.4\n", "3.11.4"},
		{"openjdk 17.0.2", "17.0.2"},
		{"v20.11.1\n", "20.11.1"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := parseRuntimeVersion(tt.out); got != tt.want {
			t.Errorf("parseRuntimeVersion(%q) = %q, want %q", tt.out, got, tt.want)
		}
	}
}
