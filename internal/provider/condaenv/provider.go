package condaenv

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/stagehand-dev/stagehand/internal/domain/provision"
	"github.com/stagehand-dev/stagehand/internal/domain/requirement"
	"github.com/stagehand-dev/stagehand/internal/domain/state"
	"github.com/stagehand-dev/stagehand/internal/ports"
)

// Provider provisions package environments and language runtimes via
// conda. It handles the env-spec and package-env requirement kinds.
type Provider struct {
	conda *condaClient
}

// NewProvider creates a conda provider over the given command runner.
func NewProvider(runner ports.CommandRunner) *Provider {
	return &Provider{conda: newCondaClient(runner)}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "conda"
}

// Matches reports whether the requirement is an environment kind.
func (p *Provider) Matches(req requirement.Requirement) bool {
	return req.Kind() == requirement.KindPackageEnv || req.Kind() == requirement.KindEnvSpec
}

// Check probes the environment without mutating anything.
func (p *Provider) Check(ctx provision.RunContext, req requirement.Requirement, cfg state.Reader) requirement.Status {
	switch params := req.Parameters().(type) {
	case requirement.PackageEnvParams:
		return p.checkPackageEnv(ctx, req, params, cfg)
	case requirement.EnvSpecParams:
		return p.checkEnvSpec(ctx, req, params, cfg)
	}
	return requirement.Unknown("not an environment requirement")
}

// Provision creates or completes the environment.
func (p *Provider) Provision(ctx provision.RunContext, req requirement.Requirement, cfg state.Reader) (requirement.Status, []state.Entry, error) {
	if ctx.Cancelled() {
		return requirement.Cancelled("cancelled before environment provisioning started"), nil, nil
	}
	if !ctx.AllowNetwork() {
		return requirement.Unsatisfied("environment provisioning needs package downloads"),
			nil, provision.ErrNetworkDisabled
	}

	switch params := req.Parameters().(type) {
	case requirement.PackageEnvParams:
		return p.provisionPackageEnv(ctx, req, params, cfg)
	case requirement.EnvSpecParams:
		return p.provisionEnvSpec(ctx, req, params)
	}
	return requirement.Unsatisfied("unsupported parameters"), nil,
		provision.Fatalf("conda provider cannot handle %T", req.Parameters())
}

// envPrefix returns the environment directory: the recorded one if a
// prior run resolved it, otherwise the project-local default.
func (p *Provider) envPrefix(ctx provision.RunContext, req requirement.Requirement, cfg state.Reader, name string) string {
	if prefix, ok := cfg.Value(req.Identity().String(), "prefix"); ok {
		return prefix
	}
	return filepath.Join(ctx.ProjectDir(), "envs", name)
}

func (p *Provider) checkPackageEnv(ctx provision.RunContext, req requirement.Requirement, params requirement.PackageEnvParams, cfg state.Reader) requirement.Status {
	if !p.conda.available(ctx.Context()) {
		return requirement.Unknown("conda is not available on this machine")
	}

	prefix := p.envPrefix(ctx, req, cfg, params.Name)
	installed, err := p.conda.listPackages(ctx.Context(), prefix)
	if err != nil {
		return requirement.Unsatisfied(fmt.Sprintf("environment %s does not exist", prefix))
	}

	var missing []string
	for _, spec := range params.Packages {
		name, version := parseSpec(spec)
		have, ok := installed[name]
		if !ok || !versionSatisfies(have, version) {
			missing = append(missing, spec)
		}
	}
	if len(missing) > 0 {
		return requirement.Unsatisfied(
			fmt.Sprintf("environment %s is missing packages: %s", prefix, strings.Join(missing, ", ")))
	}

	return requirement.Satisfied(fmt.Sprintf("environment %s provides all %d packages", prefix, len(params.Packages)))
}

func (p *Provider) provisionPackageEnv(ctx provision.RunContext, req requirement.Requirement, params requirement.PackageEnvParams, cfg state.Reader) (requirement.Status, []state.Entry, error) {
	prefix := p.envPrefix(ctx, req, cfg, params.Name)

	err := p.conda.createEnv(ctx.Context(), prefix, params.Packages, params.Channels)
	if err != nil {
		// An existing prefix means a prior run created the environment;
		// complete it instead of recreating.
		if !errors.Is(err, ErrEnvExists) {
			if ctx.Cancelled() {
				return requirement.Cancelled("environment creation interrupted"), nil, nil
			}
			return requirement.Unsatisfied("environment creation failed", err.Error()), nil, err
		}
		if err := p.conda.installPackages(ctx.Context(), prefix, params.Packages, params.Channels); err != nil {
			if ctx.Cancelled() {
				return requirement.Cancelled("package installation interrupted"), nil, nil
			}
			return requirement.Unsatisfied("package installation failed", err.Error()), nil, err
		}
	}

	entries := resolvedEnvEntries(req.Identity().String(), prefix)
	return requirement.Satisfied(fmt.Sprintf("created environment %s", prefix)), entries, nil
}

func (p *Provider) checkEnvSpec(ctx provision.RunContext, req requirement.Requirement, params requirement.EnvSpecParams, cfg state.Reader) requirement.Status {
	// A runtime resolved by a prior run lives under its recorded prefix;
	// fall back to whatever is on the path.
	exe := params.Runtime
	if prefix, ok := cfg.Value(req.Identity().String(), "prefix"); ok {
		exe = filepath.Join(prefix, "bin", params.Runtime)
	}

	result, err := p.conda.runner.Run(ctx.Context(), exe, "--version")
	if err != nil || !result.Success() {
		return requirement.Unsatisfied(fmt.Sprintf("runtime %s is not available", params.Runtime))
	}

	version := parseRuntimeVersion(result.Stdout)
	if !versionSatisfies(version, params.Version) {
		return requirement.Unsatisfied(
			fmt.Sprintf("runtime %s version %s does not satisfy %s", params.Runtime, version, params.Version))
	}

	return requirement.Satisfied(fmt.Sprintf("runtime %s %s", params.Runtime, version))
}

func (p *Provider) provisionEnvSpec(ctx provision.RunContext, req requirement.Requirement, params requirement.EnvSpecParams) (requirement.Status, []state.Entry, error) {
	if !p.conda.available(ctx.Context()) {
		return requirement.Unsatisfied("conda is required to provision runtimes"),
			nil, fmt.Errorf("%w: conda not available", ErrConda)
	}

	prefix := filepath.Join(ctx.ProjectDir(), "envs", "runtime-"+params.Runtime)
	spec := params.Runtime
	if params.Version != "" {
		spec = params.Runtime + "=" + strings.TrimLeft(params.Version, "><=!")
	}

	err := p.conda.createEnv(ctx.Context(), prefix, []string{spec}, nil)
	if err != nil && !errors.Is(err, ErrEnvExists) {
		if ctx.Cancelled() {
			return requirement.Cancelled("runtime installation interrupted"), nil, nil
		}
		return requirement.Unsatisfied("runtime installation failed", err.Error()), nil, err
	}

	entries := resolvedEnvEntries(req.Identity().String(), prefix)
	return requirement.Satisfied(fmt.Sprintf("installed runtime %s at %s", params.Runtime, prefix)), entries, nil
}

// resolvedEnvEntries builds the configuration entries recording where an
// environment landed.
func resolvedEnvEntries(identity, prefix string) []state.Entry {
	mainEntry, _ := state.NewEntry(state.MustNewKey(identity, ""), prefix, state.OriginAuto)
	prefixEntry, _ := state.NewEntry(state.MustNewKey(identity, "prefix"), prefix, state.OriginAuto)
	return []state.Entry{mainEntry, prefixEntry}
}

// parseRuntimeVersion extracts the version from "--version" output like
// "Python 3.11.4".
func parseRuntimeVersion(out string) string {
	fields := strings.Fields(strings.TrimSpace(out))
	if len(fields) == 0 {
		return ""
	}
	return strings.TrimPrefix(fields[len(fields)-1], "v")
}

// Ensure Provider implements provision.Provider.
var _ provision.Provider = (*Provider)(nil)
