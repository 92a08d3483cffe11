// Package envvar provides the providers that resolve variable
// requirements: one that derives values from provisioned services and a
// generic fallback that reads the project state, the process environment,
// and declared defaults.
package envvar

import (
	"fmt"
	"strings"

	"github.com/stagehand-dev/stagehand/internal/domain/provision"
	"github.com/stagehand-dev/stagehand/internal/domain/requirement"
	"github.com/stagehand-dev/stagehand/internal/domain/state"
)

// ServiceURLProvider fills a variable from the connection URL its single
// service dependency recorded. It registers above the generic variable
// provider and answers Unknown for anything it cannot derive, letting the
// registry fall through.
type ServiceURLProvider struct{}

// NewServiceURLProvider creates a ServiceURLProvider.
func NewServiceURLProvider() *ServiceURLProvider {
	return &ServiceURLProvider{}
}

// Name returns the provider name.
func (p *ServiceURLProvider) Name() string {
	return "service-url"
}

// Matches reports whether the requirement is a variable with exactly one
// dependency it could derive a value from.
func (p *ServiceURLProvider) Matches(req requirement.Requirement) bool {
	if req.Kind() != requirement.KindEnvVar && req.Kind() != requirement.KindVariable {
		return false
	}
	return len(req.DependsOn()) == 1
}

// Check is conclusive only when the variable is already set or when the
// dependency recorded a URL this provider could copy.
func (p *ServiceURLProvider) Check(ctx provision.RunContext, req requirement.Requirement, cfg state.Reader) requirement.Status {
	name := req.Identity().String()
	if value, ok := cfg.Value(name, ""); ok && value != "" {
		return requirement.Satisfied(fmt.Sprintf("%s is set", name))
	}

	if _, ok := p.sourceURL(req, cfg); !ok {
		return requirement.Unknown(fmt.Sprintf("%s is not backed by a service URL", name))
	}
	return requirement.Unsatisfied(fmt.Sprintf("%s can be derived from %s", name, req.DependsOn()[0]))
}

// Provision copies the dependency's URL into the variable.
func (p *ServiceURLProvider) Provision(ctx provision.RunContext, req requirement.Requirement, cfg state.Reader) (requirement.Status, []state.Entry, error) {
	name := req.Identity().String()
	url, ok := p.sourceURL(req, cfg)
	if !ok {
		return requirement.Unsatisfied(fmt.Sprintf("%s recorded no URL to derive %s from", req.DependsOn()[0], name)),
			nil, fmt.Errorf("no source URL for %s", name)
	}

	entry, _ := state.NewEntry(state.MustNewKey(name, ""), url, state.OriginAuto)
	return requirement.Satisfied(fmt.Sprintf("%s derived from %s", name, req.DependsOn()[0])),
		[]state.Entry{entry}, nil
}

// sourceURL returns the dependency's recorded main value if it looks like
// a connection URL.
func (p *ServiceURLProvider) sourceURL(req requirement.Requirement, cfg state.Reader) (string, bool) {
	deps := req.DependsOn()
	if len(deps) != 1 {
		return "", false
	}
	value, ok := cfg.Value(deps[0].String(), "")
	if !ok || !strings.Contains(value, "://") {
		return "", false
	}
	return value, true
}

// Ensure ServiceURLProvider implements provision.Provider.
var _ provision.Provider = (*ServiceURLProvider)(nil)
