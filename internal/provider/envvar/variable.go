package envvar

import (
	"fmt"
	"os"

	"github.com/stagehand-dev/stagehand/internal/domain/provision"
	"github.com/stagehand-dev/stagehand/internal/domain/requirement"
	"github.com/stagehand-dev/stagehand/internal/domain/state"
)

// VariableProvider is the catch-all for variable requirements. It
// resolves values from, in order, the project state, the process
// environment, and the declared default. A variable with none of those
// cannot be provisioned and fails as retryable so the user can supply a
// value and rerun.
type VariableProvider struct {
	// lookupEnv defaults to os.LookupEnv; tests swap it out.
	lookupEnv func(string) (string, bool)
}

// NewVariableProvider creates a VariableProvider reading the real process
// environment.
func NewVariableProvider() *VariableProvider {
	return &VariableProvider{lookupEnv: os.LookupEnv}
}

// Name returns the provider name.
func (p *VariableProvider) Name() string {
	return "variable"
}

// Matches reports whether the requirement is a variable of either kind.
func (p *VariableProvider) Matches(req requirement.Requirement) bool {
	return req.Kind() == requirement.KindEnvVar || req.Kind() == requirement.KindVariable
}

// Check reports satisfied only when the project state carries a value.
func (p *VariableProvider) Check(ctx provision.RunContext, req requirement.Requirement, cfg state.Reader) requirement.Status {
	name := req.Identity().String()
	if value, ok := cfg.Value(name, ""); ok && value != "" {
		return requirement.Satisfied(fmt.Sprintf("%s is set", name))
	}
	return requirement.Unsatisfied(fmt.Sprintf("%s has no value yet", name))
}

// Provision records the value from the process environment or the
// declared default.
func (p *VariableProvider) Provision(ctx provision.RunContext, req requirement.Requirement, cfg state.Reader) (requirement.Status, []state.Entry, error) {
	name := req.Identity().String()

	if value, ok := p.lookupEnv(name); ok && value != "" {
		// A value exported in the caller's shell counts as the user
		// answering the question.
		entry, _ := state.NewEntry(state.MustNewKey(name, ""), value, state.OriginUser)
		return requirement.Satisfied(fmt.Sprintf("%s taken from the process environment", name)),
			[]state.Entry{entry}, nil
	}

	if params, ok := req.Parameters().(requirement.VariableParams); ok && params.Default != "" {
		entry, _ := state.NewEntry(state.MustNewKey(name, ""), params.Default, state.OriginAuto)
		return requirement.Satisfied(fmt.Sprintf("%s set to its default", name)),
			[]state.Entry{entry}, nil
	}

	return requirement.Unsatisfied(fmt.Sprintf("%s must be supplied; set it in the environment or with the variable command", name)),
		nil, fmt.Errorf("no value available for %s", name)
}

// Ensure VariableProvider implements provision.Provider.
var _ provision.Provider = (*VariableProvider)(nil)
