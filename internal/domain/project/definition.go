// Package project loads and validates the project definition: the
// declared requirements a resolution run provisions.
package project

import (
	"errors"
	"fmt"
	"sort"

	"github.com/stagehand-dev/stagehand/internal/domain/requirement"
)

// Definition errors.
var (
	ErrEmptyName          = errors.New("project name cannot be empty")
	ErrDuplicateIdentity  = errors.New("duplicate requirement identity")
	ErrUnknownDependency  = errors.New("depends_on names an undeclared requirement")
	ErrVariableNotFound   = errors.New("variable not declared in project")
	ErrDownloadNotFound   = errors.New("download not declared in project")
	ErrServiceNotFound    = errors.New("service not declared in project")
	ErrIdentityInUse      = errors.New("identity already declared with a different kind")
	ErrUnknownServiceType = errors.New("unknown service type")
)

// knownServiceTypes are the service flavors the bundled providers
// understand.
var knownServiceTypes = map[string]bool{
	"redis": true,
}

// Declaration is one declared requirement before materialization.
type Declaration struct {
	Kind      requirement.Kind
	Identity  string
	Params    requirement.Parameters
	DependsOn []string
}

// Definition is the validated project definition. Mutation methods keep
// the invariants (unique identities, resolvable dependencies); callers
// persist through the loader.
type Definition struct {
	name         string
	declarations []Declaration
}

// NewDefinition creates an empty Definition.
func NewDefinition(name string) (*Definition, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	return &Definition{name: name}, nil
}

// Name returns the project name.
func (d *Definition) Name() string {
	return d.name
}

// Declarations returns the declared requirements in declaration order.
func (d *Definition) Declarations() []Declaration {
	out := make([]Declaration, len(d.declarations))
	copy(out, d.declarations)
	return out
}

// find returns the index of the declaration with the identity, -1 if
// absent.
func (d *Definition) find(identity string) int {
	for i, decl := range d.declarations {
		if decl.Identity == identity {
			return i
		}
	}
	return -1
}

// declare appends a declaration, rejecting duplicate identities.
func (d *Definition) declare(decl Declaration) error {
	if i := d.find(decl.Identity); i >= 0 {
		if d.declarations[i].Kind != decl.Kind {
			return fmt.Errorf("%w: %s is a %s", ErrIdentityInUse, decl.Identity, d.declarations[i].Kind)
		}
		d.declarations[i] = decl
		return nil
	}
	d.declarations = append(d.declarations, decl)
	return nil
}

// SetVariable declares or updates a variable requirement.
func (d *Definition) SetVariable(name string, params requirement.VariableParams, dependsOn ...string) error {
	return d.declare(Declaration{
		Kind:      requirement.KindVariable,
		Identity:  name,
		Params:    params,
		DependsOn: dependsOn,
	})
}

// SetEnvVar declares or updates an exported environment variable
// requirement.
func (d *Definition) SetEnvVar(name string, params requirement.VariableParams, dependsOn ...string) error {
	return d.declare(Declaration{
		Kind:      requirement.KindEnvVar,
		Identity:  name,
		Params:    params,
		DependsOn: dependsOn,
	})
}

// RemoveVariable drops a variable or env-var declaration.
func (d *Definition) RemoveVariable(name string) error {
	i := d.find(name)
	if i < 0 || (d.declarations[i].Kind != requirement.KindVariable && d.declarations[i].Kind != requirement.KindEnvVar) {
		return fmt.Errorf("%w: %s", ErrVariableNotFound, name)
	}
	d.declarations = append(d.declarations[:i], d.declarations[i+1:]...)
	return nil
}

// SetDownload declares or updates a download requirement keyed by the
// variable that will hold the local path.
func (d *Definition) SetDownload(envVar string, params requirement.DownloadParams) error {
	return d.declare(Declaration{
		Kind:     requirement.KindDownload,
		Identity: envVar,
		Params:   params,
	})
}

// RemoveDownload drops a download declaration.
func (d *Definition) RemoveDownload(envVar string) error {
	i := d.find(envVar)
	if i < 0 || d.declarations[i].Kind != requirement.KindDownload {
		return fmt.Errorf("%w: %s", ErrDownloadNotFound, envVar)
	}
	d.declarations = append(d.declarations[:i], d.declarations[i+1:]...)
	return nil
}

// SetService declares or updates a service requirement keyed by the
// variable that will hold the service address.
func (d *Definition) SetService(envVar, flavor string) error {
	if !knownServiceTypes[flavor] {
		known := make([]string, 0, len(knownServiceTypes))
		for t := range knownServiceTypes {
			known = append(known, t)
		}
		sort.Strings(known)
		return fmt.Errorf("%w: %q, known types: %v", ErrUnknownServiceType, flavor, known)
	}
	return d.declare(Declaration{
		Kind:     requirement.KindService,
		Identity: envVar,
		Params:   requirement.ServiceParams{Flavor: flavor},
	})
}

// RemoveService drops a service declaration.
func (d *Definition) RemoveService(envVar string) error {
	i := d.find(envVar)
	if i < 0 || d.declarations[i].Kind != requirement.KindService {
		return fmt.Errorf("%w: %s", ErrServiceNotFound, envVar)
	}
	d.declarations = append(d.declarations[:i], d.declarations[i+1:]...)
	return nil
}

// SetEnvSpec declares or updates a runtime requirement.
func (d *Definition) SetEnvSpec(runtime, version string) error {
	return d.declare(Declaration{
		Kind:     requirement.KindEnvSpec,
		Identity: "runtime:" + runtime,
		Params:   requirement.EnvSpecParams{Runtime: runtime, Version: version},
	})
}

// SetPackageEnv declares or updates a package environment. The
// environment implicitly depends on every declared runtime.
func (d *Definition) SetPackageEnv(name string, packages, channels []string) error {
	var deps []string
	for _, decl := range d.declarations {
		if decl.Kind == requirement.KindEnvSpec {
			deps = append(deps, decl.Identity)
		}
	}
	return d.declare(Declaration{
		Kind:      requirement.KindPackageEnv,
		Identity:  "env:" + name,
		Params:    requirement.PackageEnvParams{Name: name, Packages: packages, Channels: channels},
		DependsOn: deps,
	})
}

// Requirements materializes the declarations into validated domain
// requirements. Malformed declarations are rejected here, before the
// resolver ever sees them.
func (d *Definition) Requirements() ([]requirement.Requirement, error) {
	declared := make(map[string]bool, len(d.declarations))
	for _, decl := range d.declarations {
		if declared[decl.Identity] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateIdentity, decl.Identity)
		}
		declared[decl.Identity] = true
	}

	reqs := make([]requirement.Requirement, 0, len(d.declarations))
	for _, decl := range d.declarations {
		identity, err := requirement.NewIdentity(decl.Identity)
		if err != nil {
			return nil, fmt.Errorf("requirement %q: %w", decl.Identity, err)
		}

		deps := make([]requirement.Identity, 0, len(decl.DependsOn))
		for _, depName := range decl.DependsOn {
			if !declared[depName] {
				return nil, fmt.Errorf("%w: %s depends on %q", ErrUnknownDependency, decl.Identity, depName)
			}
			dep, err := requirement.NewIdentity(depName)
			if err != nil {
				return nil, fmt.Errorf("requirement %q dependency: %w", decl.Identity, err)
			}
			deps = append(deps, dep)
		}

		req, err := requirement.New(decl.Kind, identity, decl.Params, deps...)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}
