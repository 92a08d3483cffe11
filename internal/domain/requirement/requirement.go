// Package requirement defines the abstract needs a project declares:
// their identities, kinds, kind-specific parameters, and the Status value
// providers report for them.
package requirement

import (
	"errors"
	"fmt"
)

// Requirement construction errors.
var (
	ErrUnknownKind   = errors.New("unknown requirement kind")
	ErrNilParameters = errors.New("requirement parameters cannot be nil")
	ErrKindMismatch  = errors.New("parameters do not match requirement kind")
	ErrSelfDependent = errors.New("requirement cannot depend on itself")
)

// Requirement is one thing a project needs to run. It is constructed once
// per resolution run and immutable thereafter; only its resolved
// configuration is persisted, never the requirement itself.
type Requirement struct {
	kind      Kind
	identity  Identity
	params    Parameters
	dependsOn []Identity
}

// New creates a Requirement, validating the kind, parameters, and
// dependency list.
func New(kind Kind, identity Identity, params Parameters, dependsOn ...Identity) (Requirement, error) {
	if !kind.Known() {
		return Requirement{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if identity.IsZero() {
		return Requirement{}, ErrEmptyIdentity
	}
	if params == nil {
		return Requirement{}, fmt.Errorf("%w: %s", ErrNilParameters, identity)
	}
	if !paramsMatchKind(kind, params) {
		return Requirement{}, fmt.Errorf("%w: %s has %T", ErrKindMismatch, identity, params)
	}
	if err := params.Validate(); err != nil {
		return Requirement{}, fmt.Errorf("requirement %s: %w", identity, err)
	}

	deps := make([]Identity, 0, len(dependsOn))
	for _, dep := range dependsOn {
		if dep.Equals(identity) {
			return Requirement{}, fmt.Errorf("%w: %s", ErrSelfDependent, identity)
		}
		deps = append(deps, dep)
	}

	return Requirement{
		kind:      kind,
		identity:  identity,
		params:    params,
		dependsOn: deps,
	}, nil
}

// paramsMatchKind verifies the concrete parameter type fits the kind.
func paramsMatchKind(kind Kind, params Parameters) bool {
	switch kind {
	case KindEnvSpec:
		_, ok := params.(EnvSpecParams)
		return ok
	case KindPackageEnv:
		_, ok := params.(PackageEnvParams)
		return ok
	case KindDownload:
		_, ok := params.(DownloadParams)
		return ok
	case KindService:
		_, ok := params.(ServiceParams)
		return ok
	case KindEnvVar, KindVariable:
		_, ok := params.(VariableParams)
		return ok
	}
	return false
}

// Kind returns the provisioning strategy family.
func (r Requirement) Kind() Kind {
	return r.kind
}

// Identity returns the stable key for this requirement.
func (r Requirement) Identity() Identity {
	return r.identity
}

// Parameters returns the kind-specific descriptor.
func (r Requirement) Parameters() Parameters {
	return r.params
}

// DependsOn returns the identities that must be satisfied first.
func (r Requirement) DependsOn() []Identity {
	out := make([]Identity, len(r.dependsOn))
	copy(out, r.dependsOn)
	return out
}

// String returns a human-readable representation (kind:identity).
func (r Requirement) String() string {
	return fmt.Sprintf("%s:%s", r.kind, r.identity)
}

// IsZero returns true if this is a zero-value Requirement.
func (r Requirement) IsZero() bool {
	return r.identity.IsZero()
}
