package resolve

import (
	"errors"
)

// Resolution errors. Only ErrCyclicDependency and internal errors abort
// a run; individual provider failures are captured into per-requirement
// outcomes instead.
var (
	// ErrDuplicateRequirement reports two requirements with one identity.
	ErrDuplicateRequirement = errors.New("requirement with this identity already exists")
	// ErrCyclicDependency reports a dependency cycle. No partial plan is
	// produced and no provider is invoked.
	ErrCyclicDependency = errors.New("cyclic dependency detected")
	// ErrMissingDependency reports a dependsOn entry naming no known
	// requirement.
	ErrMissingDependency = errors.New("requirement depends on nonexistent requirement")
	// ErrNoProvider reports a requirement kind no registered provider
	// handles.
	ErrNoProvider = errors.New("no provider registered for requirement")
	// ErrVerifyFailed reports a provider that claimed success while its
	// own check still reports unsatisfied.
	ErrVerifyFailed = errors.New("provisioning reported success but the requirement is still unsatisfied")
)
