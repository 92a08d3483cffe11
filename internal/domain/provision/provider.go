// Package provision defines the pluggable provider contract and the
// registry that maps requirement kinds to providers.
package provision

import (
	"github.com/stagehand-dev/stagehand/internal/domain/requirement"
	"github.com/stagehand-dev/stagehand/internal/domain/state"
)

// Provider is one provisioning strategy. One implementation handles one
// requirement kind or family of kinds.
type Provider interface {
	// Name returns the provider's identifier (e.g., "conda", "redis").
	Name() string

	// Matches reports whether this provider can handle the requirement.
	Matches(req requirement.Requirement) bool

	// Check probes the current environment and configuration state.
	// It must not mutate external state and must be safe to call
	// repeatedly and concurrently with other providers' checks. An
	// inconclusive probe returns an Unknown status so the resolver can
	// fall through to the next matching provider.
	Check(ctx RunContext, req requirement.Requirement, cfg state.Reader) requirement.Status

	// Provision performs the side-effecting work and returns the
	// resulting status plus configuration entries to persist. The
	// resolver only calls Provision after Check reported unsatisfied,
	// but a provider must not assume it runs at most once per process.
	// Failures are signaled through the error: wrap ErrFatal for
	// malformed parameters that can never succeed, anything else is
	// treated as retryable.
	Provision(ctx RunContext, req requirement.Requirement, cfg state.Reader) (requirement.Status, []state.Entry, error)
}

// Unpreparer is an optional capability for providers that can tear down
// what they provisioned (stopping a launched service, for example).
// Providers without side effects worth undoing simply do not implement it.
type Unpreparer interface {
	// Unprepare undoes a prior successful provision using the recorded
	// configuration entries. It is a no-op if nothing is running.
	Unprepare(ctx RunContext, req requirement.Requirement, cfg state.Reader) error
}

// AsUnpreparer returns the provider's teardown capability, if any.
func AsUnpreparer(p Provider) (Unpreparer, bool) {
	u, ok := p.(Unpreparer)
	return u, ok
}
