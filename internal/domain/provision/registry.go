package provision

import (
	"sort"

	"github.com/stagehand-dev/stagehand/internal/domain/requirement"
)

// Registry maps requirement kinds to the providers able to handle them.
// It is an explicit object constructed once at process start and passed
// into the resolver; there is no package-level registration.
//
// Lookup is a pure function of the registered providers and the
// requirement: no network or filesystem access.
type Registry struct {
	registrations []registration
}

type registration struct {
	provider Provider
	priority int
	order    int
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a provider with a priority. Higher priorities are
// consulted first; ties keep registration order. Multiple providers may
// match one kind (e.g., a generic variable provider and a more specific
// service-URL provider); the resolver uses the first that reports a
// conclusive status and falls through on Unknown.
func (r *Registry) Register(provider Provider, priority int) {
	r.registrations = append(r.registrations, registration{
		provider: provider,
		priority: priority,
		order:    len(r.registrations),
	})
}

// ProvidersFor returns the providers matching the requirement in
// deterministic priority order.
func (r *Registry) ProvidersFor(req requirement.Requirement) []Provider {
	var matched []registration
	for _, reg := range r.registrations {
		if reg.provider.Matches(req) {
			matched = append(matched, reg)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].priority != matched[j].priority {
			return matched[i].priority > matched[j].priority
		}
		return matched[i].order < matched[j].order
	})

	out := make([]Provider, len(matched))
	for i, reg := range matched {
		out[i] = reg.provider
	}
	return out
}

// Providers returns every registered provider in priority order.
func (r *Registry) Providers() []Provider {
	regs := make([]registration, len(r.registrations))
	copy(regs, r.registrations)
	sort.SliceStable(regs, func(i, j int) bool {
		if regs[i].priority != regs[j].priority {
			return regs[i].priority > regs[j].priority
		}
		return regs[i].order < regs[j].order
	})

	out := make([]Provider, len(regs))
	for i, reg := range regs {
		out[i] = reg.provider
	}
	return out
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	return len(r.registrations)
}
