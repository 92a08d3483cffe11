package resolve

import (
	"github.com/stagehand-dev/stagehand/internal/domain/provision"
	"github.com/stagehand-dev/stagehand/internal/domain/requirement"
)

// PlanEntry is one requirement's checked state within a plan.
type PlanEntry struct {
	req      requirement.Requirement
	status   requirement.Status
	provider provision.Provider
	blocked  bool
}

// NewPlanEntry creates a PlanEntry. provider is the first provider that
// answered conclusively during checking, or the highest-priority match
// when every answer was inconclusive; it may be nil for blocked entries
// and for kinds nothing handles.
func NewPlanEntry(req requirement.Requirement, status requirement.Status, provider provision.Provider, blocked bool) PlanEntry {
	return PlanEntry{
		req:      req,
		status:   status,
		provider: provider,
		blocked:  blocked,
	}
}

// Requirement returns the requirement.
func (e PlanEntry) Requirement() requirement.Requirement {
	return e.req
}

// Status returns the checked status.
func (e PlanEntry) Status() requirement.Status {
	return e.status
}

// Provider returns the provider that will provision this entry.
func (e PlanEntry) Provider() provision.Provider {
	return e.provider
}

// Blocked reports whether an unmet dependency short-circuited checking
// for this entry.
func (e PlanEntry) Blocked() bool {
	return e.blocked
}

// NeedsProvision reports whether the provisioning phase should attempt
// this entry.
func (e PlanEntry) NeedsProvision() bool {
	return !e.blocked && !e.status.IsSatisfied() && !e.status.IsCancelled()
}

// PlanSummary provides aggregate statistics about a plan.
type PlanSummary struct {
	Total     int
	Satisfied int
	Unmet     int
	Blocked   int
}

// Plan is the ordered execution plan: every requirement appears after
// all entries in its dependsOn set.
type Plan struct {
	entries []PlanEntry
}

// NewPlan creates an empty Plan.
func NewPlan() *Plan {
	return &Plan{entries: make([]PlanEntry, 0)}
}

// Add appends a plan entry.
func (p *Plan) Add(entry PlanEntry) {
	p.entries = append(p.entries, entry)
}

// Len returns the number of entries.
func (p *Plan) Len() int {
	return len(p.entries)
}

// IsEmpty returns true if there are no entries.
func (p *Plan) IsEmpty() bool {
	return len(p.entries) == 0
}

// Entries returns all plan entries in plan order.
func (p *Plan) Entries() []PlanEntry {
	return p.entries
}

// HasUnmet returns true if any entry needs provisioning.
func (p *Plan) HasUnmet() bool {
	for _, e := range p.entries {
		if e.NeedsProvision() {
			return true
		}
	}
	return false
}

// Summary returns aggregate statistics.
func (p *Plan) Summary() PlanSummary {
	s := PlanSummary{Total: len(p.entries)}
	for _, e := range p.entries {
		switch {
		case e.blocked:
			s.Blocked++
		case e.status.IsSatisfied():
			s.Satisfied++
		default:
			s.Unmet++
		}
	}
	return s
}
