package resolve

import (
	"time"

	"github.com/stagehand-dev/stagehand/internal/domain/requirement"
)

// Outcome is the final disposition of one requirement in a run.
type Outcome string

const (
	// OutcomeSatisfied means the requirement was already met.
	OutcomeSatisfied Outcome = "satisfied"
	// OutcomeProvisioned means the requirement was provisioned this run.
	OutcomeProvisioned Outcome = "provisioned"
	// OutcomeUnsatisfied means the requirement is unmet and provisioning
	// was not attempted (check-only or dry runs).
	OutcomeUnsatisfied Outcome = "unsatisfied"
	// OutcomeFailed means provisioning was attempted and failed.
	OutcomeFailed Outcome = "failed"
	// OutcomeBlocked means an unmet or failed dependency made the
	// requirement un-attemptable.
	OutcomeBlocked Outcome = "blocked"
	// OutcomeCancelled means the run was cancelled before the
	// requirement was reached or while it was in flight.
	OutcomeCancelled Outcome = "cancelled"
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	return string(o)
}

// Met returns true if the requirement ended the run satisfied.
func (o Outcome) Met() bool {
	return o == OutcomeSatisfied || o == OutcomeProvisioned
}

// Overall is the aggregated disposition of a whole run.
type Overall string

const (
	// OverallSuccess means every requirement ended satisfied.
	OverallSuccess Overall = "success"
	// OverallPartial means some requirements failed but independent ones
	// were still attempted.
	OverallPartial Overall = "partial"
	// OverallBlocked means a failure made dependent requirements
	// un-attemptable, or RequireAll upgraded a failure.
	OverallBlocked Overall = "blocking-failure"
)

// String returns the string representation.
func (o Overall) String() string {
	return string(o)
}

// RequirementResult captures one requirement's outcome in a run.
type RequirementResult struct {
	identity requirement.Identity
	kind     requirement.Kind
	outcome  Outcome
	status   requirement.Status
	err      error
	fatal    bool
	duration time.Duration
}

// NewRequirementResult creates a RequirementResult.
func NewRequirementResult(req requirement.Requirement, outcome Outcome, status requirement.Status, err error) RequirementResult {
	return RequirementResult{
		identity: req.Identity(),
		kind:     req.Kind(),
		outcome:  outcome,
		status:   status,
		err:      err,
	}
}

// Identity returns the requirement identity.
func (r RequirementResult) Identity() requirement.Identity {
	return r.identity
}

// Kind returns the requirement kind.
func (r RequirementResult) Kind() requirement.Kind {
	return r.kind
}

// Outcome returns the final disposition.
func (r RequirementResult) Outcome() Outcome {
	return r.outcome
}

// Status returns the last observed status.
func (r RequirementResult) Status() requirement.Status {
	return r.status
}

// Error returns the provisioning error, nil unless Outcome is failed.
func (r RequirementResult) Error() error {
	return r.err
}

// Fatal reports whether the failure is non-retryable: the requirement's
// parameters are invalid and a later run will not be attempted without a
// definition change.
func (r RequirementResult) Fatal() bool {
	return r.fatal
}

// Duration returns how long provisioning took, zero if never attempted.
func (r RequirementResult) Duration() time.Duration {
	return r.duration
}

// WithDuration returns a copy with the duration set.
func (r RequirementResult) WithDuration(d time.Duration) RequirementResult {
	r.duration = d
	return r
}

// WithFatal returns a copy with the fatal flag set.
func (r RequirementResult) WithFatal(fatal bool) RequirementResult {
	r.fatal = fatal
	return r
}

// Result aggregates a whole resolution run. The per-requirement results
// keep plan order, so a caller can report exactly which requirements
// need attention without losing the ones that succeeded.
type Result struct {
	runID      string
	outcomes   []RequirementResult
	overall    Overall
	cancelled  bool
	provisions int
	startedAt  time.Time
	finishedAt time.Time
}

// RunID returns the unique identifier of this resolution run.
func (r *Result) RunID() string {
	return r.runID
}

// Outcomes returns every requirement's result in plan order.
func (r *Result) Outcomes() []RequirementResult {
	return r.outcomes
}

// For returns the result for one requirement identity.
func (r *Result) For(id requirement.Identity) (RequirementResult, bool) {
	for _, o := range r.outcomes {
		if o.identity.Equals(id) {
			return o, true
		}
	}
	return RequirementResult{}, false
}

// Overall returns the aggregated disposition.
func (r *Result) Overall() Overall {
	return r.overall
}

// Succeeded returns true if every requirement ended satisfied.
func (r *Result) Succeeded() bool {
	return r.overall == OverallSuccess
}

// Cancelled reports whether the run stopped early on cancellation.
func (r *Result) Cancelled() bool {
	return r.cancelled
}

// ProvisionCount returns how many provision calls the run performed.
// Resolving an already-satisfied project reports zero.
func (r *Result) ProvisionCount() int {
	return r.provisions
}

// StartedAt returns when the run began.
func (r *Result) StartedAt() time.Time {
	return r.startedAt
}

// FinishedAt returns when the run completed.
func (r *Result) FinishedAt() time.Time {
	return r.finishedAt
}

// aggregateOverall folds per-requirement outcomes into the overall
// disposition. A failure with blocked dependents is still partial; only
// requireAll upgrades it to a blocking failure.
func aggregateOverall(outcomes []RequirementResult, requireAll bool) Overall {
	allMet := true
	for _, o := range outcomes {
		if !o.outcome.Met() {
			allMet = false
			break
		}
	}

	switch {
	case allMet:
		return OverallSuccess
	case requireAll:
		return OverallBlocked
	default:
		return OverallPartial
	}
}
