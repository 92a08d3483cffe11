// Package resolve contains the resolution engine: it plans requirements
// in dependency order, drives the check/provision cycle through the
// provider registry, contains failures to their dependency subtree, and
// aggregates per-requirement outcomes into a run result.
package resolve

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/stagehand-dev/stagehand/internal/domain/provision"
	"github.com/stagehand-dev/stagehand/internal/domain/requirement"
	"github.com/stagehand-dev/stagehand/internal/domain/state"
	"github.com/stagehand-dev/stagehand/internal/ports"
)

// Resolver drives resolution runs. It is safe to reuse across runs but
// a single store must only ever be resolved by one run at a time; the
// state repository's run lock enforces that.
type Resolver struct {
	registry *provision.Registry
	logger   ports.Logger
	repo     state.Repository
	statePth string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLogger sets the structured logger (default: no logging).
func WithLogger(logger ports.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithStatePersistence makes the resolver persist the store through repo
// at path exactly once during finalizing, including on cancellation.
// Without it the caller owns persistence.
func WithStatePersistence(repo state.Repository, path string) ResolverOption {
	return func(r *Resolver) {
		r.repo = repo
		r.statePth = path
	}
}

// NewResolver creates a Resolver over the given provider registry.
func NewResolver(registry *provision.Registry, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		registry: registry,
		logger:   nopLogger{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve runs one full resolution: plan, check, provision, finalize.
// Only a cycle, an invalid requirement set, or an internal error aborts
// the run with an error; provider failures are captured into the result.
// The store is mutated with provisioned entries under the merge policy
// and, when persistence is configured, written exactly once at the end.
func (r *Resolver) Resolve(ctx context.Context, reqs []requirement.Requirement, store *state.Store, opts Options) (*Result, error) {
	runID := uuid.NewString()
	startedAt := time.Now()

	tracker, err := newRunTracker(runID)
	if err != nil {
		return nil, err
	}
	defer tracker.stop()

	r.logger.Info(ctx, "resolution run started",
		ports.F("run_id", runID),
		ports.F("requirements", len(reqs)))

	// Planning. A cycle aborts before any provider is invoked.
	graph, order, err := r.plan(reqs)
	if err != nil {
		tracker.advance(eventAbort)
		return nil, err
	}
	tracker.advance(eventPlanned)

	runCtx := provision.NewRunContext(ctx).
		WithAllowNetwork(opts.AllowNetwork).
		WithProjectDir(opts.ProjectDir)

	// Checking. Independent requirements fan out; results merge back in
	// plan order before provisioning begins.
	plan := r.check(runCtx, graph, order, store, opts)
	tracker.advance(eventChecked)

	// Provisioning. Strictly sequential in plan order.
	var outcomes []RequirementResult
	provisions := 0
	if opts.CheckOnly {
		outcomes = checkOnlyOutcomes(plan)
		tracker.advance(eventProvisioned)
	} else {
		outcomes, provisions = r.provisionAll(runCtx, plan, store, opts)
		tracker.advance(eventProvisioned)
	}

	// Finalizing. The engine's ledger is written exactly once, after all
	// provisioning attempts, so an interrupt between two provisioning
	// steps never leaves it half-updated.
	result := &Result{
		runID:      runID,
		outcomes:   outcomes,
		overall:    aggregateOverall(outcomes, opts.RequireAll),
		cancelled:  ctx.Err() != nil,
		provisions: provisions,
		startedAt:  startedAt,
		finishedAt: time.Now(),
	}

	if r.repo != nil {
		if err := r.repo.Save(context.WithoutCancel(ctx), r.statePth, store); err != nil {
			tracker.advance(eventAbort)
			return nil, fmt.Errorf("persisting configuration store: %w", err)
		}
	}
	tracker.advance(eventFinalized)

	r.logger.Info(ctx, "resolution run finished",
		ports.F("run_id", runID),
		ports.F("overall", result.Overall().String()),
		ports.F("provisioned", provisions))

	return result, nil
}

// plan builds and validates the dependency graph and returns the
// topological order.
func (r *Resolver) plan(reqs []requirement.Requirement) (*Graph, []requirement.Requirement, error) {
	graph := NewGraph()
	for _, req := range reqs {
		if err := graph.Add(req); err != nil {
			return nil, nil, err
		}
	}
	if err := graph.Validate(); err != nil {
		return nil, nil, err
	}
	order, err := graph.TopologicalSort()
	if err != nil {
		return nil, nil, err
	}
	return graph, order, nil
}

// check probes every requirement, wave by dependency depth. Within one
// wave there is no dependency edge, so checks run concurrently up to
// opts.ConcurrentChecks; a requirement whose dependency checked unmet is
// marked blocked without invoking its own provider.
func (r *Resolver) check(runCtx provision.RunContext, graph *Graph, order []requirement.Requirement, store *state.Store, opts Options) *Plan {
	depths := graph.Depths()
	maxDepth := 0
	for _, d := range depths {
		if d > maxDepth {
			maxDepth = d
		}
	}

	type checked struct {
		status   requirement.Status
		provider provision.Provider
		blocked  bool
	}
	results := make(map[string]checked, len(order))

	unmet := func(id string) bool {
		c, ok := results[id]
		return !ok || c.blocked || !c.status.IsSatisfied()
	}

	for depth := 0; depth <= maxDepth; depth++ {
		var wave []requirement.Requirement
		for _, req := range order {
			if depths[req.Identity().String()] == depth {
				wave = append(wave, req)
			}
		}

		waveResults := make([]checked, len(wave))

		g, gctx := errgroup.WithContext(runCtx.Context())
		limit := opts.ConcurrentChecks
		if limit < 1 {
			limit = 1
		}
		g.SetLimit(limit)

		for i, req := range wave {
			// Short-circuit: config that depends on an unmet
			// requirement cannot possibly be valid yet, so checking it
			// would only produce misleading errors.
			blockedBy := ""
			for _, dep := range req.DependsOn() {
				if unmet(dep.String()) {
					blockedBy = dep.String()
					break
				}
			}
			if blockedBy != "" {
				waveResults[i] = checked{
					status:  requirement.Unsatisfied(fmt.Sprintf("waiting on %s", blockedBy)),
					blocked: true,
				}
				continue
			}

			g.Go(func() error {
				status, prov := r.checkOne(runCtx.WithContext(gctx), req, store)
				waveResults[i] = checked{status: status, provider: prov}
				return nil
			})
		}
		_ = g.Wait()

		for i, req := range wave {
			results[req.Identity().String()] = waveResults[i]
		}
	}

	plan := NewPlan()
	for _, req := range order {
		c := results[req.Identity().String()]
		plan.Add(NewPlanEntry(req, c.status, c.provider, c.blocked))
		r.logger.Debug(runCtx.Context(), "checked requirement",
			ports.F("requirement", req.String()),
			ports.F("satisfied", c.status.IsSatisfied()),
			ports.F("blocked", c.blocked))
	}
	return plan
}

// checkOne asks the matching providers in priority order and takes the
// first conclusive answer. When every provider is inconclusive the
// highest-priority one keeps the entry, treated as unmet: provisioning
// is the tie-breaker that will either fix or fail it conclusively.
func (r *Resolver) checkOne(runCtx provision.RunContext, req requirement.Requirement, store state.Reader) (requirement.Status, provision.Provider) {
	providers := r.registry.ProvidersFor(req)
	if len(providers) == 0 {
		return requirement.Unsatisfied(fmt.Sprintf("no provider for kind %q", req.Kind())), nil
	}

	for _, prov := range providers {
		status := prov.Check(runCtx, req, store)
		if status.Conclusive() {
			return status, prov
		}
	}
	return requirement.Unsatisfied("status could not be determined"), providers[0]
}

// provisionAll walks the plan in order and provisions every unmet
// entry. An entry blocked at check time is re-checked once its
// dependencies have provisioned, so a whole chain resolves in one run.
// A failure marks the requirement failed and every requirement depending
// on it blocked for the remainder of the run; independent siblings
// continue.
func (r *Resolver) provisionAll(runCtx provision.RunContext, plan *Plan, store *state.Store, opts Options) ([]RequirementResult, int) {
	outcomes := make([]RequirementResult, 0, plan.Len())
	failed := make(map[string]bool)
	provisions := 0
	cancelled := false

	for _, entry := range plan.Entries() {
		req := entry.Requirement()
		id := req.Identity().String()

		if cancelled || runCtx.Cancelled() {
			cancelled = true
			if entry.Status().IsSatisfied() && !entry.Blocked() {
				outcomes = append(outcomes, NewRequirementResult(req, OutcomeSatisfied, entry.Status(), nil))
			} else {
				outcomes = append(outcomes, NewRequirementResult(req, OutcomeCancelled,
					requirement.Cancelled("run cancelled before this requirement was provisioned"), nil))
			}
			continue
		}

		// Cascading containment: a failed dependency blocks the whole
		// subtree but leaves siblings untouched.
		blockedBy := ""
		for _, dep := range req.DependsOn() {
			if failed[dep.String()] {
				blockedBy = dep.String()
				break
			}
		}
		if blockedBy != "" {
			failed[id] = true
			outcomes = append(outcomes, NewRequirementResult(req, OutcomeBlocked,
				requirement.Unsatisfied(fmt.Sprintf("blocked: %s", blockedBy)), nil))
			continue
		}

		// An entry short-circuited during checking because a dependency
		// was still unmet gets a fresh check now: every dependency ended
		// met, and the store carries what they recorded.
		if entry.Blocked() {
			status, prov := r.checkOne(runCtx, req, store)
			entry = NewPlanEntry(req, status, prov, false)
		}

		if entry.Status().IsSatisfied() {
			outcomes = append(outcomes, NewRequirementResult(req, OutcomeSatisfied, entry.Status(), nil))
			continue
		}

		outcome := r.provisionOne(runCtx, entry, store)
		if entry.Provider() != nil {
			provisions++
		}
		if !outcome.Outcome().Met() {
			failed[id] = true
		}
		if outcome.Status().IsCancelled() {
			cancelled = true
		}
		outcomes = append(outcomes, outcome)
	}

	return outcomes, provisions
}

// provisionOne runs a single provision call and verifies it by re-running
// the provider's own check once. A provider that claims success while its
// check still reports unsatisfied is treated as a failure; this defends
// against partial or ineffective provisioning.
func (r *Resolver) provisionOne(runCtx provision.RunContext, entry PlanEntry, store *state.Store) RequirementResult {
	req := entry.Requirement()
	prov := entry.Provider()

	if prov == nil {
		err := fmt.Errorf("%w: %s", ErrNoProvider, req)
		return NewRequirementResult(req, OutcomeFailed,
			requirement.Unsatisfied(err.Error(), err.Error()), err).WithFatal(true)
	}

	r.logger.Info(runCtx.Context(), "provisioning requirement",
		ports.F("requirement", req.String()),
		ports.F("provider", prov.Name()))

	start := time.Now()
	status, entries, err := prov.Provision(runCtx, req, store)
	duration := time.Since(start)

	if err != nil {
		r.logger.Warn(runCtx.Context(), "provisioning failed",
			ports.F("requirement", req.String()),
			ports.F("error", err.Error()),
			ports.F("fatal", provision.IsFatal(err)))
		return NewRequirementResult(req, OutcomeFailed, status, err).
			WithFatal(provision.IsFatal(err)).
			WithDuration(duration)
	}

	if status.IsCancelled() {
		return NewRequirementResult(req, OutcomeCancelled, status, nil).WithDuration(duration)
	}

	store.MergeAll(entries, false)

	verify := prov.Check(runCtx, req, store)
	if !verify.Conclusive() || !verify.IsSatisfied() {
		err := fmt.Errorf("%w: %s", ErrVerifyFailed, req)
		return NewRequirementResult(req, OutcomeFailed, verify, err).WithDuration(duration)
	}

	return NewRequirementResult(req, OutcomeProvisioned, verify, nil).WithDuration(duration)
}

// checkOnlyOutcomes maps a checked plan straight to outcomes without
// provisioning anything.
func checkOnlyOutcomes(plan *Plan) []RequirementResult {
	outcomes := make([]RequirementResult, 0, plan.Len())
	for _, entry := range plan.Entries() {
		req := entry.Requirement()
		switch {
		case entry.Blocked():
			outcomes = append(outcomes, NewRequirementResult(req, OutcomeBlocked, entry.Status(), nil))
		case entry.Status().IsSatisfied():
			outcomes = append(outcomes, NewRequirementResult(req, OutcomeSatisfied, entry.Status(), nil))
		default:
			outcomes = append(outcomes, NewRequirementResult(req, OutcomeUnsatisfied, entry.Status(), nil))
		}
	}
	return outcomes
}

// nopLogger is the default logger when none is configured.
type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...ports.Field) {}
func (nopLogger) Info(context.Context, string, ...ports.Field)  {}
func (nopLogger) Warn(context.Context, string, ...ports.Field)  {}
func (nopLogger) Error(context.Context, string, ...ports.Field) {}
func (nopLogger) With(...ports.Field) ports.Logger              { return nopLogger{} }
