package provision

import "context"

// RunContext carries per-run settings into provider calls. Providers
// must honor cancellation of the underlying context promptly: abandon
// in-flight external operations and return a Cancelled status rather
// than leaving partially written state.
type RunContext struct {
	ctx          context.Context
	dryRun       bool
	allowNetwork bool
	projectDir   string
}

// NewRunContext creates a RunContext with network access allowed.
func NewRunContext(ctx context.Context) RunContext {
	return RunContext{ctx: ctx, allowNetwork: true}
}

// Context returns the underlying context.Context.
func (r RunContext) Context() context.Context {
	return r.ctx
}

// DryRun returns whether providers should only report, never mutate.
func (r RunContext) DryRun() bool {
	return r.dryRun
}

// AllowNetwork returns whether providers may reach the network. With
// network disabled, a provider whose provisioning would require it
// fails rather than silently degrading.
func (r RunContext) AllowNetwork() bool {
	return r.allowNetwork
}

// ProjectDir returns the project root directory, the base for relative
// artifact paths.
func (r RunContext) ProjectDir() string {
	return r.projectDir
}

// WithContext returns a copy carrying a different context.Context,
// preserving the run settings. Used when a phase sub-scopes cancellation.
func (r RunContext) WithContext(ctx context.Context) RunContext {
	r.ctx = ctx
	return r
}

// WithDryRun returns a copy with the dry-run flag set.
func (r RunContext) WithDryRun(dryRun bool) RunContext {
	r.dryRun = dryRun
	return r
}

// WithAllowNetwork returns a copy with network access set.
func (r RunContext) WithAllowNetwork(allow bool) RunContext {
	r.allowNetwork = allow
	return r
}

// WithProjectDir returns a copy with the project directory set.
func (r RunContext) WithProjectDir(dir string) RunContext {
	r.projectDir = dir
	return r
}

// Cancelled reports whether the run has been cancelled.
func (r RunContext) Cancelled() bool {
	return r.ctx.Err() != nil
}
