package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/stagehand-dev/stagehand/internal/domain/project"
	"github.com/stagehand-dev/stagehand/internal/domain/requirement"
	"github.com/stagehand-dev/stagehand/internal/domain/resolve"
	"github.com/stagehand-dev/stagehand/internal/domain/state"
	"github.com/stagehand-dev/stagehand/internal/ports"
)

// Project mutation operations. Each one mutates the definition in
// memory, resolves just the touched requirement and its dependencies,
// and only writes the definition file when that resolution succeeds. A
// change that cannot be satisfied leaves the project file untouched.

// AddVariable declares a variable requirement and commits it.
func (s *PrepareService) AddVariable(ctx context.Context, dir, name string, params requirement.VariableParams, opts resolve.Options, dependsOn ...string) (*resolve.Result, error) {
	def, err := project.Load(dir)
	if err != nil {
		return nil, err
	}
	if err := def.SetVariable(name, params, dependsOn...); err != nil {
		return nil, err
	}
	return s.commit(ctx, dir, def, name, opts)
}

// RemoveVariable drops a variable declaration and its recorded values.
func (s *PrepareService) RemoveVariable(ctx context.Context, dir, name string) error {
	def, err := project.Load(dir)
	if err != nil {
		return err
	}
	if err := def.RemoveVariable(name); err != nil {
		return err
	}
	return s.commitRemoval(ctx, dir, def, name)
}

// AddDownload declares a download requirement and commits it.
func (s *PrepareService) AddDownload(ctx context.Context, dir, envVar string, params requirement.DownloadParams, opts resolve.Options) (*resolve.Result, error) {
	def, err := project.Load(dir)
	if err != nil {
		return nil, err
	}
	if err := def.SetDownload(envVar, params); err != nil {
		return nil, err
	}
	return s.commit(ctx, dir, def, envVar, opts)
}

// RemoveDownload drops a download declaration and its recorded values.
func (s *PrepareService) RemoveDownload(ctx context.Context, dir, envVar string) error {
	def, err := project.Load(dir)
	if err != nil {
		return err
	}
	if err := def.RemoveDownload(envVar); err != nil {
		return err
	}
	return s.commitRemoval(ctx, dir, def, envVar)
}

// AddService declares a service requirement plus the variable carrying
// its address, and commits both.
func (s *PrepareService) AddService(ctx context.Context, dir, envVar, flavor string, opts resolve.Options) (*resolve.Result, error) {
	def, err := project.Load(dir)
	if err != nil {
		return nil, err
	}
	if err := def.SetService(envVar, flavor); err != nil {
		return nil, err
	}
	return s.commit(ctx, dir, def, envVar, opts)
}

// RemoveService stops the service if its provider knows how, then drops
// the declaration and recorded values.
func (s *PrepareService) RemoveService(ctx context.Context, dir, envVar string) error {
	// Teardown needs the declaration still present to find the provider.
	if err := s.Unprepare(ctx, dir, envVar); err != nil {
		return err
	}

	def, err := project.Load(dir)
	if err != nil {
		return err
	}
	if err := def.RemoveService(envVar); err != nil {
		return err
	}
	return s.commitRemoval(ctx, dir, def, envVar)
}

// commit resolves the touched requirement's dependency closure and
// persists the definition only when everything in it resolved.
func (s *PrepareService) commit(ctx context.Context, dir string, def *project.Definition, identity string, opts resolve.Options) (*resolve.Result, error) {
	reqs, err := def.Requirements()
	if err != nil {
		return nil, err
	}

	subset := dependencyClosure(reqs, identity)
	if len(subset) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRequirementNotFound, identity)
	}

	result, err := s.resolve(ctx, dir, subset, opts)
	if err != nil {
		return nil, err
	}
	if !result.Succeeded() {
		s.logger.Warn(ctx, "change not committed, requirement did not resolve",
			ports.F("identity", identity),
			ports.F("overall", result.Overall().String()))
		return result, fmt.Errorf("requirement %s could not be satisfied; project file left unchanged", identity)
	}

	if err := project.Save(dir, def); err != nil {
		return result, err
	}
	return result, nil
}

// commitRemoval writes the definition and strips the removed identity's
// non-user entries from the store.
func (s *PrepareService) commitRemoval(ctx context.Context, dir string, def *project.Definition, identity string) error {
	release, err := s.repo.AcquireRunLock(ctx, StatePath(dir), uuid.NewString())
	if err != nil {
		return err
	}
	defer release()

	if err := project.Save(dir, def); err != nil {
		return err
	}

	store, err := s.loadStore(ctx, dir)
	if err != nil {
		return err
	}
	removed := 0
	for _, entry := range store.ForIdentity(identity) {
		if entry.Origin() != state.OriginUser {
			if store.Remove(entry.Key()) {
				removed++
			}
		}
	}
	if removed == 0 {
		return nil
	}
	return s.repo.Save(ctx, StatePath(dir), store)
}

// dependencyClosure returns the requirement named by identity together
// with its transitive dependencies, preserving declaration order.
func dependencyClosure(reqs []requirement.Requirement, identity string) []requirement.Requirement {
	byID := make(map[string]requirement.Requirement, len(reqs))
	for _, req := range reqs {
		byID[req.Identity().String()] = req
	}

	wanted := map[string]bool{}
	var visit func(id string)
	visit = func(id string) {
		if wanted[id] {
			return
		}
		req, ok := byID[id]
		if !ok {
			return
		}
		wanted[id] = true
		for _, dep := range req.DependsOn() {
			visit(dep.String())
		}
	}
	visit(identity)

	var subset []requirement.Requirement
	for _, req := range reqs {
		if wanted[req.Identity().String()] {
			subset = append(subset, req)
		}
	}
	return subset
}
