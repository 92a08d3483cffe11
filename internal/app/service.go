// Package app wires the domain together: it loads project definitions
// and configuration state, assembles the provider registry, runs the
// resolver, and records lock state. The cobra commands are thin wrappers
// over this package.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/stagehand-dev/stagehand/internal/domain/lock"
	"github.com/stagehand-dev/stagehand/internal/domain/project"
	"github.com/stagehand-dev/stagehand/internal/domain/provision"
	"github.com/stagehand-dev/stagehand/internal/domain/requirement"
	"github.com/stagehand-dev/stagehand/internal/domain/resolve"
	"github.com/stagehand-dev/stagehand/internal/domain/state"
	"github.com/stagehand-dev/stagehand/internal/ports"
	"github.com/stagehand-dev/stagehand/internal/provider/condaenv"
	"github.com/stagehand-dev/stagehand/internal/provider/download"
	"github.com/stagehand-dev/stagehand/internal/provider/envvar"
	"github.com/stagehand-dev/stagehand/internal/provider/service"
)

// Registry priorities. More specific providers sit above generic ones so
// the first conclusive check answer wins.
const (
	priorityEnv        = 30
	priorityDownload   = 20
	priorityService    = 20
	priorityServiceURL = 15
	priorityVariable   = 10
)

// ErrRequirementNotFound is returned when an identity names nothing in
// the project definition.
var ErrRequirementNotFound = errors.New("requirement not found in project")

// PrepareService orchestrates resolution runs for a project directory.
type PrepareService struct {
	logger   ports.Logger
	runner   ports.CommandRunner
	fetcher  ports.Downloader
	repo     state.Repository
	registry *provision.Registry
}

// PrepareServiceOption configures a PrepareService.
type PrepareServiceOption func(*PrepareService)

// WithLogger sets the structured logger.
func WithLogger(logger ports.Logger) PrepareServiceOption {
	return func(s *PrepareService) { s.logger = logger }
}

// WithRegistry replaces the default provider registry. Tests use this to
// inject configurable providers.
func WithRegistry(registry *provision.Registry) PrepareServiceOption {
	return func(s *PrepareService) { s.registry = registry }
}

// NewPrepareService assembles the service with the default provider
// registry built over the given adapters.
func NewPrepareService(runner ports.CommandRunner, fetcher ports.Downloader, repo state.Repository, opts ...PrepareServiceOption) *PrepareService {
	s := &PrepareService{
		logger:  nopLogger{},
		runner:  runner,
		fetcher: fetcher,
		repo:    repo,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = defaultRegistry(runner, fetcher)
	}
	return s
}

// defaultRegistry registers every built-in provider at its priority.
func defaultRegistry(runner ports.CommandRunner, fetcher ports.Downloader) *provision.Registry {
	registry := provision.NewRegistry()
	registry.Register(condaenv.NewProvider(runner), priorityEnv)
	registry.Register(download.NewProvider(fetcher), priorityDownload)
	registry.Register(service.NewRedisProvider(runner), priorityService)
	registry.Register(envvar.NewServiceURLProvider(), priorityServiceURL)
	registry.Register(envvar.NewVariableProvider(), priorityVariable)
	return registry
}

// StatePath returns where a project's configuration store lives.
func StatePath(dir string) string {
	return filepath.Join(dir, ".stagehand", "state.yml")
}

// Prepare resolves the whole project: every declared requirement is
// checked and, where unmet, provisioned. The configuration store is
// persisted once at the end of the run, a cancelled run included.
func (s *PrepareService) Prepare(ctx context.Context, dir string, opts resolve.Options) (*resolve.Result, error) {
	def, err := project.Load(dir)
	if err != nil {
		return nil, err
	}
	reqs, err := def.Requirements()
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, dir, reqs, opts)
}

// Status checks every requirement without provisioning anything and
// without touching the store on disk.
func (s *PrepareService) Status(ctx context.Context, dir string, opts resolve.Options) (*resolve.Result, error) {
	def, err := project.Load(dir)
	if err != nil {
		return nil, err
	}
	reqs, err := def.Requirements()
	if err != nil {
		return nil, err
	}

	store, err := s.loadStore(ctx, dir)
	if err != nil {
		return nil, err
	}

	opts.CheckOnly = true
	resolver := resolve.NewResolver(s.registry, resolve.WithLogger(s.logger))
	return resolver.Resolve(ctx, reqs, store, opts)
}

// Lock resolves the project and, on full success, retags the resolved
// entries as locked so later runs reproduce the same answers. With force
// set, locking overrides user-provided entries too.
func (s *PrepareService) Lock(ctx context.Context, dir string, opts resolve.Options) (*resolve.Result, int, error) {
	def, err := project.Load(dir)
	if err != nil {
		return nil, 0, err
	}
	reqs, err := def.Requirements()
	if err != nil {
		return nil, 0, err
	}

	store, err := s.loadStore(ctx, dir)
	if err != nil {
		return nil, 0, err
	}

	release, err := s.repo.AcquireRunLock(ctx, StatePath(dir), uuid.NewString())
	if err != nil {
		return nil, 0, err
	}
	defer release()

	opts.ProjectDir = dir
	resolver := resolve.NewResolver(s.registry, resolve.WithLogger(s.logger))
	result, err := resolver.Resolve(ctx, reqs, store, opts)
	if err != nil {
		return nil, 0, err
	}

	locked := 0
	if result.Succeeded() {
		recorder := lock.NewRecorder()
		locked, err = recorder.Record(result, store, opts.ForceRelock)
		if err != nil {
			return result, 0, err
		}
	}

	// One save covers both the resolution entries and the lock retags.
	if err := s.repo.Save(context.WithoutCancel(ctx), StatePath(dir), store); err != nil {
		return result, locked, err
	}
	return result, locked, nil
}

// Unlock retags an identity's locked entries back to auto-provisioned,
// or every locked entry when identity is empty.
func (s *PrepareService) Unlock(ctx context.Context, dir, identity string) (int, error) {
	release, err := s.repo.AcquireRunLock(ctx, StatePath(dir), uuid.NewString())
	if err != nil {
		return 0, err
	}
	defer release()

	store, err := s.loadStore(ctx, dir)
	if err != nil {
		return 0, err
	}

	erased := lock.NewRecorder().Erase(store, identity)

	if err := s.repo.Save(ctx, StatePath(dir), store); err != nil {
		return erased, err
	}
	return erased, nil
}

// Unprepare tears down what a requirement's provider provisioned and
// drops its auto-provisioned entries. User-provided entries survive.
func (s *PrepareService) Unprepare(ctx context.Context, dir, identity string) error {
	def, err := project.Load(dir)
	if err != nil {
		return err
	}
	reqs, err := def.Requirements()
	if err != nil {
		return err
	}

	var req requirement.Requirement
	found := false
	for _, candidate := range reqs {
		if candidate.Identity().String() == identity {
			req = candidate
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrRequirementNotFound, identity)
	}

	release, err := s.repo.AcquireRunLock(ctx, StatePath(dir), uuid.NewString())
	if err != nil {
		return err
	}
	defer release()

	store, err := s.loadStore(ctx, dir)
	if err != nil {
		return err
	}

	runCtx := provision.NewRunContext(ctx).WithProjectDir(dir)
	for _, prov := range s.registry.ProvidersFor(req) {
		if u, ok := provision.AsUnpreparer(prov); ok {
			if err := u.Unprepare(runCtx, req, store); err != nil {
				return fmt.Errorf("tearing down %s: %w", identity, err)
			}
		}
	}

	for _, entry := range store.ForIdentity(identity) {
		if entry.Origin() != state.OriginUser {
			store.Remove(entry.Key())
		}
	}

	return s.repo.Save(ctx, StatePath(dir), store)
}

// resolve runs the resolver over the given requirements with the run
// lock held and resolver-owned persistence.
func (s *PrepareService) resolve(ctx context.Context, dir string, reqs []requirement.Requirement, opts resolve.Options) (*resolve.Result, error) {
	store, err := s.loadStore(ctx, dir)
	if err != nil {
		return nil, err
	}

	release, err := s.repo.AcquireRunLock(ctx, StatePath(dir), uuid.NewString())
	if err != nil {
		return nil, err
	}
	defer release()

	opts.ProjectDir = dir
	resolver := resolve.NewResolver(s.registry,
		resolve.WithLogger(s.logger),
		resolve.WithStatePersistence(s.repo, StatePath(dir)))
	return resolver.Resolve(ctx, reqs, store, opts)
}

// loadStore reads the project's configuration store. A corrupt store
// degrades to an empty one with a warning so a bad file never bricks the
// project.
func (s *PrepareService) loadStore(ctx context.Context, dir string) (*state.Store, error) {
	store, err := s.repo.Load(ctx, StatePath(dir))
	if err != nil {
		if !errors.Is(err, state.ErrStoreCorrupt) {
			return nil, err
		}
		s.logger.Warn(ctx, "configuration store is corrupt, starting from empty",
			ports.F("path", StatePath(dir)),
			ports.F("error", err.Error()))
	}
	return store, nil
}

// nopLogger is the default when no logger is configured.
type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...ports.Field) {}
func (nopLogger) Info(context.Context, string, ...ports.Field)  {}
func (nopLogger) Warn(context.Context, string, ...ports.Field)  {}
func (nopLogger) Error(context.Context, string, ...ports.Field) {}
func (nopLogger) With(...ports.Field) ports.Logger              { return nopLogger{} }
