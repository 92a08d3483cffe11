// Package statefile persists the configuration store as a YAML file.
package statefile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/stagehand-dev/stagehand/internal/domain/state"
)

// YAMLRepository implements state.Repository using YAML files.
type YAMLRepository struct{}

// NewYAMLRepository creates a new YAML-based state repository.
func NewYAMLRepository() *YAMLRepository {
	return &YAMLRepository{}
}

// Load reads the store from path. A missing file is an empty store. A
// corrupt file also yields an empty store, with an error wrapping
// state.ErrStoreCorrupt that callers surface as a warning so the
// project can still be provisioned from scratch.
func (r *YAMLRepository) Load(_ context.Context, path string) (*state.Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return state.NewStore(), nil
		}
		return state.NewStore(), fmt.Errorf("%w: %w", state.ErrStoreCorrupt, err)
	}

	var dto state.StoreDTO
	if err := yaml.Unmarshal(data, &dto); err != nil {
		return state.NewStore(), fmt.Errorf("%w: %w", state.ErrStoreCorrupt, err)
	}

	store, err := state.StoreFromDTO(dto)
	if err != nil {
		return state.NewStore(), fmt.Errorf("%w: %w", state.ErrStoreCorrupt, err)
	}

	return store, nil
}

// Save writes the store to path atomically via a temp-file rename.
func (r *YAMLRepository) Save(_ context.Context, path string, store *state.Store) error {
	dto := state.StoreToDTO(store)

	data, err := yaml.Marshal(&dto)
	if err != nil {
		return fmt.Errorf("%w: %w", state.ErrSaveFailed, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: failed to create directory: %w", state.ErrSaveFailed, err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("%w: %w", state.ErrSaveFailed, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: %w", state.ErrSaveFailed, err)
	}

	return nil
}

// AcquireRunLock creates an exclusive lock file next to the state file.
// The engine does not do fine-grained locking over the store, so whole
// runs are serialized here; a second run fails fast with ErrStoreBusy
// instead of corrupting the store.
func (r *YAMLRepository) AcquireRunLock(_ context.Context, path, runID string) (state.ReleaseFunc, error) {
	lockPath := path + ".lock"

	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			holder, _ := os.ReadFile(lockPath)
			return nil, fmt.Errorf("%w: held by run %s", state.ErrStoreBusy, string(holder))
		}
		return nil, fmt.Errorf("failed to acquire run lock: %w", err)
	}

	_, _ = f.WriteString(runID)
	_ = f.Close()

	return func() error {
		return os.Remove(lockPath)
	}, nil
}

// Ensure YAMLRepository implements state.Repository.
var _ state.Repository = (*YAMLRepository)(nil)
