package state

import (
	"context"
	"errors"
	"fmt"
)

// Repository errors.
var (
	// ErrStoreCorrupt reports an unreadable state file. Load still
	// returns a usable empty store alongside it; callers log a warning
	// and provision from scratch rather than failing the run.
	ErrStoreCorrupt = errors.New("state file is corrupt")
	// ErrStoreBusy reports that another resolution run holds the store.
	ErrStoreBusy = errors.New("another resolution run is in progress")
	// ErrSaveFailed reports a failed state file write.
	ErrSaveFailed = errors.New("failed to save state file")
)

// ReleaseFunc releases a held run lock.
type ReleaseFunc func() error

// Repository is the port for configuration store persistence.
// Implementations handle file I/O, serialization, and run serialization.
type Repository interface {
	// Load reads the store for a project. A missing file yields an empty
	// store and nil error. A corrupt file yields an empty store and an
	// error wrapping ErrStoreCorrupt.
	Load(ctx context.Context, path string) (*Store, error)

	// Save writes the store atomically, creating parent directories as
	// needed.
	Save(ctx context.Context, path string, store *Store) error

	// AcquireRunLock serializes resolution runs over one store. It
	// returns ErrStoreBusy if another run holds the lock; it never
	// blocks waiting.
	AcquireRunLock(ctx context.Context, path, runID string) (ReleaseFunc, error)
}

// StoreFileVersion is the current state file format version.
const StoreFileVersion = 1

// StoreDTO is the serializable representation of a Store.
type StoreDTO struct {
	Version int        `yaml:"version"`
	Entries []EntryDTO `yaml:"entries,omitempty"`
}

// EntryDTO is the serializable representation of an Entry.
type EntryDTO struct {
	Identity string `yaml:"identity"`
	Field    string `yaml:"field,omitempty"`
	Value    string `yaml:"value"`
	Origin   string `yaml:"origin"`
}

// StoreToDTO converts a Store to its serializable form, entries in
// deterministic key order.
func StoreToDTO(s *Store) StoreDTO {
	dto := StoreDTO{Version: StoreFileVersion}
	for _, e := range s.Entries() {
		dto.Entries = append(dto.Entries, EntryDTO{
			Identity: e.Key().Identity(),
			Field:    e.Key().Field(),
			Value:    e.Value(),
			Origin:   string(e.Origin()),
		})
	}
	return dto
}

// StoreFromDTO converts a DTO back to a Store, validating each entry.
func StoreFromDTO(dto StoreDTO) (*Store, error) {
	store := NewStore()
	for _, ed := range dto.Entries {
		key, err := NewKey(ed.Identity, ed.Field)
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", ed.Identity, err)
		}
		entry, err := NewEntry(key, ed.Value, Origin(ed.Origin))
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", key, err)
		}
		// DTO round-trips bypass the merge policy: the file is the
		// already-merged truth.
		store.entries[key.String()] = entry
	}
	return store, nil
}
