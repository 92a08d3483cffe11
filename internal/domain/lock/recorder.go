// Package lock captures the resolved configuration of a successful run
// so later runs replay it exactly.
package lock

import (
	"errors"

	"github.com/stagehand-dev/stagehand/internal/domain/resolve"
	"github.com/stagehand-dev/stagehand/internal/domain/state"
)

// Recorder errors.
var (
	// ErrNotSuccessful reports an attempt to lock a run that did not
	// fully succeed.
	ErrNotSuccessful = errors.New("cannot lock: resolution did not fully succeed")
)

// Recorder captures resolved configuration values as locked entries.
// A locked project, resolved again with unchanged external inputs, must
// reproduce identical provisioning decisions: providers see the locked
// values at check time, report satisfied, and nothing is re-provisioned.
type Recorder struct{}

// NewRecorder creates a Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record retags every resolved entry of the run's requirements as
// locked and writes it back through the store. Locked entries override
// prior auto-provisioned values; they never displace user-provided
// values unless forceRelock is set. Returns how many entries were
// captured.
func (r *Recorder) Record(result *resolve.Result, store *state.Store, forceRelock bool) (int, error) {
	if !result.Succeeded() {
		return 0, ErrNotSuccessful
	}

	captured := 0
	for _, outcome := range result.Outcomes() {
		for _, entry := range store.ForIdentity(outcome.Identity().String()) {
			if entry.Origin() == state.OriginUser && !forceRelock {
				continue
			}
			if store.Merge(entry.WithOrigin(state.OriginLocked), forceRelock) {
				captured++
			}
		}
	}
	return captured, nil
}

// Erase retags all locked entries for identity back to auto-provisioned,
// so the next run re-resolves it freely. An empty identity erases every
// lock record. Returns how many entries were retagged.
func (r *Recorder) Erase(store *state.Store, identity string) int {
	erased := 0
	for _, entry := range store.Entries() {
		if entry.Origin() != state.OriginLocked {
			continue
		}
		if identity != "" && entry.Key().Identity() != identity {
			continue
		}
		store.Merge(entry.WithOrigin(state.OriginAuto), true)
		erased++
	}
	return erased
}

// Drift is one divergence between a locked value and the value a fresh
// resolution produced.
type Drift struct {
	Key         state.Key
	LockedValue string
	FreshValue  string
}

// FindDrift compares the locked entries of a prior store against the
// values in a freshly resolved store. Keys locked before but absent now
// report an empty FreshValue.
func FindDrift(locked, fresh *state.Store) []Drift {
	var drifts []Drift
	for _, entry := range locked.Entries() {
		if entry.Origin() != state.OriginLocked {
			continue
		}
		current, ok := fresh.Get(entry.Key())
		if !ok {
			drifts = append(drifts, Drift{Key: entry.Key(), LockedValue: entry.Value()})
			continue
		}
		if current.Value() != entry.Value() {
			drifts = append(drifts, Drift{
				Key:         entry.Key(),
				LockedValue: entry.Value(),
				FreshValue:  current.Value(),
			})
		}
	}
	return drifts
}
