package resolve

import (
	"fmt"
	"sync"
	"time"

	"github.com/felixgeelhaar/statekit"
)

// Phase names the stage a resolution run is in.
type Phase string

const (
	// PhasePlanning builds and sorts the dependency graph.
	PhasePlanning Phase = "planning"
	// PhaseChecking probes every requirement's current status.
	PhaseChecking Phase = "checking"
	// PhaseProvisioning provisions unmet requirements in plan order.
	PhaseProvisioning Phase = "provisioning"
	// PhaseFinalizing aggregates outcomes and persists the store.
	PhaseFinalizing Phase = "finalizing"
	// PhaseDone is the terminal state of a completed run.
	PhaseDone Phase = "done"
	// PhaseFailed is the terminal state of an aborted run.
	PhaseFailed Phase = "failed"
)

// Events driving the run state machine.
const (
	eventPlanned     = "PLANNED"
	eventChecked     = "CHECKED"
	eventProvisioned = "PROVISIONED"
	eventFinalized   = "FINALIZED"
	eventAbort       = "ABORT"
)

// runInfo is the statekit context for a resolution run.
type runInfo struct {
	RunID     string
	StartedAt time.Time
}

// runTracker drives the per-run phase machine. Phases advance strictly
// forward; cancellation still passes through finalizing so the store is
// persisted exactly once.
type runTracker struct {
	mu     sync.Mutex
	interp *statekit.Interpreter[runInfo]
}

// newRunTracker builds and starts the phase machine for a run.
func newRunTracker(runID string) (*runTracker, error) {
	machine, err := statekit.NewMachine[runInfo]("resolution-run").
		WithInitial(statekit.StateID(PhasePlanning)).
		WithContext(runInfo{RunID: runID, StartedAt: time.Now()}).
		State(statekit.StateID(PhasePlanning)).
		On(eventPlanned).Target(statekit.StateID(PhaseChecking)).
		On(eventAbort).Target(statekit.StateID(PhaseFailed)).Done().
		State(statekit.StateID(PhaseChecking)).
		On(eventChecked).Target(statekit.StateID(PhaseProvisioning)).
		On(eventAbort).Target(statekit.StateID(PhaseFailed)).Done().
		State(statekit.StateID(PhaseProvisioning)).
		On(eventProvisioned).Target(statekit.StateID(PhaseFinalizing)).
		On(eventAbort).Target(statekit.StateID(PhaseFailed)).Done().
		State(statekit.StateID(PhaseFinalizing)).
		On(eventFinalized).Target(statekit.StateID(PhaseDone)).
		On(eventAbort).Target(statekit.StateID(PhaseFailed)).Done().
		State(statekit.StateID(PhaseDone)).Done().
		State(statekit.StateID(PhaseFailed)).Done().
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build run state machine: %w", err)
	}

	interp := statekit.NewInterpreter(machine)
	interp.Start()

	return &runTracker{interp: interp}, nil
}

// Phase returns the run's current phase.
func (t *runTracker) Phase() Phase {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Phase(t.interp.State().Value)
}

// advance sends a phase transition event.
func (t *runTracker) advance(event string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.interp.Send(statekit.Event{Type: statekit.EventType(event)})
}

// stop tears the interpreter down at the end of a run.
func (t *runTracker) stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.interp.Stop()
}
