package saga

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrDuplicateStepID is returned when a step id is registered twice.
	// This is a programming-error-class fault: correct orchestration never
	// suspends the same step id while a previous suspension is pending.
	ErrDuplicateStepID = errors.New("step id is already registered")

	// ErrUnknownStepID is returned when a resolution targets a step id that
	// is not pending: already resolved, expired, or never registered. This is
	// the expected outcome for the loser of a resolve-vs-timeout race and is
	// non-fatal for callers that treat resolution as best effort.
	ErrUnknownStepID = errors.New("step id is not pending")
)

// pendingStep is a suspended async step owned by the registry from
// registration until resolution.
type pendingStep struct {
	stepID    string
	execution *Execution
	stepIndex int
	input     any // the input the suspended step ran with, kept for retries
	attempt   int
	deadline  time.Time
}

// AsyncStepRegistry maps suspended step ids to their pending continuations so
// an external event can resolve a specific in-flight step.
//
// The registry is explicitly owned: the composition root creates it, injects
// it into the Engine and the timeout sweeper, and drains it at shutdown. All
// operations are safe for concurrent use; removal is atomic, so exactly one
// of {external resolution, timeout} wins a given entry.
type AsyncStepRegistry struct {
	mu      sync.Mutex
	pending map[string]*pendingStep
}

// NewAsyncStepRegistry creates an empty registry.
func NewAsyncStepRegistry() *AsyncStepRegistry {
	return &AsyncStepRegistry{
		pending: make(map[string]*pendingStep),
	}
}

// register adds a pending step. Fails with ErrDuplicateStepID if the id is
// already pending.
func (r *AsyncStepRegistry) register(p *pendingStep) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pending[p.stepID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateStepID, p.stepID)
	}
	r.pending[p.stepID] = p
	return nil
}

// take atomically removes and returns the pending entry for stepID.
// Returns ErrUnknownStepID if no such entry is pending.
func (r *AsyncStepRegistry) take(stepID string) (*pendingStep, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pending[stepID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStepID, stepID)
	}
	delete(r.pending, stepID)
	return p, nil
}

// takeExpired atomically removes and returns all entries whose deadline has
// passed. Used by the timeout sweeper.
func (r *AsyncStepRegistry) takeExpired(now time.Time) []*pendingStep {
	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []*pendingStep
	for id, p := range r.pending {
		if !p.deadline.After(now) {
			expired = append(expired, p)
			delete(r.pending, id)
		}
	}
	return expired
}

// IsPending reports whether the given step id currently awaits resolution.
// Exposed so suspension state is inspectable by callers and tests.
func (r *AsyncStepRegistry) IsPending(stepID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.pending[stepID]
	return ok
}

// PendingCount returns the number of suspended steps awaiting resolution.
func (r *AsyncStepRegistry) PendingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Drain removes all pending entries and returns their step ids.
// Called at shutdown; the abandoned ids are logged, their executions stay
// suspended and are lost with the process, as in-flight saga state is not
// persisted.
func (r *AsyncStepRegistry) Drain() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.pending))
	for id := range r.pending {
		ids = append(ids, id)
		delete(r.pending, id)
	}
	return ids
}
