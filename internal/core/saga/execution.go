package saga

import (
	"errors"
	"fmt"
	"sync"

	"fooddelivery/internal/core/domain/model/kernel"
)

var (
	// ErrExecutionTerminal is returned when a resolver or step tries to mutate
	// an execution that already completed or compensated.
	ErrExecutionTerminal = errors.New("saga execution is terminal")

	// ErrStepAlreadyCommitted is returned when a step name would be committed
	// twice within one execution. Correct orchestration never does this; the
	// check backs the idempotent single-claim invariant.
	ErrStepAlreadyCommitted = errors.New("step is already committed in this execution")

	// ErrExecutionNotSuspended is returned when a resolution arrives for an
	// execution that is not currently suspended.
	ErrExecutionNotSuspended = errors.New("saga execution is not suspended")
)

// State is the lifecycle state of a saga execution.
type State int

const (
	// StateUnknown is the invalid zero value.
	StateUnknown State = iota

	// StateRunning means a step is currently executing.
	StateRunning

	// StateSuspended means the execution is parked on an async step awaiting
	// an external signal or timeout.
	StateSuspended

	// StateCompleted means the final step committed. Terminal.
	StateCompleted

	// StateCompensated means a step failed and the compensation cascade ran.
	// Terminal.
	StateCompensated
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateRunning:
		return "Running"
	case StateSuspended:
		return "Suspended"
	case StateCompleted:
		return "Completed"
	case StateCompensated:
		return "Compensated"
	default:
		return "Unknown"
	}
}

// IsTerminal reports whether the execution admits no further mutation.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateCompensated
}

// committedStep records one successfully completed step together with the
// compensation payload captured at commit time.
type committedStep struct {
	name string
	data any
}

// Execution is one running instance of a workflow. It tracks which steps have
// committed (driving reverse-order compensation), the current state, and the
// final output or failure.
//
// Executions are process-lifetime state; they are not persisted.
type Execution struct {
	mu        sync.Mutex
	id        kernel.UUID
	workflow  Workflow
	committed []committedStep
	state     State
	suspended int // index of the suspended step, valid while state == StateSuspended
	output    any
	failure   error
}

func newExecution(workflow Workflow) *Execution {
	return &Execution{
		id:       kernel.NewUUID(),
		workflow: workflow,
		state:    StateRunning,
	}
}

// ID returns the execution's unique identifier.
func (e *Execution) ID() kernel.UUID {
	return e.id
}

// WorkflowName returns the name of the workflow being executed.
func (e *Execution) WorkflowName() string {
	return e.workflow.Name()
}

// State returns the execution's current lifecycle state.
func (e *Execution) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Output returns the final output of a completed execution, nil otherwise.
func (e *Execution) Output() any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.output
}

// Failure returns the error that triggered compensation, nil otherwise.
func (e *Execution) Failure() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.failure
}

// CommittedStepNames returns the names of committed steps in commit order.
func (e *Execution) CommittedStepNames() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	names := make([]string, len(e.committed))
	for i, c := range e.committed {
		names[i] = c.name
	}
	return names
}

// commit records a successfully completed step and its compensation payload.
func (e *Execution) commit(name string, data any) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.IsTerminal() {
		return ErrExecutionTerminal
	}
	for _, c := range e.committed {
		if c.name == name {
			return fmt.Errorf("%w: %s", ErrStepAlreadyCommitted, name)
		}
	}

	e.committed = append(e.committed, committedStep{name: name, data: data})
	return nil
}

// suspend parks the execution on the step at the given index.
func (e *Execution) suspend(stepIndex int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.IsTerminal() {
		return ErrExecutionTerminal
	}
	e.state = StateSuspended
	e.suspended = stepIndex
	return nil
}

// resume commits the suspended step with the resolution payload and moves the
// execution back to Running so the next step can execute.
func (e *Execution) resume(stepName string, payload any) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.IsTerminal() {
		return ErrExecutionTerminal
	}
	if e.state != StateSuspended {
		return ErrExecutionNotSuspended
	}
	for _, c := range e.committed {
		if c.name == stepName {
			return fmt.Errorf("%w: %s", ErrStepAlreadyCommitted, stepName)
		}
	}

	e.committed = append(e.committed, committedStep{name: stepName, data: payload})
	e.state = StateRunning
	return nil
}

// backToRunning returns a suspended execution to Running without committing,
// used when an expired async step re-runs its forward action.
func (e *Execution) backToRunning() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.IsTerminal() {
		return ErrExecutionTerminal
	}
	e.state = StateRunning
	return nil
}

// complete marks the execution terminal with its final output.
func (e *Execution) complete(output any) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.IsTerminal() {
		return
	}
	e.state = StateCompleted
	e.output = output
}

// compensated marks the execution terminal after the compensation cascade,
// recording the failure that triggered it.
func (e *Execution) compensated(cause error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.IsTerminal() {
		return
	}
	e.state = StateCompensated
	e.failure = cause
}

// takeCommittedReversed snapshots the committed steps in reverse commit order
// for the compensation cascade.
func (e *Execution) takeCommittedReversed() []committedStep {
	e.mu.Lock()
	defer e.mu.Unlock()

	reversed := make([]committedStep, 0, len(e.committed))
	for i := len(e.committed) - 1; i >= 0; i-- {
		reversed = append(reversed, e.committed[i])
	}
	return reversed
}
