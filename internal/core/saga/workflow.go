package saga

import (
	"errors"
	"fmt"
)

var (
	// ErrWorkflowNameIsRequired is returned when a workflow is declared without a name.
	ErrWorkflowNameIsRequired = errors.New("workflow name is required")

	// ErrWorkflowHasNoSteps is returned when a workflow is declared with no steps.
	ErrWorkflowHasNoSteps = errors.New("workflow must declare at least one step")

	// ErrDuplicateStepName is returned when two steps in one workflow share a name.
	// Step names key the committed-steps bookkeeping, so they must be unique.
	ErrDuplicateStepName = errors.New("workflow step names must be unique")
)

// Workflow is an ordered, named sequence of steps executed as one saga.
type Workflow struct {
	name  string
	steps []Step
}

// NewWorkflow declares a workflow from the given steps, validating that the
// name is set, at least one step exists, and step names are unique.
func NewWorkflow(name string, steps ...Step) (Workflow, error) {
	if name == "" {
		return Workflow{}, ErrWorkflowNameIsRequired
	}
	if len(steps) == 0 {
		return Workflow{}, ErrWorkflowHasNoSteps
	}

	seen := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		if _, ok := seen[step.Name()]; ok {
			return Workflow{}, fmt.Errorf("%w: %s", ErrDuplicateStepName, step.Name())
		}
		seen[step.Name()] = struct{}{}
	}

	return Workflow{name: name, steps: append([]Step(nil), steps...)}, nil
}

// Name returns the workflow's name.
func (w Workflow) Name() string {
	return w.name
}

// Steps returns the workflow's steps in declaration order.
func (w Workflow) Steps() []Step {
	return append([]Step(nil), w.steps...)
}
