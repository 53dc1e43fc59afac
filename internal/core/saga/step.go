package saga

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrStepNameIsRequired is returned when a step is declared without a name.
	ErrStepNameIsRequired = errors.New("step name is required")

	// ErrForwardActionIsRequired is returned when a step is declared without
	// a forward action.
	ErrForwardActionIsRequired = errors.New("step forward action is required")
)

// ForwardAction is the unit of work a step performs. It receives the output
// of the previous step (or the workflow input for the first step) and returns
// either Done with its output and compensation payload, or Suspend to park the
// step awaiting an external signal.
type ForwardAction func(ctx context.Context, input any) (StepResponse, error)

// CompensateAction semantically undoes a committed step. It receives the
// compensation payload captured when the step committed.
type CompensateAction func(ctx context.Context, data any) error

// StepResponse is the outcome of a forward action.
// Construct through Done or Suspend; the zero value is invalid.
type StepResponse struct {
	output           any
	compensationData any
	suspended        bool
	stepID           string
}

// Done reports synchronous completion. Output feeds the next step's input;
// compensationData is captured for a later compensation of this step.
func Done(output, compensationData any) StepResponse {
	return StepResponse{output: output, compensationData: compensationData}
}

// Suspend reports that the step is awaiting an external signal. The stepID is
// the key an external caller must present to resolve the step; forward actions
// derive it deterministically from their input (e.g. "notify-restaurant:<deliveryID>")
// so out-of-band callers can compute it.
func Suspend(stepID string) StepResponse {
	return StepResponse{suspended: true, stepID: stepID}
}

// Step declares one named unit of work within a workflow.
type Step struct {
	name       string
	forward    ForwardAction
	compensate CompensateAction
	maxRetries int
	timeout    time.Duration
}

// StepOption configures optional step behavior.
type StepOption func(*Step)

// WithCompensation declares the step's compensating action.
// Steps without one are skipped during the compensation cascade.
func WithCompensation(fn CompensateAction) StepOption {
	return func(s *Step) {
		s.compensate = fn
	}
}

// WithMaxRetries sets how many times a failed forward action is retried with
// the same input before the failure is reported as fatal. For an async step
// the budget also bounds how often an expired suspension re-runs the forward
// action before the step fails with a timeout.
func WithMaxRetries(n int) StepOption {
	return func(s *Step) {
		s.maxRetries = n
	}
}

// WithTimeout bounds a single forward attempt and, for async steps, sets the
// suspension deadline after which the timeout sweeper intervenes.
func WithTimeout(d time.Duration) StepOption {
	return func(s *Step) {
		s.timeout = d
	}
}

// NewStep declares a step with the given name and forward action.
func NewStep(name string, forward ForwardAction, opts ...StepOption) (Step, error) {
	if name == "" {
		return Step{}, ErrStepNameIsRequired
	}
	if forward == nil {
		return Step{}, ErrForwardActionIsRequired
	}

	step := Step{name: name, forward: forward}
	for _, opt := range opts {
		opt(&step)
	}
	return step, nil
}

// Name returns the step's name, unique within its workflow.
func (s Step) Name() string {
	return s.name
}

// MaxRetries returns the step's retry budget.
func (s Step) MaxRetries() int {
	return s.maxRetries
}

// Timeout returns the per-attempt and suspension timeout. Zero means none.
func (s Step) Timeout() time.Duration {
	return s.timeout
}
