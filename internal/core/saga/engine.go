package saga

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/pkg/errs"
)

// ErrStepTimedOut is the failure reason used when a suspended step's deadline
// elapsed with no external resolution and its retry budget is exhausted.
// Treated identically to an explicit failure signal.
var ErrStepTimedOut = errors.New("async step timed out")

// Engine sequences workflow steps, tracks commits, and drives compensation.
//
// One Engine serves all workflow instances in the process. Within one
// execution steps run sequentially; independent executions run concurrently.
// Suspension is cooperative: when a step suspends, the calling goroutine
// returns and a later resolver's goroutine continues the execution.
type Engine struct {
	registry *AsyncStepRegistry
	logger   *slog.Logger

	mu         sync.Mutex
	executions map[kernel.UUID]*Execution
}

// NewEngine creates an engine backed by the given registry.
// The registry reference is shared with the timeout sweeper.
func NewEngine(registry *AsyncStepRegistry, logger *slog.Logger) *Engine {
	return &Engine{
		registry:   registry,
		logger:     logger.With("component", "saga_engine"),
		executions: make(map[kernel.UUID]*Execution),
	}
}

// Run starts a new execution of the workflow and drives it until it
// completes, suspends, or compensates.
//
// The returned execution is always non-nil and can be inspected regardless of
// outcome. A nil error means the execution either completed or suspended on
// an async step; a non-nil error means a step failed terminally and the
// compensation cascade has run.
func (e *Engine) Run(ctx context.Context, workflow Workflow, input any) (*Execution, error) {
	exec := newExecution(workflow)

	e.mu.Lock()
	e.executions[exec.id] = exec
	e.mu.Unlock()

	e.logger.InfoContext(ctx, "workflow started",
		"workflow", workflow.Name(), "execution", exec.id.String())

	return exec, e.runFrom(ctx, exec, 0, input)
}

// Execution returns a running or finished execution by its identifier.
func (e *Engine) Execution(id kernel.UUID) (*Execution, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	exec, ok := e.executions[id]
	if !ok {
		return nil, errs.NewObjectNotFoundError("executionId", id.String())
	}
	return exec, nil
}

// ResolveStepSuccess resolves a suspended step as succeeded and resumes the
// owning execution at the next step. The payload is committed as the step's
// compensation record and becomes the next step's input.
//
// Returns ErrUnknownStepID if the step is not pending (already resolved,
// expired, or never registered); callers for whom resolution is best effort
// treat that as a no-op.
func (e *Engine) ResolveStepSuccess(ctx context.Context, stepID string, payload any) error {
	p, err := e.registry.take(stepID)
	if err != nil {
		return err
	}

	exec := p.execution
	step := exec.workflow.steps[p.stepIndex]
	if err = exec.resume(step.name, payload); err != nil {
		return err
	}

	e.logger.InfoContext(ctx, "async step resolved",
		"workflow", exec.WorkflowName(), "execution", exec.id.String(), "step", step.name)

	return e.runFrom(ctx, exec, p.stepIndex+1, payload)
}

// ResolveStepFailure resolves a suspended step as failed and runs the owning
// execution's compensation cascade. Lookup semantics match ResolveStepSuccess.
func (e *Engine) ResolveStepFailure(ctx context.Context, stepID string, reason error) error {
	p, err := e.registry.take(stepID)
	if err != nil {
		return err
	}

	exec := p.execution
	step := exec.workflow.steps[p.stepIndex]
	e.compensate(ctx, exec, fmt.Errorf("step %s failed: %w", step.name, reason))
	return nil
}

// ExpireDueSteps processes every suspended step whose deadline has passed.
// Steps with retry budget remaining re-run their forward action; exhausted
// steps fail with ErrStepTimedOut and compensate. Safe to race against
// concurrent external resolution: the registry's atomic removal guarantees
// exactly one resolver per entry.
//
// Each sweep also evicts terminal executions from the index, keeping its
// size bounded by the number of in-flight sagas.
func (e *Engine) ExpireDueSteps(ctx context.Context, now time.Time) {
	e.pruneTerminalExecutions()

	for _, p := range e.registry.takeExpired(now) {
		exec := p.execution
		step := exec.workflow.steps[p.stepIndex]

		if p.attempt >= step.maxRetries {
			e.logger.WarnContext(ctx, "async step expired, retries exhausted",
				"workflow", exec.WorkflowName(), "execution", exec.id.String(),
				"step", step.name, "attempts", p.attempt+1)
			e.compensate(ctx, exec, fmt.Errorf("step %s: %w", step.name, ErrStepTimedOut))
			continue
		}

		e.retrySuspended(ctx, p)
	}
}

// pruneTerminalExecutions drops finished executions from the index. Eviction
// happens on the sweep after an execution turns terminal, so callers that
// start a saga and look its state up promptly still find it; holders of the
// *Execution from Run are unaffected.
func (e *Engine) pruneTerminalExecutions() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for id, exec := range e.executions {
		if exec.State().IsTerminal() {
			delete(e.executions, id)
		}
	}
}

// retrySuspended re-runs the forward action of an expired async step with its
// original input, consuming one unit of retry budget.
func (e *Engine) retrySuspended(ctx context.Context, p *pendingStep) {
	exec := p.execution
	step := exec.workflow.steps[p.stepIndex]

	if err := exec.backToRunning(); err != nil {
		return
	}

	e.logger.WarnContext(ctx, "async step expired, retrying",
		"workflow", exec.WorkflowName(), "execution", exec.id.String(),
		"step", step.name, "attempt", p.attempt+1)

	resp, err := e.runForward(ctx, step, p.input)
	if err != nil {
		e.compensate(ctx, exec, fmt.Errorf("step %s failed on retry: %w", step.name, err))
		return
	}

	if resp.suspended {
		if err = e.park(exec, step, resp.stepID, p.stepIndex, p.input, p.attempt+1); err != nil {
			e.compensate(ctx, exec, err)
		}
		return
	}

	// The retry completed synchronously; commit and continue the workflow.
	if err = exec.commit(step.name, resp.compensationData); err != nil {
		e.compensate(ctx, exec, err)
		return
	}
	if err = e.runFrom(ctx, exec, p.stepIndex+1, resp.output); err != nil {
		e.logger.ErrorContext(ctx, "workflow failed after step retry",
			"workflow", exec.WorkflowName(), "execution", exec.id.String(), "error", err)
	}
}

// runFrom executes steps starting at index from, feeding each step's output
// into the next, until the workflow completes, suspends, or fails.
func (e *Engine) runFrom(ctx context.Context, exec *Execution, from int, input any) error {
	steps := exec.workflow.steps
	current := input

	for i := from; i < len(steps); i++ {
		step := steps[i]

		resp, err := e.executeWithRetry(ctx, exec, step, current)
		if err != nil {
			e.compensate(ctx, exec, err)
			return err
		}

		if resp.suspended {
			if err = e.park(exec, step, resp.stepID, i, current, 0); err != nil {
				e.compensate(ctx, exec, err)
				return err
			}
			return nil
		}

		if err = exec.commit(step.name, resp.compensationData); err != nil {
			e.compensate(ctx, exec, err)
			return err
		}
		current = resp.output
	}

	exec.complete(current)
	e.logger.InfoContext(ctx, "workflow completed",
		"workflow", exec.WorkflowName(), "execution", exec.id.String())
	return nil
}

// park suspends the execution and registers the pending step.
// The execution is suspended before registration so a resolver that takes the
// entry immediately always observes a suspended execution.
func (e *Engine) park(exec *Execution, step Step, stepID string, stepIndex int, input any, attempt int) error {
	if err := exec.suspend(stepIndex); err != nil {
		return err
	}

	err := e.registry.register(&pendingStep{
		stepID:    stepID,
		execution: exec,
		stepIndex: stepIndex,
		input:     input,
		attempt:   attempt,
		deadline:  time.Now().Add(step.timeout),
	})
	if err != nil {
		_ = exec.backToRunning()
		return err
	}

	e.logger.InfoContext(context.Background(), "workflow suspended",
		"workflow", exec.WorkflowName(), "execution", exec.id.String(),
		"step", step.name, "step_id", stepID, "timeout", step.timeout)
	return nil
}

// executeWithRetry runs a step's forward action, retrying synchronous
// failures with the same input until the retry budget is exhausted.
// Not-found failures are never retried: a missing entity will not appear.
func (e *Engine) executeWithRetry(ctx context.Context, exec *Execution, step Step, input any) (StepResponse, error) {
	var lastErr error

	for attempt := 0; attempt <= step.maxRetries; attempt++ {
		resp, err := e.runForward(ctx, step, input)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if errors.Is(err, errs.ErrObjectNotFound) {
			break
		}
		if attempt < step.maxRetries {
			e.logger.WarnContext(ctx, "step failed, retrying",
				"workflow", exec.WorkflowName(), "execution", exec.id.String(),
				"step", step.name, "attempt", attempt+1, "error", err)
		}
	}

	return StepResponse{}, fmt.Errorf("step %s failed: %w", step.name, lastErr)
}

// runForward invokes the forward action, bounding the attempt with the step's
// timeout when one is configured.
func (e *Engine) runForward(ctx context.Context, step Step, input any) (StepResponse, error) {
	if step.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, step.timeout)
		defer cancel()
	}
	return step.forward(ctx, input)
}

// compensate walks the committed steps in reverse commit order, invoking each
// step's compensating action with the payload captured at commit time.
// Compensation failures are logged and do not halt the cascade.
func (e *Engine) compensate(ctx context.Context, exec *Execution, cause error) {
	if exec.State().IsTerminal() {
		return
	}

	e.logger.ErrorContext(ctx, "workflow failed, compensating",
		"workflow", exec.WorkflowName(), "execution", exec.id.String(), "error", cause)

	byName := make(map[string]Step, len(exec.workflow.steps))
	for _, step := range exec.workflow.steps {
		byName[step.name] = step
	}

	for _, committed := range exec.takeCommittedReversed() {
		step, ok := byName[committed.name]
		if !ok || step.compensate == nil {
			continue
		}
		if err := step.compensate(ctx, committed.data); err != nil {
			e.logger.ErrorContext(ctx, "compensation failed, continuing cascade",
				"workflow", exec.WorkflowName(), "execution", exec.id.String(),
				"step", committed.name, "error", err)
		}
	}

	exec.compensated(cause)
}
