package commands

import (
	"context"

	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/saga"
)

// StartDeliveryResult reports the identifiers a caller needs to track a
// freshly started delivery saga.
type StartDeliveryResult struct {
	ExecutionID kernel.UUID
	DeliveryID  kernel.UUID
}

// StartDeliveryCommandHandler handles the business logic for starting a
// delivery. It pre-generates the delivery identifier, runs the creation
// workflow, and reports the execution and delivery ids back to the caller.
//
// A nil error means the saga either completed or suspended awaiting a driver;
// a non-nil error means a step failed terminally and compensation has run.
type StartDeliveryCommandHandler struct {
	runner   WorkflowRunner
	workflow saga.Workflow
}

// NewStartDeliveryCommandHandler creates a handler bound to the delivery
// creation workflow. The runner is the saga engine.
func NewStartDeliveryCommandHandler(runner WorkflowRunner, workflow saga.Workflow) StartDeliveryCommandHandler {
	return StartDeliveryCommandHandler{
		runner:   runner,
		workflow: workflow,
	}
}

// Handle starts a new execution of the delivery creation workflow.
// The delivery id is generated here, before the saga runs, so the caller can
// reference the delivery even while the saga is suspended.
func (h *StartDeliveryCommandHandler) Handle(ctx context.Context, cmd StartDeliveryCommand) (StartDeliveryResult, error) {
	if err := cmd.Validate(); err != nil {
		return StartDeliveryResult{}, err
	}

	deliveryID := kernel.NewUUID()
	input := createDeliveryInput{
		deliveryID:    deliveryID,
		transactionID: cmd.TransactionID(),
		restaurantID:  cmd.RestaurantID(),
		items:         cmd.Items(),
	}

	exec, err := h.runner.Run(ctx, h.workflow, input)
	if err != nil {
		return StartDeliveryResult{}, err
	}

	return StartDeliveryResult{
		ExecutionID: exec.ID(),
		DeliveryID:  deliveryID,
	}, nil
}
