package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fooddelivery/internal/core/domain/model/delivery"
	"fooddelivery/internal/core/saga"
)

// UpdateDeliveryCommandHandler applies a lifecycle transition to a delivery
// and, when the command carries a step directive, resolves the named
// suspended saga step in the same operation.
//
// The transition commits before any saga resolution runs: the database is the
// source of truth, and a resolution against an already-taken registry entry
// is a no-op rather than a reason to fail the update.
type UpdateDeliveryCommandHandler struct {
	uowFactory DeliveryUoWFactory
	resolver   StepResolver
	logger     *slog.Logger
}

// NewUpdateDeliveryCommandHandler creates a handler for delivery updates.
func NewUpdateDeliveryCommandHandler(
	uowFactory DeliveryUoWFactory,
	resolver StepResolver,
	logger *slog.Logger,
) UpdateDeliveryCommandHandler {
	return UpdateDeliveryCommandHandler{
		uowFactory: uowFactory,
		resolver:   resolver,
		logger:     logger.With("component", "update_delivery"),
	}
}

// Handle processes the update command and returns the delivery's snapshot
// after the transition. Invalid transitions surface the domain's status
// errors; a missing delivery surfaces errs.ErrObjectNotFound.
func (h *UpdateDeliveryCommandHandler) Handle(ctx context.Context, cmd UpdateDeliveryCommand) (DeliverySnapshot, error) {
	if err := cmd.Validate(); err != nil {
		return DeliverySnapshot{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return DeliverySnapshot{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.DeliveryRepository()
	aggregate, err := repo.Get(ctx, cmd.DeliveryID())
	if err != nil {
		return DeliverySnapshot{}, err
	}

	if err = applyAction(aggregate, cmd.Action()); err != nil {
		return DeliverySnapshot{}, err
	}

	if err = repo.Update(ctx, aggregate); err != nil {
		return DeliverySnapshot{}, err
	}
	if cmd.Action() == ActionCancel {
		if err = repo.SoftDelete(ctx, cmd.DeliveryID()); err != nil {
			return DeliverySnapshot{}, err
		}
	}

	if err = uow.Commit(ctx); err != nil {
		return DeliverySnapshot{}, err
	}

	snapshot := snapshotOf(aggregate)
	h.resolveDirectives(ctx, cmd, snapshot)
	return snapshot, nil
}

// resolveDirectives splices the command's optional step resolution into the
// update. Unknown step ids are expected (the step may have been resolved or
// expired already) and ignored.
func (h *UpdateDeliveryCommandHandler) resolveDirectives(ctx context.Context, cmd UpdateDeliveryCommand, snapshot DeliverySnapshot) {
	var err error
	switch {
	case cmd.StepIDToSucceed() != "":
		err = h.resolver.ResolveStepSuccess(ctx, cmd.StepIDToSucceed(), snapshot)
	case cmd.StepIDToFail() != "":
		reason := fmt.Errorf("delivery %s signalled %s", cmd.DeliveryID(), cmd.Action())
		err = h.resolver.ResolveStepFailure(ctx, cmd.StepIDToFail(), reason)
	default:
		return
	}

	if err != nil && !errors.Is(err, saga.ErrUnknownStepID) {
		h.logger.ErrorContext(ctx, "step resolution failed after update",
			"delivery_id", cmd.DeliveryID().String(), "error", err)
	}
}

func applyAction(aggregate *delivery.Delivery, action Action) error {
	switch action {
	case ActionPickUp:
		return aggregate.PickUp()
	case ActionComplete:
		return aggregate.Complete()
	case ActionCancel:
		return aggregate.Cancel()
	default:
		return fmt.Errorf("%w: %q", ErrActionIsInvalid, action)
	}
}
