package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"fooddelivery/internal/core/saga"
)

// ClaimDeliveryCommandHandler handles a driver claiming a delivery.
//
// The claim is decided by the repository's conditional update: of N drivers
// racing for the same delivery exactly one wins, and every loser receives
// delivery.ErrAlreadyClaimed without mutating anything. After the winning
// claim commits, the handler resolves the suspended notify-restaurant step so
// the parked saga resumes; a missing registry entry (saga already resolved or
// expired) is a no-op, because the database remains the source of truth for
// the claim itself.
type ClaimDeliveryCommandHandler struct {
	uowFactory DeliveryUoWFactory
	resolver   StepResolver
	logger     *slog.Logger
}

// NewClaimDeliveryCommandHandler creates a handler for delivery claims.
func NewClaimDeliveryCommandHandler(
	uowFactory DeliveryUoWFactory,
	resolver StepResolver,
	logger *slog.Logger,
) ClaimDeliveryCommandHandler {
	return ClaimDeliveryCommandHandler{
		uowFactory: uowFactory,
		resolver:   resolver,
		logger:     logger.With("component", "claim_delivery"),
	}
}

// Handle processes a driver's claim.
// Returns the claimed delivery's snapshot on success, delivery.ErrAlreadyClaimed
// if another driver won the race, or errs.ErrObjectNotFound if the delivery
// does not exist.
func (h *ClaimDeliveryCommandHandler) Handle(ctx context.Context, cmd ClaimDeliveryCommand) (DeliverySnapshot, error) {
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
	eta := time.Now().Add(ClaimETAWindow)
	claimed, err := repo.ClaimForDriver(ctx, cmd.DeliveryID(), cmd.DriverID(), eta)
	if err != nil {
		return DeliverySnapshot{}, err
	}

	if err = repo.RemovePendingDrivers(ctx, cmd.DeliveryID()); err != nil {
		return DeliverySnapshot{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return DeliverySnapshot{}, err
	}

	snapshot := snapshotOf(claimed)

	err = h.resolver.ResolveStepSuccess(ctx, AwaitDriverStepID(cmd.DeliveryID()), snapshot)
	if err != nil && !errors.Is(err, saga.ErrUnknownStepID) {
		// The claim is committed; a resume failure compensates the saga but
		// must not be reported as a failed claim.
		h.logger.ErrorContext(ctx, "saga resume failed after claim",
			"delivery_id", cmd.DeliveryID().String(), "error", err)
	}

	return snapshot, nil
}
