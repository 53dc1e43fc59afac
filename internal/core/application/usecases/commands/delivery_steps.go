package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fooddelivery/internal/core/domain/model/delivery"
	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/ports"
	"fooddelivery/internal/core/saga"
)

const (
	// CreateDeliveryWorkflowName identifies the saga started for each order.
	CreateDeliveryWorkflowName = "create-delivery-workflow"

	// CreateDeliveryStepName identifies the step inserting the delivery record.
	CreateDeliveryStepName = "create-delivery"

	// NotifyRestaurantStepName identifies the async step that notifies the
	// restaurant and then awaits a driver.
	NotifyRestaurantStepName = "notify-restaurant"

	// NotifyRestaurantEvent is published when a restaurant must prepare an order.
	NotifyRestaurantEvent = "notify.restaurant"

	// NotifyRestaurantTimeout bounds how long the suspended notify-restaurant
	// step waits for a resolution before the sweeper intervenes.
	NotifyRestaurantTimeout = 15 * time.Minute

	// NotifyRestaurantMaxRetries is how many times an expired suspension
	// republishes the notification before the saga fails with a timeout.
	NotifyRestaurantMaxRetries = 2

	// ClaimETAWindow is the estimated time from a driver's claim to arrival.
	ClaimETAWindow = 30 * time.Minute
)

// AwaitDriverStepID derives the async step id under which a delivery's
// notify-restaurant step suspends. External resolvers (the claim command, the
// restaurant acknowledgment path) compute the same id from the delivery alone.
func AwaitDriverStepID(deliveryID kernel.UUID) string {
	return fmt.Sprintf("%s:%s", NotifyRestaurantStepName, deliveryID)
}

// NotifyRestaurantPayload is the event payload published to the restaurant
// notification channel.
type NotifyRestaurantPayload struct {
	RestaurantID string `json:"restaurant_id"`
	DeliveryID   string `json:"delivery_id"`
}

// DeliverySnapshot is the read-model view of a delivery passed as the
// resolution payload when a suspended step succeeds.
type DeliverySnapshot struct {
	ID            kernel.UUID
	TransactionID string
	DriverID      *kernel.UUID
	Status        delivery.Status
	ETA           time.Time
}

func snapshotOf(d *delivery.Delivery) DeliverySnapshot {
	return DeliverySnapshot{
		ID:            d.ID(),
		TransactionID: d.TransactionID(),
		DriverID:      d.Driver(),
		Status:        d.Status(),
		ETA:           d.ETA(),
	}
}

// createDeliveryInput carries the validated fields for the first saga step.
type createDeliveryInput struct {
	deliveryID    kernel.UUID
	transactionID string
	restaurantID  kernel.UUID
	items         []delivery.Item
}

// NewCreateDeliveryStep builds the step that inserts the Delivery record in
// Created status. Its compensation cancels and soft-deletes the record by id;
// this is the only step with a destructive compensation, and it refuses to
// destroy a delivery a driver has already claimed.
func NewCreateDeliveryStep(uowFactory DeliveryUoWFactory, logger *slog.Logger) (saga.Step, error) {
	forward := func(ctx context.Context, input any) (saga.StepResponse, error) {
		in, ok := input.(createDeliveryInput)
		if !ok {
			return saga.StepResponse{}, fmt.Errorf("create-delivery: unexpected input %T", input)
		}

		aggregate, err := delivery.NewDelivery(in.deliveryID, in.transactionID, in.restaurantID, in.items)
		if err != nil {
			return saga.StepResponse{}, err
		}

		uow := uowFactory.Create()
		if err = uow.Begin(ctx); err != nil {
			return saga.StepResponse{}, err
		}
		defer func() {
			_ = uow.Rollback(ctx)
		}()

		if err = uow.DeliveryRepository().Add(ctx, aggregate); err != nil {
			return saga.StepResponse{}, err
		}
		if err = uow.Commit(ctx); err != nil {
			return saga.StepResponse{}, err
		}

		return saga.Done(in.deliveryID, in.deliveryID), nil
	}

	compensate := func(ctx context.Context, data any) error {
		deliveryID, ok := data.(kernel.UUID)
		if !ok {
			return fmt.Errorf("create-delivery compensation: unexpected data %T", data)
		}

		uow := uowFactory.Create()
		if err := uow.Begin(ctx); err != nil {
			return err
		}
		defer func() {
			_ = uow.Rollback(ctx)
		}()

		repo := uow.DeliveryRepository()
		aggregate, err := repo.Get(ctx, deliveryID)
		if err != nil {
			return err
		}

		// Already cancelled through the update path; nothing left to undo.
		if aggregate.Status() == delivery.Cancelled {
			return nil
		}

		// The store is the source of truth: a delivery a driver has claimed
		// is not abandoned and must survive the cascade even when the claim's
		// resolution signal was lost.
		if aggregate.Driver() != nil {
			logger.WarnContext(ctx, "skipping cancellation of claimed delivery",
				"delivery_id", deliveryID.String())
			return nil
		}

		if err = aggregate.Cancel(); err != nil {
			return err
		}
		if err = repo.Update(ctx, aggregate); err != nil {
			return err
		}
		if err = repo.SoftDelete(ctx, deliveryID); err != nil {
			return err
		}
		return uow.Commit(ctx)
	}

	return saga.NewStep(CreateDeliveryStepName, forward, saga.WithCompensation(compensate))
}

// NewNotifyRestaurantStep builds the async step that publishes the
// restaurant notification and suspends awaiting a driver.
//
// The forward action fails fatally when the delivery cannot be found; a
// publish failure is retryable. On success the delivery transitions to
// AwaitingDriver and the step suspends under AwaitDriverStepID until a claim,
// an explicit failure signal, or the timeout sweeper resolves it. A retry
// that finds the delivery already claimed completes the step directly,
// covering claims whose resolution signal was lost to the sweeper.
func NewNotifyRestaurantStep(
	uowFactory DeliveryUoWFactory,
	publisher ports.EventPublisher,
	logger *slog.Logger,
) (saga.Step, error) {
	forward := func(ctx context.Context, input any) (saga.StepResponse, error) {
		deliveryID, ok := input.(kernel.UUID)
		if !ok {
			return saga.StepResponse{}, fmt.Errorf("notify-restaurant: unexpected input %T", input)
		}

		uow := uowFactory.Create()
		if err := uow.Begin(ctx); err != nil {
			return saga.StepResponse{}, err
		}
		defer func() {
			_ = uow.Rollback(ctx)
		}()

		repo := uow.DeliveryRepository()
		aggregate, err := repo.Get(ctx, deliveryID)
		if err != nil {
			return saga.StepResponse{}, err
		}

		status := aggregate.Status()
		if status == delivery.Cancelled {
			return saga.StepResponse{}, fmt.Errorf("notify-restaurant: delivery %s is cancelled", deliveryID)
		}
		if status != delivery.Created && status != delivery.AwaitingDriver {
			// A driver claimed the delivery while this step was off the
			// registry (a sweeper retry racing the claim). The resolution
			// signal is lost, so the retry completes the step here instead of
			// re-parking it until the cascade cancels a won delivery.
			snapshot := snapshotOf(aggregate)
			return saga.Done(snapshot, snapshot), nil
		}

		err = publisher.Publish(ctx, NotifyRestaurantEvent, NotifyRestaurantPayload{
			RestaurantID: aggregate.RestaurantID().String(),
			DeliveryID:   aggregate.ID().String(),
		})
		if err != nil {
			return saga.StepResponse{}, fmt.Errorf("publish %s: %w", NotifyRestaurantEvent, err)
		}

		// A retry may find the delivery already past Created; republishing is
		// enough then, the status transition happened on the first attempt.
		if status == delivery.Created {
			if err = aggregate.AwaitDriver(); err != nil {
				return saga.StepResponse{}, err
			}
			if err = repo.Update(ctx, aggregate); err != nil {
				return saga.StepResponse{}, err
			}
		}
		if err = uow.Commit(ctx); err != nil {
			return saga.StepResponse{}, err
		}

		return saga.Suspend(AwaitDriverStepID(deliveryID)), nil
	}

	compensate := func(ctx context.Context, data any) error {
		// The notification cannot be recalled. The create-delivery compensation
		// cancels the record; this hook only records that the restaurant may
		// have been notified in vain.
		logger.WarnContext(ctx, "restaurant was notified for a compensated delivery", "data", data)
		return nil
	}

	return saga.NewStep(NotifyRestaurantStepName, forward,
		saga.WithCompensation(compensate),
		saga.WithTimeout(NotifyRestaurantTimeout),
		saga.WithMaxRetries(NotifyRestaurantMaxRetries),
	)
}

// NewCreateDeliveryWorkflow assembles the delivery creation saga:
// create-delivery followed by the async notify-restaurant step.
func NewCreateDeliveryWorkflow(
	uowFactory DeliveryUoWFactory,
	publisher ports.EventPublisher,
	logger *slog.Logger,
) (saga.Workflow, error) {
	createStep, err := NewCreateDeliveryStep(uowFactory, logger)
	if err != nil {
		return saga.Workflow{}, err
	}

	notifyStep, err := NewNotifyRestaurantStep(uowFactory, publisher, logger)
	if err != nil {
		return saga.Workflow{}, err
	}

	return saga.NewWorkflow(CreateDeliveryWorkflowName, createStep, notifyStep)
}
