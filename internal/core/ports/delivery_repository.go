// Package ports defines the contracts between the core and infrastructure.
// The catalog/order subsystem, notification transport, and persistence engine
// are external collaborators consumed only through these narrow interfaces.
package ports

import (
	"context"
	"time"

	"fooddelivery/internal/core/domain/model/delivery"
	"fooddelivery/internal/core/domain/model/kernel"
)

// DeliveryRepository defines the persistence contract for delivery aggregates.
//
// All mutation is funneled through saga steps; no caller writes a delivery
// directly. Deliveries are soft-deleted, never hard-deleted.
type DeliveryRepository interface {
	// Add persists a new delivery aggregate.
	Add(ctx context.Context, aggregate *delivery.Delivery) error

	// Update persists changes to an existing delivery aggregate.
	// Returns errs.ErrObjectNotFound if the delivery does not exist.
	Update(ctx context.Context, aggregate *delivery.Delivery) error

	// Get retrieves a delivery by id, including soft-deleted records so that
	// cancelled deliveries remain queryable.
	// Returns errs.ErrObjectNotFound if the delivery does not exist.
	Get(ctx context.Context, id kernel.UUID) (*delivery.Delivery, error)

	// ClaimForDriver conditionally assigns the delivery to a driver: the
	// update applies only while the delivery is still unclaimed (Created or
	// AwaitingDriver, no driver set). The condition is evaluated atomically
	// in the store so at most one of N racing drivers wins.
	// Returns delivery.ErrAlreadyClaimed for the losers, with no mutation,
	// and errs.ErrObjectNotFound if the delivery does not exist or has been
	// cancelled.
	ClaimForDriver(ctx context.Context, id, driverID kernel.UUID, eta time.Time) (*delivery.Delivery, error)

	// SoftDelete marks the delivery deleted without removing the row.
	// Only the create-delivery compensation and cancellation use this.
	SoftDelete(ctx context.Context, id kernel.UUID) error

	// AddPendingDriver records that a driver has been offered this delivery.
	AddPendingDriver(ctx context.Context, deliveryID, driverID kernel.UUID) error

	// RemovePendingDrivers deletes all pending-driver offers for a delivery.
	// Called after a successful claim, when the offers become obsolete.
	RemovePendingDrivers(ctx context.Context, deliveryID kernel.UUID) error
}
