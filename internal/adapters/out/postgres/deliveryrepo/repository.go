package deliveryrepo

import (
	"context"
	"errors"
	"time"

	"fooddelivery/internal/core/domain/model/delivery"
	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDeliveryRepository implements DeliveryRepository using GORM.
type GormDeliveryRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// aggregateTracker defines the interface for tracking aggregates.
type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

// NewGormDeliveryRepository creates a new GORM delivery repository.
func NewGormDeliveryRepository(db *gorm.DB, tracker aggregateTracker) *GormDeliveryRepository {
	return &GormDeliveryRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add saves a new delivery and its line items to the database.
func (r *GormDeliveryRepository) Add(ctx context.Context, aggregate *delivery.Delivery) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return err
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Update saves an existing delivery to the database. Line items are immutable
// and not rewritten. Soft-deleted rows are updatable so a cancellation can
// persist the Cancelled status.
func (r *GormDeliveryRepository) Update(ctx context.Context, aggregate *delivery.Delivery) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).Unscoped().Model(&DeliveryDTO{}).
		Where("id = ?", dto.ID).
		Omit("Items").
		Updates(&dto)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("delivery", aggregate.ID().String())
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Get retrieves a delivery by ID, including soft-deleted records so that
// cancelled deliveries remain queryable.
func (r *GormDeliveryRepository) Get(ctx context.Context, id kernel.UUID) (*delivery.Delivery, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto DeliveryDTO
	err := r.db.WithContext(ctx).Unscoped().Preload("Items").
		First(&dto, "id = ?", id.Bytes()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("delivery", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// ClaimForDriver conditionally assigns the delivery to a driver.
//
// The claim is a single conditional UPDATE: it applies only while the row is
// unclaimed (no driver, status Created or AwaitingDriver). The database
// evaluates the condition atomically, so of N racing drivers exactly one
// update affects a row; every loser sees zero rows affected and receives
// delivery.ErrAlreadyClaimed. A cancelled (soft-deleted) delivery reports
// errs.ErrObjectNotFound rather than a claim rejection.
func (r *GormDeliveryRepository) ClaimForDriver(
	ctx context.Context,
	id, driverID kernel.UUID,
	eta time.Time,
) (*delivery.Delivery, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if err := driverID.Validate(); err != nil {
		return nil, err
	}

	result := r.db.WithContext(ctx).Model(&DeliveryDTO{}).
		Where("id = ? AND driver_id IS NULL AND status IN ?",
			id.Bytes(), []int{int(delivery.Created), int(delivery.AwaitingDriver)}).
		Updates(map[string]any{
			"driver_id": driverID.Bytes(),
			"status":    int(delivery.PickupClaimed),
			"eta":       eta,
		})
	if result.Error != nil {
		return nil, result.Error
	}

	if result.RowsAffected == 0 {
		// Distinguish a lost race from a missing or cancelled delivery.
		existing, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if existing.IsDeleted() {
			return nil, errs.NewObjectNotFoundError("delivery", id.String())
		}
		return nil, delivery.ErrAlreadyClaimed
	}

	claimed, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	r.tracker.TrackAggregate(claimed.ID(), claimed)
	return claimed, nil
}

// SoftDelete marks the delivery deleted without removing the row.
// Deleting an already soft-deleted delivery is a no-op.
func (r *GormDeliveryRepository) SoftDelete(ctx context.Context, id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Delete(&DeliveryDTO{}, "id = ?", id.Bytes())
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		// Either the row never existed or it is already soft-deleted.
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// AddPendingDriver records that a driver has been offered this delivery.
// Re-offering the same driver is a no-op.
func (r *GormDeliveryRepository) AddPendingDriver(ctx context.Context, deliveryID, driverID kernel.UUID) error {
	if err := deliveryID.Validate(); err != nil {
		return err
	}
	if err := driverID.Validate(); err != nil {
		return err
	}

	dto := PendingDriverDTO{
		DeliveryID: deliveryID.Bytes(),
		DriverID:   driverID.Bytes(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&dto).Error
}

// RemovePendingDrivers deletes all pending-driver offers for a delivery.
func (r *GormDeliveryRepository) RemovePendingDrivers(ctx context.Context, deliveryID kernel.UUID) error {
	if err := deliveryID.Validate(); err != nil {
		return err
	}

	return r.db.WithContext(ctx).
		Delete(&PendingDriverDTO{}, "delivery_id = ?", deliveryID.Bytes()).Error
}
