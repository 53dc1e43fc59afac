// Package queries contains read-only operations that bypass the domain model.
// Query handlers read the store directly with raw SQL and return plain
// response structs, keeping the read path free of aggregate construction.
package queries

import (
	"errors"
	"time"

	"fooddelivery/internal/core/domain/model/delivery"
	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/pkg/guard"
)

var (
	ErrGetDeliveryQueryIsNotConstructed = errors.New(
		"GetDeliveryQuery must be created via NewGetDeliveryQuery constructor",
	)
)

// GetDeliveryQuery retrieves the current state of one delivery, including
// cancelled (soft-deleted) deliveries, which stay queryable for tracking.
type GetDeliveryQuery struct {
	deliveryID kernel.UUID

	guard guard.ConstructorGuard
}

// NewGetDeliveryQuery creates a query for one delivery's current state.
func NewGetDeliveryQuery(deliveryID kernel.UUID) (GetDeliveryQuery, error) {
	if err := deliveryID.Validate(); err != nil {
		return GetDeliveryQuery{}, err
	}

	return GetDeliveryQuery{
		deliveryID: deliveryID,
		guard:      guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the query was created through the constructor.
// Returns ErrGetDeliveryQueryIsNotConstructed if validation fails.
func (q GetDeliveryQuery) Validate() error {
	return q.guard.Validate(ErrGetDeliveryQueryIsNotConstructed)
}

// DeliveryID returns the delivery to look up.
func (q GetDeliveryQuery) DeliveryID() kernel.UUID {
	return q.deliveryID
}

// GetDeliveryQueryResponse is the read-model view of one delivery.
type GetDeliveryQueryResponse struct {
	ID            kernel.UUID
	TransactionID string
	RestaurantID  kernel.UUID
	DriverID      *kernel.UUID
	Status        delivery.Status
	ETA           time.Time
	IsDeleted     bool
	Items         []GetDeliveryItemResponse
}

// GetDeliveryItemResponse is one line item of the delivery.
type GetDeliveryItemResponse struct {
	Name     string
	Quantity int
}
