package queries

import (
	"errors"
	"time"

	"fooddelivery/internal/core/domain/model/delivery"
	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/pkg/guard"
)

var (
	ErrGetDeliveriesByDriverQueryIsNotConstructed = errors.New(
		"GetDeliveriesByDriverQuery must be created via NewGetDeliveriesByDriverQuery constructor",
	)
)

// GetDeliveriesByDriverQuery retrieves the deliveries a driver has claimed.
// Cancelled (soft-deleted) deliveries are excluded: the driver's board shows
// work, not history.
type GetDeliveriesByDriverQuery struct {
	driverID kernel.UUID

	guard guard.ConstructorGuard
}

// NewGetDeliveriesByDriverQuery creates a query for a driver's deliveries.
func NewGetDeliveriesByDriverQuery(driverID kernel.UUID) (GetDeliveriesByDriverQuery, error) {
	if err := driverID.Validate(); err != nil {
		return GetDeliveriesByDriverQuery{}, err
	}

	return GetDeliveriesByDriverQuery{
		driverID: driverID,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the query was created through the constructor.
// Returns ErrGetDeliveriesByDriverQueryIsNotConstructed if validation fails.
func (q GetDeliveriesByDriverQuery) Validate() error {
	return q.guard.Validate(ErrGetDeliveriesByDriverQueryIsNotConstructed)
}

// DriverID returns the driver whose deliveries are requested.
func (q GetDeliveriesByDriverQuery) DriverID() kernel.UUID {
	return q.driverID
}

// GetDeliveriesByDriverQueryResponse is one delivery on a driver's board.
type GetDeliveriesByDriverQueryResponse struct {
	ID            kernel.UUID
	TransactionID string
	Status        delivery.Status
	ETA           time.Time
}
