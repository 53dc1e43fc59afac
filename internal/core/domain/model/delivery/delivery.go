package delivery

import (
	"errors"
	"time"

	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/pkg/errs"
)

var (
	// ErrDeliveryIsNotConstructed is returned when a Delivery instance was not
	// created through NewDelivery or RestoreDelivery.
	ErrDeliveryIsNotConstructed = errors.New("Delivery must be created via NewDelivery constructor")

	// ErrAlreadyClaimed is returned when a driver tries to claim a delivery
	// that has already been claimed. This is an expected race outcome, not a
	// saga failure: the losing caller gets a rejection and nothing is mutated.
	ErrAlreadyClaimed = errors.New("delivery is already claimed")

	// ErrTransactionIDIsRequired is returned when a delivery is created
	// without the originating order transaction.
	ErrTransactionIDIsRequired = errors.New("transaction id is required")

	// ErrItemsAreRequired is returned when a delivery is created with no line items.
	ErrItemsAreRequired = errors.New("at least one item is required")
)

// Delivery is the aggregate root for a single delivery job.
//
// Invariants:
//   - id, transactionID, restaurantID, and items are immutable after creation
//   - driverID is nil until a driver claims the delivery, then set exactly once
//   - status transitions only along the Status state machine
//   - a Cancelled delivery is soft-deleted; no delivery is ever hard-deleted
//   - all mutation goes through orchestrated saga steps, never direct writes
type Delivery struct {
	id            kernel.UUID
	transactionID string
	restaurantID  kernel.UUID
	driverID      *kernel.UUID
	status        Status
	eta           time.Time
	items         []Item
	isDeleted     bool

	isConstructed bool
}

// NewDelivery creates a delivery in Created status for an order transaction.
// The item list and restaurant reference are fixed for the aggregate's lifetime.
func NewDelivery(
	id kernel.UUID,
	transactionID string,
	restaurantID kernel.UUID,
	items []Item,
) (*Delivery, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if transactionID == "" {
		return nil, ErrTransactionIDIsRequired
	}
	if err := restaurantID.Validate(); err != nil {
		return nil, errs.NewValueIsRequiredErrorWithCause("restaurantID", err)
	}
	if len(items) == 0 {
		return nil, ErrItemsAreRequired
	}

	return &Delivery{
		id:            id,
		transactionID: transactionID,
		restaurantID:  restaurantID,
		status:        Created,
		items:         append([]Item(nil), items...),
		isConstructed: true,
	}, nil
}

// RestoreDelivery reconstructs a delivery from persistence.
// Unlike NewDelivery it accepts any valid status and an optional driver,
// validating the status/driver consistency rules.
func RestoreDelivery(
	id kernel.UUID,
	transactionID string,
	restaurantID kernel.UUID,
	driverID *kernel.UUID,
	status Status,
	eta time.Time,
	items []Item,
	isDeleted bool,
) (*Delivery, error) {
	d, err := NewDelivery(id, transactionID, restaurantID, items)
	if err != nil {
		return nil, err
	}
	if err = status.Validate(); err != nil {
		return nil, err
	}
	if driverID != nil {
		if err = driverID.Validate(); err != nil {
			return nil, err
		}
	}

	d.status = status
	d.driverID = driverID
	d.eta = eta
	d.isDeleted = isDeleted
	return d, nil
}

// Validate ensures the Delivery was constructed through NewDelivery or RestoreDelivery.
func (d *Delivery) Validate() error {
	if d == nil || !d.isConstructed {
		return ErrDeliveryIsNotConstructed
	}
	return nil
}

// IsEqual compares two deliveries by identifier.
func (d *Delivery) IsEqual(other *Delivery) bool {
	return other != nil && d.id.IsEqual(other.id)
}

// ID returns the delivery's unique identifier.
func (d *Delivery) ID() kernel.UUID {
	return d.id
}

// TransactionID returns the originating order transaction.
func (d *Delivery) TransactionID() string {
	return d.transactionID
}

// RestaurantID returns the restaurant fulfilling the order.
func (d *Delivery) RestaurantID() kernel.UUID {
	return d.restaurantID
}

// Driver returns the claiming driver's ID, or nil before any claim.
func (d *Delivery) Driver() *kernel.UUID {
	return d.driverID
}

// Status returns the current lifecycle status.
func (d *Delivery) Status() Status {
	return d.status
}

// ETA returns the estimated arrival time. Zero until a driver claims.
func (d *Delivery) ETA() time.Time {
	return d.eta
}

// Items returns a copy of the delivery's line items.
func (d *Delivery) Items() []Item {
	return append([]Item(nil), d.items...)
}

// IsDeleted reports whether the delivery has been soft-deleted.
func (d *Delivery) IsDeleted() bool {
	return d.isDeleted
}

// AwaitDriver marks the restaurant as notified and the delivery as waiting
// for a driver. Invoked by the notify-restaurant saga step.
func (d *Delivery) AwaitDriver() error {
	newStatus, err := d.status.AwaitDriver()
	if err != nil {
		return err
	}
	d.status = newStatus
	return nil
}

// Claim assigns the delivery to a driver and recomputes the ETA.
// Returns ErrAlreadyClaimed if another driver already holds the delivery.
// Note that the persistence layer enforces the same rule with a conditional
// update; this method covers in-memory consistency for the winning aggregate.
func (d *Delivery) Claim(driverID kernel.UUID, eta time.Time) error {
	if err := driverID.Validate(); err != nil {
		return err
	}

	newStatus, err := d.status.Claim()
	if err != nil {
		return err
	}

	d.status = newStatus
	d.driverID = &driverID
	d.eta = eta
	return nil
}

// PickUp marks the order as picked up by the driver.
func (d *Delivery) PickUp() error {
	newStatus, err := d.status.PickUp()
	if err != nil {
		return err
	}
	d.status = newStatus
	return nil
}

// Complete marks the order as delivered. Terminal.
func (d *Delivery) Complete() error {
	newStatus, err := d.status.Complete()
	if err != nil {
		return err
	}
	d.status = newStatus
	return nil
}

// Cancel transitions the delivery to Cancelled and marks it soft-deleted.
// Invoked only by saga compensation; terminal.
func (d *Delivery) Cancel() error {
	newStatus, err := d.status.Cancel()
	if err != nil {
		return err
	}
	d.status = newStatus
	d.isDeleted = true
	return nil
}
