package commands

import (
	"errors"

	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/pkg/guard"
)

var (
	ErrClaimDeliveryCommandIsNotConstructed = errors.New(
		"ClaimDeliveryCommand must be created via NewClaimDeliveryCommand constructor",
	)
)

// ClaimDeliveryCommand represents a driver's request to claim a delivery.
// Many drivers may race for the same delivery; exactly one claim succeeds.
type ClaimDeliveryCommand struct { //nolint:recvcheck //using for validation
	deliveryID kernel.UUID
	driverID   kernel.UUID

	guard guard.ConstructorGuard
}

// NewClaimDeliveryCommand creates a command for a driver to claim a delivery.
// Validates that both identifiers are valid UUIDs.
func NewClaimDeliveryCommand(deliveryID, driverID kernel.UUID) (ClaimDeliveryCommand, error) {
	claimCommand := ClaimDeliveryCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		claimCommand.setDeliveryID(deliveryID),
		claimCommand.setDriverID(driverID),
	); err != nil {
		return ClaimDeliveryCommand{}, err
	}

	return claimCommand, nil
}

// Validate ensures the command was created through the constructor.
// Returns ErrClaimDeliveryCommandIsNotConstructed if validation fails.
func (c ClaimDeliveryCommand) Validate() error {
	return c.guard.Validate(ErrClaimDeliveryCommandIsNotConstructed)
}

// DeliveryID returns the delivery being claimed.
func (c ClaimDeliveryCommand) DeliveryID() kernel.UUID {
	return c.deliveryID
}

// DriverID returns the claiming driver.
func (c ClaimDeliveryCommand) DriverID() kernel.UUID {
	return c.driverID
}

func (c *ClaimDeliveryCommand) setDeliveryID(deliveryID kernel.UUID) error {
	if err := deliveryID.Validate(); err != nil {
		return err
	}

	c.deliveryID = deliveryID
	return nil
}

func (c *ClaimDeliveryCommand) setDriverID(driverID kernel.UUID) error {
	if err := driverID.Validate(); err != nil {
		return err
	}

	c.driverID = driverID
	return nil
}
