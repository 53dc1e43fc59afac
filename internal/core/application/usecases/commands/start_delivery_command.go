package commands

import (
	"errors"

	"fooddelivery/internal/core/domain/model/delivery"
	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/pkg/guard"
)

var (
	ErrStartDeliveryCommandIsNotConstructed = errors.New(
		"StartDeliveryCommand must be created via NewStartDeliveryCommand constructor",
	)
)

// StartDeliveryCommand represents a request to start the delivery saga for a
// paid order. Encapsulates the order transaction, the fulfilling restaurant,
// and the ordered line items.
//
// Example:
//
//	cmd, err := NewStartDeliveryCommand("order_01", restaurantID, items)
//	if err != nil {
//	    return fmt.Errorf("invalid delivery data: %w", err)
//	}
//
//	result, err := handler.Handle(ctx, cmd)
//	if err != nil {
//	    return fmt.Errorf("failed to start delivery: %w", err)
//	}
//	fmt.Printf("Delivery %s awaiting a driver", result.DeliveryID)
type StartDeliveryCommand struct { //nolint:recvcheck //using for validation
	transactionID string
	restaurantID  kernel.UUID
	items         []delivery.Item

	guard guard.ConstructorGuard
}

// NewStartDeliveryCommand creates a command to start a delivery saga.
// Validates that the transaction ID is set, the restaurant ID is valid, and at
// least one item is present. Returns an error if any validation fails.
func NewStartDeliveryCommand(
	transactionID string,
	restaurantID kernel.UUID,
	items []delivery.Item,
) (StartDeliveryCommand, error) {
	startCommand := StartDeliveryCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		startCommand.setTransactionID(transactionID),
		startCommand.setRestaurantID(restaurantID),
		startCommand.setItems(items),
	); err != nil {
		return StartDeliveryCommand{}, err
	}

	return startCommand, nil
}

// Validate ensures the command was created through the constructor.
// Returns ErrStartDeliveryCommandIsNotConstructed if validation fails.
func (c StartDeliveryCommand) Validate() error {
	return c.guard.Validate(ErrStartDeliveryCommandIsNotConstructed)
}

// TransactionID returns the originating order transaction.
func (c StartDeliveryCommand) TransactionID() string {
	return c.transactionID
}

// RestaurantID returns the restaurant fulfilling the order.
func (c StartDeliveryCommand) RestaurantID() kernel.UUID {
	return c.restaurantID
}

// Items returns the ordered line items.
func (c StartDeliveryCommand) Items() []delivery.Item {
	return append([]delivery.Item(nil), c.items...)
}

func (c *StartDeliveryCommand) setTransactionID(transactionID string) error {
	if transactionID == "" {
		return delivery.ErrTransactionIDIsRequired
	}

	c.transactionID = transactionID
	return nil
}

func (c *StartDeliveryCommand) setRestaurantID(restaurantID kernel.UUID) error {
	if err := restaurantID.Validate(); err != nil {
		return err
	}

	c.restaurantID = restaurantID
	return nil
}

func (c *StartDeliveryCommand) setItems(items []delivery.Item) error {
	if len(items) == 0 {
		return delivery.ErrItemsAreRequired
	}

	c.items = append([]delivery.Item(nil), items...)
	return nil
}
