package commands

import (
	"errors"
	"fmt"

	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/pkg/guard"
)

var (
	ErrUpdateDeliveryCommandIsNotConstructed = errors.New(
		"UpdateDeliveryCommand must be created via NewUpdateDeliveryCommand constructor",
	)
	ErrActionIsInvalid = errors.New("action is invalid")
)

// Action names a lifecycle transition requested through UpdateDeliveryCommand.
type Action string

const (
	// ActionPickUp marks the order picked up by the claiming driver.
	ActionPickUp Action = "picked_up"

	// ActionComplete marks the order delivered to the customer.
	ActionComplete Action = "delivered"

	// ActionCancel cancels and soft-deletes the delivery.
	ActionCancel Action = "cancelled"
)

// Validate checks that the action is one of the defined transitions.
func (a Action) Validate() error {
	switch a {
	case ActionPickUp, ActionComplete, ActionCancel:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrActionIsInvalid, a)
	}
}

// UpdateDeliveryCommand represents a generic lifecycle transition for a
// delivery, optionally splicing a suspended saga step resolution into the
// same operation: StepIDToSucceed resumes the named step with the updated
// delivery's snapshot, StepIDToFail compensates its saga.
type UpdateDeliveryCommand struct { //nolint:recvcheck //using for validation
	deliveryID      kernel.UUID
	action          Action
	stepIDToSucceed string
	stepIDToFail    string

	guard guard.ConstructorGuard
}

// NewUpdateDeliveryCommand creates a command to transition a delivery.
// Both step directives are optional; passing both is rejected because one
// resolution cannot be a success and a failure at once.
func NewUpdateDeliveryCommand(
	deliveryID kernel.UUID,
	action Action,
	stepIDToSucceed string,
	stepIDToFail string,
) (UpdateDeliveryCommand, error) {
	updateCommand := UpdateDeliveryCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		updateCommand.setDeliveryID(deliveryID),
		updateCommand.setAction(action),
		updateCommand.setStepDirectives(stepIDToSucceed, stepIDToFail),
	); err != nil {
		return UpdateDeliveryCommand{}, err
	}

	return updateCommand, nil
}

// Validate ensures the command was created through the constructor.
// Returns ErrUpdateDeliveryCommandIsNotConstructed if validation fails.
func (c UpdateDeliveryCommand) Validate() error {
	return c.guard.Validate(ErrUpdateDeliveryCommandIsNotConstructed)
}

// DeliveryID returns the delivery being updated.
func (c UpdateDeliveryCommand) DeliveryID() kernel.UUID {
	return c.deliveryID
}

// Action returns the requested lifecycle transition.
func (c UpdateDeliveryCommand) Action() Action {
	return c.action
}

// StepIDToSucceed returns the async step to resolve as succeeded, or "".
func (c UpdateDeliveryCommand) StepIDToSucceed() string {
	return c.stepIDToSucceed
}

// StepIDToFail returns the async step to resolve as failed, or "".
func (c UpdateDeliveryCommand) StepIDToFail() string {
	return c.stepIDToFail
}

func (c *UpdateDeliveryCommand) setDeliveryID(deliveryID kernel.UUID) error {
	if err := deliveryID.Validate(); err != nil {
		return err
	}

	c.deliveryID = deliveryID
	return nil
}

func (c *UpdateDeliveryCommand) setAction(action Action) error {
	if err := action.Validate(); err != nil {
		return err
	}

	c.action = action
	return nil
}

func (c *UpdateDeliveryCommand) setStepDirectives(stepIDToSucceed, stepIDToFail string) error {
	if stepIDToSucceed != "" && stepIDToFail != "" {
		return fmt.Errorf("%w: stepIdToSucceed and stepIdToFail are mutually exclusive", ErrActionIsInvalid)
	}

	c.stepIDToSucceed = stepIDToSucceed
	c.stepIDToFail = stepIDToFail
	return nil
}
