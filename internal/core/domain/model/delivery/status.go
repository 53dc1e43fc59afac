package delivery

import (
	"fmt"

	"fooddelivery/internal/pkg/errs"
)

// Status represents the lifecycle state of a delivery.
// It implements a state machine with defined transitions so deliveries follow
// the orchestrated workflow and nothing else.
//
// State transitions:
//
//	Created ──(restaurant notified)──> AwaitingDriver
//	AwaitingDriver ──(driver claims)──> PickupClaimed
//	PickupClaimed ──(picked up)──> InTransit
//	InTransit ──(delivered)──> Delivered            [terminal]
//	any non-terminal ──(compensation)──> Cancelled  [terminal]
//
// A claim is additionally allowed straight from Created: the restaurant
// acknowledgment and the first driver claim race each other, and a driver that
// arrives before the acknowledgment must still win the delivery.
type Status int

const (
	// Unknown represents an invalid or undefined status.
	// This value (0) helps catch uninitialized Status values.
	Unknown Status = iota

	// Created is the initial status assigned by the create-delivery step.
	Created

	// AwaitingDriver indicates the restaurant has been notified and the
	// delivery is waiting for a driver to claim it.
	AwaitingDriver

	// PickupClaimed indicates a driver has claimed the delivery.
	PickupClaimed

	// InTransit indicates the driver has picked up the order.
	InTransit

	// Delivered indicates the order reached the customer. Terminal.
	Delivered

	// Cancelled indicates the delivery saga compensated. Terminal; the
	// record is soft-deleted alongside this transition.
	Cancelled
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:        "Unknown",
		Created:        "Created",
		AwaitingDriver: "AwaitingDriver",
		PickupClaimed:  "PickupClaimed",
		InTransit:      "InTransit",
		Delivered:      "Delivered",
		Cancelled:      "Cancelled",
	}
}

// Validate checks that the Status is one of the defined lifecycle states.
// Unknown (0) and out-of-range values are invalid.
func (s Status) Validate() error {
	if s < Created || s > Cancelled {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid",
			fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// String returns the human-readable name of the status.
// Implements fmt.Stringer; safe to call on any value.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "Unknown"
}

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == Cancelled
}

// AwaitDriver transitions the status to AwaitingDriver.
// Only valid from Created (the notify-restaurant step runs exactly once per
// saga before any claim resolves).
func (s Status) AwaitDriver() (Status, error) {
	if s != Created {
		return 0, errs.NewValueIsInvalidErrorWithCause("status is invalid",
			fmt.Errorf("%s is not a valid status to await a driver", s))
	}
	return AwaitingDriver, nil
}

// Claim transitions the status to PickupClaimed.
//
// Valid transitions:
//   - AwaitingDriver -> PickupClaimed (normal claim)
//   - Created -> PickupClaimed (claim raced ahead of the acknowledgment)
//
// A delivery that is already claimed, in transit, or terminal cannot be
// claimed again; the caller reports ErrAlreadyClaimed to the losing driver.
func (s Status) Claim() (Status, error) {
	if s != Created && s != AwaitingDriver {
		return 0, ErrAlreadyClaimed
	}
	return PickupClaimed, nil
}

// PickUp transitions the status to InTransit. Only valid from PickupClaimed.
func (s Status) PickUp() (Status, error) {
	if s != PickupClaimed {
		return 0, errs.NewValueIsInvalidErrorWithCause("status is invalid",
			fmt.Errorf("%s is not a valid status to pick up", s))
	}
	return InTransit, nil
}

// Complete transitions the status to Delivered. Only valid from InTransit.
func (s Status) Complete() (Status, error) {
	if s != InTransit {
		return 0, errs.NewValueIsInvalidErrorWithCause("status is invalid",
			fmt.Errorf("%s is not a valid status to complete", s))
	}
	return Delivered, nil
}

// Cancel transitions the status to Cancelled.
// Valid from any non-terminal status; cancelling a terminal delivery is an error.
func (s Status) Cancel() (Status, error) {
	if s.IsTerminal() {
		return 0, errs.NewValueIsInvalidErrorWithCause("status is invalid",
			fmt.Errorf("%s is terminal and cannot be cancelled", s))
	}
	if err := s.Validate(); err != nil {
		return 0, err
	}
	return Cancelled, nil
}
