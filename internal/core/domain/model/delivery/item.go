package delivery

import (
	"errors"
	"fmt"

	"fooddelivery/internal/pkg/errs"
)

var (
	// ErrItemNameIsRequired is returned when a line item has no name.
	ErrItemNameIsRequired = errors.New("item name is required")
)

// Item is a value object describing one line item of a delivery.
// Items are fixed at creation; the item list never changes afterwards.
type Item struct {
	name     string
	quantity int
}

// NewItem creates a line item. Name must be non-empty and quantity positive.
func NewItem(name string, quantity int) (Item, error) {
	if name == "" {
		return Item{}, ErrItemNameIsRequired
	}
	if quantity <= 0 {
		return Item{}, errs.NewValueIsInvalidErrorWithCause("quantity is invalid",
			fmt.Errorf("%d is not greater than 0", quantity))
	}
	return Item{name: name, quantity: quantity}, nil
}

// Name returns the item's display name.
func (i Item) Name() string {
	return i.name
}

// Quantity returns the ordered quantity.
func (i Item) Quantity() int {
	return i.quantity
}
