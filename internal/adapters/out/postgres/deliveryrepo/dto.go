// Package deliveryrepo provides data transfer objects and mapping functions
// for delivery persistence. It implements the repository pattern for the
// delivery aggregate, handling the conversion between domain entities and
// database representations.
package deliveryrepo

import (
	"time"

	"fooddelivery/internal/core/domain/model/delivery"
	"fooddelivery/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeliveryDTO represents the database structure for persisting delivery
// aggregates. Soft deletion is handled through gorm.DeletedAt: cancelled
// deliveries keep their row and stay readable through unscoped queries.
type DeliveryDTO struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	TransactionID string     `gorm:"index"`
	RestaurantID  uuid.UUID  `gorm:"type:uuid;index"`
	DriverID      *uuid.UUID `gorm:"type:uuid;index"`
	Status        int
	ETA           time.Time
	Items         []ItemDTO `gorm:"foreignKey:DeliveryID"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     gorm.DeletedAt `gorm:"index"`
}

// TableName specifies the database table name for delivery entities.
func (DeliveryDTO) TableName() string {
	return "deliveries"
}

// ItemDTO represents one persisted line item of a delivery.
// Items are written once at creation and never updated.
type ItemDTO struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`
	DeliveryID uuid.UUID `gorm:"type:uuid;index"`
	Name       string
	Quantity   int
}

// TableName specifies the database table name for delivery line items.
func (ItemDTO) TableName() string {
	return "delivery_items"
}

// PendingDriverDTO records that a driver has been offered a delivery.
// Rows are removed in bulk once any driver claims the delivery.
type PendingDriverDTO struct {
	DeliveryID uuid.UUID `gorm:"type:uuid;primaryKey"`
	DriverID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt  time.Time
}

// TableName specifies the database table name for pending driver offers.
func (PendingDriverDTO) TableName() string {
	return "pending_drivers"
}

// fromDomain converts a delivery domain aggregate to its database
// representation, including the optional driver assignment and line items.
func fromDomain(aggregate *delivery.Delivery) DeliveryDTO {
	var driverID *uuid.UUID
	if id := aggregate.Driver(); id != nil {
		raw := id.Bytes()
		driverID = &raw
	}

	items := make([]ItemDTO, 0, len(aggregate.Items()))
	for _, item := range aggregate.Items() {
		items = append(items, ItemDTO{
			DeliveryID: aggregate.ID().Bytes(),
			Name:       item.Name(),
			Quantity:   item.Quantity(),
		})
	}

	return DeliveryDTO{
		ID:            aggregate.ID().Bytes(),
		TransactionID: aggregate.TransactionID(),
		RestaurantID:  aggregate.RestaurantID().Bytes(),
		DriverID:      driverID,
		Status:        int(aggregate.Status()),
		ETA:           aggregate.ETA(),
		Items:         items,
	}
}

// toDomain converts a database DTO to a delivery domain aggregate using
// RestoreDelivery, which re-validates status and driver consistency.
func toDomain(dto DeliveryDTO) (*delivery.Delivery, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	restaurantID, err := kernel.UUIDFromBytes(dto.RestaurantID[:])
	if err != nil {
		return nil, err
	}

	var driverID *kernel.UUID
	if dto.DriverID != nil {
		dID, driverErr := kernel.UUIDFromBytes((*dto.DriverID)[:])
		if driverErr != nil {
			return nil, driverErr
		}
		driverID = &dID
	}

	items := make([]delivery.Item, 0, len(dto.Items))
	for _, itemDTO := range dto.Items {
		item, itemErr := delivery.NewItem(itemDTO.Name, itemDTO.Quantity)
		if itemErr != nil {
			return nil, itemErr
		}
		items = append(items, item)
	}

	return delivery.RestoreDelivery(
		id,
		dto.TransactionID,
		restaurantID,
		driverID,
		delivery.Status(dto.Status),
		dto.ETA,
		items,
		dto.DeletedAt.Valid,
	)
}
