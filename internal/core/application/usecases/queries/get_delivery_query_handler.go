package queries

import (
	"context"
	"database/sql"

	"fooddelivery/internal/core/domain/model/delivery"
	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetDeliveryQueryHandler retrieves one delivery from the database.
// Reads raw rows instead of restoring the aggregate: the read path needs no
// invariants, only the current values.
type GetDeliveryQueryHandler struct {
	db *gorm.DB
}

// NewGetDeliveryQueryHandler creates a handler for single-delivery lookups.
// Requires a GORM database connection for query execution.
func NewGetDeliveryQueryHandler(db *gorm.DB) GetDeliveryQueryHandler {
	return GetDeliveryQueryHandler{db: db}
}

// Handle executes the lookup. Soft-deleted deliveries are included so
// cancelled deliveries remain visible to their callers.
// Returns errs.ErrObjectNotFound if no such delivery exists.
func (h GetDeliveryQueryHandler) Handle(
	ctx context.Context,
	query GetDeliveryQuery,
) (GetDeliveryQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetDeliveryQueryResponse{}, err
	}

	row := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			transaction_id,
			restaurant_id,
			driver_id,
			status,
			eta,
			deleted_at
		FROM deliveries
		WHERE id = ?
	`, query.DeliveryID().String()).Row()

	var (
		id            uuid.UUID
		transactionID string
		restaurantID  uuid.UUID
		driverID      uuid.NullUUID
		status        int
		eta           sql.NullTime
		deletedAt     sql.NullTime
	)
	err := row.Scan(&id, &transactionID, &restaurantID, &driverID, &status, &eta, &deletedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return GetDeliveryQueryResponse{}, errs.NewObjectNotFoundError(
				"deliveryId", query.DeliveryID().String())
		}
		return GetDeliveryQueryResponse{}, err
	}

	resp := GetDeliveryQueryResponse{
		TransactionID: transactionID,
		Status:        delivery.Status(status),
		IsDeleted:     deletedAt.Valid,
	}
	if resp.ID, err = kernel.UUIDFromBytes(id[:]); err != nil {
		return GetDeliveryQueryResponse{}, err
	}
	if resp.RestaurantID, err = kernel.UUIDFromBytes(restaurantID[:]); err != nil {
		return GetDeliveryQueryResponse{}, err
	}
	if driverID.Valid {
		driver, idErr := kernel.UUIDFromBytes(driverID.UUID[:])
		if idErr != nil {
			return GetDeliveryQueryResponse{}, idErr
		}
		resp.DriverID = &driver
	}
	if eta.Valid {
		resp.ETA = eta.Time
	}

	if resp.Items, err = h.loadItems(ctx, query.DeliveryID()); err != nil {
		return GetDeliveryQueryResponse{}, err
	}

	return resp, nil
}

func (h GetDeliveryQueryHandler) loadItems(
	ctx context.Context,
	deliveryID kernel.UUID,
) ([]GetDeliveryItemResponse, error) {
	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			name,
			quantity
		FROM delivery_items
		WHERE delivery_id = ?
		ORDER BY name
	`, deliveryID.String()).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]GetDeliveryItemResponse, 0)
	for rows.Next() {
		var item GetDeliveryItemResponse
		if err = rows.Scan(&item.Name, &item.Quantity); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
