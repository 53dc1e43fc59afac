package queries

import (
	"context"
	"database/sql"

	"fooddelivery/internal/core/domain/model/delivery"
	"fooddelivery/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetDeliveriesByDriverQueryHandler retrieves a driver's claimed deliveries
// from the database, ordered by ETA so the most urgent job comes first.
type GetDeliveriesByDriverQueryHandler struct {
	db *gorm.DB
}

// NewGetDeliveriesByDriverQueryHandler creates a handler for driver board queries.
// Requires a GORM database connection for query execution.
func NewGetDeliveriesByDriverQueryHandler(db *gorm.DB) GetDeliveriesByDriverQueryHandler {
	return GetDeliveriesByDriverQueryHandler{db: db}
}

// Handle executes the query. An unknown driver simply yields an empty slice;
// drivers are not an aggregate of this subsystem and cannot be validated here.
func (h GetDeliveriesByDriverQueryHandler) Handle(
	ctx context.Context,
	query GetDeliveriesByDriverQuery,
) ([]GetDeliveriesByDriverQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	deliveries := make([]GetDeliveriesByDriverQueryResponse, 0)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			transaction_id,
			status,
			eta
		FROM deliveries
		WHERE driver_id = ?
			AND deleted_at IS NULL
		ORDER BY eta, id
	`, query.DriverID().String()).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			resp   GetDeliveriesByDriverQueryResponse
			id     uuid.UUID
			status int
			eta    sql.NullTime
		)
		if err = rows.Scan(&id, &resp.TransactionID, &status, &eta); err != nil {
			return nil, err
		}

		if resp.ID, err = kernel.UUIDFromBytes(id[:]); err != nil {
			return nil, err
		}
		resp.Status = delivery.Status(status)
		if eta.Valid {
			resp.ETA = eta.Time
		}
		deliveries = append(deliveries, resp)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return deliveries, nil
}
