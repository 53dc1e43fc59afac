package http

import "time"

// StartDeliveryRequest is the body of POST /api/v1/deliveries.
type StartDeliveryRequest struct {
	TransactionID string        `json:"transaction_id"`
	RestaurantID  string        `json:"restaurant_id"`
	Items         []ItemRequest `json:"items"`
}

// ItemRequest is one ordered line item.
type ItemRequest struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// StartDeliveryResponse reports the identifiers of a started delivery saga.
type StartDeliveryResponse struct {
	ExecutionID string `json:"execution_id"`
	DeliveryID  string `json:"delivery_id"`
}

// ClaimDeliveryRequest is the body of POST /api/v1/deliveries/:id/claim.
type ClaimDeliveryRequest struct {
	DriverID string `json:"driver_id"`
}

// UpdateDeliveryRequest is the body of POST /api/v1/deliveries/:id/status.
// The optional step directives resolve a suspended saga step alongside the
// status change.
type UpdateDeliveryRequest struct {
	Action          string `json:"action"`
	StepIDToSucceed string `json:"step_id_to_succeed,omitempty"`
	StepIDToFail    string `json:"step_id_to_fail,omitempty"`
}

// DeliveryStateResponse is the delivery state returned by mutations.
type DeliveryStateResponse struct {
	ID            string     `json:"id"`
	TransactionID string     `json:"transaction_id"`
	DriverID      *string    `json:"driver_id,omitempty"`
	Status        string     `json:"status"`
	ETA           *time.Time `json:"eta,omitempty"`
}

// DeliveryResponse is the full read-model view returned by GET endpoints.
type DeliveryResponse struct {
	ID            string         `json:"id"`
	TransactionID string         `json:"transaction_id"`
	RestaurantID  string         `json:"restaurant_id"`
	DriverID      *string        `json:"driver_id,omitempty"`
	Status        string         `json:"status"`
	ETA           *time.Time     `json:"eta,omitempty"`
	IsDeleted     bool           `json:"is_deleted"`
	Items         []ItemResponse `json:"items"`
}

// ItemResponse is one line item of a delivery.
type ItemResponse struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// DriverDeliveryResponse is one delivery on a driver's board.
type DriverDeliveryResponse struct {
	ID            string     `json:"id"`
	TransactionID string     `json:"transaction_id"`
	Status        string     `json:"status"`
	ETA           *time.Time `json:"eta,omitempty"`
}

// Error is the uniform error body for failed requests.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
