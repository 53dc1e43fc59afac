// Package http exposes the delivery subsystem over an echo HTTP API.
// It translates requests into commands and queries and maps domain errors to
// status codes: missing objects become 404, lost claim races become 409.
package http

import (
	"errors"
	"net/http"
	"time"

	"fooddelivery/internal/core/application/usecases/commands"
	"fooddelivery/internal/core/application/usecases/queries"
	"fooddelivery/internal/core/domain/model/delivery"
	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// Server coordinates between HTTP handlers and application use cases.
type Server struct {
	// Command handlers
	startDeliveryHandler  commands.StartDeliveryCommandHandler
	claimDeliveryHandler  commands.ClaimDeliveryCommandHandler
	updateDeliveryHandler commands.UpdateDeliveryCommandHandler

	// Query handlers
	getDeliveryHandler           queries.GetDeliveryQueryHandler
	getDeliveriesByDriverHandler queries.GetDeliveriesByDriverQueryHandler
}

// NewServer creates a new HTTP server with the required command and query handlers.
func NewServer(
	startDeliveryHandler commands.StartDeliveryCommandHandler,
	claimDeliveryHandler commands.ClaimDeliveryCommandHandler,
	updateDeliveryHandler commands.UpdateDeliveryCommandHandler,
	getDeliveryHandler queries.GetDeliveryQueryHandler,
	getDeliveriesByDriverHandler queries.GetDeliveriesByDriverQueryHandler,
) *Server {
	return &Server{
		startDeliveryHandler:         startDeliveryHandler,
		claimDeliveryHandler:         claimDeliveryHandler,
		updateDeliveryHandler:        updateDeliveryHandler,
		getDeliveryHandler:           getDeliveryHandler,
		getDeliveriesByDriverHandler: getDeliveriesByDriverHandler,
	}
}

// RegisterRoutes attaches all delivery endpoints to the echo instance.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", s.Health)

	v1 := e.Group("/api/v1")
	v1.POST("/deliveries", s.StartDelivery)
	v1.POST("/deliveries/:id/claim", s.ClaimDelivery)
	v1.POST("/deliveries/:id/status", s.UpdateDeliveryStatus)
	v1.GET("/deliveries/:id", s.GetDelivery)
	v1.GET("/drivers/:id/deliveries", s.GetDriverDeliveries)
}

// Health handles GET /health.
func (s *Server) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// StartDelivery handles POST /api/v1/deliveries - starts a delivery saga.
// Responds 202: the saga continues asynchronously after the response.
func (s *Server) StartDelivery(ctx echo.Context) error {
	var req StartDeliveryRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	restaurantID, err := kernel.UUIDFromString(req.RestaurantID)
	if err != nil {
		return badRequest(ctx, "Invalid restaurant id: "+err.Error())
	}

	items := make([]delivery.Item, 0, len(req.Items))
	for _, itemReq := range req.Items {
		item, itemErr := delivery.NewItem(itemReq.Name, itemReq.Quantity)
		if itemErr != nil {
			return badRequest(ctx, "Invalid item: "+itemErr.Error())
		}
		items = append(items, item)
	}

	cmd, err := commands.NewStartDeliveryCommand(req.TransactionID, restaurantID, items)
	if err != nil {
		return badRequest(ctx, "Invalid delivery data: "+err.Error())
	}

	result, err := s.startDeliveryHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, Error{
			Code:    http.StatusInternalServerError,
			Message: "Failed to start delivery",
		})
	}

	return ctx.JSON(http.StatusAccepted, StartDeliveryResponse{
		ExecutionID: result.ExecutionID.String(),
		DeliveryID:  result.DeliveryID.String(),
	})
}

// ClaimDelivery handles POST /api/v1/deliveries/:id/claim - a driver claims a
// delivery. The loser of a claim race receives 409 with no mutation.
func (s *Server) ClaimDelivery(ctx echo.Context) error {
	deliveryID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return badRequest(ctx, "Invalid delivery id")
	}

	var req ClaimDeliveryRequest
	if err = ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	driverID, err := kernel.UUIDFromString(req.DriverID)
	if err != nil {
		return badRequest(ctx, "Invalid driver id: "+err.Error())
	}

	cmd, err := commands.NewClaimDeliveryCommand(deliveryID, driverID)
	if err != nil {
		return badRequest(ctx, "Invalid claim data: "+err.Error())
	}

	snapshot, err := s.claimDeliveryHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrObjectNotFound):
			return notFound(ctx, "Delivery not found")
		case errors.Is(err, delivery.ErrAlreadyClaimed):
			return ctx.JSON(http.StatusConflict, Error{
				Code:    http.StatusConflict,
				Message: "Delivery is already claimed",
			})
		default:
			return ctx.JSON(http.StatusInternalServerError, Error{
				Code:    http.StatusInternalServerError,
				Message: "Failed to claim delivery",
			})
		}
	}

	return ctx.JSON(http.StatusOK, stateResponse(snapshot))
}

// UpdateDeliveryStatus handles POST /api/v1/deliveries/:id/status - applies a
// lifecycle transition (picked_up, delivered, cancelled), optionally resolving
// a suspended saga step in the same call.
func (s *Server) UpdateDeliveryStatus(ctx echo.Context) error {
	deliveryID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return badRequest(ctx, "Invalid delivery id")
	}

	var req UpdateDeliveryRequest
	if err = ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	cmd, err := commands.NewUpdateDeliveryCommand(
		deliveryID, commands.Action(req.Action), req.StepIDToSucceed, req.StepIDToFail)
	if err != nil {
		return badRequest(ctx, "Invalid update data: "+err.Error())
	}

	snapshot, err := s.updateDeliveryHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrObjectNotFound):
			return notFound(ctx, "Delivery not found")
		case errors.Is(err, errs.ErrValueIsInvalid):
			// The requested transition is not allowed from the current status.
			return ctx.JSON(http.StatusConflict, Error{
				Code:    http.StatusConflict,
				Message: err.Error(),
			})
		default:
			return ctx.JSON(http.StatusInternalServerError, Error{
				Code:    http.StatusInternalServerError,
				Message: "Failed to update delivery",
			})
		}
	}

	return ctx.JSON(http.StatusOK, stateResponse(snapshot))
}

// GetDelivery handles GET /api/v1/deliveries/:id - retrieves one delivery,
// including cancelled ones.
func (s *Server) GetDelivery(ctx echo.Context) error {
	deliveryID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return badRequest(ctx, "Invalid delivery id")
	}

	query, err := queries.NewGetDeliveryQuery(deliveryID)
	if err != nil {
		return badRequest(ctx, "Invalid delivery id: "+err.Error())
	}

	result, err := s.getDeliveryHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			return notFound(ctx, "Delivery not found")
		}
		return ctx.JSON(http.StatusInternalServerError, Error{
			Code:    http.StatusInternalServerError,
			Message: "Failed to retrieve delivery",
		})
	}

	items := make([]ItemResponse, len(result.Items))
	for i, item := range result.Items {
		items[i] = ItemResponse{Name: item.Name, Quantity: item.Quantity}
	}

	response := DeliveryResponse{
		ID:            result.ID.String(),
		TransactionID: result.TransactionID,
		RestaurantID:  result.RestaurantID.String(),
		Status:        result.Status.String(),
		ETA:           optionalTime(result.ETA),
		IsDeleted:     result.IsDeleted,
		Items:         items,
	}
	if result.DriverID != nil {
		driverID := result.DriverID.String()
		response.DriverID = &driverID
	}

	return ctx.JSON(http.StatusOK, response)
}

// GetDriverDeliveries handles GET /api/v1/drivers/:id/deliveries - retrieves
// the deliveries a driver has claimed, most urgent first.
func (s *Server) GetDriverDeliveries(ctx echo.Context) error {
	driverID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return badRequest(ctx, "Invalid driver id")
	}

	query, err := queries.NewGetDeliveriesByDriverQuery(driverID)
	if err != nil {
		return badRequest(ctx, "Invalid driver id: "+err.Error())
	}

	results, err := s.getDeliveriesByDriverHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, Error{
			Code:    http.StatusInternalServerError,
			Message: "Failed to retrieve deliveries",
		})
	}

	response := make([]DriverDeliveryResponse, len(results))
	for i, result := range results {
		response[i] = DriverDeliveryResponse{
			ID:            result.ID.String(),
			TransactionID: result.TransactionID,
			Status:        result.Status.String(),
			ETA:           optionalTime(result.ETA),
		}
	}

	return ctx.JSON(http.StatusOK, response)
}

func stateResponse(snapshot commands.DeliverySnapshot) DeliveryStateResponse {
	response := DeliveryStateResponse{
		ID:            snapshot.ID.String(),
		TransactionID: snapshot.TransactionID,
		Status:        snapshot.Status.String(),
		ETA:           optionalTime(snapshot.ETA),
	}
	if snapshot.DriverID != nil {
		driverID := snapshot.DriverID.String()
		response.DriverID = &driverID
	}
	return response
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func badRequest(ctx echo.Context, message string) error {
	return ctx.JSON(http.StatusBadRequest, Error{
		Code:    http.StatusBadRequest,
		Message: message,
	})
}

func notFound(ctx echo.Context, message string) error {
	return ctx.JSON(http.StatusNotFound, Error{
		Code:    http.StatusNotFound,
		Message: message,
	})
}
