// Package http exposes the admin surface of the dispatch engine.
//
// The surface manages the delivery graph, the robot fleet, and the order
// lifecycle. Dispatch and motion run on their own clock; the HTTP layer
// only feeds them work and reads their state, so every endpoint maps
// directly onto one command or query handler.
package http

import (
	"errors"
	"net/http"
	"time"

	"fleet/internal/core/application/usecases/commands"
	"fleet/internal/core/application/usecases/queries"
	"fleet/internal/core/domain/model/kernel"
	"fleet/internal/core/domain/model/node"
	"fleet/internal/core/domain/model/order"
	"fleet/internal/core/fleet"
	"fleet/internal/pkg/errs"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server coordinates between HTTP handlers and application use cases.
type Server struct {
	// Command handlers
	createNodeHandler        commands.CreateNodeCommandHandler
	removeNodeHandler        commands.RemoveNodeCommandHandler
	createRobotHandler       commands.CreateRobotCommandHandler
	decommissionRobotHandler commands.DecommissionRobotCommandHandler
	createOrderHandler       commands.CreateOrderCommandHandler
	cancelOrderHandler       commands.CancelOrderCommandHandler
	settlePaymentHandler     commands.SettlePaymentCommandHandler

	// Query handlers
	getAllRobotsHandler    queries.GetAllRobotsQueryHandler
	getActiveOrdersHandler queries.GetActiveOrdersQueryHandler
	getUserOrdersHandler   queries.GetUserOrdersQueryHandler

	gatherer prometheus.Gatherer
}

// NewServer creates an HTTP server with the required command and query
// handlers. The gatherer backs the /metrics endpoint.
func NewServer(
	createNodeHandler commands.CreateNodeCommandHandler,
	removeNodeHandler commands.RemoveNodeCommandHandler,
	createRobotHandler commands.CreateRobotCommandHandler,
	decommissionRobotHandler commands.DecommissionRobotCommandHandler,
	createOrderHandler commands.CreateOrderCommandHandler,
	cancelOrderHandler commands.CancelOrderCommandHandler,
	settlePaymentHandler commands.SettlePaymentCommandHandler,
	getAllRobotsHandler queries.GetAllRobotsQueryHandler,
	getActiveOrdersHandler queries.GetActiveOrdersQueryHandler,
	getUserOrdersHandler queries.GetUserOrdersQueryHandler,
	gatherer prometheus.Gatherer,
) *Server {
	return &Server{
		createNodeHandler:        createNodeHandler,
		removeNodeHandler:        removeNodeHandler,
		createRobotHandler:       createRobotHandler,
		decommissionRobotHandler: decommissionRobotHandler,
		createOrderHandler:       createOrderHandler,
		cancelOrderHandler:       cancelOrderHandler,
		settlePaymentHandler:     settlePaymentHandler,
		getAllRobotsHandler:      getAllRobotsHandler,
		getActiveOrdersHandler:   getActiveOrdersHandler,
		getUserOrdersHandler:     getUserOrdersHandler,
		gatherer:                 gatherer,
	}
}

// RegisterRoutes mounts all endpoints on the echo instance.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", s.Health)
	e.GET("/metrics", echo.WrapHandler(
		promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}),
	))

	api := e.Group("/api/v1")
	api.POST("/nodes", s.CreateNode)
	api.DELETE("/nodes/:id", s.RemoveNode)
	api.GET("/robots", s.GetRobots)
	api.POST("/robots", s.CreateRobot)
	api.DELETE("/robots/:id", s.DecommissionRobot)
	api.POST("/orders", s.CreateOrder)
	api.GET("/orders/active", s.GetActiveOrders)
	api.POST("/orders/:id/cancel", s.CancelOrder)
	api.GET("/users/:id/orders", s.GetUserOrders)
	api.POST("/payments", s.SettlePayment)
}

// apiError is the uniform error body.
type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func errorResponse(ctx echo.Context, err error, fallback int) error {
	code := fallback
	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		code = http.StatusNotFound
	case errors.Is(err, errs.ErrInvalidTransition):
		code = http.StatusConflict
	case errors.Is(err, fleet.ErrNodeInUse),
		errors.Is(err, fleet.ErrRobotBusy),
		errors.Is(err, fleet.ErrRobotExists),
		errors.Is(err, fleet.ErrNodeExists):
		code = http.StatusConflict
	case errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsOutOfRange):
		code = http.StatusBadRequest
	}

	return ctx.JSON(code, apiError{Code: code, Message: err.Error()})
}

// Health handles GET /health.
func (s *Server) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type newNodeRequest struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Kind      string  `json:"kind"`
}

type createdResponse struct {
	ID string `json:"id"`
}

// CreateNode handles POST /api/v1/nodes.
func (s *Server) CreateNode(ctx echo.Context) error {
	var req newNodeRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, apiError{
			Code:    http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	kind, err := node.KindFromString(req.Kind)
	if err != nil {
		return errorResponse(ctx, err, http.StatusBadRequest)
	}

	cmd, err := commands.NewCreateNodeCommand(req.Name, req.Latitude, req.Longitude, kind)
	if err != nil {
		return errorResponse(ctx, err, http.StatusBadRequest)
	}

	if err := s.createNodeHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return errorResponse(ctx, err, http.StatusConflict)
	}

	return ctx.JSON(http.StatusCreated, createdResponse{ID: cmd.NodeID().String()})
}

// RemoveNode handles DELETE /api/v1/nodes/:id.
func (s *Server) RemoveNode(ctx echo.Context) error {
	nodeID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return errorResponse(ctx, err, http.StatusBadRequest)
	}

	cmd, err := commands.NewRemoveNodeCommand(nodeID)
	if err != nil {
		return errorResponse(ctx, err, http.StatusBadRequest)
	}

	if err := s.removeNodeHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return errorResponse(ctx, err, http.StatusConflict)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// GetRobots handles GET /api/v1/robots.
func (s *Server) GetRobots(ctx echo.Context) error {
	query := queries.NewGetAllRobotsQuery()

	robots, err := s.getAllRobotsHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, apiError{
			Code:    http.StatusInternalServerError,
			Message: "Failed to retrieve robots",
		})
	}

	response := make([]robotResponse, len(robots))
	for i, r := range robots {
		response[i] = robotResponse{
			ID:           r.ID.String(),
			Name:         r.Name,
			Model:        r.Model,
			RobotType:    r.RobotType,
			Status:       r.Status,
			Battery:      r.Battery,
			Latitude:     r.Latitude,
			Longitude:    r.Longitude,
			ActiveOrders: r.ActiveOrders,
		}
	}

	return ctx.JSON(http.StatusOK, response)
}

type robotResponse struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Model        string   `json:"model"`
	RobotType    string   `json:"robotType"`
	Status       string   `json:"status"`
	Battery      float64  `json:"battery"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	ActiveOrders int      `json:"activeOrders"`
}

type newRobotRequest struct {
	Name        string  `json:"name"`
	Model       string  `json:"model"`
	RobotType   string  `json:"robotType"`
	StartNodeID *string `json:"startNodeId,omitempty"`
}

// CreateRobot handles POST /api/v1/robots.
func (s *Server) CreateRobot(ctx echo.Context) error {
	var req newRobotRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, apiError{
			Code:    http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	var startNodeID *kernel.UUID
	if req.StartNodeID != nil {
		id, err := kernel.UUIDFromString(*req.StartNodeID)
		if err != nil {
			return errorResponse(ctx, err, http.StatusBadRequest)
		}
		startNodeID = &id
	}

	cmd, err := commands.NewCreateRobotCommand(req.Name, req.Model, req.RobotType, startNodeID)
	if err != nil {
		return errorResponse(ctx, err, http.StatusBadRequest)
	}

	if err := s.createRobotHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return errorResponse(ctx, err, http.StatusConflict)
	}

	return ctx.JSON(http.StatusCreated, createdResponse{ID: cmd.RobotID().String()})
}

// DecommissionRobot handles DELETE /api/v1/robots/:id.
func (s *Server) DecommissionRobot(ctx echo.Context) error {
	robotID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return errorResponse(ctx, err, http.StatusBadRequest)
	}

	cmd, err := commands.NewDecommissionRobotCommand(robotID)
	if err != nil {
		return errorResponse(ctx, err, http.StatusBadRequest)
	}

	if err := s.decommissionRobotHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return errorResponse(ctx, err, http.StatusConflict)
	}

	return ctx.NoContent(http.StatusNoContent)
}

type newOrderRequest struct {
	SenderID          string `json:"senderId"`
	ReceiverID        string `json:"receiverId"`
	PickupNodeID      string `json:"pickupNodeId"`
	DropoffNodeID     string `json:"dropoffNodeId"`
	RequiredRobotType string `json:"requiredRobotType,omitempty"`
	PaymentRef        string `json:"paymentRef,omitempty"`
}

// CreateOrder handles POST /api/v1/orders.
func (s *Server) CreateOrder(ctx echo.Context) error {
	var req newOrderRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, apiError{
			Code:    http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	ids := make([]kernel.UUID, 4)
	for i, raw := range []string{req.SenderID, req.ReceiverID, req.PickupNodeID, req.DropoffNodeID} {
		id, err := kernel.UUIDFromString(raw)
		if err != nil {
			return errorResponse(ctx, err, http.StatusBadRequest)
		}
		ids[i] = id
	}

	cmd, err := commands.NewCreateOrderCommand(
		ids[0], ids[1], ids[2], ids[3],
		req.RequiredRobotType, req.PaymentRef,
	)
	if err != nil {
		return errorResponse(ctx, err, http.StatusBadRequest)
	}

	if err := s.createOrderHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return errorResponse(ctx, err, http.StatusInternalServerError)
	}

	return ctx.JSON(http.StatusCreated, createdResponse{ID: cmd.OrderID().String()})
}

// GetActiveOrders handles GET /api/v1/orders/active.
func (s *Server) GetActiveOrders(ctx echo.Context) error {
	query := queries.NewGetActiveOrdersQuery()

	orders, err := s.getActiveOrdersHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, apiError{
			Code:    http.StatusInternalServerError,
			Message: "Failed to retrieve orders",
		})
	}

	return ctx.JSON(http.StatusOK, toOrderResponses(orders))
}

// GetUserOrders handles GET /api/v1/users/:id/orders.
func (s *Server) GetUserOrders(ctx echo.Context) error {
	userID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return errorResponse(ctx, err, http.StatusBadRequest)
	}

	query, err := queries.NewGetUserOrdersQuery(userID)
	if err != nil {
		return errorResponse(ctx, err, http.StatusBadRequest)
	}

	orders, err := s.getUserOrdersHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, apiError{
			Code:    http.StatusInternalServerError,
			Message: "Failed to retrieve orders",
		})
	}

	return ctx.JSON(http.StatusOK, toOrderResponses(orders))
}

type orderResponse struct {
	ID            string  `json:"id"`
	PickupNodeID  string  `json:"pickupNodeId"`
	DropoffNodeID string  `json:"dropoffNodeId"`
	RobotID       *string `json:"robotId,omitempty"`
	Status        string  `json:"status"`
	CancelReason  string  `json:"cancelReason,omitempty"`
	CreatedAt     string  `json:"createdAt"`
}

func toOrderResponses(orders []queries.OrderQueryResponse) []orderResponse {
	response := make([]orderResponse, len(orders))
	for i, o := range orders {
		response[i] = orderResponse{
			ID:            o.ID.String(),
			PickupNodeID:  o.PickupNodeID.String(),
			DropoffNodeID: o.DropoffNodeID.String(),
			Status:        o.Status,
			CancelReason:  o.CancelReason,
			CreatedAt:     o.CreatedAt.UTC().Format(time.RFC3339Nano),
		}
		if o.RobotID != nil {
			id := o.RobotID.String()
			response[i].RobotID = &id
		}
	}
	return response
}

// CancelOrder handles POST /api/v1/orders/:id/cancel.
func (s *Server) CancelOrder(ctx echo.Context) error {
	orderID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return errorResponse(ctx, err, http.StatusBadRequest)
	}

	cmd, err := commands.NewCancelOrderCommand(orderID, order.CancelReasonRequested)
	if err != nil {
		return errorResponse(ctx, err, http.StatusBadRequest)
	}

	if err := s.cancelOrderHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return errorResponse(ctx, err, http.StatusConflict)
	}

	return ctx.NoContent(http.StatusNoContent)
}

type paymentRequest struct {
	OrderID        string `json:"orderId"`
	Succeeded      bool   `json:"succeeded"`
	TransactionRef string `json:"transactionRef,omitempty"`
}

// SettlePayment handles POST /api/v1/payments. This is the webhook target
// for the external payment provider; a failed settlement before pickup
// cancels the order.
func (s *Server) SettlePayment(ctx echo.Context) error {
	var req paymentRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, apiError{
			Code:    http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	orderID, err := kernel.UUIDFromString(req.OrderID)
	if err != nil {
		return errorResponse(ctx, err, http.StatusBadRequest)
	}

	cmd, err := commands.NewSettlePaymentCommand(orderID, req.Succeeded, req.TransactionRef)
	if err != nil {
		return errorResponse(ctx, err, http.StatusBadRequest)
	}

	if err := s.settlePaymentHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return errorResponse(ctx, err, http.StatusConflict)
	}

	return ctx.NoContent(http.StatusNoContent)
}
