package transport

import (
	"net/http"

	"aroma-tales/internal/domain"
	"aroma-tales/internal/middleware"
	"aroma-tales/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// PlaceOrderRequest represents the checkout payload.
// Customer fields are validated by the order service after normalization.
type PlaceOrderRequest struct {
	SessionID     string               `json:"sessionId" validate:"required,max=128"`
	Customer      domain.Customer      `json:"customer"`
	PaymentMethod domain.PaymentMethod `json:"paymentMethod" validate:"omitempty,oneof=COD Online"`
	Notes         string               `json:"notes" validate:"max=2000"`
}

// UpdateStatusRequest represents the admin status change payload
type UpdateStatusRequest struct {
	Status domain.OrderStatus `json:"status" validate:"required"`
}

// OrderHandler handles HTTP requests for checkout and order administration
type OrderHandler struct {
	orderService service.OrderService
	logger       *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// RegisterRoutes registers all order routes.
// idempotency guards checkout; adminOnly guards the listing and status change.
func (h *OrderHandler) RegisterRoutes(r chi.Router, idempotency, adminOnly func(http.Handler) http.Handler) {
	r.Route("/api/orders", func(r chi.Router) {
		r.With(idempotency).Post("/", h.PlaceOrder)
		r.Get("/session/{sessionId}", h.ListSessionOrders)
		r.Get("/{id}", h.GetOrder)

		r.Group(func(r chi.Router) {
			r.Use(adminOnly)
			r.Get("/", h.ListOrders)
			r.Put("/{id}/status", h.UpdateStatus)
		})
	})
}

// PlaceOrder handles POST /api/orders
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Checkout validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	order, err := h.orderService.PlaceOrder(r.Context(), service.PlaceOrderInput{
		SessionID:     req.SessionID,
		Customer:      req.Customer,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	})
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to place order")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, order)
}

// GetOrder handles GET /api/orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to get order")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// ListSessionOrders handles GET /api/orders/session/{sessionId}
func (h *OrderHandler) ListSessionOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderService.ListOrdersForSession(r.Context(), chi.URLParam(r, "sessionId"))
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to list orders")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, orders)
}

// ListOrders handles GET /api/orders (admin)
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderService.ListOrders(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to list orders")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, orders)
}

// UpdateStatus handles PUT /api/orders/{id}/status (admin)
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	order, err := h.orderService.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to update order status")
		return
	}

	if principal, ok := middleware.GetPrincipal(r.Context()); ok {
		h.logger.Info("Order status changed by admin",
			zap.String("admin_id", principal.UserID),
			zap.String("order_number", order.OrderNumber),
		)
	}

	middleware.RespondWithJSON(w, http.StatusOK, order)
}
