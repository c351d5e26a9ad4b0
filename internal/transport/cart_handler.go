package transport

import (
	"net/http"

	"aroma-tales/internal/domain"
	"aroma-tales/internal/middleware"
	"aroma-tales/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AddItemRequest represents the add-to-cart payload. Quantity defaults to 1.
type AddItemRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  *int      `json:"quantity" validate:"omitempty,gte=1,lte=999"`
}

// UpdateItemRequest represents the set-quantity payload; zero removes the line
type UpdateItemRequest struct {
	Quantity *int `json:"quantity" validate:"required,lte=999"`
}

// CartResponse is a cart with its derived totals
type CartResponse struct {
	*domain.Cart
	ItemCount int             `json:"itemCount"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

func newCartResponse(cart *domain.Cart) CartResponse {
	return CartResponse{
		Cart:      cart,
		ItemCount: cart.ItemCount(),
		Subtotal:  cart.Subtotal(),
	}
}

// CartHandler handles HTTP requests for session carts
type CartHandler struct {
	cartService service.CartService
	logger      *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService service.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		logger:      logger,
	}
}

// RegisterRoutes registers all cart routes
func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/cart/{sessionId}", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Delete("/", h.ClearCart)
		r.Post("/items", h.AddItem)
		r.Put("/items/{itemId}", h.UpdateItem)
		r.Delete("/items/{itemId}", h.RemoveItem)
	})
}

// GetCart handles GET /api/cart/{sessionId}, creating the cart on first access
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.cartService.GetOrCreateCart(r.Context(), chi.URLParam(r, "sessionId"))
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to get cart")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, newCartResponse(cart))
}

// AddItem handles POST /api/cart/{sessionId}/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Add item validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	cart, err := h.cartService.AddItem(r.Context(), chi.URLParam(r, "sessionId"), req.ProductID, quantity)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to add item")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, newCartResponse(cart))
}

// UpdateItem handles PUT /api/cart/{sessionId}/items/{itemId}
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := parseUUIDParam(w, r, "itemId")
	if !ok {
		return
	}

	var req UpdateItemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	cart, err := h.cartService.SetItemQuantity(r.Context(), chi.URLParam(r, "sessionId"), itemID, *req.Quantity)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to update item")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, newCartResponse(cart))
}

// RemoveItem handles DELETE /api/cart/{sessionId}/items/{itemId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := parseUUIDParam(w, r, "itemId")
	if !ok {
		return
	}

	cart, err := h.cartService.RemoveItem(r.Context(), chi.URLParam(r, "sessionId"), itemID)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to remove item")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, newCartResponse(cart))
}

// ClearCart handles DELETE /api/cart/{sessionId}
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.cartService.ClearCart(r.Context(), chi.URLParam(r, "sessionId")); err != nil {
		respondWithServiceError(w, h.logger, err, "failed to clear cart")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "cart cleared"})
}
