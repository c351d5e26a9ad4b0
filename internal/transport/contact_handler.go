package transport

import (
	"encoding/json"
	"net/http"

	"aroma-tales/internal/domain"
	"aroma-tales/internal/middleware"
	"aroma-tales/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ContactHandler accepts storefront contact form submissions
type ContactHandler struct {
	contactService service.ContactService
	logger         *zap.Logger
}

// NewContactHandler creates a new ContactHandler
func NewContactHandler(contactService service.ContactService, logger *zap.Logger) *ContactHandler {
	return &ContactHandler{
		contactService: contactService,
		logger:         logger,
	}
}

// RegisterRoutes registers all contact routes
func (h *ContactHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/contact", h.Submit)
}

// Submit handles POST /api/contact. Validation runs in the service after trimming.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var msg domain.ContactMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		h.logger.Debug("Contact decode failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.contactService.Submit(r.Context(), msg); err != nil {
		respondWithServiceError(w, h.logger, err, "failed to send message")
		return
	}

	middleware.RespondWithJSON(w, http.StatusAccepted, map[string]string{"message": "message received"})
}
