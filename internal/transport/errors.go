package transport

import (
	"errors"
	"net/http"

	"aroma-tales/internal/domain"
	"aroma-tales/internal/middleware"
	"aroma-tales/internal/service"

	"go.uber.org/zap"
)

// badRequests are service errors caused by the caller's input
var badRequests = []error{
	service.ErrOutOfStock,
	service.ErrEmptyCart,
	service.ErrInvalidStatus,
	service.ErrInvalidQuantity,
	service.ErrInvalidPayment,
	service.ErrInvalidCategory,
	service.ErrInvalidSession,
}

// respondWithServiceError maps a service error onto the error envelope.
// Unknown errors are logged and reported as 500 with the given fallback message.
func respondWithServiceError(w http.ResponseWriter, logger *zap.Logger, err error, fallback string) {
	if errors.Is(err, service.ErrInvalidCustomer) || errors.Is(err, service.ErrInvalidContact) {
		if fields := middleware.FormatValidationErrors(err); len(fields) > 0 {
			middleware.RespondWithValidationErrors(w, fields)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if errors.Is(err, domain.ErrNotFound) {
		middleware.RespondWithError(w, http.StatusNotFound, err.Error())
		return
	}

	if errors.Is(err, service.ErrInvalidCredentials) {
		middleware.RespondWithError(w, http.StatusUnauthorized, err.Error())
		return
	}

	if errors.Is(err, service.ErrCartChanged) {
		middleware.RespondWithError(w, http.StatusConflict, err.Error())
		return
	}

	for _, target := range badRequests {
		if errors.Is(err, target) {
			middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	logger.Error(fallback, zap.Error(err))
	middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
}
