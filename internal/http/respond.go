package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/VishalChauhan562/nemichand-handlooms-backend/internal/payment"
	"github.com/VishalChauhan562/nemichand-handlooms-backend/internal/repository"
	"github.com/VishalChauhan562/nemichand-handlooms-backend/internal/service"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string   `json:"error"`
	Code    string   `json:"code,omitempty"`
	Details []string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Error("encode_response_failed", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// handleServiceError maps workflow errors to HTTP statuses with a stable
// machine-readable code.
func handleServiceError(w http.ResponseWriter, err error) {
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation failed",
			Code:    "validation_error",
			Details: validationErr.Violations,
		})
		return
	}

	var stockErr *service.StockError
	if errors.As(err, &stockErr) {
		respondError(w, http.StatusBadRequest, "insufficient_stock", stockErr.Error())
		return
	}

	var provErr *service.ProviderError
	if errors.As(err, &provErr) {
		respondError(w, http.StatusBadGateway, "provider_error", "Payment provider call failed")
		return
	}

	switch {
	case errors.Is(err, service.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", "Cart is empty")
	case errors.Is(err, service.ErrInvalidCategory):
		respondError(w, http.StatusBadRequest, "invalid_category", "One or more invalid categories")
	case errors.Is(err, service.ErrTooManyFeatured):
		respondError(w, http.StatusBadRequest, "featured_limit", "The number of featured products cannot exceed 10")
	case errors.Is(err, service.ErrInvalidSignature):
		respondError(w, http.StatusBadRequest, "invalid_signature", "Invalid payment signature")
	case errors.Is(err, repository.ErrPaymentNotFound):
		respondError(w, http.StatusNotFound, "payment_not_found", "Payment record not found")
	case errors.Is(err, repository.ErrCartNotFound):
		respondError(w, http.StatusNotFound, "not_found", "Cart not found")
	case errors.Is(err, repository.ErrCartItemNotFound):
		respondError(w, http.StatusNotFound, "not_found", "Cart item not found")
	case errors.Is(err, repository.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "not_found", "Product not found")
	case errors.Is(err, repository.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "not_found", "Order not found")
	case errors.Is(err, repository.ErrDuplicateSKU):
		respondError(w, http.StatusConflict, "duplicate_sku", "SKU already exists")
	case errors.Is(err, payment.ErrProviderUnavailable):
		respondError(w, http.StatusBadGateway, "provider_error", "Payment provider call failed")
	default:
		zap.L().Error("internal_error", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}
