package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/VishalChauhan562/nemichand-handlooms-backend/internal/domain"
	"github.com/VishalChauhan562/nemichand-handlooms-backend/internal/payment"
	"github.com/VishalChauhan562/nemichand-handlooms-backend/internal/service"
)

type CheckoutService interface {
	Checkout(ctx context.Context, userID int64, input service.CheckoutInput) (*service.CheckoutResult, error)
}

type CheckoutHandler struct {
	checkout CheckoutService
}

func NewCheckoutHandler(checkout CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

type CheckoutRequestDTO struct {
	ShippingAddress domain.ShippingAddress `json:"shipping_address"`
	PaymentMethod   string                 `json:"payment_method"`
}

type CheckoutResponseDTO struct {
	Order  *domain.Order   `json:"order"`
	Intent *payment.Intent `json:"payment_intent"`
}

// POST /api/v1/orders
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	result, err := h.checkout.Checkout(r.Context(), userID, service.CheckoutInput{
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, CheckoutResponseDTO{
		Order:  result.Order,
		Intent: result.Intent,
	})
}
