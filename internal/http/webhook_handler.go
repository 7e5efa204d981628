package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/VishalChauhan562/nemichand-handlooms-backend/internal/service"
)

type ReconciliationService interface {
	ConfirmPayment(ctx context.Context, input service.ConfirmPaymentInput) error
}

type WebhookHandler struct {
	reconciliation ReconciliationService
}

func NewWebhookHandler(reconciliation ReconciliationService) *WebhookHandler {
	return &WebhookHandler{reconciliation: reconciliation}
}

type PaymentConfirmRequestDTO struct {
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
	CartID            int64  `json:"cart_id"`
}

type PaymentConfirmResponseDTO struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// POST /api/v1/payments/confirm
func (h *WebhookHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentConfirmRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.RazorpayOrderID == "" || req.RazorpayPaymentID == "" || req.RazorpaySignature == "" {
		respondError(w, http.StatusBadRequest, "invalid_request",
			"razorpay_order_id, razorpay_payment_id and razorpay_signature are required")
		return
	}

	err := h.reconciliation.ConfirmPayment(r.Context(), service.ConfirmPaymentInput{
		ProviderOrderID:   req.RazorpayOrderID,
		ProviderPaymentID: req.RazorpayPaymentID,
		Signature:         req.RazorpaySignature,
		CartID:            req.CartID,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, PaymentConfirmResponseDTO{
		Success: true,
		Message: "Payment verified successfully",
	})
}
