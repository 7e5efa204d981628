package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/VishalChauhan562/nemichand-handlooms-backend/internal/cache"
	"github.com/VishalChauhan562/nemichand-handlooms-backend/internal/domain"
	"github.com/VishalChauhan562/nemichand-handlooms-backend/internal/payment"
	"github.com/VishalChauhan562/nemichand-handlooms-backend/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReconciliationService matches the provider's asynchronous confirmation
// back to the local payment and order records.
type ReconciliationService struct {
	store     repository.TxRunner
	verifier  payment.SignatureVerifier
	cartCache cache.CartCache
	logger    *zap.Logger
}

func NewReconciliationService(
	store repository.TxRunner,
	verifier payment.SignatureVerifier,
	cartCache cache.CartCache,
	logger *zap.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		store:     store,
		verifier:  verifier,
		cartCache: cartCache,
		logger:    logger,
	}
}

type ConfirmPaymentInput struct {
	ProviderOrderID   string
	ProviderPaymentID string
	Signature         string
	CartID            int64
}

type orderConfirmedEvent struct {
	OrderID           int64     `json:"order_id"`
	TotalAmount       string    `json:"total_amount"`
	ProviderPaymentID string    `json:"provider_payment_id"`
	ConfirmedAt       time.Time `json:"confirmed_at"`
}

// ConfirmPayment verifies the webhook signature and transitions the payment
// and its order. On a valid signature the payment becomes SUCCESS, the order
// CONFIRMED, the cart is emptied and an order.confirmed outbox event is
// written, all in one transaction. A tampered signature commits a FAILED
// payment status and leaves the order PENDING; decremented stock is not
// restored. A replayed valid confirmation is a no-op.
func (s *ReconciliationService) ConfirmPayment(ctx context.Context, input ConfirmPaymentInput) error {
	logger := s.logger.With(zap.String("provider_order_id", input.ProviderOrderID))

	var sigMismatch bool
	var cartUserID int64
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		pay, err := tx.PaymentByProviderOrderID(ctx, input.ProviderOrderID)
		if err != nil {
			return err
		}

		if pay.Status == domain.PaymentStatusSuccess {
			logger.Info("payment_already_confirmed", zap.Int64("payment_id", pay.ID))
			return nil
		}

		if !s.verifier.Verify(input.ProviderOrderID, input.ProviderPaymentID, input.Signature) {
			// The FAILED status must commit, so the mismatch is reported
			// after the transaction instead of failing it.
			sigMismatch = true
			return tx.UpdatePayment(ctx, pay.ID, domain.PaymentStatusFailed, "")
		}

		if err := tx.UpdatePayment(ctx, pay.ID, domain.PaymentStatusSuccess, input.ProviderPaymentID); err != nil {
			return err
		}
		if err := tx.UpdateOrderStatus(ctx, pay.OrderID, domain.OrderStatusConfirmed); err != nil {
			return err
		}
		owner, err := tx.CartOwner(ctx, input.CartID)
		switch {
		case errors.Is(err, repository.ErrCartNotFound):
			// Nothing to clear.
		case err != nil:
			return err
		default:
			cartUserID = owner
			if err := tx.ClearCartItems(ctx, input.CartID); err != nil {
				return err
			}
		}

		payload, err := json.Marshal(orderConfirmedEvent{
			OrderID:           pay.OrderID,
			TotalAmount:       pay.Amount.StringFixed(2),
			ProviderPaymentID: input.ProviderPaymentID,
			ConfirmedAt:       time.Now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("marshal order confirmed event: %w", err)
		}
		return tx.InsertOutboxEvent(ctx, &repository.OutboxEvent{
			ID:          uuid.New().String(),
			AggregateID: fmt.Sprintf("order-%d", pay.OrderID),
			EventType:   "order.confirmed",
			Payload:     payload,
		})
	})
	if err != nil {
		logger.Warn("payment_confirmation_failed", zap.Error(err))
		return err
	}
	if sigMismatch {
		logger.Warn("payment_signature_mismatch",
			zap.String("provider_payment_id", input.ProviderPaymentID))
		return ErrInvalidSignature
	}

	// The cached cart still holds the pre-checkout items; drop it so the
	// next read sees the emptied cart.
	if cartUserID != 0 {
		s.invalidateCartCache(cartUserID)
	}

	logger.Info("payment_confirmed", zap.String("provider_payment_id", input.ProviderPaymentID))
	return nil
}

func (s *ReconciliationService) invalidateCartCache(userID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cartCache.Delete(ctx, userID); err != nil {
		s.logger.Warn("cart_cache_invalidate_failed", zap.Error(err))
	}
}
