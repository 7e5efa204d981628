package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/VishalChauhan562/nemichand-handlooms-backend/internal/domain"
	"github.com/VishalChauhan562/nemichand-handlooms-backend/internal/metrics"
	"github.com/VishalChauhan562/nemichand-handlooms-backend/internal/payment"
	"github.com/VishalChauhan562/nemichand-handlooms-backend/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PaymentProvider is the outbound port to the remote payment gateway.
type PaymentProvider interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency, receipt string) (*payment.Intent, error)
}

type CheckoutService struct {
	store    repository.TxRunner
	provider PaymentProvider
	metrics  *metrics.Metrics
	logger   *zap.Logger
	currency string
}

func NewCheckoutService(
	store repository.TxRunner,
	provider PaymentProvider,
	m *metrics.Metrics,
	logger *zap.Logger,
	currency string,
) *CheckoutService {
	return &CheckoutService{
		store:    store,
		provider: provider,
		metrics:  m,
		logger:   logger,
		currency: currency,
	}
}

type CheckoutInput struct {
	ShippingAddress domain.ShippingAddress
	PaymentMethod   string
}

type CheckoutResult struct {
	Order  *domain.Order
	Intent *payment.Intent
}

var minorUnitFactor = decimal.NewFromInt(100)

// Checkout converts the user's cart into a priced, stock-committed order
// with a pending payment. Every write, including the stock decrement, lives
// in one transaction; if the remote intent cannot be created the whole unit
// rolls back and no stock is consumed.
func (s *CheckoutService) Checkout(ctx context.Context, userID int64, input CheckoutInput) (_ *CheckoutResult, err error) {
	logger := s.logger.With(zap.Int64("user_id", userID))
	logger.Info("checkout_start", zap.String("payment_method", input.PaymentMethod))

	start := time.Now()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		s.metrics.CheckoutRequests.WithLabelValues(outcome).Inc()
		s.metrics.CheckoutDuration.Observe(time.Since(start).Seconds())
	}()

	if err := validateCheckoutInput(input); err != nil {
		return nil, err
	}

	var result CheckoutResult
	err = s.store.WithinTx(ctx, func(tx repository.Tx) error {
		cart, err := tx.CartWithItems(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrCartNotFound) {
				return ErrEmptyCart
			}
			return fmt.Errorf("load cart: %w", err)
		}
		if len(cart.Items) == 0 {
			return ErrEmptyCart
		}

		// Cart items arrive sorted by product id; LockProducts locks in the
		// same ascending order, so concurrent checkouts cannot deadlock.
		ids := make([]int64, 0, len(cart.Items))
		for _, item := range cart.Items {
			ids = append(ids, item.ProductID)
		}
		locked, err := tx.LockProducts(ctx, ids)
		if err != nil {
			return err
		}
		byID := make(map[int64]*domain.Product, len(locked))
		for _, p := range locked {
			byID[p.ID] = p
		}

		total := decimal.Zero
		orderItems := make([]domain.OrderItem, 0, len(cart.Items))
		for _, item := range cart.Items {
			product, ok := byID[item.ProductID]
			if !ok {
				return &StockError{ProductID: item.ProductID}
			}
			if product.Stock < item.Quantity {
				return &StockError{ProductID: product.ID, ProductName: product.Name}
			}
			if err := tx.DecrementStock(ctx, product.ID, item.Quantity); err != nil {
				if errors.Is(err, repository.ErrStockExhausted) {
					return &StockError{ProductID: product.ID, ProductName: product.Name}
				}
				return err
			}

			// Price snapshot: live product price at lock time, immutable on
			// the order from here on.
			total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
			orderItems = append(orderItems, domain.OrderItem{
				ProductID:   product.ID,
				ProductName: product.Name,
				Quantity:    item.Quantity,
				Price:       product.Price,
			})
		}

		now := time.Now().UTC()
		order := &domain.Order{
			UserID:     userID,
			OrderDate:  now,
			TotalPrice: total,
			Status:     domain.OrderStatusPending,
		}
		orderID, err := tx.InsertOrder(ctx, order)
		if err != nil {
			return err
		}
		order.ID = orderID
		for i := range orderItems {
			orderItems[i].OrderID = orderID
		}
		if err := tx.InsertOrderItems(ctx, orderID, orderItems); err != nil {
			return err
		}
		order.Items = orderItems

		shipment := &domain.Shipment{
			OrderID:      orderID,
			Address:      input.ShippingAddress,
			ShipmentDate: now,
			Status:       domain.ShipmentStatusPending,
		}
		shipmentID, err := tx.InsertShipment(ctx, shipment)
		if err != nil {
			return err
		}
		shipment.ID = shipmentID
		order.Shipment = shipment

		intent, err := s.createIntent(ctx, total, orderID)
		if err != nil {
			return err
		}

		pay := &domain.Payment{
			OrderID:         orderID,
			Method:          domain.PaymentMethod(input.PaymentMethod),
			Amount:          total,
			ProviderOrderID: intent.ID,
			Status:          domain.PaymentStatusPending,
			PaymentDate:     now,
		}
		paymentID, err := tx.InsertPayment(ctx, pay)
		if err != nil {
			return err
		}
		pay.ID = paymentID
		order.Payment = pay

		result.Order = order
		result.Intent = intent
		return nil
	})
	if err != nil {
		logger.Warn("checkout_failed", zap.Error(err))
		return nil, err
	}

	logger.Info("checkout_success",
		zap.Int64("order_id", result.Order.ID),
		zap.String("total_price", result.Order.TotalPrice.StringFixed(2)),
		zap.String("provider_order_id", result.Intent.ID),
	)
	return &result, nil
}

// createIntent converts the total to the provider's minor-unit convention
// and requests a remote intent while the transaction is still open. The
// held-lock duration is bounded by the client's HTTP timeout and breaker.
func (s *CheckoutService) createIntent(ctx context.Context, total decimal.Decimal, orderID int64) (*payment.Intent, error) {
	amountMinor := total.Mul(minorUnitFactor).IntPart()
	receipt := fmt.Sprintf("receipt_order_%d", orderID)

	start := time.Now()
	intent, err := s.provider.CreateIntent(ctx, amountMinor, s.currency, receipt)
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	s.metrics.ProviderRequests.WithLabelValues(outcome).Inc()
	s.metrics.ProviderDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, &ProviderError{Err: err}
	}
	return intent, nil
}

func validateCheckoutInput(input CheckoutInput) error {
	var violations []string

	addr := input.ShippingAddress
	if addr.Address == "" {
		violations = append(violations, "Address is required")
	}
	if addr.City == "" {
		violations = append(violations, "City is required")
	}
	if addr.State == "" {
		violations = append(violations, "State is required")
	}
	if addr.Country == "" {
		violations = append(violations, "Country is required")
	}
	if addr.ZipCode == "" {
		violations = append(violations, "ZIP code is required")
	}

	if input.PaymentMethod == "" {
		violations = append(violations, "Payment method is required")
	} else if !domain.PaymentMethod(input.PaymentMethod).Valid() {
		violations = append(violations, "Invalid payment method")
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}
