package service

import (
	"context"
	"errors"
	"testing"

	"github.com/VishalChauhan562/nemichand-handlooms-backend/internal/domain"
	"github.com/VishalChauhan562/nemichand-handlooms-backend/internal/metrics"
	"github.com/VishalChauhan562/nemichand-handlooms-backend/internal/payment"
	"github.com/VishalChauhan562/nemichand-handlooms-backend/internal/repository"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newCheckoutService(tx *fakeTx, provider *fakeProvider) (*CheckoutService, *fakeStore) {
	store := &fakeStore{tx: tx}
	m := metrics.New(prometheus.NewRegistry())
	return NewCheckoutService(store, provider, m, zap.NewNop(), "INR"), store
}

func validShippingAddress() domain.ShippingAddress {
	return domain.ShippingAddress{
		Address: "12 Loom Street",
		City:    "Jaipur",
		State:   "Rajasthan",
		Country: "India",
		ZipCode: "302001",
	}
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCheckout_Success(t *testing.T) {
	tx := &fakeTx{
		cart: &domain.Cart{
			ID:     3,
			UserID: 1,
			Items: []domain.CartItem{
				{ID: 1, CartID: 3, ProductID: 10, Quantity: 2},
				{ID: 2, CartID: 3, ProductID: 11, Quantity: 1},
			},
		},
		products: []*domain.Product{
			{ID: 10, Name: "Cotton Saree", Price: price("50.00"), Stock: 5},
			{ID: 11, Name: "Silk Dupatta", Price: price("100.00"), Stock: 2},
		},
	}
	provider := &fakeProvider{
		intent: &payment.Intent{ID: "order_razor_123", Amount: 20000, Currency: "INR"},
	}
	svc, store := newCheckoutService(tx, provider)

	result, err := svc.Checkout(context.Background(), 1, CheckoutInput{
		ShippingAddress: validShippingAddress(),
		PaymentMethod:   "CARD",
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, store.committed)
	assert.Equal(t, []int64{10, 11}, tx.lockedIDs)
	assert.Equal(t, []stockDecrement{
		{productID: 10, quantity: 2},
		{productID: 11, quantity: 1},
	}, tx.decrements)

	assert.Equal(t, int64(42), result.Order.ID)
	assert.Equal(t, domain.OrderStatusPending, result.Order.Status)
	assert.True(t, result.Order.TotalPrice.Equal(price("200.00")))

	require.Len(t, tx.insertedOrderItems, 2)
	assert.True(t, tx.insertedOrderItems[0].Price.Equal(price("50.00")))
	assert.True(t, tx.insertedOrderItems[1].Price.Equal(price("100.00")))

	require.NotNil(t, tx.insertedShipment)
	assert.Equal(t, domain.ShipmentStatusPending, tx.insertedShipment.Status)
	assert.Equal(t, "Jaipur", tx.insertedShipment.Address.City)

	// Amount converted to minor units, receipt bound to the order id.
	assert.Equal(t, int64(20000), provider.gotAmountMinor)
	assert.Equal(t, "INR", provider.gotCurrency)
	assert.Equal(t, "receipt_order_42", provider.gotReceipt)

	require.NotNil(t, tx.insertedPayment)
	assert.Equal(t, domain.PaymentStatusPending, tx.insertedPayment.Status)
	assert.Equal(t, "order_razor_123", tx.insertedPayment.ProviderOrderID)
	assert.Equal(t, domain.PaymentMethodCard, tx.insertedPayment.Method)
	assert.True(t, tx.insertedPayment.Amount.Equal(price("200.00")))
}

func TestCheckout_ProviderFailureRollsBack(t *testing.T) {
	tx := &fakeTx{
		cart: &domain.Cart{
			ID:     3,
			UserID: 1,
			Items:  []domain.CartItem{{ID: 1, CartID: 3, ProductID: 10, Quantity: 1}},
		},
		products: []*domain.Product{
			{ID: 10, Name: "Cotton Saree", Price: price("50.00"), Stock: 5},
		},
	}
	provider := &fakeProvider{err: errBoom}
	svc, store := newCheckoutService(tx, provider)

	_, err := svc.Checkout(context.Background(), 1, CheckoutInput{
		ShippingAddress: validShippingAddress(),
		PaymentMethod:   "UPI",
	})
	require.Error(t, err)

	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.True(t, store.rolledBack)
	assert.False(t, store.committed)
	assert.Nil(t, tx.insertedPayment)
}

func TestCheckout_InsufficientStock(t *testing.T) {
	tx := &fakeTx{
		cart: &domain.Cart{
			ID:     3,
			UserID: 1,
			Items:  []domain.CartItem{{ID: 1, CartID: 3, ProductID: 10, Quantity: 4}},
		},
		products: []*domain.Product{
			{ID: 10, Name: "Cotton Saree", Price: price("50.00"), Stock: 3},
		},
	}
	provider := &fakeProvider{}
	svc, store := newCheckoutService(tx, provider)

	_, err := svc.Checkout(context.Background(), 1, CheckoutInput{
		ShippingAddress: validShippingAddress(),
		PaymentMethod:   "CARD",
	})
	require.Error(t, err)

	var stockErr *StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, int64(10), stockErr.ProductID)
	assert.Equal(t, "Cotton Saree", stockErr.ProductName)
	assert.True(t, errors.Is(err, ErrInsufficientStock))

	assert.True(t, store.rolledBack)
	assert.Zero(t, provider.calls)
}

func TestCheckout_EmptyCart(t *testing.T) {
	cases := []struct {
		name string
		tx   *fakeTx
	}{
		{name: "no cart row", tx: &fakeTx{cartErr: repository.ErrCartNotFound}},
		{name: "cart with no items", tx: &fakeTx{cart: &domain.Cart{ID: 3, UserID: 1}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _ := newCheckoutService(tc.tx, &fakeProvider{})
			_, err := svc.Checkout(context.Background(), 1, CheckoutInput{
				ShippingAddress: validShippingAddress(),
				PaymentMethod:   "CARD",
			})
			assert.ErrorIs(t, err, ErrEmptyCart)
		})
	}
}

func TestCheckout_ValidationAccumulatesViolations(t *testing.T) {
	svc, store := newCheckoutService(&fakeTx{}, &fakeProvider{})

	_, err := svc.Checkout(context.Background(), 1, CheckoutInput{})
	require.Error(t, err)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Len(t, vErr.Violations, 6)
	assert.False(t, store.committed)
	assert.False(t, store.rolledBack)
}

func TestCheckout_InvalidPaymentMethod(t *testing.T) {
	svc, _ := newCheckoutService(&fakeTx{}, &fakeProvider{})

	_, err := svc.Checkout(context.Background(), 1, CheckoutInput{
		ShippingAddress: validShippingAddress(),
		PaymentMethod:   "BITCOIN",
	})
	require.Error(t, err)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, []string{"Invalid payment method"}, vErr.Violations)
}
