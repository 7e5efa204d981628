package service

import (
	"context"
	"errors"

	"github.com/VishalChauhan562/nemichand-handlooms-backend/internal/domain"
	"github.com/VishalChauhan562/nemichand-handlooms-backend/internal/payment"
	"github.com/VishalChauhan562/nemichand-handlooms-backend/internal/repository"
)

// fakeStore runs the workflow function against a fakeTx and records whether
// the transaction would have committed or rolled back.
type fakeStore struct {
	tx         *fakeTx
	committed  bool
	rolledBack bool
}

func (s *fakeStore) WithinTx(_ context.Context, fn func(tx repository.Tx) error) error {
	err := fn(s.tx)
	if err != nil {
		s.rolledBack = true
		return err
	}
	s.committed = true
	return nil
}

type stockDecrement struct {
	productID int64
	quantity  int
}

type paymentUpdate struct {
	paymentID         int64
	status            domain.PaymentStatus
	providerPaymentID string
}

// fakeTx is a scripted transaction. Inputs are seeded on the struct; every
// write is recorded so tests can assert on the exact sequence of effects.
type fakeTx struct {
	cart    *domain.Cart
	cartErr error

	products   []*domain.Product
	lockedIDs  []int64
	decrements []stockDecrement

	insertedOrder      *domain.Order
	insertedOrderItems []domain.OrderItem
	insertedShipment   *domain.Shipment
	insertedPayment    *domain.Payment
	insertOrderErr     error

	payment        *domain.Payment
	paymentErr     error
	paymentUpdates []paymentUpdate
	orderStatuses  map[int64]domain.OrderStatus
	cartOwnerID    int64
	cartOwnerErr   error
	clearedCartIDs []int64
	outboxEvents   []*repository.OutboxEvent

	categories       map[int64]*domain.Category
	monthCounts      map[int64]int
	monthCountCalls  map[int64]int
	featuredCount    int
	insertedProducts []*domain.Product
	insertProductErr error
	updatedProducts  []*domain.Product
}

func (t *fakeTx) CartWithItems(_ context.Context, _ int64) (*domain.Cart, error) {
	if t.cartErr != nil {
		return nil, t.cartErr
	}
	return t.cart, nil
}

func (t *fakeTx) LockProducts(_ context.Context, ids []int64) ([]*domain.Product, error) {
	t.lockedIDs = ids
	return t.products, nil
}

func (t *fakeTx) DecrementStock(_ context.Context, productID int64, quantity int) error {
	t.decrements = append(t.decrements, stockDecrement{productID: productID, quantity: quantity})
	return nil
}

func (t *fakeTx) InsertOrder(_ context.Context, o *domain.Order) (int64, error) {
	if t.insertOrderErr != nil {
		return 0, t.insertOrderErr
	}
	t.insertedOrder = o
	return 42, nil
}

func (t *fakeTx) InsertOrderItems(_ context.Context, _ int64, items []domain.OrderItem) error {
	t.insertedOrderItems = items
	return nil
}

func (t *fakeTx) InsertShipment(_ context.Context, sh *domain.Shipment) (int64, error) {
	t.insertedShipment = sh
	return 7, nil
}

func (t *fakeTx) InsertPayment(_ context.Context, p *domain.Payment) (int64, error) {
	t.insertedPayment = p
	return 9, nil
}

func (t *fakeTx) PaymentByProviderOrderID(_ context.Context, _ string) (*domain.Payment, error) {
	if t.paymentErr != nil {
		return nil, t.paymentErr
	}
	return t.payment, nil
}

func (t *fakeTx) UpdatePayment(_ context.Context, paymentID int64, status domain.PaymentStatus, providerPaymentID string) error {
	t.paymentUpdates = append(t.paymentUpdates, paymentUpdate{
		paymentID:         paymentID,
		status:            status,
		providerPaymentID: providerPaymentID,
	})
	return nil
}

func (t *fakeTx) UpdateOrderStatus(_ context.Context, orderID int64, status domain.OrderStatus) error {
	if t.orderStatuses == nil {
		t.orderStatuses = make(map[int64]domain.OrderStatus)
	}
	t.orderStatuses[orderID] = status
	return nil
}

func (t *fakeTx) CartOwner(_ context.Context, _ int64) (int64, error) {
	if t.cartOwnerErr != nil {
		return 0, t.cartOwnerErr
	}
	return t.cartOwnerID, nil
}

func (t *fakeTx) ClearCartItems(_ context.Context, cartID int64) error {
	t.clearedCartIDs = append(t.clearedCartIDs, cartID)
	return nil
}

func (t *fakeTx) InsertOutboxEvent(_ context.Context, ev *repository.OutboxEvent) error {
	t.outboxEvents = append(t.outboxEvents, ev)
	return nil
}

func (t *fakeTx) CategoriesByIDs(_ context.Context, ids []int64) (map[int64]*domain.Category, error) {
	out := make(map[int64]*domain.Category)
	for _, id := range ids {
		if c, ok := t.categories[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

func (t *fakeTx) CountCategoryProductsForMonth(_ context.Context, categoryID int64, _ string) (int, error) {
	if t.monthCountCalls == nil {
		t.monthCountCalls = make(map[int64]int)
	}
	t.monthCountCalls[categoryID]++
	return t.monthCounts[categoryID], nil
}

func (t *fakeTx) CountFeaturedProducts(_ context.Context) (int, error) {
	return t.featuredCount, nil
}

func (t *fakeTx) InsertProduct(_ context.Context, p *domain.Product) (int64, error) {
	if t.insertProductErr != nil {
		return 0, t.insertProductErr
	}
	t.insertedProducts = append(t.insertedProducts, p)
	return int64(100 + len(t.insertedProducts)), nil
}

func (t *fakeTx) UpdateProduct(_ context.Context, p *domain.Product) error {
	t.updatedProducts = append(t.updatedProducts, p)
	return nil
}

// fakeProductRepo scripts the non-transactional product reads and writes.
type fakeProductRepo struct {
	products map[int64]*domain.Product
	updated  []*domain.Product
	deleted  []int64
}

func (r *fakeProductRepo) ProductByID(_ context.Context, id int64) (*domain.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

func (r *fakeProductRepo) ListProducts(_ context.Context, _, _ int) ([]*domain.Product, int, error) {
	out := make([]*domain.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (r *fakeProductRepo) UpdateProduct(_ context.Context, p *domain.Product) error {
	r.updated = append(r.updated, p)
	return nil
}

func (r *fakeProductRepo) DeleteProduct(_ context.Context, id int64) error {
	r.deleted = append(r.deleted, id)
	return nil
}

// fakeProvider scripts the remote gateway.
type fakeProvider struct {
	intent *payment.Intent
	err    error

	gotAmountMinor int64
	gotCurrency    string
	gotReceipt     string
	calls          int
}

func (p *fakeProvider) CreateIntent(_ context.Context, amountMinor int64, currency, receipt string) (*payment.Intent, error) {
	p.calls++
	p.gotAmountMinor = amountMinor
	p.gotCurrency = currency
	p.gotReceipt = receipt
	if p.err != nil {
		return nil, p.err
	}
	return p.intent, nil
}

var errBoom = errors.New("boom")
