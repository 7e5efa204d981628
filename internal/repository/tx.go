package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/VishalChauhan562/nemichand-handlooms-backend/internal/domain"
)

// TxRunner executes a function inside one database transaction. The
// transaction commits only if fn returns nil; any error rolls back every
// write made through the Tx, so no partial state is ever visible.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx exposes the transaction-scoped operations the workflows compose.
// LockProducts takes exclusive row locks; all multi-product locking goes
// through it so rows are always locked in ascending id order.
type Tx interface {
	CartWithItems(ctx context.Context, userID int64) (*domain.Cart, error)
	LockProducts(ctx context.Context, ids []int64) ([]*domain.Product, error)
	DecrementStock(ctx context.Context, productID int64, quantity int) error
	InsertOrder(ctx context.Context, o *domain.Order) (int64, error)
	InsertOrderItems(ctx context.Context, orderID int64, items []domain.OrderItem) error
	InsertShipment(ctx context.Context, sh *domain.Shipment) (int64, error)
	InsertPayment(ctx context.Context, p *domain.Payment) (int64, error)
	PaymentByProviderOrderID(ctx context.Context, providerOrderID string) (*domain.Payment, error)
	UpdatePayment(ctx context.Context, paymentID int64, status domain.PaymentStatus, providerPaymentID string) error
	UpdateOrderStatus(ctx context.Context, orderID int64, status domain.OrderStatus) error
	CartOwner(ctx context.Context, cartID int64) (int64, error)
	ClearCartItems(ctx context.Context, cartID int64) error
	InsertOutboxEvent(ctx context.Context, ev *OutboxEvent) error
	CategoriesByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Category, error)
	CountCategoryProductsForMonth(ctx context.Context, categoryID int64, yearMonth string) (int, error)
	CountFeaturedProducts(ctx context.Context) (int, error)
	InsertProduct(ctx context.Context, p *domain.Product) (int64, error)
	UpdateProduct(ctx context.Context, p *domain.Product) error
}

type pgTx struct {
	tx *sql.Tx
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(&pgTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback after %w: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
