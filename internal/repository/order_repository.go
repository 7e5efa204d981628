package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/VishalChauhan562/nemichand-handlooms-backend/internal/domain"
)

// OrderRepository serves order reads outside the checkout transaction.
type OrderRepository interface {
	OrdersByUserID(ctx context.Context, userID int64) ([]*domain.Order, error)
	OrderByID(ctx context.Context, orderID, userID int64) (*domain.Order, error)
	SetOrderStatus(ctx context.Context, orderID int64, status domain.OrderStatus) error
}

func (t *pgTx) InsertOrder(ctx context.Context, o *domain.Order) (int64, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx,
		`INSERT INTO orders (user_id, order_date, total_price, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, NOW(), NOW())
		 RETURNING id`,
		o.UserID, o.OrderDate, o.TotalPrice, o.Status).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert order: %w", err)
	}
	return id, nil
}

func (t *pgTx) InsertOrderItems(ctx context.Context, orderID int64, items []domain.OrderItem) error {
	for _, item := range items {
		_, err := t.tx.ExecContext(ctx,
			`INSERT INTO order_items (order_id, product_id, quantity, price, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, NOW(), NOW())`,
			orderID, item.ProductID, item.Quantity, item.Price)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

func (t *pgTx) InsertShipment(ctx context.Context, sh *domain.Shipment) (int64, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx,
		`INSERT INTO shipments (order_id, address, city, state, country, zip_code, shipment_date, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		 RETURNING id`,
		sh.OrderID, sh.Address.Address, sh.Address.City, sh.Address.State,
		sh.Address.Country, sh.Address.ZipCode, sh.ShipmentDate, sh.Status).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert shipment: %w", err)
	}
	return id, nil
}

func (t *pgTx) InsertPayment(ctx context.Context, p *domain.Payment) (int64, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx,
		`INSERT INTO payments (order_id, payment_method, amount, provider_order_id, provider_payment_id, status, payment_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		 RETURNING id`,
		p.OrderID, p.Method, p.Amount, p.ProviderOrderID,
		p.ProviderPaymentID, p.Status, p.PaymentDate).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert payment: %w", err)
	}
	return id, nil
}

// PaymentByProviderOrderID locks the payment row so concurrent webhook
// deliveries for the same payment serialize on it.
func (t *pgTx) PaymentByProviderOrderID(ctx context.Context, providerOrderID string) (*domain.Payment, error) {
	var (
		p                 domain.Payment
		providerPaymentID sql.NullString
	)
	err := t.tx.QueryRowContext(ctx,
		`SELECT id, order_id, payment_method, amount, provider_order_id, provider_payment_id, status, payment_date
		 FROM payments WHERE provider_order_id = $1
		 FOR UPDATE`,
		providerOrderID).Scan(
		&p.ID, &p.OrderID, &p.Method, &p.Amount, &p.ProviderOrderID,
		&providerPaymentID, &p.Status, &p.PaymentDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query payment by provider order id: %w", err)
	}
	p.ProviderPaymentID = providerPaymentID.String
	return &p, nil
}

func (t *pgTx) UpdatePayment(ctx context.Context, paymentID int64, status domain.PaymentStatus, providerPaymentID string) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE payments
		 SET status = $2, provider_payment_id = NULLIF($3, ''), updated_at = NOW()
		 WHERE id = $1`,
		paymentID, status, providerPaymentID)
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	return nil
}

func (t *pgTx) UpdateOrderStatus(ctx context.Context, orderID int64, status domain.OrderStatus) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`,
		orderID, status)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	return nil
}

const orderDetailQuery = `
	SELECT o.id, o.user_id, o.order_date, o.total_price, o.status, o.created_at, o.updated_at,
	       oi.id, oi.product_id, oi.quantity, oi.price, p.name,
	       pay.id, pay.payment_method, pay.amount, pay.provider_order_id, pay.provider_payment_id, pay.status, pay.payment_date,
	       sh.id, sh.address, sh.city, sh.state, sh.country, sh.zip_code, sh.shipment_date, sh.status
	FROM orders o
	LEFT JOIN order_items oi ON oi.order_id = o.id
	LEFT JOIN products p ON p.id = oi.product_id
	LEFT JOIN payments pay ON pay.order_id = o.id
	LEFT JOIN shipments sh ON sh.order_id = o.id`

func scanOrderRows(rows *sql.Rows) ([]*domain.Order, error) {
	byID := make(map[int64]*domain.Order)
	var ordered []*domain.Order

	for rows.Next() {
		var (
			o domain.Order

			itemID    sql.NullInt64
			productID sql.NullInt64
			quantity  sql.NullInt64
			itemPrice sql.NullString
			prodName  sql.NullString

			payID        sql.NullInt64
			payMethod    sql.NullString
			payAmount    sql.NullString
			provOrderID  sql.NullString
			provPayID    sql.NullString
			payStatus    sql.NullString
			payDate      sql.NullTime
			shID         sql.NullInt64
			shAddress    sql.NullString
			shCity       sql.NullString
			shState      sql.NullString
			shCountry    sql.NullString
			shZip        sql.NullString
			shipmentDate sql.NullTime
			shStatus     sql.NullString
		)
		if err := rows.Scan(
			&o.ID, &o.UserID, &o.OrderDate, &o.TotalPrice, &o.Status, &o.CreatedAt, &o.UpdatedAt,
			&itemID, &productID, &quantity, &itemPrice, &prodName,
			&payID, &payMethod, &payAmount, &provOrderID, &provPayID, &payStatus, &payDate,
			&shID, &shAddress, &shCity, &shState, &shCountry, &shZip, &shipmentDate, &shStatus,
		); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}

		order, seen := byID[o.ID]
		if !seen {
			order = &o
			byID[o.ID] = order
			ordered = append(ordered, order)
		}

		if itemID.Valid {
			item := domain.OrderItem{
				ID:          itemID.Int64,
				OrderID:     order.ID,
				ProductID:   productID.Int64,
				ProductName: prodName.String,
				Quantity:    int(quantity.Int64),
			}
			if err := item.Price.Scan(itemPrice.String); err != nil {
				return nil, fmt.Errorf("parse order item price: %w", err)
			}
			order.Items = append(order.Items, item)
		}

		if payID.Valid && order.Payment == nil {
			pay := &domain.Payment{
				ID:                payID.Int64,
				OrderID:           order.ID,
				Method:            domain.PaymentMethod(payMethod.String),
				ProviderOrderID:   provOrderID.String,
				ProviderPaymentID: provPayID.String,
				Status:            domain.PaymentStatus(payStatus.String),
				PaymentDate:       payDate.Time,
			}
			if err := pay.Amount.Scan(payAmount.String); err != nil {
				return nil, fmt.Errorf("parse payment amount: %w", err)
			}
			order.Payment = pay
		}

		if shID.Valid && order.Shipment == nil {
			order.Shipment = &domain.Shipment{
				ID:      shID.Int64,
				OrderID: order.ID,
				Address: domain.ShippingAddress{
					Address: shAddress.String,
					City:    shCity.String,
					State:   shState.String,
					Country: shCountry.String,
					ZipCode: shZip.String,
				},
				ShipmentDate: shipmentDate.Time,
				Status:       domain.ShipmentStatus(shStatus.String),
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("order row iteration: %w", err)
	}
	return ordered, nil
}

func (s *Store) OrdersByUserID(ctx context.Context, userID int64) ([]*domain.Order, error) {
	rows, err := s.db.QueryContext(ctx,
		orderDetailQuery+` WHERE o.user_id = $1 ORDER BY o.created_at DESC, oi.id ASC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("query orders by user: %w", err)
	}
	defer rows.Close()
	return scanOrderRows(rows)
}

func (s *Store) OrderByID(ctx context.Context, orderID, userID int64) (*domain.Order, error) {
	rows, err := s.db.QueryContext(ctx,
		orderDetailQuery+` WHERE o.id = $1 AND o.user_id = $2 ORDER BY oi.id ASC`,
		orderID, userID)
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}
	defer rows.Close()

	orders, err := scanOrderRows(rows)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, ErrOrderNotFound
	}
	return orders[0], nil
}

// SetOrderStatus is the admin-facing status update, outside any workflow.
func (s *Store) SetOrderStatus(ctx context.Context, orderID int64, status domain.OrderStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`,
		orderID, status)
	if err != nil {
		return fmt.Errorf("set order status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set order status rows affected: %w", err)
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}
