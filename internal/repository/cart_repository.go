package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/VishalChauhan562/nemichand-handlooms-backend/internal/domain"
)

// CartRepository is the cart surface the cart service depends on.
type CartRepository interface {
	CartWithItems(ctx context.Context, userID int64) (*domain.Cart, error)
	AddCartItem(ctx context.Context, userID, productID int64, quantity int) error
	UpdateCartItemQuantity(ctx context.Context, userID, itemID int64, quantity int) (int64, error)
	RemoveCartItem(ctx context.Context, userID, itemID int64) error
}

const cartItemsQuery = `
	SELECT c.id, c.user_id, c.created_at, c.updated_at,
	       ci.id, ci.product_id, ci.quantity,
	       p.id, p.sku, p.name, p.price, p.stock, p.image_url, p.is_active
	FROM carts c
	LEFT JOIN cart_items ci ON ci.cart_id = c.id
	LEFT JOIN products p ON p.id = ci.product_id
	WHERE c.user_id = $1
	ORDER BY ci.product_id ASC`

func cartWithItems(ctx context.Context, q dbtx, userID int64) (*domain.Cart, error) {
	rows, err := q.QueryContext(ctx, cartItemsQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("query cart: %w", err)
	}
	defer rows.Close()

	var cart *domain.Cart
	for rows.Next() {
		var (
			c         domain.Cart
			itemID    sql.NullInt64
			productID sql.NullInt64
			quantity  sql.NullInt64
			p         domain.Product
			pID       sql.NullInt64
			sku       sql.NullString
			name      sql.NullString
			price     sql.NullString
			stock     sql.NullInt64
			imageURL  sql.NullString
			isActive  sql.NullBool
		)
		if err := rows.Scan(
			&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt,
			&itemID, &productID, &quantity,
			&pID, &sku, &name, &price, &stock, &imageURL, &isActive,
		); err != nil {
			return nil, fmt.Errorf("scan cart row: %w", err)
		}
		if cart == nil {
			cart = &c
		}
		if !itemID.Valid {
			continue // cart exists but has no items
		}
		item := domain.CartItem{
			ID:        itemID.Int64,
			CartID:    cart.ID,
			ProductID: productID.Int64,
			Quantity:  int(quantity.Int64),
		}
		if pID.Valid {
			p.ID = pID.Int64
			p.SKU = sku.String
			p.Name = name.String
			p.Stock = int(stock.Int64)
			p.ImageURL = imageURL.String
			p.IsActive = isActive.Bool
			if err := p.Price.Scan(price.String); err != nil {
				return nil, fmt.Errorf("parse product price: %w", err)
			}
			item.Product = &p
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cart row iteration: %w", err)
	}
	if cart == nil {
		return nil, ErrCartNotFound
	}
	return cart, nil
}

func (s *Store) CartWithItems(ctx context.Context, userID int64) (*domain.Cart, error) {
	return cartWithItems(ctx, s.db, userID)
}

func (t *pgTx) CartWithItems(ctx context.Context, userID int64) (*domain.Cart, error) {
	return cartWithItems(ctx, t.tx, userID)
}

// AddCartItem creates the user's cart lazily on first add, then upserts the
// item, accumulating quantity when the product is already in the cart.
func (s *Store) AddCartItem(ctx context.Context, userID, productID int64, quantity int) error {
	var cartID int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO carts (user_id, created_at, updated_at)
		 VALUES ($1, NOW(), NOW())
		 ON CONFLICT (user_id) DO UPDATE SET updated_at = NOW()
		 RETURNING id`, userID).Scan(&cartID)
	if err != nil {
		return fmt.Errorf("ensure cart: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO cart_items (cart_id, product_id, quantity, created_at, updated_at)
		 VALUES ($1, $2, $3, NOW(), NOW())
		 ON CONFLICT (cart_id, product_id)
		 DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = NOW()`,
		cartID, productID, quantity)
	if err != nil {
		return fmt.Errorf("upsert cart item: %w", err)
	}
	return nil
}

// UpdateCartItemQuantity sets the quantity of an item owned by the user's
// cart and returns the item's product id for stock validation by the caller.
func (s *Store) UpdateCartItemQuantity(ctx context.Context, userID, itemID int64, quantity int) (int64, error) {
	var productID int64
	err := s.db.QueryRowContext(ctx,
		`UPDATE cart_items ci SET quantity = $3, updated_at = NOW()
		 FROM carts c
		 WHERE ci.id = $2 AND ci.cart_id = c.id AND c.user_id = $1
		 RETURNING ci.product_id`,
		userID, itemID, quantity).Scan(&productID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrCartItemNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("update cart item: %w", err)
	}
	return productID, nil
}

func (s *Store) RemoveCartItem(ctx context.Context, userID, itemID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM cart_items ci
		 USING carts c
		 WHERE ci.id = $2 AND ci.cart_id = c.id AND c.user_id = $1`,
		userID, itemID)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete cart item rows affected: %w", err)
	}
	if affected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

// CartOwner resolves the user a cart belongs to.
func (t *pgTx) CartOwner(ctx context.Context, cartID int64) (int64, error) {
	var userID int64
	err := t.tx.QueryRowContext(ctx,
		`SELECT user_id FROM carts WHERE id = $1`, cartID).Scan(&userID)
	if err == sql.ErrNoRows {
		return 0, ErrCartNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("query cart owner: %w", err)
	}
	return userID, nil
}

// ClearCartItems empties the cart without deleting the cart row itself.
func (t *pgTx) ClearCartItems(ctx context.Context, cartID int64) error {
	if _, err := t.tx.ExecContext(ctx,
		`DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("clear cart items: %w", err)
	}
	return nil
}
