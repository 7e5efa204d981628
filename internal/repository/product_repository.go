package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/VishalChauhan562/nemichand-handlooms-backend/internal/domain"
	"github.com/lib/pq"
)

// ProductRepository is the catalog surface the catalog and cart services use
// outside of the checkout transaction.
type ProductRepository interface {
	ProductByID(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context, limit, offset int) ([]*domain.Product, int, error)
	UpdateProduct(ctx context.Context, p *domain.Product) error
	DeleteProduct(ctx context.Context, id int64) error
}

const productColumns = `id, sku, name, description, price, stock, is_active, is_featured, image_url, category_id, created_at, updated_at`

func scanProduct(row interface{ Scan(dest ...any) error }) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(
		&p.ID, &p.SKU, &p.Name, &p.Description, &p.Price, &p.Stock,
		&p.IsActive, &p.IsFeatured, &p.ImageURL, &p.CategoryID,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) ProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product by id: %w", err)
	}
	return p, nil
}

func (s *Store) ListProducts(ctx context.Context, limit, offset int) ([]*domain.Product, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("product row iteration: %w", err)
	}
	return products, total, nil
}

func (s *Store) UpdateProduct(ctx context.Context, p *domain.Product) error {
	return updateProduct(ctx, s.db, p)
}

func (t *pgTx) UpdateProduct(ctx context.Context, p *domain.Product) error {
	return updateProduct(ctx, t.tx, p)
}

func updateProduct(ctx context.Context, q dbtx, p *domain.Product) error {
	res, err := q.ExecContext(ctx,
		`UPDATE products
		 SET name = $2, description = $3, price = $4, stock = $5,
		     category_id = $6, image_url = $7, is_active = $8, is_featured = $9,
		     updated_at = NOW()
		 WHERE id = $1`,
		p.ID, p.Name, p.Description, p.Price, p.Stock,
		p.CategoryID, p.ImageURL, p.IsActive, p.IsFeatured)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update product rows affected: %w", err)
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete product rows affected: %w", err)
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (s *Store) CategoryByID(ctx context.Context, id int64) (*domain.Category, error) {
	var c domain.Category
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, created_at, updated_at FROM categories WHERE id = $1`,
		id).Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query category: %w", err)
	}
	return &c, nil
}

// LockProducts takes exclusive row locks on the given products. Rows come
// back in ascending id order, which is also the repo-wide lock order, so
// concurrent checkouts touching the same products serialize without
// deadlocking.
func (t *pgTx) LockProducts(ctx context.Context, ids []int64) ([]*domain.Product, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ANY($1) ORDER BY id ASC FOR UPDATE`,
		pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("lock products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan locked product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("locked product iteration: %w", err)
	}
	return products, nil
}

func (t *pgTx) DecrementStock(ctx context.Context, productID int64, quantity int) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE products SET stock = stock - $2, updated_at = NOW()
		 WHERE id = $1 AND stock >= $2`,
		productID, quantity)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("decrement stock rows affected: %w", err)
	}
	if affected == 0 {
		// The stock >= quantity guard failed (or the row is gone). The
		// service pre-checks under the row lock, so this is a last line
		// of defense against overselling.
		return ErrStockExhausted
	}
	return nil
}

func (t *pgTx) CategoriesByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Category, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT id, name, description, created_at, updated_at FROM categories WHERE id = ANY($1)`,
		pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	categories := make(map[int64]*domain.Category)
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		categories[c.ID] = &c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("category row iteration: %w", err)
	}
	return categories, nil
}

// CountCategoryProductsForMonth counts products whose SKU carries the given
// YYMM fragment. The count is taken once per category inside the transaction
// so bulk creations assign contiguous sequence numbers.
func (t *pgTx) CountCategoryProductsForMonth(ctx context.Context, categoryID int64, yearMonth string) (int, error) {
	var count int
	err := t.tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products WHERE category_id = $1 AND sku LIKE $2`,
		categoryID, "%"+yearMonth+"%").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count category products: %w", err)
	}
	return count, nil
}

func (t *pgTx) CountFeaturedProducts(ctx context.Context) (int, error) {
	var count int
	err := t.tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products WHERE is_featured = TRUE`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count featured products: %w", err)
	}
	return count, nil
}

func (t *pgTx) InsertProduct(ctx context.Context, p *domain.Product) (int64, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx,
		`INSERT INTO products (sku, name, description, price, stock, is_active, is_featured, image_url, category_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		 RETURNING id`,
		p.SKU, p.Name, p.Description, p.Price, p.Stock,
		p.IsActive, p.IsFeatured, p.ImageURL, p.CategoryID).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return 0, ErrDuplicateSKU
		}
		return 0, fmt.Errorf("insert product: %w", err)
	}
	return id, nil
}
