package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/VishalChauhan562/nemichand-handlooms-backend/internal/domain"
	"github.com/VishalChauhan562/nemichand-handlooms-backend/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CatalogService manages the product catalog: SKU assignment, the featured
// cap and the admin CRUD surface.
type CatalogService struct {
	store  repository.TxRunner
	repo   repository.ProductRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewCatalogService(store repository.TxRunner, repo repository.ProductRepository, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		store:  store,
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	CategoryID  int64
	ImageURL    string
	IsActive    bool
	IsFeatured  bool
}

// CreateProduct creates a single product; it is the bulk path with one item.
func (s *CatalogService) CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error) {
	products, err := s.CreateProductsBulk(ctx, []ProductInput{input})
	if err != nil {
		return nil, err
	}
	return products[0], nil
}

// CreateProductsBulk creates products with contiguous SKU sequence numbers.
// The per-category base count is read once inside the transaction and then
// incremented in memory per item, so concurrent creations cannot interleave
// sequences.
func (s *CatalogService) CreateProductsBulk(ctx context.Context, inputs []ProductInput) ([]*domain.Product, error) {
	if len(inputs) == 0 {
		return nil, &ValidationError{Violations: []string{"No products provided"}}
	}

	yearMonth := s.now().Format("0601") // YYMM

	var created []*domain.Product
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		categoryIDs := uniqueCategoryIDs(inputs)
		categories, err := tx.CategoriesByIDs(ctx, categoryIDs)
		if err != nil {
			return err
		}
		if len(categories) != len(categoryIDs) {
			return ErrInvalidCategory
		}

		sequences := make(map[int64]int, len(categoryIDs))
		for _, id := range categoryIDs {
			count, err := tx.CountCategoryProductsForMonth(ctx, id, yearMonth)
			if err != nil {
				return err
			}
			sequences[id] = count
		}

		featured, err := tx.CountFeaturedProducts(ctx)
		if err != nil {
			return err
		}

		created = make([]*domain.Product, 0, len(inputs))
		for _, input := range inputs {
			category := categories[input.CategoryID]

			if input.IsFeatured {
				featured++
				if featured > domain.FeaturedProductLimit {
					return ErrTooManyFeatured
				}
			}

			sequences[input.CategoryID]++
			product := &domain.Product{
				SKU:         buildSKU(category.Name, yearMonth, sequences[input.CategoryID]),
				Name:        input.Name,
				Description: input.Description,
				Price:       input.Price,
				Stock:       input.Stock,
				IsActive:    input.IsActive,
				IsFeatured:  input.IsFeatured,
				ImageURL:    input.ImageURL,
				CategoryID:  input.CategoryID,
			}
			id, err := tx.InsertProduct(ctx, product)
			if err != nil {
				return err
			}
			product.ID = id
			created = append(created, product)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("products_created", zap.Int("count", len(created)))
	return created, nil
}

// UpdateProduct applies admin edits. Setting the featured flag re-runs the
// cap check inside the same transaction as the write, so two concurrent
// feature-flag sets cannot both slip under the limit.
func (s *CatalogService) UpdateProduct(ctx context.Context, p *domain.Product) error {
	if !p.IsFeatured {
		return s.repo.UpdateProduct(ctx, p)
	}
	return s.store.WithinTx(ctx, func(tx repository.Tx) error {
		featured, err := tx.CountFeaturedProducts(ctx)
		if err != nil {
			return err
		}
		if featured >= domain.FeaturedProductLimit {
			return ErrTooManyFeatured
		}
		return tx.UpdateProduct(ctx, p)
	})
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	return s.repo.DeleteProduct(ctx, id)
}

func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return s.repo.ProductByID(ctx, id)
}

func (s *CatalogService) ListProducts(ctx context.Context, page, limit int) ([]*domain.Product, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return s.repo.ListProducts(ctx, limit, (page-1)*limit)
}

// buildSKU derives {CAT3}-{YYMM}-{SEQ3} from the category name and the
// month-scoped sequence number.
func buildSKU(categoryName, yearMonth string, seq int) string {
	// Slice runes, not bytes, so multi-byte category names stay valid UTF-8.
	code := []rune(categoryName)
	if len(code) > 3 {
		code = code[:3]
	}
	return fmt.Sprintf("%s-%s-%03d", strings.ToUpper(string(code)), yearMonth, seq)
}

func uniqueCategoryIDs(inputs []ProductInput) []int64 {
	seen := make(map[int64]struct{}, len(inputs))
	var ids []int64
	for _, input := range inputs {
		if _, ok := seen[input.CategoryID]; ok {
			continue
		}
		seen[input.CategoryID] = struct{}{}
		ids = append(ids, input.CategoryID)
	}
	return ids
}
