package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/VishalChauhan562/nemichand-handlooms-backend/internal/cache"
	"github.com/VishalChauhan562/nemichand-handlooms-backend/internal/domain"
	"github.com/VishalChauhan562/nemichand-handlooms-backend/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type CartService struct {
	repo     repository.CartRepository
	products repository.ProductRepository
	cache    cache.CartCache
	logger   *zap.Logger
	sfg      singleflight.Group // prevents cache stampede
}

func NewCartService(
	repo repository.CartRepository,
	products repository.ProductRepository,
	cartCache cache.CartCache,
	logger *zap.Logger,
) *CartService {
	return &CartService{
		repo:     repo,
		products: products,
		cache:    cartCache,
		logger:   logger,
	}
}

// GetCart reads through the cache. A missing cart comes back as an empty
// one; carts are only ever created by the first add.
func (s *CartService) GetCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(fmt.Sprintf("%d", userID), func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("cart_cache_get_failed", zap.Error(err))
		}

		cart, errGet := s.repo.CartWithItems(ctx, userID)
		if errors.Is(errGet, repository.ErrCartNotFound) {
			return &domain.Cart{
				UserID:    userID,
				Items:     nil,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			}, nil
		}
		if errGet != nil {
			return nil, errGet
		}

		go func() {
			if errSet := s.cache.Set(context.Background(), userID, cart); errSet != nil {
				s.logger.Warn("cart_cache_set_failed", zap.Error(errSet))
			}
		}()

		return cart, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Cart), nil
}

// AddItem validates the product exists with enough stock, then upserts the
// cart item. Stock itself is never mutated by cart operations.
func (s *CartService) AddItem(ctx context.Context, userID, productID int64, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, &ValidationError{Violations: []string{"Quantity must be a positive number"}}
	}

	product, err := s.products.ProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Stock < quantity {
		return nil, &StockError{ProductID: product.ID, ProductName: product.Name}
	}

	if err := s.repo.AddCartItem(ctx, userID, productID, quantity); err != nil {
		return nil, err
	}

	s.invalidateCache(userID)
	return s.repo.CartWithItems(ctx, userID)
}

func (s *CartService) UpdateQuantity(ctx context.Context, userID, itemID int64, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, &ValidationError{Violations: []string{"Invalid quantity"}}
	}

	cart, err := s.repo.CartWithItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	var item *domain.CartItem
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			item = &cart.Items[i]
			break
		}
	}
	if item == nil {
		return nil, repository.ErrCartItemNotFound
	}
	if item.Product != nil && item.Product.Stock < quantity {
		return nil, &StockError{ProductID: item.ProductID, ProductName: item.Product.Name}
	}

	if _, err := s.repo.UpdateCartItemQuantity(ctx, userID, itemID, quantity); err != nil {
		return nil, err
	}

	s.invalidateCache(userID)
	return s.repo.CartWithItems(ctx, userID)
}

func (s *CartService) RemoveItem(ctx context.Context, userID, itemID int64) (*domain.Cart, error) {
	if err := s.repo.RemoveCartItem(ctx, userID, itemID); err != nil {
		return nil, err
	}

	s.invalidateCache(userID)
	return s.repo.CartWithItems(ctx, userID)
}

func (s *CartService) invalidateCache(userID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.logger.Warn("cart_cache_invalidate_failed", zap.Error(err))
	}
}
