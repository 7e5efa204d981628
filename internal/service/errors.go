package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyCart         = errors.New("cart is empty, nothing to checkout")
	ErrInvalidSignature  = errors.New("invalid payment signature")
	ErrInvalidCategory   = errors.New("invalid category")
	ErrTooManyFeatured   = fmt.Errorf("the number of featured products cannot exceed the limit")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// ValidationError accumulates every violated field instead of stopping at
// the first one.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}

// StockError names the product whose stock could not cover the requested
// quantity. It unwraps to ErrInsufficientStock.
type StockError struct {
	ProductID   int64
	ProductName string
}

func (e *StockError) Error() string {
	name := e.ProductName
	if name == "" {
		name = fmt.Sprintf("%d", e.ProductID)
	}
	return fmt.Sprintf("insufficient stock for product: %s", name)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }

// ProviderError wraps a failed payment-provider call; checkout rolls back
// everything, including the stock decrement, when it occurs.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("payment provider call failed: %v", e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
