package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/VishalChauhan562/nemichand-handlooms-backend/internal/domain"
	"github.com/VishalChauhan562/nemichand-handlooms-backend/internal/repository"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCartService struct {
	cart *domain.Cart
	err  error

	gotProductID int64
	gotItemID    int64
	gotQuantity  int
}

func (s *stubCartService) GetCart(_ context.Context, _ int64) (*domain.Cart, error) {
	return s.cart, s.err
}

func (s *stubCartService) AddItem(_ context.Context, _, productID int64, quantity int) (*domain.Cart, error) {
	s.gotProductID = productID
	s.gotQuantity = quantity
	return s.cart, s.err
}

func (s *stubCartService) UpdateQuantity(_ context.Context, _, itemID int64, quantity int) (*domain.Cart, error) {
	s.gotItemID = itemID
	s.gotQuantity = quantity
	return s.cart, s.err
}

func (s *stubCartService) RemoveItem(_ context.Context, _, itemID int64) (*domain.Cart, error) {
	s.gotItemID = itemID
	return s.cart, s.err
}

func cartRouter(svc CartService) http.Handler {
	h := NewCartHandler(svc)
	r := chi.NewRouter()
	r.Get("/cart", h.GetCart)
	r.Post("/cart/items", h.AddItem)
	r.Put("/cart/items/{itemID}", h.UpdateQuantity)
	r.Delete("/cart/items/{itemID}", h.RemoveItem)
	return r
}

func asUser(req *http.Request) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), userIDKey, int64(7)))
}

func TestCartHandler_GetCart(t *testing.T) {
	svc := &stubCartService{cart: &domain.Cart{ID: 3, UserID: 7}}
	router := cartRouter(svc)

	t.Run("unauthenticated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("ok", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, asUser(httptest.NewRequest(http.MethodGet, "/cart", nil)))
		require.Equal(t, http.StatusOK, rec.Code)

		var cart domain.Cart
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cart))
		assert.Equal(t, int64(3), cart.ID)
	})
}

func TestCartHandler_AddItem(t *testing.T) {
	svc := &stubCartService{cart: &domain.Cart{ID: 3, UserID: 7}}
	router := cartRouter(svc)

	t.Run("created", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, asUser(httptest.NewRequest(http.MethodPost, "/cart/items",
			strings.NewReader(`{"product_id": 10, "quantity": 2}`))))
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, int64(10), svc.gotProductID)
		assert.Equal(t, 2, svc.gotQuantity)
	})

	t.Run("quantity out of range", func(t *testing.T) {
		for _, body := range []string{
			`{"product_id": 10, "quantity": 0}`,
			`{"product_id": 10, "quantity": 100}`,
		} {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, asUser(httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(body))))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		}
	})

	t.Run("missing product id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, asUser(httptest.NewRequest(http.MethodPost, "/cart/items",
			strings.NewReader(`{"quantity": 2}`))))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCartHandler_UpdateQuantity(t *testing.T) {
	svc := &stubCartService{cart: &domain.Cart{ID: 3, UserID: 7}}
	router := cartRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, asUser(httptest.NewRequest(http.MethodPut, "/cart/items/5",
		strings.NewReader(`{"quantity": 3}`))))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(5), svc.gotItemID)
	assert.Equal(t, 3, svc.gotQuantity)
}

func TestCartHandler_UpdateQuantity_UnknownItem(t *testing.T) {
	router := cartRouter(&stubCartService{err: repository.ErrCartItemNotFound})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, asUser(httptest.NewRequest(http.MethodPut, "/cart/items/404",
		strings.NewReader(`{"quantity": 3}`))))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCartHandler_RemoveItem(t *testing.T) {
	svc := &stubCartService{cart: &domain.Cart{ID: 3, UserID: 7}}
	router := cartRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, asUser(httptest.NewRequest(http.MethodDelete, "/cart/items/5", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(5), svc.gotItemID)
}
