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
	"github.com/VishalChauhan562/nemichand-handlooms-backend/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOrderService struct {
	orders []*domain.Order
	order  *domain.Order
	err    error

	gotOrderID int64
	gotStatus  domain.OrderStatus
}

func (s *stubOrderService) ListOrders(_ context.Context, _ int64) ([]*domain.Order, error) {
	return s.orders, s.err
}

func (s *stubOrderService) GetOrder(_ context.Context, _, orderID int64) (*domain.Order, error) {
	s.gotOrderID = orderID
	return s.order, s.err
}

func (s *stubOrderService) UpdateStatus(_ context.Context, orderID int64, status domain.OrderStatus) error {
	s.gotOrderID = orderID
	s.gotStatus = status
	return s.err
}

func orderRouter(svc OrderService) http.Handler {
	h := NewOrderHandler(svc)
	r := chi.NewRouter()
	r.Get("/orders", h.ListOrders)
	r.Get("/orders/{orderID}", h.GetOrder)
	r.Patch("/admin/orders/{orderID}/status", h.UpdateStatus)
	return r
}

func TestOrderHandler_ListOrders(t *testing.T) {
	svc := &stubOrderService{orders: []*domain.Order{{ID: 42, UserID: 7}}}
	router := orderRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, asUser(httptest.NewRequest(http.MethodGet, "/orders", nil)))
	require.Equal(t, http.StatusOK, rec.Code)

	var orders []*domain.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
	require.Len(t, orders, 1)
	assert.Equal(t, int64(42), orders[0].ID)
}

func TestOrderHandler_GetOrder(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		svc := &stubOrderService{order: &domain.Order{ID: 42, UserID: 7}}
		router := orderRouter(svc)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, asUser(httptest.NewRequest(http.MethodGet, "/orders/42", nil)))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, int64(42), svc.gotOrderID)
	})

	t.Run("not found", func(t *testing.T) {
		router := orderRouter(&stubOrderService{err: repository.ErrOrderNotFound})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, asUser(httptest.NewRequest(http.MethodGet, "/orders/999", nil)))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		router := orderRouter(&stubOrderService{})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/42", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestOrderHandler_UpdateStatus(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		svc := &stubOrderService{}
		router := orderRouter(svc)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/admin/orders/42/status",
			strings.NewReader(`{"status": "SHIPPED"}`)))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, int64(42), svc.gotOrderID)
		assert.Equal(t, domain.OrderStatusShipped, svc.gotStatus)
	})

	t.Run("invalid status", func(t *testing.T) {
		router := orderRouter(&stubOrderService{
			err: &service.ValidationError{Violations: []string{"Invalid order status"}},
		})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/admin/orders/42/status",
			strings.NewReader(`{"status": "TELEPORTED"}`)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
