package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig carries the handlers and cross-cutting pieces the router wires
// together.
type RouterConfig struct {
	JWTSecret string
	Registry  *prometheus.Registry

	Products *ProductHandler
	Cart     *CartHandler
	Checkout *CheckoutHandler
	Orders   *OrderHandler
	Webhook  *WebhookHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		// Public catalog.
		r.Get("/products", cfg.Products.ListProducts)
		r.Get("/products/{productID}", cfg.Products.GetProduct)

		// Provider webhook, authenticated by its payload signature.
		r.Post("/payments/confirm", cfg.Webhook.ConfirmPayment)

		// Authenticated customer surface.
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(cfg.JWTSecret))

			r.Get("/cart", cfg.Cart.GetCart)
			r.Post("/cart/items", cfg.Cart.AddItem)
			r.Put("/cart/items/{itemID}", cfg.Cart.UpdateQuantity)
			r.Delete("/cart/items/{itemID}", cfg.Cart.RemoveItem)

			r.Post("/checkout", cfg.Checkout.Checkout)

			r.Get("/orders", cfg.Orders.ListOrders)
			r.Get("/orders/{orderID}", cfg.Orders.GetOrder)
		})

		// Admin surface.
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(cfg.JWTSecret))
			r.Use(RequireAdmin)

			r.Post("/admin/products", cfg.Products.CreateProduct)
			r.Post("/admin/products/bulk", cfg.Products.CreateProductsBulk)
			r.Put("/admin/products/{productID}", cfg.Products.UpdateProduct)
			r.Delete("/admin/products/{productID}", cfg.Products.DeleteProduct)
			r.Patch("/admin/orders/{orderID}/status", cfg.Orders.UpdateStatus)
		})
	})

	return r
}
