package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/auth"
)

type Handlers struct {
	Checkout  *CheckoutHandler
	Orders    *OrderHandler
	Payments  *PaymentHandler
	Cart      *CartHandler
	Inventory *InventoryHandler
}

func NewRouter(h Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Get("/health", healthHandler)

	// Gateway-invoked, unauthenticated; trust comes from the signature check.
	r.Get("/api/payment/callback", h.Payments.Callback)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware)

		r.Post("/api/checkout", h.Checkout.Checkout)

		r.Route("/api/cart", func(r chi.Router) {
			r.Get("/", h.Cart.GetCart)
			r.Post("/items", h.Cart.AddItem)
			r.Delete("/items/{productId}", h.Cart.RemoveItem)
		})

		r.Route("/api/orders", func(r chi.Router) {
			r.Get("/", h.Orders.ListOrders)
			r.Get("/{orderId}", h.Orders.GetOrder)
			r.Put("/{orderId}/status", h.Orders.UpdateStatus)
		})

		r.Post("/api/payment/create", h.Payments.CreatePayment)

		r.Get("/api/inventory/{productId}", h.Inventory.GetAvailability)

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
			r.Post("/api/inventory/adjust", h.Inventory.AdjustAvailability)
			r.Post("/api/payments/{orderId}/refund", h.Payments.Refund)
		})
	})

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "storefront",
	})
}

func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := auth.FromContext(r.Context())
		if !ok || !actor.IsAdmin() {
			writeError(w, http.StatusForbidden, "admin only")
			return
		}
		next.ServeHTTP(w, r)
	})
}
