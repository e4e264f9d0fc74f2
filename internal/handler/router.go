package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mmeshcher/giftcard-system/internal/metrics"
	custommiddleware "github.com/mmeshcher/giftcard-system/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса подарочных карт.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))
	r.Use(metrics.Middleware)

	r.Route("/api/giftcards", func(r chi.Router) {
		r.Get("/{number}/balance", h.GetBalance)

		r.Group(func(r chi.Router) {
			r.Use(h.operator.Middleware)

			r.Post("/", h.ProvisionCard)
			r.Post("/purchase", h.PurchaseCard)
			r.Post("/{number}/activate", h.ActivateCard)
			r.Post("/{number}/redeem", h.RedeemCard)
			r.Post("/{number}/adjust", h.AdjustCard)
			r.Post("/{number}/deactivate", h.DeactivateCard)
			r.Get("/{number}/transactions", h.GetTransactions)
		})
	})

	r.Route("/api/checkout", func(r chi.Router) {
		r.Post("/", h.BeginCheckout)
		r.Get("/{sessionID}", h.CheckoutStatus)
		r.Post("/{sessionID}/tenders", h.AddTender)
		r.Delete("/{sessionID}/tenders/{index}", h.RemoveTender)
		r.Post("/{sessionID}/finalize", h.FinalizeCheckout)
		r.Delete("/{sessionID}", h.AbandonCheckout)
	})

	r.Get("/api/orders/{orderRef}/payment", h.GetOrderPayment)

	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
