package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type RouterConfig struct {
	AdminToken     string
	PhotographerID uuid.UUID
	RequestTimeout time.Duration
}

type Handlers struct {
	Webhook  *WebhookHandler
	Download *DownloadHandler
	Orders   *OrderHandler
	Payments *PaymentHandler
	Albums   *AlbumHandler
}

// NewRouter assembles the full route table. RequestTimeout must leave room
// for the webhook's settle delay plus the processor fetch retries.
func NewRouter(cfg RouterConfig, h Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/mercadopago-webhook", h.Webhook.Handle)

	r.Get("/albums/{albumID}/photos", h.Albums.GetAlbumPhotos)
	r.Get("/order-details/{orderID}/{customerEmail}", h.Orders.GetOrderDetails)
	r.Get("/download-photo/{photoID}/{orderID}/{customerEmail}", h.Download.DownloadPhoto)

	r.Post("/create-payment-preference", h.Payments.CreatePreference)
	r.Post("/simulate-payment", h.Payments.SimulatePayment)

	r.Route("/admin", func(r chi.Router) {
		r.Use(AdminAuthMiddleware(cfg.AdminToken, cfg.PhotographerID))

		r.Get("/albums", h.Albums.ListAlbums)
		r.Post("/albums", h.Albums.CreateAlbum)
		r.Delete("/albums/{albumID}", h.Albums.DeleteAlbum)
		r.Post("/albums/{albumID}/photos", h.Albums.RegisterPhoto)
		r.Delete("/photos/{photoID}", h.Albums.DeletePhoto)

		r.Get("/orders", h.Orders.ListOrders)
		r.Delete("/orders/{orderID}", h.Orders.DeleteOrder)
	})

	return r
}
