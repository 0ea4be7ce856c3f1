package httpapi

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handlers перечисляет handler-ы, подключаемые к API-роутеру.
type Handlers struct {
	Orders   *OrdersHandler
	Products *ProductsHandler
}

// NewRouter собирает chi-роутер административного API под /api/v1.
func NewRouter(h Handlers) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))

	r.Route("/api/v1", func(api chi.Router) {
		if h.Orders != nil {
			h.Orders.Register(api)
		}
		if h.Products != nil {
			h.Products.Register(api)
		}
	})

	return r
}
