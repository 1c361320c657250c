package httpx

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type Handlers struct {
	Products *ProductsHandler
	Cart     *CartHandler
	Orders   *OrdersHandler
	Admin    *AdminHandler
}

func NewRouter(log *zap.Logger, h Handlers) *chi.Mux {
	log = nopIfNil(log)
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger(log), middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))
	r.Use(identity)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if h.Products != nil {
		h.Products.Register(r)
	}
	r.Group(func(r chi.Router) {
		r.Use(requireUser)
		if h.Cart != nil {
			h.Cart.Register(r)
		}
		if h.Orders != nil {
			h.Orders.Register(r)
		}
	})
	if h.Admin != nil {
		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAdmin)
			h.Admin.Register(r)
		})
	}
	return r
}
