package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/ariefcatur/go-storefront/internal/cart"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CartService interface {
	GetOrCreate(ctx context.Context, userID string) (cart.View, error)
	AddItem(ctx context.Context, userID, productID string, quantity int) (cart.View, error)
	UpdateItem(ctx context.Context, userID, productID string, quantity int) (cart.View, error)
	RemoveItem(ctx context.Context, userID, productID string) (cart.View, error)
	Clear(ctx context.Context, userID string) (cart.View, error)
	Total(ctx context.Context, userID string) (decimal.Decimal, error)
}

type CartHandler struct {
	Cart    CartService
	Log     *zap.Logger
	Timeout time.Duration
}

type AddToCartReq struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type UpdateCartItemReq struct {
	Quantity int `json:"quantity"`
}

type CartTotalResp struct {
	Total decimal.Decimal `json:"total"`
}

func (h *CartHandler) Register(r chi.Router) {
	h.Log = nopIfNil(h.Log)
	r.Get("/cart", h.get)
	r.Post("/cart", h.add)
	r.Delete("/cart", h.clear)
	r.Get("/cart/total", h.total)
	r.Put("/cart/{productId}", h.update)
	r.Delete("/cart/{productId}", h.remove)
}

// run executes one cart operation under the request timeout and writes the
// resulting cart.
func (h *CartHandler) run(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, userID string) (cart.View, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), orDefault(h.Timeout))
	defer cancel()

	v, err := op(ctx, UserID(r.Context()))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *CartHandler) get(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.Cart.GetOrCreate)
}

func (h *CartHandler) add(w http.ResponseWriter, r *http.Request) {
	var req AddToCartReq
	if !decode(w, r, &req) {
		return
	}
	h.run(w, r, func(ctx context.Context, userID string) (cart.View, error) {
		return h.Cart.AddItem(ctx, userID, req.ProductID, req.Quantity)
	})
}

func (h *CartHandler) update(w http.ResponseWriter, r *http.Request) {
	var req UpdateCartItemReq
	if !decode(w, r, &req) {
		return
	}
	productID := chi.URLParam(r, "productId")
	h.run(w, r, func(ctx context.Context, userID string) (cart.View, error) {
		return h.Cart.UpdateItem(ctx, userID, productID, req.Quantity)
	})
}

func (h *CartHandler) remove(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	h.run(w, r, func(ctx context.Context, userID string) (cart.View, error) {
		return h.Cart.RemoveItem(ctx, userID, productID)
	})
}

func (h *CartHandler) clear(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.Cart.Clear)
}

func (h *CartHandler) total(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), orDefault(h.Timeout))
	defer cancel()

	total, err := h.Cart.Total(ctx, UserID(r.Context()))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, CartTotalResp{Total: total})
}
