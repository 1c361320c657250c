package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/ariefcatur/go-storefront/internal/admin"
	"github.com/ariefcatur/go-storefront/internal/catalog"
	"github.com/ariefcatur/go-storefront/internal/orders"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Dashboarder interface {
	Dashboard(ctx context.Context) (admin.Dashboard, error)
}

// AdminHandler is mounted under /admin behind requireAdmin.
type AdminHandler struct {
	Catalog   CatalogService
	Orders    OrderService
	Dashboard Dashboarder
	Events    *OrderEvents
	Log       *zap.Logger
	Timeout   time.Duration
}

type AdjustStockReq struct {
	Quantity int `json:"quantity"`
}

func (h *AdminHandler) Register(r chi.Router) {
	h.Log = nopIfNil(h.Log)
	if h.Events == nil {
		h.Events = &OrderEvents{}
	}
	r.Get("/dashboard", h.dashboard)

	r.Get("/products", h.listProducts)
	r.Post("/products", h.createProduct)
	r.Put("/products/{id}", h.updateProduct)
	r.Delete("/products/{id}", h.deleteProduct)
	r.Patch("/products/{id}/stock", h.adjustStock)

	r.Get("/orders", h.listOrders)
	r.Post("/orders", h.createOrder)
	r.Get("/orders/{id}", h.getOrder)
	r.Put("/orders/{id}/status", h.updateOrderStatus)
}

func (h *AdminHandler) dashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), orDefault(h.Timeout))
	defer cancel()

	d, err := h.Dashboard.Dashboard(ctx)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *AdminHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), orDefault(h.Timeout))
	defer cancel()

	ps, err := h.Catalog.List(ctx, f)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *AdminHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var in catalog.ProductInput
	if !decode(w, r, &in) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), orDefault(h.Timeout))
	defer cancel()

	p, err := h.Catalog.Create(ctx, in)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	h.Log.Info("product created", zap.String("product_id", p.ID), zap.String("by", UserID(r.Context())))
	writeJSON(w, http.StatusCreated, p)
}

func (h *AdminHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var in catalog.ProductInput
	if !decode(w, r, &in) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), orDefault(h.Timeout))
	defer cancel()

	p, err := h.Catalog.Update(ctx, chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *AdminHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), orDefault(h.Timeout))
	defer cancel()

	id := chi.URLParam(r, "id")
	if err := h.Catalog.Delete(ctx, id); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	h.Log.Info("product deleted", zap.String("product_id", id), zap.String("by", UserID(r.Context())))
	w.WriteHeader(http.StatusNoContent)
}

// adjustStock applies a signed delta to the product's stock.
func (h *AdminHandler) adjustStock(w http.ResponseWriter, r *http.Request) {
	var req AdjustStockReq
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), orDefault(h.Timeout))
	defer cancel()

	p, err := h.Catalog.AdjustStock(ctx, chi.URLParam(r, "id"), req.Quantity)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *AdminHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), orDefault(h.Timeout))
	defer cancel()

	list, err := h.Orders.ListAll(ctx)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// createOrder places an order that belongs to no user.
func (h *AdminHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var in orders.CreateInput
	if !decode(w, r, &in) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), orDefault(h.Timeout))
	defer cancel()

	o, err := h.Orders.CreateAdmin(ctx, in)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	h.Events.created(r, o)
	writeJSON(w, http.StatusCreated, o)
}

func (h *AdminHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), orDefault(h.Timeout))
	defer cancel()

	o, err := h.Orders.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *AdminHandler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusReq
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), orDefault(h.Timeout))
	defer cancel()

	o, err := h.Orders.AdminUpdateStatus(ctx, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	h.Events.statusChanged(r, o, UserID(r.Context()))
	writeJSON(w, http.StatusOK, o)
}
