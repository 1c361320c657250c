package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/ariefcatur/go-storefront/internal/orders"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// HeaderIdempotencyKey lets a client retry order creation safely.
const HeaderIdempotencyKey = "Idempotency-Key"

type OrderService interface {
	Create(ctx context.Context, userID string, in orders.CreateInput) (orders.Order, error)
	CreateAdmin(ctx context.Context, in orders.CreateInput) (orders.Order, error)
	Get(ctx context.Context, id string) (orders.Order, error)
	GetForUser(ctx context.Context, id, userID string) (orders.Order, error)
	History(ctx context.Context, userID, status string) ([]orders.HistoryEntry, error)
	UpdateStatus(ctx context.Context, id, userID, status string) (orders.Order, error)
	AdminUpdateStatus(ctx context.Context, id, status string) (orders.Order, error)
	Stats(ctx context.Context, userID string) (orders.Stats, error)
	ListAll(ctx context.Context) ([]orders.Order, error)
}

type OrdersHandler struct {
	Orders  OrderService
	Events  *OrderEvents
	Log     *zap.Logger
	Timeout time.Duration
}

type UpdateStatusReq struct {
	Status string `json:"status"`
}

type OrderStatusResp struct {
	OrderID   string    `json:"orderId"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updatedAt"`
	Cached    bool      `json:"cached"`
}

func (h *OrdersHandler) Register(r chi.Router) {
	h.Log = nopIfNil(h.Log)
	if h.Events == nil {
		h.Events = &OrderEvents{}
	}
	r.Post("/orders", h.create)
	r.Get("/orders/history", h.history)
	r.Get("/orders/stats", h.stats)
	r.Get("/orders/{id}", h.get)
	r.Get("/orders/{id}/status", h.status)
	r.Post("/orders/{id}/status", h.updateStatus)
}

func (h *OrdersHandler) create(w http.ResponseWriter, r *http.Request) {
	var in orders.CreateInput
	if !decode(w, r, &in) {
		return
	}
	userID := UserID(r.Context())
	idemKey := r.Header.Get(HeaderIdempotencyKey)

	ctx, cancel := context.WithTimeout(r.Context(), orDefault(h.Timeout))
	defer cancel()

	// Replay: the key was already used for an order of this user.
	if idemKey != "" && h.Events.Cache != nil {
		orderID, ok, err := h.Events.Cache.LookupOrder(ctx, userID, idemKey)
		if err != nil {
			h.Log.Warn("idempotency lookup failed", zap.Error(err))
		}
		if ok {
			o, err := h.Orders.GetForUser(ctx, orderID, userID)
			if err == nil {
				w.Header().Set("Idempotent-Replay", "true")
				writeJSON(w, http.StatusOK, o)
				return
			}
			h.Log.Warn("idempotent order not loadable", zap.String("order_id", orderID), zap.Error(err))
		}
	}

	o, err := h.Orders.Create(ctx, userID, in)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if idemKey != "" && h.Events.Cache != nil {
		if err := h.Events.Cache.RememberOrder(ctx, userID, idemKey, o.ID); err != nil {
			h.Log.Warn("idempotency save failed", zap.String("order_id", o.ID), zap.Error(err))
		}
	}
	h.Events.created(r, o)
	writeJSON(w, http.StatusCreated, o)
}

func (h *OrdersHandler) history(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), orDefault(h.Timeout))
	defer cancel()

	list, err := h.Orders.History(ctx, UserID(r.Context()), r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *OrdersHandler) stats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), orDefault(h.Timeout))
	defer cancel()

	st, err := h.Orders.Stats(ctx, UserID(r.Context()))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), orDefault(h.Timeout))
	defer cancel()

	o, err := h.Orders.GetForUser(ctx, chi.URLParam(r, "id"), UserID(r.Context()))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// status answers from the cache when it holds an entry for this user's
// order, and falls back to the store otherwise.
func (h *OrdersHandler) status(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	userID := UserID(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), orDefault(h.Timeout))
	defer cancel()

	if h.Events.Cache != nil {
		e, ok, err := h.Events.Cache.GetStatus(ctx, orderID)
		if err != nil {
			h.Log.Warn("status cache read failed", zap.String("order_id", orderID), zap.Error(err))
		}
		if ok && e.UserID == userID {
			writeJSON(w, http.StatusOK, OrderStatusResp{OrderID: orderID, Status: e.Status, UpdatedAt: e.UpdatedAt, Cached: true})
			return
		}
	}

	o, err := h.Orders.GetForUser(ctx, orderID, userID)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	h.Events.cacheStatus(ctx, o)
	writeJSON(w, http.StatusOK, OrderStatusResp{OrderID: o.ID, Status: string(o.Status), UpdatedAt: o.UpdatedAt})
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusReq
	if !decode(w, r, &req) {
		return
	}
	userID := UserID(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), orDefault(h.Timeout))
	defer cancel()

	o, err := h.Orders.UpdateStatus(ctx, chi.URLParam(r, "id"), userID, req.Status)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	h.Events.statusChanged(r, o, userID)
	writeJSON(w, http.StatusOK, o)
}
