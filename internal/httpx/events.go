package httpx

import (
	"context"
	"net/http"
	"time"

	kafkax "github.com/ariefcatur/go-storefront/internal/kafka"
	"github.com/ariefcatur/go-storefront/internal/orders"
	"github.com/ariefcatur/go-storefront/internal/redisx"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type OrderCache interface {
	LookupOrder(ctx context.Context, userID, key string) (string, bool, error)
	RememberOrder(ctx context.Context, userID, key, orderID string) error
	SetStatusIfNewer(ctx context.Context, orderID string, e redisx.StatusEntry) (bool, error)
	GetStatus(ctx context.Context, orderID string) (redisx.StatusEntry, bool, error)
}

// OrderEvents publishes order events and keeps the status cache warm. Both
// are best effort: failures are logged and never fail the request.
type OrderEvents struct {
	Created       kafkax.Publisher
	StatusChanged kafkax.Publisher
	Cache         OrderCache
	Service       string
	Log           *zap.Logger
}

func (e *OrderEvents) created(r *http.Request, o orders.Order) {
	e.cacheStatus(r.Context(), o)
	e.publish(r, e.Created, orders.EventOrderCreated, o.ID, o.CreatedAt, orders.CreatedPayload(o))
}

func (e *OrderEvents) statusChanged(r *http.Request, o orders.Order, by string) {
	e.cacheStatus(r.Context(), o)
	e.publish(r, e.StatusChanged, orders.EventOrderStatusChanged, o.ID, o.UpdatedAt, orders.OrderStatusChangedPayload{
		OrderID:   o.ID,
		UserID:    o.UserID,
		Status:    o.Status,
		ChangedBy: by,
		ChangedAt: o.UpdatedAt,
	})
}

// cacheStatus never replaces a cached status that is newer than o's.
func (e *OrderEvents) cacheStatus(ctx context.Context, o orders.Order) {
	if e.Cache == nil {
		return
	}
	_, err := e.Cache.SetStatusIfNewer(ctx, o.ID, redisx.StatusEntry{UserID: o.UserID, Status: string(o.Status), UpdatedAt: o.UpdatedAt})
	if err != nil {
		e.log().Warn("status cache write failed", zap.String("order_id", o.ID), zap.Error(err))
	}
}

func (e *OrderEvents) publish(r *http.Request, p kafkax.Publisher, eventType, orderID string, at time.Time, payload any) {
	if p == nil {
		return
	}
	env, err := orders.NewEnvelope(eventType, e.Service, middleware.GetReqID(r.Context()), orderID, at, payload)
	if err != nil {
		e.log().Error("build event", zap.String("event_type", eventType), zap.Error(err))
		return
	}
	p.Publish(orders.PartitionKey(orderID), kafkax.MustMarshal(env), kafkax.EventHeaders(eventType, env.EventVersion)...)
}

func (e *OrderEvents) log() *zap.Logger { return nopIfNil(e.Log) }
