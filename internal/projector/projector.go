package projector

import (
	"context"
	"fmt"
	"time"

	kafkax "github.com/ariefcatur/go-storefront/internal/kafka"
	"github.com/ariefcatur/go-storefront/internal/orders"
	"github.com/ariefcatur/go-storefront/internal/redisx"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type StatusCache interface {
	SetStatusIfNewer(ctx context.Context, orderID string, e redisx.StatusEntry) (bool, error)
	FirstSeen(ctx context.Context, service, eventID string) (bool, error)
	Forget(ctx context.Context, service, eventID string) error
}

// Projector keeps the cached order status in line with order events.
type Projector struct {
	Cache       StatusCache
	ServiceName string
	Log         *zap.Logger
}

// Topics the projector subscribes to.
var Topics = []string{orders.TopicOrderCreated, orders.TopicOrderStatusChanged}

// Handle is installed as the consumer handler.
func (p *Projector) Handle(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := kafkax.UnmarshalEnvelope(m.Value, &env); err != nil {
		// A malformed message will never decode; commit it and move on.
		p.Log.Warn("skip undecodable event", zap.String("topic", m.Topic), zap.Int64("offset", m.Offset), zap.Error(err))
		return nil
	}

	orderID, entry, ok, err := project(env)
	if err != nil {
		p.Log.Warn("skip bad payload", zap.String("event_id", env.EventID), zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}

	first, err := p.Cache.FirstSeen(ctx, p.ServiceName, env.EventID)
	if err != nil {
		return fmt.Errorf("dedup: %w", err)
	}
	if !first {
		p.Log.Debug("duplicate event", zap.String("event_id", env.EventID))
		return nil
	}

	if err := p.apply(ctx, orderID, entry); err != nil {
		// Let the redelivery through the dedup check.
		_ = p.Cache.Forget(ctx, p.ServiceName, env.EventID)
		return err
	}
	p.Log.Info("order status projected",
		zap.String("order_id", orderID),
		zap.String("status", entry.Status),
		zap.String("event_type", env.EventType))
	return nil
}

// apply writes entry unless the cache already holds a newer status.
func (p *Projector) apply(ctx context.Context, orderID string, entry redisx.StatusEntry) error {
	written, err := p.Cache.SetStatusIfNewer(ctx, orderID, entry)
	if err != nil {
		return fmt.Errorf("write status cache: %w", err)
	}
	if !written {
		p.Log.Debug("cached status is newer", zap.String("order_id", orderID))
	}
	return nil
}

func project(env orders.Envelope) (string, redisx.StatusEntry, bool, error) {
	switch env.EventType {
	case orders.EventOrderCreated:
		p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
		if err != nil {
			return "", redisx.StatusEntry{}, false, err
		}
		return p.OrderID, entry(p.UserID, p.Status, env.OccurredAt), true, nil
	case orders.EventOrderStatusChanged:
		p, err := kafkax.UnwrapPayload[orders.OrderStatusChangedPayload](env.Payload)
		if err != nil {
			return "", redisx.StatusEntry{}, false, err
		}
		return p.OrderID, entry(p.UserID, p.Status, p.ChangedAt), true, nil
	default:
		return "", redisx.StatusEntry{}, false, nil
	}
}

func entry(userID string, s orders.Status, at time.Time) redisx.StatusEntry {
	return redisx.StatusEntry{UserID: userID, Status: string(s), UpdatedAt: at}
}
