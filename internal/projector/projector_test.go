package projector

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ariefcatur/go-storefront/internal/orders"
	"github.com/ariefcatur/go-storefront/internal/redisx"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCache struct {
	status    map[string]redisx.StatusEntry
	seen      map[string]bool
	failSet   error
	forgotten int
}

func newFakeCache() *fakeCache {
	return &fakeCache{status: map[string]redisx.StatusEntry{}, seen: map[string]bool{}}
}

func (c *fakeCache) SetStatusIfNewer(ctx context.Context, orderID string, e redisx.StatusEntry) (bool, error) {
	if c.failSet != nil {
		return false, c.failSet
	}
	if cur, ok := c.status[orderID]; ok && cur.UpdatedAt.After(e.UpdatedAt) {
		return false, nil
	}
	c.status[orderID] = e
	return true, nil
}

func (c *fakeCache) FirstSeen(ctx context.Context, service, eventID string) (bool, error) {
	k := service + ":" + eventID
	if c.seen[k] {
		return false, nil
	}
	c.seen[k] = true
	return true, nil
}

func (c *fakeCache) Forget(ctx context.Context, service, eventID string) error {
	delete(c.seen, service+":"+eventID)
	c.forgotten++
	return nil
}

func message(t *testing.T, eventType string, at time.Time, payload any) kafkago.Message {
	t.Helper()
	env, err := orders.NewEnvelope(eventType, "test", "", "o1", at, payload)
	require.NoError(t, err)
	b, err := json.Marshal(env)
	require.NoError(t, err)
	return kafkago.Message{Topic: orders.TopicOrderCreated, Value: b}
}

func newProjector(c StatusCache) *Projector {
	return &Projector{Cache: c, ServiceName: "projector", Log: zap.NewNop()}
}

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestCreatedThenChanged(t *testing.T) {
	ctx := context.Background()
	c := newFakeCache()
	p := newProjector(c)

	created := message(t, orders.EventOrderCreated, t0, orders.OrderCreatedPayload{
		OrderID: "o1", Total: decimal.NewFromInt(60), Status: orders.StatusPending,
	})
	require.NoError(t, p.Handle(ctx, created))
	assert.Equal(t, "pending", c.status["o1"].Status)

	changed := message(t, orders.EventOrderStatusChanged, t0.Add(time.Minute), orders.OrderStatusChangedPayload{
		OrderID: "o1", Status: orders.StatusShipped, ChangedAt: t0.Add(time.Minute),
	})
	require.NoError(t, p.Handle(ctx, changed))
	assert.Equal(t, "shipped", c.status["o1"].Status)
}

func TestOlderEventDoesNotOverwrite(t *testing.T) {
	ctx := context.Background()
	c := newFakeCache()
	c.status["o1"] = redisx.StatusEntry{Status: "delivered", UpdatedAt: t0.Add(time.Hour)}
	p := newProjector(c)

	created := message(t, orders.EventOrderCreated, t0, orders.OrderCreatedPayload{OrderID: "o1", Status: orders.StatusPending})
	require.NoError(t, p.Handle(ctx, created))
	assert.Equal(t, "delivered", c.status["o1"].Status)
}

func TestDuplicateEventIsIgnored(t *testing.T) {
	ctx := context.Background()
	c := newFakeCache()
	p := newProjector(c)

	m := message(t, orders.EventOrderStatusChanged, t0, orders.OrderStatusChangedPayload{
		OrderID: "o1", Status: orders.StatusProcessing, ChangedAt: t0,
	})
	require.NoError(t, p.Handle(ctx, m))

	c.status["o1"] = redisx.StatusEntry{Status: "cancelled", UpdatedAt: t0}
	require.NoError(t, p.Handle(ctx, m))
	assert.Equal(t, "cancelled", c.status["o1"].Status, "redelivery is not applied twice")
}

func TestFailedWriteIsRetried(t *testing.T) {
	ctx := context.Background()
	c := newFakeCache()
	c.failSet = errors.New("redis down")
	p := newProjector(c)

	m := message(t, orders.EventOrderCreated, t0, orders.OrderCreatedPayload{OrderID: "o1", Status: orders.StatusPending})
	require.Error(t, p.Handle(ctx, m))
	assert.Equal(t, 1, c.forgotten)

	c.failSet = nil
	require.NoError(t, p.Handle(ctx, m))
	assert.Equal(t, "pending", c.status["o1"].Status)
}

func TestSkipsUnknownAndMalformed(t *testing.T) {
	ctx := context.Background()
	c := newFakeCache()
	p := newProjector(c)

	require.NoError(t, p.Handle(ctx, kafkago.Message{Value: []byte("not json")}))
	require.NoError(t, p.Handle(ctx, message(t, "SomethingElse", t0, map[string]string{})))

	bad := message(t, orders.EventOrderCreated, t0, []int{1, 2})
	require.NoError(t, p.Handle(ctx, bad))
	assert.Empty(t, c.status)
	assert.Empty(t, c.seen)
}

func TestProjectsIntoRedis(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redisx.New(mr.Addr())
	t.Cleanup(func() { _ = rdb.Close() })
	cache := redisx.NewCache(rdb)
	p := newProjector(cache)

	changed := message(t, orders.EventOrderStatusChanged, t0.Add(time.Minute), orders.OrderStatusChangedPayload{
		OrderID: "o1", UserID: "u1", Status: orders.StatusShipped, ChangedAt: t0.Add(time.Minute),
	})
	created := message(t, orders.EventOrderCreated, t0, orders.OrderCreatedPayload{OrderID: "o1", UserID: "u1", Status: orders.StatusPending})

	// Delivered out of order: the later change arrives first.
	require.NoError(t, p.Handle(ctx, changed))
	require.NoError(t, p.Handle(ctx, created))

	e, ok, err := cache.GetStatus(ctx, "o1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "shipped", e.Status)
	assert.Equal(t, "u1", e.UserID)
}
