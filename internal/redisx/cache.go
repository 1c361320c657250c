package redisx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// StatusEntry is the cached view of an order's status.
type StatusEntry struct {
	UserID    string
	Status    string
	UpdatedAt time.Time
}

// Cache groups the redis shortcuts used around orders. The database stays
// the source of truth; every method here may be skipped on error.
type Cache struct{ RDB *redis.Client }

func NewCache(rdb *redis.Client) *Cache { return &Cache{RDB: rdb} }

// LookupOrder returns the order id remembered for an idempotency key.
func (c *Cache) LookupOrder(ctx context.Context, userID, key string) (string, bool, error) {
	id, err := c.RDB.Get(ctx, fmt.Sprintf(KeyIdemOrderCreate, userID, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

// RememberOrder binds an idempotency key to an order id. The first binding
// wins.
func (c *Cache) RememberOrder(ctx context.Context, userID, key, orderID string) error {
	return c.RDB.SetNX(ctx, fmt.Sprintf(KeyIdemOrderCreate, userID, key), orderID, TTLIdempotency).Err()
}

// setIfNewer writes the status hash unless the stored entry carries a later
// timestamp. KEYS[1] status key; ARGV ts, user_id, status, updated_at, ttl ms.
var setIfNewer = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'ts')
if cur and tonumber(cur) > tonumber(ARGV[1]) then
  return 0
end
redis.call('HSET', KEYS[1], 'ts', ARGV[1], 'user_id', ARGV[2], 'status', ARGV[3], 'updated_at', ARGV[4])
redis.call('PEXPIRE', KEYS[1], ARGV[5])
return 1
`)

// SetStatusIfNewer stores e unless the cache already holds a status with a
// later UpdatedAt. It reports whether e was written.
func (c *Cache) SetStatusIfNewer(ctx context.Context, orderID string, e StatusEntry) (bool, error) {
	n, err := setIfNewer.Run(ctx, c.RDB, []string{fmt.Sprintf(KeyOrderStatus, orderID)},
		e.UpdatedAt.UnixMicro(),
		e.UserID,
		e.Status,
		e.UpdatedAt.UTC().Format(time.RFC3339Nano),
		TTLStatusCache.Milliseconds(),
	).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (c *Cache) GetStatus(ctx context.Context, orderID string) (StatusEntry, bool, error) {
	m, err := c.RDB.HGetAll(ctx, fmt.Sprintf(KeyOrderStatus, orderID)).Result()
	if err != nil {
		return StatusEntry{}, false, err
	}
	if len(m) == 0 {
		return StatusEntry{}, false, nil
	}
	at, err := time.Parse(time.RFC3339Nano, m["updated_at"])
	if err != nil {
		return StatusEntry{}, false, fmt.Errorf("decode status cache: %w", err)
	}
	return StatusEntry{UserID: m["user_id"], Status: m["status"], UpdatedAt: at}, true, nil
}

// FirstSeen marks an event as processed by service and reports whether this
// call was the first to do so.
func (c *Cache) FirstSeen(ctx context.Context, service, eventID string) (bool, error) {
	return c.RDB.SetNX(ctx, fmt.Sprintf(KeyDedup, service, eventID), "1", TTLDedup).Result()
}

// Forget drops a dedup mark so a failed event can be retried.
func (c *Cache) Forget(ctx context.Context, service, eventID string) error {
	return c.RDB.Del(ctx, fmt.Sprintf(KeyDedup, service, eventID)).Err()
}
