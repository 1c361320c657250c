package redisx

import "time"

const (
	// Idempotent order creation: idem:order:create:{user_id}:{Idempotency-Key} -> order_id
	KeyIdemOrderCreate = "idem:order:create:%s:%s"

	// Cached order status: order_status:{order_id} -> hash {ts, user_id, status, updated_at}
	KeyOrderStatus = "order_status:%s"

	// Event dedup: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
