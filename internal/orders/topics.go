package orders

const (
	TopicOrderCreated       = "order.created"
	TopicOrderStatusChanged = "order.status.changed"
)

// PartitionKey keeps the events of one order on one partition.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
