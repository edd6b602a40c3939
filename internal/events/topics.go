package events

const (
	TopicOrderPlaced        = "storefront.order.placed"
	TopicOrderStatusChanged = "storefront.order.status"
)

// Topics lists every topic the storefront writes to.
var Topics = []string{TopicOrderPlaced, TopicOrderStatusChanged}

// TopicFor maps an event type to its topic; unknown types map to "".
func TopicFor(eventType string) string {
	switch eventType {
	case EventOrderPlaced:
		return TopicOrderPlaced
	case EventOrderStatusChanged:
		return TopicOrderStatusChanged
	}
	return ""
}

// Partition key = order id, so one order's events stay in sequence.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
