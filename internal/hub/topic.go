package hub

import "fmt"

// Event names seen by client apps.
const (
	EventOrderPlaced   = "order_placed"
	EventStatusUpdate  = "order_status_update"
	EventAssignedOrder = "assigned_order"
	EventOrderLocation = "order_location"
	EventPaymentUpdate = "payment_status_update"
)

func UserTopic(id fmt.Stringer) string  { return "user:" + id.String() }
func OrderTopic(id fmt.Stringer) string { return "order:" + id.String() }
func RoleTopic(role string) string      { return "role:" + role }

// Event is the envelope delivered to subscribers.
type Event struct {
	Name    string         `json:"event"`
	OrderID string         `json:"orderId,omitempty"`
	Status  string         `json:"status,omitempty"`
	Extra   map[string]any `json:"extra,omitempty"`
}

// Message is an event as received on one topic.
type Message struct {
	Topic string `json:"topic"`
	Event
}

// Publisher is the fire-and-forget side of the hub.
type Publisher interface {
	Publish(topic string, ev Event) bool
}
