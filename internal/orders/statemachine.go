package orders

import "github.com/sliceline/sliceline-backend/pkg/enums"

// transitions is the forward-only lifecycle DAG. Terminal states have no
// outgoing edges; cancelled is reachable from any non-terminal state.
var transitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusReceived:  {enums.OrderStatusPreparing, enums.OrderStatusCancelled},
	enums.OrderStatusPreparing: {enums.OrderStatusReady, enums.OrderStatusCancelled},
	enums.OrderStatusReady:     {enums.OrderStatusCompleted, enums.OrderStatusCancelled},
}

// CanTransition reports whether from → to is a legal lifecycle edge.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// statusMessages back the human-readable text sent with status events.
var statusMessages = map[enums.OrderStatus]string{
	enums.OrderStatusReceived:  "Your order has been received",
	enums.OrderStatusPreparing: "Your order is being prepared",
	enums.OrderStatusReady:     "Your order is ready",
	enums.OrderStatusCompleted: "Your order is complete",
	enums.OrderStatusCancelled: "Your order has been cancelled",
}

// StatusMessage returns the customer-facing text for a status.
func StatusMessage(status enums.OrderStatus) string {
	if msg, ok := statusMessages[status]; ok {
		return msg
	}
	return "Your order status has changed"
}
