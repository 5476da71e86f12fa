package enums

// EventType names the realtime events emitted by the engine.
type EventType string

const (
	EventOrderNew           EventType = "order.new"
	EventOrderStatusChanged EventType = "order.status_changed"
	EventStockLow           EventType = "stock.low"
)

// String implements fmt.Stringer.
func (e EventType) String() string {
	return string(e)
}
