package notify

import (
	"sync"

	"github.com/sliceline/sliceline-backend/pkg/types"
)

// Event is one broadcast: the wire envelope plus routing metadata.
// CustomerKey is the user id for account holders or the tracking token for
// guests; empty means staff-only.
type Event struct {
	Envelope    types.EventEnvelope
	CustomerKey string
}

// Subscriber is one attached listener. Staff subscribers receive every
// event; customer subscribers only receive events for their own key.
type Subscriber struct {
	C           chan types.EventEnvelope
	staff       bool
	customerKey string
}

// Hub fans events out to in-process subscribers. Delivery is non-blocking:
// a subscriber that cannot keep up drops events rather than stalling the
// publisher.
type Hub struct {
	mu   sync.RWMutex
	subs map[*Subscriber]struct{}
}

// NewHub builds an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[*Subscriber]struct{})}
}

// SubscribeStaff attaches a listener that sees every event.
func (h *Hub) SubscribeStaff(buffer int) *Subscriber {
	return h.subscribe(&Subscriber{C: make(chan types.EventEnvelope, normalizeBuffer(buffer)), staff: true})
}

// SubscribeCustomer attaches a listener scoped to one customer key.
func (h *Hub) SubscribeCustomer(customerKey string, buffer int) *Subscriber {
	return h.subscribe(&Subscriber{
		C:           make(chan types.EventEnvelope, normalizeBuffer(buffer)),
		customerKey: customerKey,
	})
}

func (h *Hub) subscribe(sub *Subscriber) *Subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[sub] = struct{}{}
	return sub
}

// Unsubscribe detaches the listener and closes its channel.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub]; !ok {
		return
	}
	delete(h.subs, sub)
	close(sub.C)
}

// Publish delivers the event to every matching subscriber without blocking.
func (h *Hub) Publish(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		if !sub.staff && (event.CustomerKey == "" || sub.customerKey != event.CustomerKey) {
			continue
		}
		select {
		case sub.C <- event.Envelope:
		default:
			// Slow listener; the order flow never waits on delivery.
		}
	}
}

func normalizeBuffer(buffer int) int {
	if buffer <= 0 {
		return 16
	}
	return buffer
}
