package notify

import (
	"testing"
	"time"

	"github.com/sliceline/sliceline-backend/pkg/enums"
	"github.com/sliceline/sliceline-backend/pkg/types"
)

func envelope(event enums.EventType) types.EventEnvelope {
	return types.EventEnvelope{Event: event, Data: map[string]any{"order_number": "ORD-000001"}}
}

func receive(t *testing.T, sub *Subscriber) types.EventEnvelope {
	t.Helper()
	select {
	case env := <-sub.C:
		return env
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return types.EventEnvelope{}
	}
}

func TestStaffSubscriberSeesAllEvents(t *testing.T) {
	t.Parallel()
	hub := NewHub()
	staff := hub.SubscribeStaff(4)
	defer hub.Unsubscribe(staff)

	hub.Publish(Event{Envelope: envelope(enums.EventOrderNew), CustomerKey: "user-1"})
	hub.Publish(Event{Envelope: envelope(enums.EventStockLow)})

	if got := receive(t, staff); got.Event != enums.EventOrderNew {
		t.Fatalf("expected order.new, got %s", got.Event)
	}
	if got := receive(t, staff); got.Event != enums.EventStockLow {
		t.Fatalf("expected stock.low, got %s", got.Event)
	}
}

func TestCustomerSubscriberOnlySeesOwnEvents(t *testing.T) {
	t.Parallel()
	hub := NewHub()
	mine := hub.SubscribeCustomer("user-1", 4)
	theirs := hub.SubscribeCustomer("user-2", 4)
	defer hub.Unsubscribe(mine)
	defer hub.Unsubscribe(theirs)

	hub.Publish(Event{Envelope: envelope(enums.EventOrderStatusChanged), CustomerKey: "user-1"})
	hub.Publish(Event{Envelope: envelope(enums.EventStockLow)})

	if got := receive(t, mine); got.Event != enums.EventOrderStatusChanged {
		t.Fatalf("expected order.status_changed, got %s", got.Event)
	}
	select {
	case env := <-theirs.C:
		t.Fatalf("user-2 must not receive %s", env.Event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishNeverBlocksOnSlowSubscriber(t *testing.T) {
	t.Parallel()
	hub := NewHub()
	slow := hub.SubscribeStaff(1)
	defer hub.Unsubscribe(slow)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			hub.Publish(Event{Envelope: envelope(enums.EventOrderNew)})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber buffer")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	t.Parallel()
	hub := NewHub()
	sub := hub.SubscribeStaff(1)
	hub.Unsubscribe(sub)

	if _, open := <-sub.C; open {
		t.Fatal("expected closed channel after unsubscribe")
	}
	// Second unsubscribe is a no-op, not a double close.
	hub.Unsubscribe(sub)
}
