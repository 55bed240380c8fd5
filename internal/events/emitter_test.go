package events

import (
	"testing"
	"time"
)

// recordingHandler collects events for assertions.
type recordingHandler struct {
	name     string
	received []Event
	log      *[]string // shared delivery order log, optional
}

func (h *recordingHandler) OnEvent(event Event) {
	h.received = append(h.received, event)
	if h.log != nil {
		*h.log = append(*h.log, h.name)
	}
}

// panickyHandler always panics.
type panickyHandler struct{}

func (panickyHandler) OnEvent(Event) { panic("broken subscriber") }

// TestEmitDeliversToAllSubscribers verifies synchronous fan-out.
func TestEmitDeliversToAllSubscribers(t *testing.T) {
	e := NewEmitter()
	h1 := &recordingHandler{name: "h1"}
	h2 := &recordingHandler{name: "h2"}
	e.Subscribe(h1)
	e.Subscribe(h2)

	e.Emit(TaskQueuedEvent{ID: "t1", Type: "code", Timestamp: time.Now()})

	for _, h := range []*recordingHandler{h1, h2} {
		if len(h.received) != 1 {
			t.Fatalf("%s received %d events, want 1", h.name, len(h.received))
		}
		if h.received[0].TaskID() != "t1" {
			t.Errorf("%s got task %q, want t1", h.name, h.received[0].TaskID())
		}
	}
}

// TestEmitRegistrationOrder verifies subscribers are notified in the order
// they subscribed.
func TestEmitRegistrationOrder(t *testing.T) {
	e := NewEmitter()
	var order []string
	e.Subscribe(&recordingHandler{name: "first", log: &order})
	e.Subscribe(&recordingHandler{name: "second", log: &order})
	e.Subscribe(&recordingHandler{name: "third", log: &order})

	e.Emit(TaskStartedEvent{ID: "t1", AgentID: "a1", Timestamp: time.Now()})

	want := []string{"first", "second", "third"}
	if len(order) != len(want) {
		t.Fatalf("delivery order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("delivery[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

// TestPanickingSubscriberIsolated verifies a panicking handler does not stop
// delivery to later handlers.
func TestPanickingSubscriberIsolated(t *testing.T) {
	e := NewEmitter()
	before := &recordingHandler{name: "before"}
	after := &recordingHandler{name: "after"}
	e.Subscribe(before)
	e.Subscribe(panickyHandler{})
	e.Subscribe(after)

	e.Emit(TaskFailedEvent{ID: "t1", Issues: []string{"boom"}, Timestamp: time.Now()})

	if len(before.received) != 1 {
		t.Errorf("handler before panic received %d events, want 1", len(before.received))
	}
	if len(after.received) != 1 {
		t.Errorf("handler after panic received %d events, want 1", len(after.received))
	}
}

// TestUnsubscribe verifies removal stops delivery and only removes the
// first registration.
func TestUnsubscribe(t *testing.T) {
	e := NewEmitter()
	h := &recordingHandler{name: "h"}
	e.Subscribe(h)
	e.Subscribe(h) // registered twice, notified twice

	e.Emit(TaskQueuedEvent{ID: "t1", Timestamp: time.Now()})
	if len(h.received) != 2 {
		t.Fatalf("received %d events, want 2 for double registration", len(h.received))
	}

	e.Unsubscribe(h)
	e.Emit(TaskQueuedEvent{ID: "t2", Timestamp: time.Now()})
	if len(h.received) != 3 {
		t.Fatalf("received %d events, want 3 after removing one registration", len(h.received))
	}

	e.Unsubscribe(h)
	e.Emit(TaskQueuedEvent{ID: "t3", Timestamp: time.Now()})
	if len(h.received) != 3 {
		t.Errorf("received %d events, want 3 after removing both registrations", len(h.received))
	}
}

// TestUnsubscribeUnknown verifies removing a never-subscribed handler is a
// no-op.
func TestUnsubscribeUnknown(t *testing.T) {
	e := NewEmitter()
	h := &recordingHandler{name: "h"}
	e.Subscribe(h)

	e.Unsubscribe(&recordingHandler{name: "other"})

	e.Emit(TaskQueuedEvent{ID: "t1", Timestamp: time.Now()})
	if len(h.received) != 1 {
		t.Errorf("received %d events, want 1", len(h.received))
	}
}

// TestUnsubscribeFuncValue verifies removing a value-typed HandlerFunc is a
// safe no-op: bare function values are not comparable, so the match must be
// skipped rather than crashing the emitter.
func TestUnsubscribeFuncValue(t *testing.T) {
	e := NewEmitter()
	var got int
	e.Subscribe(HandlerFunc(func(Event) { got++ }))

	e.Unsubscribe(HandlerFunc(func(Event) {}))

	// The registration survives since value-typed funcs never match
	e.Emit(TaskQueuedEvent{ID: "t1", Timestamp: time.Now()})
	if got != 1 {
		t.Errorf("received %d events, want 1 after no-op Unsubscribe", got)
	}
}

// TestUnsubscribeFuncPointer verifies pointer-registered function adapters
// remain removable.
func TestUnsubscribeFuncPointer(t *testing.T) {
	e := NewEmitter()
	var got int
	h := HandlerFunc(func(Event) { got++ })
	e.Subscribe(&h)

	e.Unsubscribe(&h)

	e.Emit(TaskQueuedEvent{ID: "t1", Timestamp: time.Now()})
	if got != 0 {
		t.Errorf("received %d events, want 0 after Unsubscribe", got)
	}
}

// TestHandlerFunc verifies the function adapter receives events.
func TestHandlerFunc(t *testing.T) {
	e := NewEmitter()
	var got []string
	h := HandlerFunc(func(event Event) {
		got = append(got, event.EventType())
	})
	e.Subscribe(&h)

	e.Emit(TaskCompletedEvent{ID: "t1", AgentID: "a1", Timestamp: time.Now()})

	if len(got) != 1 || got[0] != EventTypeTaskCompleted {
		t.Errorf("got = %v, want [%s]", got, EventTypeTaskCompleted)
	}
}

// TestChannelHandlerDelivery verifies events flow through the channel bridge.
func TestChannelHandlerDelivery(t *testing.T) {
	e := NewEmitter()
	bridge := NewChannelHandler(10)
	e.Subscribe(bridge)
	defer bridge.Close()

	e.Emit(TaskStartedEvent{ID: "t1", AgentID: "a1", Timestamp: time.Now()})

	select {
	case event := <-bridge.Events():
		if event.TaskID() != "t1" {
			t.Errorf("task = %q, want t1", event.TaskID())
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for bridged event")
	}
}

// TestChannelHandlerDropsWhenFull verifies the bridge never blocks Emit.
func TestChannelHandlerDropsWhenFull(t *testing.T) {
	e := NewEmitter()
	bridge := NewChannelHandler(1)
	e.Subscribe(bridge)
	defer bridge.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			e.Emit(TaskQueuedEvent{ID: "t1", Timestamp: time.Now()})
		}
		close(done)
	}()

	select {
	case <-done:
		// Emit never blocked despite the full buffer
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on full channel bridge")
	}
}

// TestChannelHandlerCloseIdempotent verifies double close and post-close
// emit are safe.
func TestChannelHandlerCloseIdempotent(t *testing.T) {
	e := NewEmitter()
	bridge := NewChannelHandler(1)
	e.Subscribe(bridge)

	bridge.Close()
	bridge.Close()

	// Must not panic sending on a closed channel
	e.Emit(TaskQueuedEvent{ID: "t1", Timestamp: time.Now()})

	if _, ok := <-bridge.Events(); ok {
		t.Error("Events() yielded a value after close, want closed channel")
	}
}
