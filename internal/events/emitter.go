package events

import (
	"log"
	"reflect"
	"sync"
)

// Handler receives lifecycle events from an Emitter.
type Handler interface {
	OnEvent(Event)
}

// HandlerFunc adapts a plain function to the Handler interface.
// Function values are not comparable, so a value-typed HandlerFunc is never
// matched by Unsubscribe; register a *HandlerFunc when removal is needed.
type HandlerFunc func(Event)

// OnEvent calls f.
func (f HandlerFunc) OnEvent(event Event) { f(event) }

// Emitter is a synchronous publish/subscribe channel for lifecycle events.
// Emit notifies every current subscriber in registration order; a panicking
// subscriber is isolated so it cannot prevent delivery to the rest.
type Emitter struct {
	mu       sync.Mutex
	handlers []Handler
}

// NewEmitter creates an emitter with no subscribers.
func NewEmitter() *Emitter {
	return &Emitter{}
}

// Subscribe registers a handler. A handler registered twice is notified twice.
func (e *Emitter) Subscribe(h Handler) {
	if h == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, h)
}

// Unsubscribe removes the first registration of the given handler.
// Handlers are matched by interface identity, so subscribers that intend to
// unsubscribe should register pointer-backed handlers.
func (e *Emitter) Unsubscribe(h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, registered := range e.handlers {
		if sameHandler(registered, h) {
			e.handlers = append(e.handlers[:i], e.handlers[i+1:]...)
			return
		}
	}
}

// sameHandler reports whether two handlers are the same registration.
// Interface equality panics on non-comparable dynamic types (bare function
// adapters), so those never match instead of crashing the caller.
func sameHandler(a, b Handler) bool {
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) {
		return false
	}
	if ta == nil || !ta.Comparable() {
		return false
	}
	return a == b
}

// Emit synchronously notifies every current subscriber in registration order.
func (e *Emitter) Emit(event Event) {
	e.mu.Lock()
	handlers := make([]Handler, len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.Unlock()

	for _, h := range handlers {
		notify(h, event)
	}
}

// notify delivers one event to one handler, recovering panics so a broken
// subscriber cannot break fan-out to the remaining subscribers.
func notify(h Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("WARNING: event handler panicked on %s: %v", event.EventType(), r)
		}
	}()
	h.OnEvent(event)
}

// ChannelHandler bridges the synchronous emitter to channel consumers such
// as the TUI. Delivery is non-blocking: if the channel buffer is full the
// event is dropped for that consumer.
type ChannelHandler struct {
	ch     chan Event
	mu     sync.Mutex
	closed bool
}

// NewChannelHandler creates a channel-backed handler.
// bufSize determines the channel buffer size (defaults to 256 if <= 0).
func NewChannelHandler(bufSize int) *ChannelHandler {
	if bufSize <= 0 {
		bufSize = 256
	}
	return &ChannelHandler{ch: make(chan Event, bufSize)}
}

// OnEvent forwards the event to the channel without blocking.
func (c *ChannelHandler) OnEvent(event Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	select {
	case c.ch <- event:
	default:
		// Channel full, drop event (non-blocking)
	}
}

// Events returns the receive side of the bridge.
func (c *ChannelHandler) Events() <-chan Event {
	return c.ch
}

// Close closes the bridge channel. Safe to call multiple times.
// The handler should be unsubscribed before or after closing; either order
// is safe because OnEvent checks the closed flag.
func (c *ChannelHandler) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.ch)
}
