// Package hub provides a thread-safe broadcast hub using the idiomatic
// Go channel-based fan-out pattern. Transport handlers (SSE, websocket)
// hold a Subscriber and drain its channel; the hub's run loop owns the
// subscriber set, so iteration never races with membership changes.
package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

// EventConnected is the acknowledgement frame sent on subscribe.
const EventConnected = "connected"

// connectedPayload is the ack body. Clients key on the event name, so
// the body stays minimal.
var connectedPayload = []byte(`{"ok":true}`)

// Message is one serialized frame: an event name plus a JSON payload.
type Message struct {
	Event string
	Data  []byte
}

// Hub maintains the set of active subscribers and broadcasts events to
// them. Delivery is best-effort and at-most-once: a subscriber that
// cannot keep up is dropped, and subscribers joining after an event
// never see it.
type Hub struct {
	name   string
	logger *slog.Logger

	subscribers map[*Subscriber]bool

	broadcast  chan Message
	register   chan *Subscriber
	unregister chan *Subscriber

	// Guards subscriber count for read-only access from outside the
	// run loop, and the closed flag.
	mu     sync.RWMutex
	closed bool
}

// New creates a new Hub. The name appears in log output.
func New(name string) *Hub {
	return &Hub{
		name:        name,
		logger:      slog.Default().With("hub", name),
		subscribers: make(map[*Subscriber]bool),
		broadcast:   make(chan Message, 64),
		register:    make(chan *Subscriber, 8),
		unregister:  make(chan *Subscriber, 8),
	}
}

// Run starts the hub's main loop. Call in a goroutine; returns when
// the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case sub := <-h.register:
			h.mu.Lock()
			h.subscribers[sub] = true
			count := len(h.subscribers)
			h.mu.Unlock()
			h.logger.Info("subscriber connected", "id", sub.ID, "total", count)

		case sub := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.subscribers[sub]; ok {
				delete(h.subscribers, sub)
				close(sub.send)
			}
			count := len(h.subscribers)
			h.mu.Unlock()
			h.logger.Info("subscriber disconnected", "id", sub.ID, "remaining", count)

		case msg := <-h.broadcast:
			h.mu.Lock()
			for sub := range h.subscribers {
				select {
				case sub.send <- msg:
				default:
					// Subscriber's buffer is full: they are too slow.
					// Evict them; the rest still get the message.
					delete(h.subscribers, sub)
					close(sub.send)
					h.logger.Warn("dropped slow subscriber", "id", sub.ID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Subscribe registers a new subscriber. The acknowledgement frame is
// already queued on the returned subscriber's channel, so the transport
// can send it immediately. After shutdown the returned subscriber's
// channel is already closed, so the transport unwinds right away
// instead of idling on a connection the hub will never serve.
func (h *Hub) Subscribe() *Subscriber {
	sub := newSubscriber(h)
	sub.send <- Message{Event: EventConnected, Data: connectedPayload}

	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		close(sub.send)
		return sub
	}

	h.register <- sub
	return sub
}

// Unsubscribe removes a subscriber. Idempotent: unsubscribing an
// already-evicted subscriber is a no-op. Non-blocking so a transport
// goroutine can always exit, even after the hub has shut down; a
// subscriber missed here is evicted on its next failed send anyway.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	select {
	case h.unregister <- sub:
	default:
	}
}

// Broadcast queues a message for delivery to every current subscriber.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("broadcast channel full, dropping message", "event", msg.Event)
	}
}

// BroadcastJSON encodes v once and broadcasts it under the given event
// name.
func (h *Hub) BroadcastJSON(event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(Message{Event: event, Data: data})
	return nil
}

// SubscriberCount returns the number of active subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// closeAll evicts every subscriber on shutdown and marks the hub
// closed so later Subscribe calls fail fast.
func (h *Hub) closeAll() {
	h.mu.Lock()
	h.closed = true
	for sub := range h.subscribers {
		delete(h.subscribers, sub)
		close(sub.send)
	}
	h.mu.Unlock()

	// Registrations parked in the buffer never made it into the set;
	// close them too so their transports unwind.
	for {
		select {
		case sub := <-h.register:
			close(sub.send)
		default:
			return
		}
	}
}
