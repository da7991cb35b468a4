package hub

import "github.com/google/uuid"

// sendBuffer is the per-subscriber queue depth. A subscriber whose
// buffer fills is considered dead or too slow and gets evicted.
const sendBuffer = 64

// Subscriber is one open push channel to a connected client. The
// transport layer holds it until the underlying connection closes,
// draining Messages and writing each frame out.
type Subscriber struct {
	ID   string
	hub  *Hub
	send chan Message
}

func newSubscriber(h *Hub) *Subscriber {
	return &Subscriber{
		ID:   uuid.NewString(),
		hub:  h,
		send: make(chan Message, sendBuffer),
	}
}

// Messages returns the frame channel. It is closed when the hub evicts
// the subscriber or shuts down; the transport should then stop.
func (s *Subscriber) Messages() <-chan Message {
	return s.send
}

// Close detaches the subscriber from its hub.
func (s *Subscriber) Close() {
	s.hub.Unsubscribe(s)
}
