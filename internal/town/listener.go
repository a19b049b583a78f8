package town

import "sync"

// Listener receives state-change notifications from one town. Implementations
// are typically owned by the transport layer, one per connection.
//
// Callbacks run synchronously on the goroutine performing the triggering
// operation, after the mutation has committed and the town's state lock has
// been released. Every callback receives a value copy captured while the
// lock was held, so listeners may read it at any time without racing later
// operations on the same town. A listener may call Subscribe, Unsubscribe,
// or any read accessor from inside a callback. A panic inside one listener
// does not prevent delivery to the others.
type Listener interface {
	// ParticipantJoined reports a participant admitted to the roster.
	ParticipantJoined(p Participant)
	// ParticipantMoved reports a participant location update.
	ParticipantMoved(p Participant)
	// ParticipantDisconnected reports a session destroyed and its
	// participant removed from the roster.
	ParticipantDisconnected(p Participant)
	// ConversationAreaUpdated reports an area created or its occupant list
	// changed.
	ConversationAreaUpdated(a ConversationArea)
	// ConversationAreaDestroyed reports an area removed after its last
	// occupant left.
	ConversationAreaDestroyed(a ConversationArea)
	// TownClosing reports that the town is shutting down. The transport is
	// expected to terminate its connections in response.
	TownClosing()
}

// notification is one queued listener callback, captured while the state
// lock is held and delivered after it is released.
type notification func(Listener)

// listenerSet is the subscription registry for one town. It has its own
// lock so listeners can change the subscription set from inside a callback.
type listenerSet struct {
	mu        sync.RWMutex
	listeners []Listener
}

// add appends l to the set. Listeners are notified in registration order.
func (s *listenerSet) add(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// remove deletes l from the set, compared by identity. No-op if absent.
func (s *listenerSet) remove(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.listeners {
		if existing == l {
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			return
		}
	}
}

// count returns the number of subscribed listeners.
func (s *listenerSet) count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.listeners)
}

// snapshot returns a copy of the current listener slice. Each broadcast
// iterates its own snapshot, so removal mid-broadcast neither skips nor
// duplicates delivery to the remaining listeners.
func (s *listenerSet) snapshot() []Listener {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Listener, len(s.listeners))
	copy(out, s.listeners)
	return out
}

// broadcast invokes notify on every subscribed listener, in registration
// order, isolating per-listener panics.
func (s *listenerSet) broadcast(notify notification) {
	for _, l := range s.snapshot() {
		deliver(l, notify)
	}
}

func deliver(l Listener, notify notification) {
	// A faulty listener must not stop delivery to the rest.
	defer func() { _ = recover() }()
	notify(l)
}
