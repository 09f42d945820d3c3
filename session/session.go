// Package session fans a controller's events out to whatever clients are
// currently watching it: browsers over server-sent events, or individual
// websocket connections. The controller core only ever sees the Session
// and Registry types here; it has no idea which transport a given
// subscriber is using.
package session

import "sync"

// Session is one outbound sink for controller events. Send is expected to
// be cheap and non-blocking from the controller's perspective; an
// implementation that needs to block (a slow websocket write, say) should
// queue internally rather than stall the caller.
type Session interface {
	ID() string
	Send(event string, payload []byte) error
}

// Registry tracks the sessions subscribed to a single controller. It's
// append-only in the steady state: Remove tombstones a slot rather than
// shrinking the slice, so a Broadcast in flight never observes a
// concurrent removal as a shortened slice or a reused index.
type Registry struct {
	mu       sync.Mutex
	sessions []Session
}

// Add registers s, appended after any existing subscriber.
func (r *Registry) Add(s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, s)
}

// Remove unregisters s. It is safe to call concurrently with Broadcast,
// and safe to call more than once for the same session.
func (r *Registry) Remove(s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.sessions {
		if existing == s {
			r.sessions[i] = nil
		}
	}
}

// Broadcast delivers event/payload to every live subscriber, in
// subscription-insertion order. There is no ordering guarantee across
// subscribers beyond that.
func (r *Registry) Broadcast(event string, payload []byte) {
	r.mu.Lock()
	snapshot := make([]Session, len(r.sessions))
	copy(snapshot, r.sessions)
	r.mu.Unlock()

	for _, s := range snapshot {
		if s == nil {
			continue
		}
		s.Send(event, payload)
	}
}

// Len reports the number of live (non-tombstoned) subscribers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.sessions {
		if s != nil {
			n++
		}
	}
	return n
}
