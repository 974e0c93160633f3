package ws

import "sync"

// Subscriber is a live connection that can receive relay frames. Send must not
// block; a full or closed connection returns an error.
type Subscriber interface {
	ID() string
	Send(data []byte) error
	Close()
}

// subscription is one connection's interest in one session. lastVersion is the
// newest snapshot version handed to the connection, guarded by mu.
type subscription struct {
	sessionID   string
	mu          sync.Mutex
	lastVersion int
}

type subscriberRef struct {
	subscriber Subscriber
	sub        *subscription
}

// Registry maps session ids to the connections observing them. A connection
// observes at most one session; subscribing again replaces the old one.
type Registry struct {
	mu        sync.RWMutex
	bySession map[string]map[Subscriber]*subscription
	byConn    map[Subscriber]*subscription
}

// NewRegistry creates an empty subscriber registry
func NewRegistry() *Registry {
	return &Registry{
		bySession: make(map[string]map[Subscriber]*subscription),
		byConn:    make(map[Subscriber]*subscription),
	}
}

// Subscribe points conn at sessionID, dropping any earlier subscription
func (r *Registry) Subscribe(sessionID string, conn Subscriber) {
	r.subscribe(sessionID, conn, nil)
}

// subscribe registers conn and, if onAdded is set, runs it before any
// publisher can deliver to the new subscription.
func (r *Registry) subscribe(sessionID string, conn Subscriber, onAdded func()) {
	sub := &subscription{sessionID: sessionID}
	sub.mu.Lock()
	defer sub.mu.Unlock()

	r.mu.Lock()
	r.removeLocked(conn)
	if r.bySession[sessionID] == nil {
		r.bySession[sessionID] = make(map[Subscriber]*subscription)
	}
	r.bySession[sessionID][conn] = sub
	r.byConn[conn] = sub
	r.mu.Unlock()

	if onAdded != nil {
		onAdded()
	}
}

// Unsubscribe clears conn's subscription. Unknown connections are a no-op.
// It reports whether a subscription was removed.
func (r *Registry) Unsubscribe(conn Subscriber) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLocked(conn)
}

func (r *Registry) removeLocked(conn Subscriber) bool {
	sub, ok := r.byConn[conn]
	if !ok {
		return false
	}
	delete(r.byConn, conn)
	if conns := r.bySession[sub.sessionID]; conns != nil {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(r.bySession, sub.sessionID)
		}
	}
	return true
}

// SubscribersOf returns a snapshot of the connections observing sessionID
func (r *Registry) SubscribersOf(sessionID string) []Subscriber {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Subscriber, 0, len(r.bySession[sessionID]))
	for conn := range r.bySession[sessionID] {
		out = append(out, conn)
	}
	return out
}

// SessionOf returns the session conn currently observes
func (r *Registry) SessionOf(conn Subscriber) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sub, ok := r.byConn[conn]
	if !ok {
		return "", false
	}
	return sub.sessionID, true
}

func (r *Registry) refsOf(sessionID string) []subscriberRef {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]subscriberRef, 0, len(r.bySession[sessionID]))
	for conn, sub := range r.bySession[sessionID] {
		out = append(out, subscriberRef{subscriber: conn, sub: sub})
	}
	return out
}
