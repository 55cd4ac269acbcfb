// Package session delivers sign-in and sign-out events to interested
// listeners.
//
// A listener calls Hub.Subscribe and owns the returned Subscription until it
// calls Close. Nothing is delivered to a closed subscription, and closing the
// Hub closes every subscription still open.
package session

import (
	"sync"
	"time"
)

// EventType names a change in a user's session.
type EventType string

const (
	SignedIn  EventType = "signed_in"
	SignedOut EventType = "signed_out"
)

// Event is one session change for one user.
type Event struct {
	Type   EventType `json:"type"`
	UserID string    `json:"userId"`
	At     time.Time `json:"at"`
}

// subscriptionBuffer is how many undelivered events a slow subscriber may
// hold before new ones are dropped.
const subscriptionBuffer = 8

// Hub fans events out to per-user subscriptions.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[*Subscription]struct{}
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*Subscription]struct{})}
}

// Subscription receives the events of one user.
type Subscription struct {
	hub    *Hub
	userID string
	ch     chan Event
	once   sync.Once
}

// Subscribe registers a listener for userID's events. On a closed hub the
// returned subscription is already closed.
func (h *Hub) Subscribe(userID string) *Subscription {
	sub := &Subscription{hub: h, userID: userID, ch: make(chan Event, subscriptionBuffer)}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		sub.once.Do(func() { close(sub.ch) })
		return sub
	}
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*Subscription]struct{})
	}
	h.subs[userID][sub] = struct{}{}
	return sub
}

// Publish delivers ev to every subscription of ev.UserID without blocking.
// It returns how many subscriptions received it; a full subscription misses
// the event.
func (h *Hub) Publish(ev Event) int {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	delivered := 0
	for sub := range h.subs[ev.UserID] {
		select {
		case sub.ch <- ev:
			delivered++
		default:
		}
	}
	return delivered
}

// Subscribers returns the number of open subscriptions for userID.
func (h *Hub) Subscribers(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID])
}

// Close closes every open subscription. Later Subscribe calls return closed
// subscriptions and Publish delivers nothing.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, set := range h.subs {
		for sub := range set {
			sub.once.Do(func() { close(sub.ch) })
		}
	}
	h.subs = make(map[string]map[*Subscription]struct{})
}

// Events is closed when the subscription or the hub is closed.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Close releases the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	h := s.hub
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[s.userID]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(h.subs, s.userID)
		}
	}
	s.once.Do(func() { close(s.ch) })
}
