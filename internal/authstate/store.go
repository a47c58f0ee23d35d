// Package authstate holds the signed-in identity on the client side and
// tells subscribers when it changes.
package authstate

import (
	"sync"
	"time"

	"tourguide/internal/access"
	"tourguide/internal/model"
)

// Identity is what a client knows about its signed-in user.
type Identity struct {
	User      model.Profile `json:"user"`
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
}

// Expired reports whether the token has lapsed at now.
func (i Identity) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

// Access returns the identity in the shape the route guard expects.
func (i Identity) Access() *access.Identity {
	return &access.Identity{UserID: i.User.ID, Role: i.User.Role}
}

// Listener receives the new identity, or nil after Clear.
type Listener func(*Identity)

type subscription struct {
	id int
	fn Listener
}

// Store is safe for concurrent use. Listeners run synchronously, in
// subscription order, on the goroutine that changed the state; they may read
// the store but must not call Set or Clear.
type Store struct {
	mu      sync.RWMutex
	current *Identity
	subs    []subscription
	nextID  int

	// notifyMu serializes changes so listeners observe them in order.
	notifyMu sync.Mutex
}

func New() *Store {
	return &Store{}
}

// Current returns a copy of the identity, if any.
func (s *Store) Current() (Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Identity{}, false
	}
	return *s.current, true
}

func (s *Store) Set(id Identity) {
	s.update(&id)
}

func (s *Store) Clear() {
	s.update(nil)
}

func (s *Store) update(id *Identity) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.current = id
	subs := make([]subscription, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		if id == nil {
			sub.fn(nil)
			continue
		}
		snapshot := *id
		sub.fn(&snapshot)
	}
}

// Subscribe registers fn and returns a function that removes it. Calling the
// returned function more than once is harmless.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}
