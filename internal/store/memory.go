package store

import (
	"context"
	"sync"
	"time"
)

// MemoryDenylist is a TokenDenylist held in process memory.
type MemoryDenylist struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewMemoryDenylist() *MemoryDenylist {
	return &MemoryDenylist{revoked: make(map[string]time.Time), now: time.Now}
}

func (d *MemoryDenylist) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	for id, exp := range d.revoked {
		if !exp.After(now) {
			delete(d.revoked, id)
		}
	}
	if expiresAt.After(now) {
		d.revoked[tokenID] = expiresAt
	}
	return nil
}

func (d *MemoryDenylist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	exp, ok := d.revoked[tokenID]
	return ok && exp.After(d.now()), nil
}

type attempts struct {
	count   int
	resetAt time.Time
}

// MemoryThrottle is a LoginThrottle held in process memory.
type MemoryThrottle struct {
	mu          sync.Mutex
	maxAttempts int
	window      time.Duration
	failures    map[string]attempts
	now         func() time.Time
}

func NewMemoryThrottle(maxAttempts int, window time.Duration) *MemoryThrottle {
	return &MemoryThrottle{
		maxAttempts: maxAttempts,
		window:      window,
		failures:    make(map[string]attempts),
		now:         time.Now,
	}
}

// current returns the live counter for key; callers hold t.mu.
func (t *MemoryThrottle) current(key string) attempts {
	a, ok := t.failures[key]
	if ok && !a.resetAt.After(t.now()) {
		delete(t.failures, key)
		return attempts{}
	}
	return a
}

func (t *MemoryThrottle) Locked(_ context.Context, key string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current(key).count >= t.maxAttempts, nil
}

func (t *MemoryThrottle) RegisterFailure(_ context.Context, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	a := t.current(key)
	if a.count == 0 {
		a.resetAt = t.now().Add(t.window)
	}
	a.count++
	t.failures[key] = a
	return nil
}

func (t *MemoryThrottle) Reset(_ context.Context, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.failures, key)
	return nil
}
