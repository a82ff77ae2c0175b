// Package cooldown tracks per-key activation windows shared across goroutines.
package cooldown

import (
	"context"
	"sync"
	"time"
)

// Tracker remembers when each key was last activated.
type Tracker[K comparable] struct {
	mu       sync.RWMutex
	last     map[K]time.Time
	duration time.Duration
	now      func() time.Time
}

// New creates a Tracker whose keys stay on cooldown for d after activation.
func New[K comparable](d time.Duration) *Tracker[K] {
	return &Tracker[K]{
		last:     make(map[K]time.Time),
		duration: d,
		now:      time.Now,
	}
}

// OnCooldown reports whether key was activated less than the window ago.
func (t *Tracker[K]) OnCooldown(key K) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	at, ok := t.last[key]
	return ok && t.now().Sub(at) < t.duration
}

// Activate starts a new window for key.
func (t *Tracker[K]) Activate(key K) {
	t.mu.Lock()
	t.last[key] = t.now()
	t.mu.Unlock()
}

// TryActivate activates key unless it is on cooldown. It returns false when
// the key was already on cooldown.
func (t *Tracker[K]) TryActivate(key K) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	if at, ok := t.last[key]; ok && now.Sub(at) < t.duration {
		return false
	}
	t.last[key] = now
	return true
}

// Sweep drops expired entries and returns how many were removed.
func (t *Tracker[K]) Sweep() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	removed := 0
	for k, at := range t.last {
		if now.Sub(at) >= t.duration {
			delete(t.last, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (t *Tracker[K]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.last)
}

// Run sweeps every interval until ctx is done.
func (t *Tracker[K]) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Sweep()
		}
	}
}
