package retry

import (
	"sync"

	"github.com/vietddude/schedrecovery/internal/core/domain"
)

type counterKey struct {
	session string
	kind    domain.ErrorKind
}

// Counter tracks automatic retry attempts per (session, kind).
// It lives in process memory only and starts empty after a restart.
type Counter struct {
	attempts map[counterKey]int
	mu       sync.RWMutex
}

func NewCounter() *Counter {
	return &Counter{attempts: make(map[counterKey]int)}
}

// Get returns the attempts made so far.
func (c *Counter) Get(session string, kind domain.ErrorKind) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.attempts[counterKey{session, kind}]
}

// Increment records one executed attempt and returns the new count.
func (c *Counter) Increment(session string, kind domain.ErrorKind) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := counterKey{session, kind}
	c.attempts[k]++
	return c.attempts[k]
}

// TryIncrement records one attempt only if fewer than limit were made.
// It returns the count before the call and whether the attempt was taken.
func (c *Counter) TryIncrement(session string, kind domain.ErrorKind, limit int) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := counterKey{session, kind}
	prev := c.attempts[k]
	if prev >= limit {
		return prev, false
	}
	c.attempts[k] = prev + 1
	return prev, true
}

// Reset clears the count for one (session, kind).
func (c *Counter) Reset(session string, kind domain.ErrorKind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.attempts, counterKey{session, kind})
}

// ResetSession clears every count of session.
func (c *Counter) ResetSession(session string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.attempts {
		if k.session == session {
			delete(c.attempts, k)
		}
	}
}

// Sessions returns the number of sessions with at least one attempt.
func (c *Counter) Sessions() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	seen := make(map[string]struct{})
	for k := range c.attempts {
		seen[k.session] = struct{}{}
	}
	return len(seen)
}
