package ratelimit

import (
	"sync"
	"time"
)

// Limiter throttles repeated events per key. The first call for a key
// always passes; later calls pass only after the given interval has
// elapsed since the last allowed one.
type Limiter struct {
	mu   sync.Mutex
	last map[string]time.Time
	now  func() time.Time
}

func New() *Limiter {
	return &Limiter{last: make(map[string]time.Time), now: time.Now}
}

// Allow reports whether an event for key may fire now, consuming the
// slot when it does.
func (l *Limiter) Allow(key string, every time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if prev, ok := l.last[key]; ok && now.Sub(prev) < every {
		return false
	}
	l.last[key] = now
	return true
}

// Reset forgets the key so the next Allow passes immediately.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	delete(l.last, key)
	l.mu.Unlock()
}
