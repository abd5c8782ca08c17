package ratelimit

import (
	"sync"
	"time"
)

type bucket struct {
	window time.Time
	span   time.Duration
	count  int
}

// Memory is an in-memory sliding-window Limiter. Counters are kept per
// (class, key) pair; increment-and-compare happens under one mutex, which is
// sufficient for a single instance. Distributed deployments would need a
// shared store behind the same interface.
type Memory struct {
	mu      sync.Mutex
	limits  map[Class]Limit
	buckets map[string]bucket
	nowF    func() time.Time
}

// NewMemory returns a Memory limiter with the given per-class limits.
// Classes without a configured limit are always allowed.
func NewMemory(limits map[Class]Limit) *Memory {
	l := make(map[Class]Limit, len(limits))
	for c, lim := range limits {
		l[c] = lim
	}
	return &Memory{
		limits:  l,
		buckets: make(map[string]bucket),
		nowF:    time.Now,
	}
}

// Check counts one operation for (class, key) and reports whether it is
// within the class ceiling. The Nth+1 operation inside a window is rejected
// with the time remaining until the window resets.
func (m *Memory) Check(key string, class Class) Decision {
	lim, ok := m.limits[class]
	if !ok || lim.Max <= 0 || lim.Window <= 0 {
		return Decision{Allowed: true}
	}
	now := m.nowF()
	win := now.Truncate(lim.Window)
	k := string(class) + "|" + key

	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.buckets[k]
	if !ok || b.window.Before(win) {
		m.buckets[k] = bucket{window: win, span: lim.Window, count: 1}
		return Decision{Allowed: true}
	}
	if b.count >= lim.Max {
		return Decision{Allowed: false, RetryAfter: win.Add(lim.Window).Sub(now)}
	}
	b.count++
	m.buckets[k] = b
	return Decision{Allowed: true}
}

// Prune removes buckets whose window has passed. Safe to run on a timer;
// a pruned bucket simply restarts counting on next Check.
func (m *Memory) Prune(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, b := range m.buckets {
		if b.window.Add(b.span).Before(now) {
			delete(m.buckets, k)
		}
	}
}
