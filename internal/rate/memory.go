package rate

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter replica el fixed window en proceso. Para dev y tests; no
// coordina entre instancias.
type MemoryLimiter struct {
	mu     sync.Mutex
	max    int64
	window time.Duration
	hits   map[string]int64

	now func() time.Time
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		max:    int64(max),
		window: window,
		hits:   make(map[string]int64),
		now:    time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := l.now().UTC()
	winStart := now.Truncate(l.window)
	k := key + ":" + winStart.Format(time.RFC3339)

	l.mu.Lock()
	defer l.mu.Unlock()

	// barrido barato de ventanas viejas
	for old := range l.hits {
		if !hasSuffixWindow(old, winStart) {
			delete(l.hits, old)
		}
	}

	l.hits[k]++
	hits := l.hits[k]
	allowed := hits <= l.max
	remaining := l.max - hits
	if remaining < 0 {
		remaining = 0
	}
	res := Result{Allowed: allowed, Remaining: remaining}
	if !allowed {
		res.RetryAfter = winStart.Add(l.window).Sub(now)
	}
	return res, nil
}

func hasSuffixWindow(key string, winStart time.Time) bool {
	suffix := ":" + winStart.Format(time.RFC3339)
	return len(key) >= len(suffix) && key[len(key)-len(suffix):] == suffix
}
