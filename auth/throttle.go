package auth

import (
	"sync"

	"golang.org/x/time/rate"
)

// maxTrackedClients bounds the limiter table; it is reset when full.
const maxTrackedClients = 10000

// Throttle rate-limits login attempts per client key (usually the remote IP).
type Throttle struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

// NewThrottle allows perMinute attempts per client, with bursts of the same size.
func NewThrottle(perMinute int) *Throttle {
	if perMinute < 1 {
		perMinute = 1
	}
	return &Throttle{
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    perMinute,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Allow reports whether key may attempt another login now.
func (t *Throttle) Allow(key string) bool {
	t.mu.Lock()
	l, ok := t.limiters[key]
	if !ok {
		if len(t.limiters) >= maxTrackedClients {
			t.limiters = make(map[string]*rate.Limiter)
		}
		l = rate.NewLimiter(t.limit, t.burst)
		t.limiters[key] = l
	}
	t.mu.Unlock()

	return l.Allow()
}
