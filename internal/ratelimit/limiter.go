package ratelimit

import (
	"sync"
	"time"
)

// Fixed-window counter keyed by caller IP. One window is shared by every
// route; the site is a single artist's portfolio, not a multi-tenant API.

type Config struct {
	Window time.Duration
	Max    int
}

type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   int64
	ResetIn   int64
}

type counter struct {
	windowStart int64
	count       int
}

type Limiter struct {
	cfg     Config
	windowS int64

	mu      sync.Mutex
	entries map[string]counter
}

func New(cfg Config) *Limiter {
	if cfg.Window <= 0 {
		cfg.Window = 15 * time.Minute
	}
	if cfg.Max <= 0 {
		cfg.Max = 100
	}
	return &Limiter{
		cfg:     cfg,
		windowS: int64(cfg.Window.Seconds()),
		entries: make(map[string]counter, 1024),
	}
}

func (l *Limiter) Take(now time.Time, bucket string) Result {
	unixNow := now.Unix()
	windowStart := unixNow / l.windowS * l.windowS
	resetAt := windowStart + l.windowS

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[bucket]
	if !ok || entry.windowStart != windowStart {
		entry = counter{windowStart: windowStart}
	}

	allowed := entry.count < l.cfg.Max
	if allowed {
		entry.count++
	}

	remaining := l.cfg.Max - entry.count
	if remaining < 0 {
		remaining = 0
	}
	l.entries[bucket] = entry

	if len(l.entries) > 100000 {
		l.cleanup(windowStart - l.windowS*2)
	}

	resetIn := resetAt - unixNow
	if resetIn < 0 {
		resetIn = 0
	}
	return Result{
		Allowed:   allowed,
		Limit:     l.cfg.Max,
		Remaining: remaining,
		ResetAt:   resetAt,
		ResetIn:   resetIn,
	}
}

func (l *Limiter) cleanup(olderThanWindowStart int64) {
	for k, v := range l.entries {
		if v.windowStart <= olderThanWindowStart {
			delete(l.entries, k)
		}
	}
}
