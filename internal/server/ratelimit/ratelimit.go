// Package ratelimit limits requests per client and endpoint with token buckets.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// staleAfter is how long an idle bucket survives cleanup.
const staleAfter = time.Hour

// bucket is one token bucket plus the last time it was used.
type bucket struct {
	lim        *rate.Limiter
	mu         sync.Mutex
	lastAccess time.Time
}

func newBucket(capacity int, refillRate float64) *bucket {
	return &bucket{
		lim:        rate.NewLimiter(rate.Limit(refillRate), capacity),
		lastAccess: time.Now(),
	}
}

// take consumes one token if available and reports the resulting state.
func (b *bucket) take(now time.Time) (allowed bool, remaining int, resetTime time.Time) {
	b.mu.Lock()
	b.lastAccess = now
	b.mu.Unlock()

	allowed = b.lim.AllowN(now, 1)
	tokens := b.lim.TokensAt(now)

	resetTime = now
	if missing := float64(b.lim.Burst()) - tokens; missing > 0 {
		resetTime = now.Add(b.refillTime(missing))
	}
	return allowed, max(int(tokens), 0), resetTime
}

// refillTime is how long the bucket needs to regain n tokens.
func (b *bucket) refillTime(n float64) time.Duration {
	return time.Duration(n / float64(b.lim.Limit()) * float64(time.Second))
}

func (b *bucket) idleSince(cutoff time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastAccess.Before(cutoff)
}

// Info describes the limit state after a request.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// Limiter tracks one bucket per client, endpoint and method.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	config  *Config
	stop    chan struct{}
	once    sync.Once
}

// NewLimiter creates a limiter. A nil config allows 1000 requests per minute per endpoint.
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = &Config{
			Enabled:         true,
			DefaultLimit:    1000,
			DefaultWindow:   time.Minute,
			CleanupInterval: 5 * time.Minute,
		}
	}

	l := &Limiter{
		buckets: make(map[string]*bucket),
		config:  config,
		stop:    make(chan struct{}),
	}
	if config.Enabled && config.CleanupInterval > 0 {
		go l.cleanupLoop(config.CleanupInterval)
	}
	return l
}

// Allow consumes a token for the client on the endpoint. The client id is also the
// address checked against the whitelist and blacklist.
func (l *Limiter) Allow(clientID string, endpoint string, method string) (bool, Info) {
	return l.allow(clientID, clientID, endpoint, method)
}

// allow consumes a token from the bucket of key; addr is checked against the lists.
func (l *Limiter) allow(key, addr, endpoint, method string) (bool, Info) {
	if !l.config.Enabled || l.config.Whitelist[addr] {
		return true, Info{Allowed: true}
	}
	if l.config.Blacklist[addr] {
		return false, Info{RetryAfter: l.config.DefaultWindow}
	}

	ec := MatchEndpoint(endpoint, method, l.config.EndpointConfigs)
	if ec == nil {
		ec = &EndpointConfig{
			Limit:  l.config.DefaultLimit,
			Window: l.config.DefaultWindow,
			Burst:  l.config.DefaultLimit,
		}
	}
	if ec.Limit <= 0 || ec.Window <= 0 {
		return true, Info{Allowed: true}
	}

	b := l.bucketFor(key+":"+endpoint+":"+method, ec)
	now := time.Now()
	allowed, remaining, resetTime := b.take(now)

	info := Info{
		Allowed:   allowed,
		Limit:     ec.Limit,
		Remaining: remaining,
		ResetTime: resetTime,
	}
	if !allowed {
		// Time until one token is back, not until the bucket is full.
		info.RetryAfter = b.refillTime(1 - b.lim.TokensAt(now))
	}
	return allowed, info
}

func (l *Limiter) bucketFor(key string, ec *EndpointConfig) *bucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	if b, ok := l.buckets[key]; ok {
		return b
	}
	capacity := ec.Burst
	if capacity <= 0 {
		capacity = ec.Limit
	}
	b := newBucket(capacity, float64(ec.Limit)/ec.Window.Seconds())
	l.buckets[key] = b
	return b
}

func (l *Limiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.cleanup(time.Now().Add(-staleAfter))
		case <-l.stop:
			return
		}
	}
}

// cleanup drops buckets idle since before cutoff.
func (l *Limiter) cleanup(cutoff time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, b := range l.buckets {
		if b.idleSince(cutoff) {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of live buckets.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Stop ends the cleanup goroutine. Safe to call more than once.
func (l *Limiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}
