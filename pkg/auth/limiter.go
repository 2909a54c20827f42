package auth

import (
	"sync"

	"golang.org/x/time/rate"
)

const (
	defaultRPS   = 20
	defaultBurst = 40
)

// limiterPool hands out one token bucket per client key. Buckets are
// created lazily on first sight of a key and never expire; the set of
// distinct client IPs is expected to stay small for this service.
type limiterPool struct {
	cfg SecConfig

	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

// Allow reports whether the client identified by key may proceed.
func (p *limiterPool) Allow(key string) bool {
	p.mu.Lock()
	b, ok := p.buckets[key]
	if !ok {
		b = rate.NewLimiter(rate.Limit(p.rps()), p.burst())
		if p.buckets == nil {
			p.buckets = make(map[string]*rate.Limiter)
		}
		p.buckets[key] = b
	}
	p.mu.Unlock()
	return b.Allow()
}

func (p *limiterPool) rps() float64 {
	if p.cfg.RPS > 0 {
		return p.cfg.RPS
	}
	return defaultRPS
}

func (p *limiterPool) burst() int {
	if p.cfg.Burst > 0 {
		return p.cfg.Burst
	}
	return defaultBurst
}
