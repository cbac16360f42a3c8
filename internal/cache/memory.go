package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryReplayGuard is the process-local fallback used when no Redis
// address is configured. Expired keys are evicted lazily on Acquire.
type MemoryReplayGuard struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
	now  func() time.Time
}

func NewMemoryReplayGuard() *MemoryReplayGuard {
	return &MemoryReplayGuard{
		seen: make(map[string]time.Time),
		ttl:  ReplayTTL,
		now:  time.Now,
	}
}

func (g *MemoryReplayGuard) Acquire(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if expiry, ok := g.seen[key]; ok && now.Before(expiry) {
		return false, nil
	}

	g.sweepLocked(now)
	g.seen[key] = now.Add(g.ttl)
	return true, nil
}

// sweepLocked drops expired entries so the map stays bounded by the volume
// of notifications inside one TTL window.
func (g *MemoryReplayGuard) sweepLocked(now time.Time) {
	for key, expiry := range g.seen {
		if !now.Before(expiry) {
			delete(g.seen, key)
		}
	}
}
