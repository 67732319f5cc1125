package reconciler

import (
	"sync"
	"time"
)

// dedupGuard is a process-local test-and-set gate keyed by tx hash. It keeps
// duplicate confirmation events from triggering redundant store round-trips.
// It is a liveness optimization only: correctness is owned by the store's
// conditional writes, so a lost marker never corrupts state.
type dedupGuard struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]time.Time
}

func newDedupGuard(ttl time.Duration) *dedupGuard {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &dedupGuard{
		ttl:     ttl,
		entries: make(map[string]time.Time),
	}
}

// tryAcquire marks txHash as being reconciled. Returns false when another
// in-flight confirmation already holds the marker. Markers are not released
// on failure; they age out via ttl so an abandoned attempt cannot wedge the
// hash forever.
func (g *dedupGuard) tryAcquire(txHash string) bool {
	now := time.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	if set, ok := g.entries[txHash]; ok && now.Sub(set) < g.ttl {
		return false
	}
	g.entries[txHash] = now

	// Opportunistic cleanup of aged-out markers.
	for hash, set := range g.entries {
		if now.Sub(set) >= g.ttl {
			delete(g.entries, hash)
		}
	}
	return true
}

// reset clears the marker for txHash. Called when a new submission replaces
// the hash, never on failure of the current attempt.
func (g *dedupGuard) reset(txHash string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.entries, txHash)
}
