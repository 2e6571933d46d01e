package store

import (
	"sync"
	"time"
)

// CleanupInterval is how often idle sessions are evicted from a Registry.
const CleanupInterval = time.Minute

// Registry hands out one Store per session id, so a store that degraded to
// memory keeps its state across requests until the session goes idle.
type Registry struct {
	backend Backend
	idleTTL time.Duration
	now     func() time.Time

	mu     sync.Mutex
	stores map[string]*registryEntry

	stopCleanup chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

type registryEntry struct {
	store    *Store
	lastSeen time.Time
}

// NewRegistry creates a Registry and starts its idle janitor.
func NewRegistry(backend Backend, idleTTL time.Duration) *Registry {
	r := &Registry{
		backend:     backend,
		idleTTL:     idleTTL,
		now:         time.Now,
		stores:      make(map[string]*registryEntry),
		stopCleanup: make(chan struct{}),
	}

	r.wg.Add(1)
	go r.cleanupLoop()

	return r
}

// Open returns the Store of sessionID, creating it on first use.
func (r *Registry) Open(sessionID string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.stores[sessionID]
	if !ok {
		entry = &registryEntry{store: New("carcino:session:"+sessionID, r.backend)}
		r.stores[sessionID] = entry
	}
	entry.lastSeen = r.now()
	return entry.store
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

// Close stops the janitor.
func (r *Registry) Close() {
	r.stopOnce.Do(func() { close(r.stopCleanup) })
	r.wg.Wait()
}

func (r *Registry) cleanupLoop() {
	defer r.wg.Done()

	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.evictIdle()
		case <-r.stopCleanup:
			return
		}
	}
}

func (r *Registry) evictIdle() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.idleTTL)
	evicted := 0
	for id, entry := range r.stores {
		if entry.lastSeen.Before(cutoff) {
			delete(r.stores, id)
			evicted++
		}
	}
	return evicted
}
