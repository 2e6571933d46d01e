package store

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
)

// Store is the persisted state of one session. Backend keys are prefixed with
// the session namespace; the memory fallback uses bare keys.
type Store struct {
	namespace string
	backend   Backend

	mu       sync.Mutex
	degraded bool
	memory   *MemoryBackend
	deleted  map[string]struct{}
}

// New creates a Store writing through to backend under namespace.
func New(namespace string, backend Backend) *Store {
	return &Store{
		namespace: namespace,
		backend:   backend,
		memory:    NewMemoryBackend(),
		deleted:   make(map[string]struct{}),
	}
}

// Namespace returns the backend key prefix of the store.
func (s *Store) Namespace() string {
	return s.namespace
}

// Degraded reports whether a failed write switched the store to memory.
func (s *Store) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

func (s *Store) backendKey(key string) string {
	return s.namespace + ":" + key
}

// Load decodes the value under key, or returns def when it is missing,
// unreadable or undecodable.
func Load[T any](ctx context.Context, s *Store, key string, def T) T {
	data, err := s.read(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Printf("[Store] %s: load %s failed: %v", s.namespace, key, err)
		}
		return def
	}

	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		log.Printf("[Store] %s: decode %s failed: %v", s.namespace, key, err)
		return def
	}
	return value
}

// Save encodes value under key. Failures are logged and swallowed.
func Save[T any](ctx context.Context, s *Store, key string, value T) {
	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("[Store] %s: encode %s failed: %v", s.namespace, key, err)
		return
	}
	s.write(ctx, key, data)
}

// Delete removes key. Failures are logged and swallowed.
func (s *Store) Delete(ctx context.Context, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.degraded {
		_ = s.memory.Delete(ctx, key)
		s.deleted[key] = struct{}{}
		return
	}

	if err := s.backend.Delete(ctx, s.backendKey(key)); err != nil {
		log.Printf("[Store] %s: delete %s failed, continuing in memory: %v", s.namespace, key, err)
		s.degraded = true
		s.deleted[key] = struct{}{}
	}
}

func (s *Store) read(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	if s.degraded {
		if _, gone := s.deleted[key]; gone {
			s.mu.Unlock()
			return nil, ErrNotFound
		}
		if data, err := s.memory.Get(ctx, key); err == nil {
			s.mu.Unlock()
			return data, nil
		}
	}
	s.mu.Unlock()

	return s.backend.Get(ctx, s.backendKey(key))
}

func (s *Store) write(ctx context.Context, key string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.deleted, key)
	if s.degraded {
		_ = s.memory.Set(ctx, key, data)
		return
	}

	if err := s.backend.Set(ctx, s.backendKey(key), data); err != nil {
		log.Printf("[Store] %s: write %s failed, continuing in memory: %v", s.namespace, key, err)
		s.degraded = true
		_ = s.memory.Set(ctx, key, data)
	}
}
