package session

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/Adham-AI-111/clinic-system-docker/internal/model"
)

// MemoryStore keeps sessions in process. Sessions are lost on restart and
// are not shared between instances.
type MemoryStore struct {
	// mu makes TakeHandoff a single get-and-delete.
	mu    sync.Mutex
	cache *cache.Cache
}

func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	return &MemoryStore{cache: cache.New(cache.NoExpiration, cleanupInterval)}
}

func (s *MemoryStore) Load(_ context.Context, id string) (*Record, error) {
	v, ok := s.cache.Get(recordKey(id))
	if !ok {
		return nil, ErrNotFound
	}
	rec := v.(Record)
	return &rec, nil
}

func (s *MemoryStore) Save(_ context.Context, id string, rec Record, ttl time.Duration) error {
	s.cache.Set(recordKey(id), rec, ttl)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.cache.Delete(recordKey(id))
	s.mu.Lock()
	s.cache.Delete(handoffKey(id))
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) PutHandoff(_ context.Context, sessionID string, token model.HandoffToken, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Set(handoffKey(sessionID), token, ttl)
	return nil
}

func (s *MemoryStore) TakeHandoff(_ context.Context, sessionID string) (*model.HandoffToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.cache.Get(handoffKey(sessionID))
	if !ok {
		return nil, ErrNotFound
	}
	s.cache.Delete(handoffKey(sessionID))
	token := v.(model.HandoffToken)
	return &token, nil
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}
