package flowstore

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/saulo-duarte/engmcq-web/internal/quiz"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore keeps flows in process. Entries are stored encoded so callers
// never share maps with the store.
type MemoryStore struct {
	mu    sync.RWMutex
	flows map[string]memoryEntry
	ttl   time.Duration
	now   func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		flows: make(map[string]memoryEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, userID string, kind quiz.Kind) (*quiz.Flow, error) {
	s.mu.RLock()
	e, ok := s.flows[key(userID, kind)]
	s.mu.RUnlock()
	if !ok || (!e.expiresAt.IsZero() && s.now().After(e.expiresAt)) {
		return nil, quiz.ErrFlowNotFound
	}

	var f quiz.Flow
	if err := json.Unmarshal(e.data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *MemoryStore) Save(_ context.Context, f *quiz.Flow) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	e := memoryEntry{data: data}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.flows[key(f.UserID, f.Kind)] = e
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, userID string, kind quiz.Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.flows, key(userID, kind))
	return nil
}

// Sweep drops expired entries.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for k, e := range s.flows {
		if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
			delete(s.flows, k)
			n++
		}
	}
	return n
}

func key(userID string, kind quiz.Kind) string {
	return "engmcq:flow:" + string(kind) + ":" + userID
}
