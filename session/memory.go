package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"labrat/internal/errors"
)

// janitorInterval controls how often expired entries are swept. Expiry
// is also checked on read, so the sweep only bounds memory growth.
const janitorInterval = 5 * time.Minute

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// MemoryStore is the default single-process store. Entries expire
// after the configured TTL; a background janitor reclaims them.
//
// Datasets are held as encoded JSON, same as the Redis backend, so
// every Get decodes a fresh copy and concurrent requests on one
// session never share mutable state.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	stop    chan struct{}
	once    sync.Once
}

// NewMemoryStore creates an in-memory store and starts its janitor.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		stop:    make(chan struct{}),
	}
	go s.janitor()
	return s
}

func (s *MemoryStore) Create(_ context.Context, ds *Dataset) (string, error) {
	raw, err := json.Marshal(ds)
	if err != nil {
		return "", errors.Wrap(err, "encode session dataset")
	}
	id := uuid.NewString()
	s.mu.Lock()
	s.entries[id] = memoryEntry{payload: raw, expiresAt: time.Now().Add(s.ttl)}
	s.mu.Unlock()
	return id, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Dataset, error) {
	s.mu.RLock()
	entry, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, errors.SessionNotFound(id)
	}
	var ds Dataset
	if err := json.Unmarshal(entry.payload, &ds); err != nil {
		return nil, errors.Wrapf(err, "decode session %s", id)
	}
	return &ds, nil
}

func (s *MemoryStore) Save(_ context.Context, id string, ds *Dataset) error {
	raw, err := json.Marshal(ds)
	if err != nil {
		return errors.Wrap(err, "encode session dataset")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok || time.Now().After(entry.expiresAt) {
		return errors.SessionNotFound(id)
	}
	s.entries[id] = memoryEntry{payload: raw, expiresAt: time.Now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
	return nil
}

// Close stops the janitor. Safe to call more than once.
func (s *MemoryStore) Close() error {
	s.once.Do(func() { close(s.stop) })
	return nil
}

func (s *MemoryStore) janitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.mu.Lock()
			for id, entry := range s.entries {
				if now.After(entry.expiresAt) {
					delete(s.entries, id)
				}
			}
			s.mu.Unlock()
		}
	}
}
