package storage

import (
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/edwago/edwa"
)

// MemoryStore keeps blobs in process memory. Suitable for tests and
// single-process applications; state does not survive a restart.
type MemoryStore struct {
	mu    sync.Mutex
	blobs map[string]map[string][]byte // scope -> id -> data
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string]map[string][]byte)}
}

// Put stores a copy of data under scope and returns a fresh id.
func (s *MemoryStore) Put(scope string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := newID()
	m, ok := s.blobs[scope]
	if !ok {
		m = make(map[string][]byte)
		s.blobs[scope] = m
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	m[id] = buf
	return id, nil
}

// Get returns the blob stored under scope and id.
func (s *MemoryStore) Get(scope, id string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.blobs[scope][id]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, scope, id)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return buf, nil
}

// Len returns the total number of stored blobs across all scopes.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, m := range s.blobs {
		n += len(m)
	}
	return n
}

// newID returns a 32-character hex id, URL-safe and dot-free.
func newID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

var _ edwa.Store = (*MemoryStore)(nil)
