package vms

import (
	"sync"
)

// ServerStore is the access contract for VMS server connection
// profiles. Profiles are owned by the platform core; this subsystem
// holds a referenced copy seeded from configuration.
type ServerStore interface {
	Get(id string) (Server, bool)
	Put(srv Server)
	List() []Server
}

// InMemoryServerStore is a mutex-guarded in-memory ServerStore.
type InMemoryServerStore struct {
	mu      sync.RWMutex
	servers map[string]Server
}

// NewInMemoryServerStore returns a new empty store.
func NewInMemoryServerStore() *InMemoryServerStore {
	return &InMemoryServerStore{servers: make(map[string]Server)}
}

// Get implements ServerStore.Get.
func (s *InMemoryServerStore) Get(id string) (Server, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	srv, ok := s.servers[id]
	return srv, ok
}

// Put implements ServerStore.Put.
func (s *InMemoryServerStore) Put(srv Server) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.servers[srv.ID] = srv
}

// List implements ServerStore.List.
func (s *InMemoryServerStore) List() []Server {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Server, 0, len(s.servers))
	for _, srv := range s.servers {
		out = append(out, srv)
	}
	return out
}
