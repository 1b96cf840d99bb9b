package camera

import (
	"errors"
	"sort"
	"sync"
)

// ErrNotFound is returned by callers when a referenced camera does not
// exist.
var ErrNotFound = errors.New("camera not found")

// Store is the concurrency-safe access contract for the referenced
// camera records this subsystem works with. The platform core is the
// system of record; implementations here hold the subsystem's copy.
type Store interface {
	// Get returns the camera with the given id.
	Get(id ID) (Camera, bool)

	// Put inserts or replaces a camera record.
	Put(cam Camera)

	// List returns all cameras ordered by id.
	List() []Camera

	// FindByVMSLink returns the camera whose stream config links it to
	// the given (server, monitor) pair, if any. Used to enforce linkage
	// uniqueness and to skip already-imported monitors.
	FindByVMSLink(serverID, monitorID string) (Camera, bool)
}

// InMemoryStore is a mutex-guarded in-memory Store.
type InMemoryStore struct {
	mu      sync.RWMutex
	cameras map[ID]Camera
}

// NewInMemoryStore returns a new empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{cameras: make(map[ID]Camera)}
}

// Get implements Store.Get.
func (s *InMemoryStore) Get(id ID) (Camera, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cam, ok := s.cameras[id]
	return cam, ok
}

// Put implements Store.Put.
func (s *InMemoryStore) Put(cam Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cameras[cam.ID] = cam
}

// List implements Store.List.
func (s *InMemoryStore) List() []Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Camera, 0, len(s.cameras))
	for _, cam := range s.cameras {
		out = append(out, cam)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FindByVMSLink implements Store.FindByVMSLink.
func (s *InMemoryStore) FindByVMSLink(serverID, monitorID string) (Camera, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, cam := range s.cameras {
		cfg := cam.StreamConfig
		if cfg == nil || cfg.Type != StreamConfigVMS || cfg.VMS == nil {
			continue
		}
		if cfg.VMS.ServerID == serverID && cfg.VMS.MonitorID == monitorID {
			return cam, true
		}
	}
	return Camera{}, false
}
