package vms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"camstream/internal/camera"
)

var (
	// ErrServerNotFound is returned when the referenced VMS server
	// profile does not exist.
	ErrServerNotFound = errors.New("vms server not found")

	// ErrMonitorLinked is returned when another camera is already
	// linked to the requested (server, monitor) pair. The conflict
	// mutates neither camera.
	ErrMonitorLinked = errors.New("monitor already linked to another camera")

	// ErrCameraLinked is returned when connecting a camera that is
	// already linked to a different monitor; it must disconnect first.
	ErrCameraLinked = errors.New("camera already linked to a monitor")

	// ErrCameraNotLinked is returned when disconnecting a camera that
	// has no VMS linkage.
	ErrCameraNotLinked = errors.New("camera is not linked to a monitor")
)

// PipelineStopper lets the service tear down a direct-rtsp pipeline
// when a camera's stream config switches to the vms variant.
// Implemented by the stream supervisor.
type PipelineStopper interface {
	StopStream(id camera.ID)
}

// ImportResult reports the outcome of a bulk monitor import.
type ImportResult struct {
	Created []camera.Camera `json:"created"`
	Skipped []string        `json:"skipped"`
}

// Service implements monitor discovery, bulk import, and the
// unlinked/linked state machine for a camera's VMS linkage.
type Service struct {
	servers   ServerStore
	cameras   camera.Store
	registry  *Registry
	pipelines PipelineStopper
	log       *slog.Logger
}

// NewService returns a Service. pipelines may be nil when no direct
// pipelines can exist (e.g. in tests).
func NewService(servers ServerStore, cameras camera.Store, registry *Registry, pipelines PipelineStopper, log *slog.Logger) *Service {
	return &Service{
		servers:   servers,
		cameras:   cameras,
		registry:  registry,
		pipelines: pipelines,
		log:       log,
	}
}

// TestConnection probes the server's reachability. Connectivity
// failures are part of the returned result; only unknown server or
// provider kinds are errors.
func (s *Service) TestConnection(ctx context.Context, serverID string) (ProbeResult, error) {
	srv, adapter, err := s.resolve(serverID)
	if err != nil {
		return ProbeResult{}, err
	}
	return adapter.TestConnection(ctx, srv), nil
}

// DiscoverMonitors lists the server's remote monitor records. Remote
// failures are errors here: discovery must succeed to proceed.
func (s *Service) DiscoverMonitors(ctx context.Context, serverID string) ([]Monitor, error) {
	srv, adapter, err := s.resolve(serverID)
	if err != nil {
		return nil, err
	}
	return adapter.DiscoverMonitors(ctx, srv)
}

// StreamURLs synthesizes provider playback URLs for a linked camera.
func (s *Service) StreamURLs(cam camera.Camera) (StreamURLs, error) {
	cfg := cam.StreamConfig
	if cfg == nil || cfg.Type != camera.StreamConfigVMS || cfg.VMS == nil {
		return StreamURLs{}, fmt.Errorf("camera %s has no vms stream config", cam.ID)
	}
	srv, adapter, err := s.resolve(cfg.VMS.ServerID)
	if err != nil {
		return StreamURLs{}, err
	}
	return adapter.StreamURLs(srv, cfg.VMS.MonitorID), nil
}

// ImportMonitors bulk-creates local camera records for the server's
// monitors. When monitorIDs is non-empty only those monitors are
// considered. Monitors whose (server, monitor) pair is already linked
// to a camera are skipped and reported, never duplicated.
func (s *Service) ImportMonitors(ctx context.Context, serverID string, monitorIDs []string, defaultLocation string) (ImportResult, error) {
	srv, adapter, err := s.resolve(serverID)
	if err != nil {
		return ImportResult{}, err
	}

	monitors, err := adapter.DiscoverMonitors(ctx, srv)
	if err != nil {
		return ImportResult{}, err
	}

	wanted := make(map[string]bool, len(monitorIDs))
	for _, id := range monitorIDs {
		wanted[id] = true
	}

	result := ImportResult{Created: []camera.Camera{}, Skipped: []string{}}
	for _, m := range monitors {
		if len(wanted) > 0 && !wanted[m.ID] {
			continue
		}
		if _, exists := s.cameras.FindByVMSLink(srv.ID, m.ID); exists {
			result.Skipped = append(result.Skipped, m.ID)
			continue
		}
		cam := camera.Camera{
			ID:        camera.ID(fmt.Sprintf("%s-%s", srv.ID, m.ID)),
			CompanyID: camera.CompanyID(srv.CompanyID),
			Name:      m.Name,
			Location:  defaultLocation,
			StreamConfig: &camera.StreamConfig{
				Type: camera.StreamConfigVMS,
				VMS: &camera.VMSConfig{
					ServerID:  srv.ID,
					MonitorID: m.ID,
					Provider:  string(srv.Provider),
				},
			},
		}
		s.cameras.Put(cam)
		result.Created = append(result.Created, cam)
	}

	s.log.Info("monitors imported",
		slog.String("server_id", srv.ID),
		slog.Int("created", len(result.Created)),
		slog.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}

// Connect links a camera to a (server, monitor) pair: unlinked →
// linked. A camera already linked to a different monitor must
// disconnect first, and a pair linked to another camera is a conflict;
// neither case mutates any camera. Any direct-rtsp pipeline for the
// camera is stopped, since switching variants invalidates it.
func (s *Service) Connect(cameraID camera.ID, serverID, monitorID string) (camera.Camera, error) {
	srv, _, err := s.resolve(serverID)
	if err != nil {
		return camera.Camera{}, err
	}
	if monitorID == "" {
		return camera.Camera{}, fmt.Errorf("monitor id is required")
	}

	cam, ok := s.cameras.Get(cameraID)
	if !ok {
		return camera.Camera{}, camera.ErrNotFound
	}

	if cfg := cam.StreamConfig; cfg != nil && cfg.Type == camera.StreamConfigVMS && cfg.VMS != nil {
		if cfg.VMS.ServerID == serverID && cfg.VMS.MonitorID == monitorID {
			return cam, nil // already linked to this exact pair
		}
		return camera.Camera{}, ErrCameraLinked
	}

	if other, exists := s.cameras.FindByVMSLink(serverID, monitorID); exists && other.ID != cameraID {
		return camera.Camera{}, ErrMonitorLinked
	}

	if s.pipelines != nil {
		s.pipelines.StopStream(cam.ID)
	}

	cam.StreamConfig = &camera.StreamConfig{
		Type: camera.StreamConfigVMS,
		VMS: &camera.VMSConfig{
			ServerID:  srv.ID,
			MonitorID: monitorID,
			Provider:  string(srv.Provider),
		},
	}
	s.cameras.Put(cam)

	s.log.Info("camera linked to monitor",
		slog.String("camera_id", string(cam.ID)),
		slog.String("server_id", serverID),
		slog.String("monitor_id", monitorID),
	)
	return cam, nil
}

// Disconnect clears a camera's VMS linkage: linked → unlinked.
func (s *Service) Disconnect(cameraID camera.ID) (camera.Camera, error) {
	cam, ok := s.cameras.Get(cameraID)
	if !ok {
		return camera.Camera{}, camera.ErrNotFound
	}
	cfg := cam.StreamConfig
	if cfg == nil || cfg.Type != camera.StreamConfigVMS {
		return camera.Camera{}, ErrCameraNotLinked
	}

	cam.StreamConfig = nil
	s.cameras.Put(cam)

	s.log.Info("camera unlinked from monitor", slog.String("camera_id", string(cam.ID)))
	return cam, nil
}

// resolve looks up the server profile and its adapter; unknown servers
// and provider kinds fail closed before any network call.
func (s *Service) resolve(serverID string) (Server, Adapter, error) {
	srv, ok := s.servers.Get(serverID)
	if !ok {
		return Server{}, nil, ErrServerNotFound
	}
	adapter, err := s.registry.Adapter(srv.Provider)
	if err != nil {
		return Server{}, nil, err
	}
	return srv, adapter, nil
}
