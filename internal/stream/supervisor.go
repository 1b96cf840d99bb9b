package stream

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"camstream/internal/camera"
	"camstream/internal/platform/metrics"
)

// streamProc is the supervisor's bookkeeping for one live pipeline.
// At most one exists per camera id.
type streamProc struct {
	cameraID  camera.ID
	handle    ProcessHandle
	outputDir string
	lastUsed  time.Time
}

// SupervisorConfig bounds the supervisor's resource usage.
type SupervisorConfig struct {
	BaseDir      string        // root of the per-camera output tree
	MaxProcesses int           // hard admission cap; LRU eviction beyond it
	IdleTimeout  time.Duration // CleanupIdleStreams reclaims older entries
}

// Supervisor maps camera identity to a running transcode process and
// its output directory. It owns the process table exclusively: ensure,
// evict, sweep, and exit observation all serialize on one mutex.
type Supervisor struct {
	cfg     SupervisorConfig
	runner  Runner
	log     *slog.Logger
	metrics *metrics.Metrics

	mu    sync.Mutex
	procs map[camera.ID]*streamProc

	// now is injectable for tests.
	now func() time.Time
}

// NewSupervisor returns a Supervisor that delegates process creation to
// runner. Metrics may be nil to disable metric recording.
func NewSupervisor(cfg SupervisorConfig, runner Runner, log *slog.Logger, m *metrics.Metrics) *Supervisor {
	if cfg.MaxProcesses <= 0 {
		cfg.MaxProcesses = 4
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 2 * time.Minute
	}
	return &Supervisor{
		cfg:     cfg,
		runner:  runner,
		log:     log,
		metrics: m,
		procs:   make(map[camera.ID]*streamProc),
		now:     time.Now,
	}
}

// EnsureStream guarantees a live pipeline exists for the camera and
// returns its output directory. If one is already running its last-used
// timestamp is bumped; otherwise a new process is started, evicting the
// least-recently-used entry first when the cap is reached. Runner
// failures propagate to the caller.
func (s *Supervisor) EnsureStream(cam camera.Camera) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.procs[cam.ID]; ok {
		if alive(p.handle) {
			p.lastUsed = s.now()
			return p.outputDir, nil
		}
		// Exit observed but callback not yet run; respawn below.
		delete(s.procs, cam.ID)
	}

	if len(s.procs) >= s.cfg.MaxProcesses {
		s.evictOldestLocked()
	}

	outputDir := filepath.Join(s.cfg.BaseDir, filepath.Base(string(cam.ID)))
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create stream directory: %w", err)
	}

	handle, err := s.runner.Start(cam, outputDir)
	if err != nil {
		return "", err
	}

	p := &streamProc{
		cameraID:  cam.ID,
		handle:    handle,
		outputDir: outputDir,
		lastUsed:  s.now(),
	}
	s.procs[cam.ID] = p
	if s.metrics != nil {
		s.metrics.IncProcessesStarted()
	}
	s.log.Info("stream pipeline started", slog.String("camera_id", string(cam.ID)))

	go func() {
		<-handle.Done()
		s.onExit(cam.ID, p)
	}()

	return outputDir, nil
}

// CleanupIdleStreams kills and removes every tracked process whose
// last use is older than the idle timeout, returning how many were
// reclaimed. It is safe to call concurrently with EnsureStream; the
// freshness check runs inside the critical section so an entry touched
// moments ago is never removed.
func (s *Supervisor) CleanupIdleStreams() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	reclaimed := 0
	for id, p := range s.procs {
		if now.Sub(p.lastUsed) <= s.cfg.IdleTimeout {
			continue
		}
		p.handle.Stop()
		delete(s.procs, id)
		reclaimed++
		if s.metrics != nil {
			s.metrics.IncIdleReclaims()
		}
		s.log.Info("idle stream reclaimed", slog.String("camera_id", string(id)))
	}
	return reclaimed
}

// StopStream terminates and forgets the pipeline for one camera, if
// any. Used when a camera's stream config switches variants.
func (s *Supervisor) StopStream(id camera.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.procs[id]; ok {
		p.handle.Stop()
		delete(s.procs, id)
	}
}

// StopAll terminates every tracked pipeline. Called on shutdown.
func (s *Supervisor) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.procs {
		p.handle.Stop()
		delete(s.procs, id)
	}
}

// ActiveProcessCount returns the number of tracked pipelines. Used for
// metrics.
func (s *Supervisor) ActiveProcessCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.procs)
}

// evictOldestLocked removes the entry with the smallest lastUsed.
// Caller must hold s.mu.
func (s *Supervisor) evictOldestLocked() {
	var oldest *streamProc
	for _, p := range s.procs {
		if oldest == nil || p.lastUsed.Before(oldest.lastUsed) {
			oldest = p
		}
	}
	if oldest == nil {
		return
	}
	oldest.handle.Stop()
	delete(s.procs, oldest.cameraID)
	if s.metrics != nil {
		s.metrics.IncEvictions()
	}
	s.log.Info("stream pipeline evicted", slog.String("camera_id", string(oldest.cameraID)))
}

// onExit removes bookkeeping for a process whose exit was observed.
// The entry may already be gone (evicted or reclaimed); that is a
// no-op, not an error. Restart is lazy, on the next EnsureStream.
func (s *Supervisor) onExit(id camera.ID, p *streamProc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.procs[id]; ok && current == p {
		delete(s.procs, id)
		s.log.Debug("stream pipeline exited", slog.String("camera_id", string(id)))
	}
}

// alive reports whether the process behind handle has not yet been
// observed to exit.
func alive(h ProcessHandle) bool {
	select {
	case <-h.Done():
		return false
	default:
		return true
	}
}
