package stream

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"
	"time"

	"camstream/internal/camera"
)

// ErrFFmpegMissing is returned when the transcoder binary cannot be
// found on the host. It is a configuration error, never retried and
// never silently degraded.
var ErrFFmpegMissing = errors.New("ffmpeg binary not installed")

const (
	// Fixed HLS segmenting policy: short segments, rolling window,
	// old segments deleted, playlist never marked ended while live.
	defaultSegmentSeconds = 2
	defaultWindowSize     = 6

	// PlaylistFilename is the playlist each pipeline writes into its
	// output directory.
	PlaylistFilename = "index.m3u8"

	stopGracePeriod = 5 * time.Second
)

// ProcessHandle is the supervisor's view of a running transcode
// process. Done is closed when the process exit has been observed;
// Stop requests termination (SIGTERM, then SIGKILL after a grace
// period) and returns without waiting.
type ProcessHandle interface {
	Done() <-chan struct{}
	Stop()
}

// Runner starts one external transcode process per camera. The returned
// handle owns the process lifetime.
type Runner interface {
	Start(cam camera.Camera, outputDir string) (ProcessHandle, error)
}

// RunnerConfig selects between the zero-copy passthrough path and the
// H.264 transcode path. These are static deployment choices, not
// per-request options.
type RunnerConfig struct {
	BinPath        string // ffmpeg binary name or absolute path
	Transcode      bool   // false: -c copy; true: libx264 zerolatency
	Preset         string // libx264 preset when transcoding
	SegmentSeconds int
	WindowSize     int
}

// FFmpegRunner implements Runner using a local ffmpeg binary.
type FFmpegRunner struct {
	cfg RunnerConfig
	log *slog.Logger
}

// NewFFmpegRunner returns a Runner with the given config. Zero values
// fall back to the fixed segmenting policy and the "veryfast" preset.
func NewFFmpegRunner(cfg RunnerConfig, log *slog.Logger) *FFmpegRunner {
	if cfg.BinPath == "" {
		cfg.BinPath = "ffmpeg"
	}
	if cfg.Preset == "" {
		cfg.Preset = "veryfast"
	}
	if cfg.SegmentSeconds <= 0 {
		cfg.SegmentSeconds = defaultSegmentSeconds
	}
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = defaultWindowSize
	}
	return &FFmpegRunner{cfg: cfg, log: log}
}

// Start implements Runner.Start. The camera must carry a direct-rtsp
// stream config; the playlist and rolling segments are written under
// outputDir.
func (r *FFmpegRunner) Start(cam camera.Camera, outputDir string) (ProcessHandle, error) {
	cfg := cam.StreamConfig
	if cfg == nil || cfg.Type != camera.StreamConfigDirectRTSP || cfg.DirectRTSP == nil {
		return nil, fmt.Errorf("camera %s has no direct-rtsp stream config", cam.ID)
	}

	if _, err := exec.LookPath(r.cfg.BinPath); err != nil {
		return nil, ErrFFmpegMissing
	}

	args := r.buildArgs(cfg.DirectRTSP, outputDir)

	cmd := exec.Command(r.cfg.BinPath, args...)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	r.log.Debug("starting transcoder",
		slog.String("camera_id", string(cam.ID)),
		slog.String("source", RedactRTSPURL(cfg.DirectRTSP.RTSPURL)),
		slog.String("output_dir", outputDir),
	)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start transcoder: %w", err)
	}

	proc := &ffmpegProcess{cmd: cmd, done: make(chan struct{})}

	go func() {
		sc := bufio.NewScanner(stderr)
		for sc.Scan() {
			r.log.Debug("transcoder output",
				slog.String("camera_id", string(cam.ID)),
				slog.String("line", sc.Text()),
			)
		}
	}()

	go func() {
		err := cmd.Wait()
		if err != nil {
			r.log.Debug("transcoder exited",
				slog.String("camera_id", string(cam.ID)),
				slog.String("error", err.Error()),
			)
		}
		close(proc.done)
	}()

	return proc, nil
}

// buildArgs assembles the ffmpeg argument list for a direct-rtsp
// source writing HLS into outputDir.
func (r *FFmpegRunner) buildArgs(src *camera.DirectRTSPConfig, outputDir string) []string {
	transport := src.Transport
	if transport == "" {
		transport = "tcp"
	}

	args := []string{
		"-hide_banner",
		"-loglevel", "warning",
		"-rtsp_transport", transport,
		"-i", src.RTSPURL,
	}

	if r.cfg.Transcode {
		args = append(args,
			"-c:v", "libx264",
			"-preset", r.cfg.Preset,
			"-tune", "zerolatency",
			"-pix_fmt", "yuv420p",
			"-c:a", "aac",
		)
	} else {
		args = append(args, "-c", "copy")
	}

	args = append(args,
		"-f", "hls",
		"-hls_time", strconv.Itoa(r.cfg.SegmentSeconds),
		"-hls_list_size", strconv.Itoa(r.cfg.WindowSize),
		"-hls_flags", "delete_segments+omit_endlist",
		filepath.Join(outputDir, PlaylistFilename),
	)
	return args
}

// ffmpegProcess owns a spawned ffmpeg command.
type ffmpegProcess struct {
	cmd      *exec.Cmd
	done     chan struct{}
	stopOnce sync.Once
}

func (p *ffmpegProcess) Done() <-chan struct{} { return p.done }

// Stop sends SIGTERM and escalates to SIGKILL if the process has not
// exited within the grace period.
func (p *ffmpegProcess) Stop() {
	p.stopOnce.Do(func() {
		if p.cmd.Process == nil {
			return
		}
		p.cmd.Process.Signal(syscall.SIGTERM)
		go func() {
			select {
			case <-p.done:
			case <-time.After(stopGracePeriod):
				p.cmd.Process.Kill()
			}
		}()
	})
}

// RedactRTSPURL strips user/password components from an RTSP URL so it
// can be logged or reported without leaking credentials. Unparseable
// input is replaced entirely.
func RedactRTSPURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "(unparseable url)"
	}
	if u.User != nil {
		u.User = url.User("xxxxx")
	}
	return u.String()
}
