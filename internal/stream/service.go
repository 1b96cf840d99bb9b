package stream

import (
	"errors"
	"fmt"
	"os"
	"time"

	"camstream/internal/camera"
	"camstream/internal/vms"
)

var (
	// ErrStreamForbidden is returned when a verified token does not
	// grant access to the requested camera. Distinct from the 401-class
	// token errors: the token is authentic, the request is not
	// authorized.
	ErrStreamForbidden = errors.New("token does not grant access to this camera")

	// ErrInvalidStreamConfig is returned for a camera whose stream
	// config is missing or malformed. Rejected before any process or
	// network call.
	ErrInvalidStreamConfig = errors.New("invalid stream config")
)

// StreamInfo is what a viewer needs to start playback. Exactly one of
// the direct fields or VMS is populated, mirroring the camera's stream
// config variant.
type StreamInfo struct {
	Type        camera.StreamConfigType `json:"type"`
	PlaylistURL string                  `json:"playlistUrl,omitempty"`
	Token       string                  `json:"token,omitempty"`
	ExpiresIn   int                     `json:"expiresInSec,omitempty"`
	VMS         *vms.StreamURLs         `json:"vms,omitempty"`
}

// ServiceConfig holds the asset-serving knobs. Poll values bound the
// wait for a playlist the transcoder has not written yet.
type ServiceConfig struct {
	BaseDir      string
	PollAttempts int
	PollInterval time.Duration
}

// Service decides per camera whether the supervisor or a VMS adapter
// produces the stream, and mediates token issuance and asset
// resolution for the HTTP boundary.
type Service struct {
	cfg        ServiceConfig
	cameras    camera.Store
	supervisor *Supervisor
	tokens     *TokenIssuer
	vms        *vms.Service
}

// NewService wires the streaming core together. vmsSvc may be nil when
// no VMS-backed cameras exist.
func NewService(cfg ServiceConfig, cameras camera.Store, supervisor *Supervisor, tokens *TokenIssuer, vmsSvc *vms.Service) *Service {
	if cfg.PollAttempts <= 0 {
		cfg.PollAttempts = 10
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 200 * time.Millisecond
	}
	return &Service{
		cfg:        cfg,
		cameras:    cameras,
		supervisor: supervisor,
		tokens:     tokens,
		vms:        vmsSvc,
	}
}

// RequestStream prepares playback for a camera: for direct-rtsp it
// ensures a pipeline is running and issues a scoped token; for vms it
// synthesizes provider URLs.
func (s *Service) RequestStream(id camera.ID) (StreamInfo, error) {
	cam, ok := s.cameras.Get(id)
	if !ok {
		return StreamInfo{}, camera.ErrNotFound
	}
	cfg := cam.StreamConfig
	if cfg == nil {
		return StreamInfo{}, fmt.Errorf("%w: camera has no stream config", ErrInvalidStreamConfig)
	}
	if err := cfg.Validate(); err != nil {
		return StreamInfo{}, fmt.Errorf("%w: %v", ErrInvalidStreamConfig, err)
	}

	switch cfg.Type {
	case camera.StreamConfigDirectRTSP:
		if _, err := s.supervisor.EnsureStream(cam); err != nil {
			return StreamInfo{}, err
		}
		token := s.tokens.Issue(cam.ID, cam.CompanyID)
		return StreamInfo{
			Type:        cfg.Type,
			PlaylistURL: fmt.Sprintf("/cameras/%s/stream/%s?token=%s", cam.ID, PlaylistFilename, token),
			Token:       token,
			ExpiresIn:   int(s.tokens.TTL().Seconds()),
		}, nil
	case camera.StreamConfigVMS:
		if s.vms == nil {
			return StreamInfo{}, fmt.Errorf("%w: no vms service configured", ErrInvalidStreamConfig)
		}
		urls, err := s.vms.StreamURLs(cam)
		if err != nil {
			return StreamInfo{}, err
		}
		return StreamInfo{Type: cfg.Type, VMS: &urls}, nil
	default:
		return StreamInfo{}, fmt.Errorf("%w: unknown type %q", ErrInvalidStreamConfig, cfg.Type)
	}
}

// Authorize verifies the token and checks it was minted for the
// requested camera. Verification failures surface as ErrTokenInvalid /
// ErrTokenExpired; a camera mismatch is ErrStreamForbidden.
func (s *Service) Authorize(id camera.ID, token string) (TokenClaims, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return TokenClaims{}, err
	}
	if claims.CameraID != string(id) {
		return TokenClaims{}, ErrStreamForbidden
	}
	return claims, nil
}

// AssetPath resolves a validated filename to an on-disk path for the
// camera's output directory.
func (s *Service) AssetPath(id camera.ID, filename string) (string, error) {
	return ResolveAssetPath(s.cfg.BaseDir, string(id), filename)
}

// WaitForAsset polls for the file with a short bounded retry, covering
// the transcoder's first-segment latency without blocking
// indefinitely. Returns false if the file never appears.
func (s *Service) WaitForAsset(path string) bool {
	for attempt := 0; attempt < s.cfg.PollAttempts; attempt++ {
		if _, err := os.Stat(path); err == nil {
			return true
		}
		time.Sleep(s.cfg.PollInterval)
	}
	return false
}

// TokenTTL returns the configured token lifetime, for cookie expiry.
func (s *Service) TokenTTL() time.Duration { return s.tokens.TTL() }

// CleanupIdleStreams forwards the periodic reclamation sweep.
func (s *Service) CleanupIdleStreams() int { return s.supervisor.CleanupIdleStreams() }
