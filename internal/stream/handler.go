package stream

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"camstream/internal/camera"
	"camstream/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
)

const (
	playlistContentType = "application/vnd.apple.mpegurl"
	segmentContentType  = "video/mp2t"

	// tokenCookieName carries the stream token for HLS players that
	// drop query parameters on segment sub-requests. The query
	// parameter always wins when both are present.
	tokenCookieName = "stream_token"
)

// Handler exposes the streaming endpoints using go-chi.
type Handler struct {
	svc     *Service
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewHandler returns a Handler that uses the given Service, Logger, and
// optional Metrics. Metrics may be nil to disable metric recording
// (e.g. in tests).
func NewHandler(svc *Service, log *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{svc: svc, log: log, metrics: m}
}

// RequestStream handles POST /cameras/{camera_id}/stream.
func (h *Handler) RequestStream(w http.ResponseWriter, r *http.Request) {
	cameraID := camera.ID(chi.URLParam(r, "camera_id"))
	if cameraID == "" {
		writeError(w, http.StatusBadRequest, "camera_id_required", "camera id is required")
		return
	}

	info, err := h.svc.RequestStream(cameraID)
	if err != nil {
		switch {
		case errors.Is(err, camera.ErrNotFound):
			writeError(w, http.StatusNotFound, "camera_not_found", "camera not found")
		case errors.Is(err, ErrInvalidStreamConfig):
			h.log.Info("stream request rejected",
				slog.String("camera_id", string(cameraID)),
				slog.String("error", err.Error()))
			writeError(w, http.StatusBadRequest, "invalid_stream_config", err.Error())
		case errors.Is(err, ErrFFmpegMissing):
			h.log.Error("transcoder binary missing", slog.String("camera_id", string(cameraID)))
			writeError(w, http.StatusInternalServerError, "ffmpeg_missing", "transcoder binary is not installed")
		default:
			h.log.Error("stream request failed",
				slog.String("camera_id", string(cameraID)),
				slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "stream_start_failed", "could not start stream")
		}
		return
	}

	h.log.Info("stream requested",
		slog.String("camera_id", string(cameraID)),
		slog.String("type", string(info.Type)))
	writeJSON(w, http.StatusOK, info)
}

// ServeAsset handles GET /cameras/{camera_id}/stream/{file}. The token
// is read from the query string, falling back to the scoped cookie.
func (h *Handler) ServeAsset(w http.ResponseWriter, r *http.Request) {
	cameraID := camera.ID(chi.URLParam(r, "camera_id"))
	filename := chi.URLParam(r, "file")

	token := r.URL.Query().Get("token")
	if token == "" {
		if c, err := r.Cookie(tokenCookieName); err == nil {
			token = c.Value
		}
	}

	if _, err := h.svc.Authorize(cameraID, token); err != nil {
		if h.metrics != nil {
			h.metrics.IncTokenRejections()
		}
		switch {
		case errors.Is(err, ErrTokenExpired):
			writeError(w, http.StatusUnauthorized, "token_expired", "stream token expired, request a new one")
		case errors.Is(err, ErrStreamForbidden):
			writeError(w, http.StatusForbidden, "stream_forbidden", "token does not grant access to this camera")
		default:
			writeError(w, http.StatusUnauthorized, "token_invalid", "stream token invalid")
		}
		return
	}

	path, err := h.svc.AssetPath(cameraID, filename)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_stream_file", "invalid stream file name")
		return
	}

	if !h.svc.WaitForAsset(path) {
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, "stream_not_ready", "stream is starting, retry shortly")
		return
	}

	// Live assets rotate continuously; never cache them.
	w.Header().Set("Cache-Control", "no-store")

	if filepath.Ext(path) == ".m3u8" {
		h.servePlaylist(w, r, cameraID, path, token)
		return
	}
	h.serveSegment(w, path)
}

// servePlaylist reads a snapshot of the playlist, injects the caller's
// token into every segment reference, and refreshes the scoped cookie
// so native players that drop query parameters keep working.
func (h *Handler) servePlaylist(w http.ResponseWriter, r *http.Request, cameraID camera.ID, path, token string) {
	content, err := os.ReadFile(path)
	if err != nil {
		h.log.Error("read playlist failed", slog.String("path", path), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "playlist_read_failed", "could not read playlist")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookieName,
		Value:    token,
		Path:     "/cameras/" + string(cameraID) + "/stream",
		MaxAge:   int(h.svc.TokenTTL().Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	w.Header().Set("Content-Type", playlistContentType)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(InjectToken(string(content), token)))
}

// serveSegment streams a media segment as an opaque blob.
func (h *Handler) serveSegment(w http.ResponseWriter, path string) {
	content, err := os.ReadFile(path)
	if err != nil {
		h.log.Error("read segment failed", slog.String("path", path), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "segment_read_failed", "could not read segment")
		return
	}
	w.Header().Set("Content-Type", segmentContentType)
	w.WriteHeader(http.StatusOK)
	w.Write(content)
}

// errorBody is the JSON error shape shared by all endpoints. Code is a
// stable machine-readable identifier so clients can distinguish e.g.
// "retry with a new token" from "not authorized".
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Code: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
