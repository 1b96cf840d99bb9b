package vms

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"camstream/internal/camera"

	"github.com/go-chi/chi/v5"
)

// Handler exposes the VMS operations using go-chi.
type Handler struct {
	svc *Service
	log *slog.Logger
}

// NewHandler returns a Handler that uses the given Service and Logger.
func NewHandler(svc *Service, log *slog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// TestConnection handles POST /vms/servers/{server_id}/test. The probe
// is advisory: an unreachable provider is a 200 with success=false.
func (h *Handler) TestConnection(w http.ResponseWriter, r *http.Request) {
	serverID := chi.URLParam(r, "server_id")

	result, err := h.svc.TestConnection(r.Context(), serverID)
	if err != nil {
		h.writeServiceError(w, serverID, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// DiscoverMonitors handles GET /vms/servers/{server_id}/monitors.
func (h *Handler) DiscoverMonitors(w http.ResponseWriter, r *http.Request) {
	serverID := chi.URLParam(r, "server_id")

	monitors, err := h.svc.DiscoverMonitors(r.Context(), serverID)
	if err != nil {
		h.writeServiceError(w, serverID, err)
		return
	}
	writeJSON(w, http.StatusOK, monitors)
}

// importRequest is the body for POST /vms/servers/{server_id}/import.
type importRequest struct {
	MonitorIDs      []string `json:"monitorIds,omitempty"`
	DefaultLocation string   `json:"defaultLocation,omitempty"`
}

// ImportMonitors handles POST /vms/servers/{server_id}/import.
func (h *Handler) ImportMonitors(w http.ResponseWriter, r *http.Request) {
	serverID := chi.URLParam(r, "server_id")

	var req importRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_body", "invalid import request body")
			return
		}
	}

	result, err := h.svc.ImportMonitors(r.Context(), serverID, req.MonitorIDs, req.DefaultLocation)
	if err != nil {
		h.writeServiceError(w, serverID, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// connectRequest is the body for POST /cameras/{camera_id}/vms/connect.
type connectRequest struct {
	ServerID  string `json:"serverId"`
	MonitorID string `json:"monitorId"`
}

// Connect handles POST /cameras/{camera_id}/vms/connect.
func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	cameraID := camera.ID(chi.URLParam(r, "camera_id"))

	var req connectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid connect request body")
		return
	}
	if req.ServerID == "" || req.MonitorID == "" {
		writeError(w, http.StatusBadRequest, "missing_fields", "serverId and monitorId are required")
		return
	}

	cam, err := h.svc.Connect(cameraID, req.ServerID, req.MonitorID)
	if err != nil {
		switch {
		case errors.Is(err, ErrMonitorLinked):
			writeError(w, http.StatusConflict, "monitor_linked", "monitor is already linked to another camera")
		case errors.Is(err, ErrCameraLinked):
			writeError(w, http.StatusConflict, "camera_linked", "camera is already linked; disconnect first")
		default:
			h.writeServiceError(w, req.ServerID, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, cam)
}

// Disconnect handles POST /cameras/{camera_id}/vms/disconnect.
func (h *Handler) Disconnect(w http.ResponseWriter, r *http.Request) {
	cameraID := camera.ID(chi.URLParam(r, "camera_id"))

	cam, err := h.svc.Disconnect(cameraID)
	if err != nil {
		switch {
		case errors.Is(err, camera.ErrNotFound):
			writeError(w, http.StatusNotFound, "camera_not_found", "camera not found")
		case errors.Is(err, ErrCameraNotLinked):
			writeError(w, http.StatusConflict, "camera_not_linked", "camera is not linked to a monitor")
		default:
			h.log.Error("disconnect failed",
				slog.String("camera_id", string(cameraID)),
				slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "disconnect_failed", "could not disconnect camera")
		}
		return
	}
	writeJSON(w, http.StatusOK, cam)
}

// writeServiceError maps shared service failures to responses.
func (h *Handler) writeServiceError(w http.ResponseWriter, serverID string, err error) {
	switch {
	case errors.Is(err, ErrServerNotFound):
		writeError(w, http.StatusNotFound, "server_not_found", "vms server not found")
	case errors.Is(err, camera.ErrNotFound):
		writeError(w, http.StatusNotFound, "camera_not_found", "camera not found")
	case errors.Is(err, ErrUnsupportedProvider):
		writeError(w, http.StatusBadRequest, "unsupported_provider", "vms provider is not supported")
	default:
		h.log.Error("vms operation failed",
			slog.String("server_id", serverID),
			slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, "vms_unreachable", err.Error())
	}
}

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
