package vms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// probeTimeout bounds advisory connectivity checks separately from the
// main request timeout so a hung provider cannot exhaust server
// capacity.
const probeTimeout = 5 * time.Second

// ShinobiAdapter implements Adapter against a Shinobi-style HTTP API:
// monitors are listed under /{apiKey}/monitor/{groupKey} and playback
// URLs are synthesized from the same key pair.
type ShinobiAdapter struct {
	client *http.Client
}

// NewShinobiAdapter returns an adapter with a bounded-timeout HTTP
// client. A nil client gets the default probe timeout.
func NewShinobiAdapter(client *http.Client) *ShinobiAdapter {
	if client == nil {
		client = &http.Client{Timeout: probeTimeout}
	}
	return &ShinobiAdapter{client: client}
}

// shinobiMonitor is the provider's monitor payload shape.
type shinobiMonitor struct {
	MonitorID string `json:"mid"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	Mode      string `json:"mode"`
}

// TestConnection implements Adapter.TestConnection. Failures are
// reported as a structured result, never thrown.
func (a *ShinobiAdapter) TestConnection(ctx context.Context, srv Server) ProbeResult {
	monitors, err := a.DiscoverMonitors(ctx, srv)
	if err != nil {
		return ProbeResult{Success: false, Message: err.Error()}
	}
	return ProbeResult{
		Success:      true,
		Message:      "connected",
		MonitorCount: len(monitors),
	}
}

// DiscoverMonitors implements Adapter.DiscoverMonitors.
func (a *ShinobiAdapter) DiscoverMonitors(ctx context.Context, srv Server) ([]Monitor, error) {
	endpoint := fmt.Sprintf("%s/%s/monitor/%s", strings.TrimRight(srv.BaseURL, "/"), srv.APIKey, srv.GroupKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build monitor request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vms server unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vms server returned status %d", resp.StatusCode)
	}

	var raw []shinobiMonitor
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode monitor list: %w", err)
	}

	monitors := make([]Monitor, 0, len(raw))
	for _, m := range raw {
		status := m.Status
		if status == "" {
			status = m.Mode
		}
		monitors = append(monitors, Monitor{ID: m.MonitorID, Name: m.Name, Status: status})
	}
	return monitors, nil
}

// StreamURLs implements Adapter.StreamURLs.
func (a *ShinobiAdapter) StreamURLs(srv Server, monitorID string) StreamURLs {
	base := strings.TrimRight(srv.BaseURL, "/")
	return StreamURLs{
		HLS:      fmt.Sprintf("%s/%s/hls/%s/%s/s.m3u8", base, srv.APIKey, srv.GroupKey, monitorID),
		Embed:    fmt.Sprintf("%s/%s/embed/%s/%s/fullscreen", base, srv.APIKey, srv.GroupKey, monitorID),
		Snapshot: fmt.Sprintf("%s/%s/jpeg/%s/%s/s.jpg", base, srv.APIKey, srv.GroupKey, monitorID),
	}
}
