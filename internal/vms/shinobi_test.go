package vms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func shinobiTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/apikey1/monitor/group1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"mid":"m1","name":"Front Door","status":"Watching"},
			{"mid":"m2","name":"Garage","mode":"record"}
		]`))
	})
	return httptest.NewServer(mux)
}

func testServerProfile(baseURL string) Server {
	return Server{
		ID:        "srv1",
		CompanyID: "t1",
		Name:      "shinobi box",
		Provider:  ProviderShinobi,
		BaseURL:   baseURL,
		APIKey:    "apikey1",
		GroupKey:  "group1",
	}
}

func TestShinobiAdapter_DiscoverMonitors(t *testing.T) {
	ts := shinobiTestServer(t)
	defer ts.Close()

	adapter := NewShinobiAdapter(ts.Client())
	monitors, err := adapter.DiscoverMonitors(context.Background(), testServerProfile(ts.URL))
	if err != nil {
		t.Fatalf("DiscoverMonitors: %v", err)
	}
	if len(monitors) != 2 {
		t.Fatalf("expected 2 monitors, got %d", len(monitors))
	}
	if monitors[0].ID != "m1" || monitors[0].Name != "Front Door" || monitors[0].Status != "Watching" {
		t.Errorf("unexpected monitor: %+v", monitors[0])
	}
	// Mode is the status fallback when status is absent.
	if monitors[1].Status != "record" {
		t.Errorf("expected mode fallback, got %q", monitors[1].Status)
	}
}

func TestShinobiAdapter_DiscoverMonitors_http_error(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	adapter := NewShinobiAdapter(ts.Client())
	if _, err := adapter.DiscoverMonitors(context.Background(), testServerProfile(ts.URL)); err == nil {
		t.Error("expected error on non-200 status")
	}
}

func TestShinobiAdapter_TestConnection(t *testing.T) {
	ts := shinobiTestServer(t)
	defer ts.Close()

	adapter := NewShinobiAdapter(ts.Client())
	result := adapter.TestConnection(context.Background(), testServerProfile(ts.URL))
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.MonitorCount != 2 {
		t.Errorf("expected monitor count 2, got %d", result.MonitorCount)
	}
}

func TestShinobiAdapter_TestConnection_unreachable_is_result_not_error(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close() // nothing listening anymore

	adapter := NewShinobiAdapter(nil)
	result := adapter.TestConnection(context.Background(), testServerProfile(url))
	if result.Success {
		t.Error("expected probe failure result")
	}
	if result.Message == "" {
		t.Error("expected a human-readable reason")
	}
}

func TestShinobiAdapter_StreamURLs(t *testing.T) {
	adapter := NewShinobiAdapter(nil)
	urls := adapter.StreamURLs(testServerProfile("http://shinobi.local:8080/"), "m1")

	if urls.HLS != "http://shinobi.local:8080/apikey1/hls/group1/m1/s.m3u8" {
		t.Errorf("unexpected hls url: %s", urls.HLS)
	}
	if urls.Embed != "http://shinobi.local:8080/apikey1/embed/group1/m1/fullscreen" {
		t.Errorf("unexpected embed url: %s", urls.Embed)
	}
	if urls.Snapshot != "http://shinobi.local:8080/apikey1/jpeg/group1/m1/s.jpg" {
		t.Errorf("unexpected snapshot url: %s", urls.Snapshot)
	}
}
