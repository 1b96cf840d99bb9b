package seed

import (
	"os"
	"path/filepath"
	"testing"

	"camstream/internal/camera"
	"camstream/internal/vms"
)

const seedYAML = `
cameras:
  - id: cam-1
    companyId: t1
    name: Lobby
    streamConfig:
      type: direct-rtsp
      directRtsp:
        rtspUrl: rtsp://cam.local/main
        transport: tcp
  - id: cam-2
    companyId: t1
    name: Yard
    streamConfig:
      type: vms
      vms:
        serverId: srv1
        monitorId: m1
        provider: shinobi
vmsServers:
  - id: srv1
    companyId: t1
    name: shinobi box
    provider: shinobi
    baseUrl: http://shinobi.local:8080
    apiKey: key1
    groupKey: group1
`

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cameras.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cameras := camera.NewInMemoryStore()
	servers := vms.NewInMemoryServerStore()

	if err := Load(writeSeed(t, seedYAML), cameras, servers); err != nil {
		t.Fatalf("Load: %v", err)
	}

	cam, ok := cameras.Get("cam-1")
	if !ok || cam.StreamConfig.Type != camera.StreamConfigDirectRTSP {
		t.Errorf("cam-1 not loaded correctly: ok=%v cam=%+v", ok, cam)
	}
	if cam.StreamConfig.DirectRTSP.RTSPURL != "rtsp://cam.local/main" {
		t.Errorf("unexpected rtsp url: %s", cam.StreamConfig.DirectRTSP.RTSPURL)
	}

	if _, ok := cameras.FindByVMSLink("srv1", "m1"); !ok {
		t.Error("cam-2 vms linkage not loaded")
	}

	srv, ok := servers.Get("srv1")
	if !ok || srv.Provider != vms.ProviderShinobi || srv.GroupKey != "group1" {
		t.Errorf("srv1 not loaded correctly: ok=%v srv=%+v", ok, srv)
	}
}

func TestLoad_missing_file_is_not_an_error(t *testing.T) {
	cameras := camera.NewInMemoryStore()
	servers := vms.NewInMemoryServerStore()

	if err := Load(filepath.Join(t.TempDir(), "absent.yaml"), cameras, servers); err != nil {
		t.Errorf("missing seed file must not fail startup: %v", err)
	}
	if len(cameras.List()) != 0 {
		t.Error("expected empty store")
	}
}

func TestLoad_rejects_invalid_stream_config(t *testing.T) {
	cameras := camera.NewInMemoryStore()
	servers := vms.NewInMemoryServerStore()

	bad := `
cameras:
  - id: cam-1
    streamConfig:
      type: direct-rtsp
`
	if err := Load(writeSeed(t, bad), cameras, servers); err == nil {
		t.Error("expected validation error for malformed stream config")
	}
}

func TestLoad_rejects_missing_camera_id(t *testing.T) {
	cameras := camera.NewInMemoryStore()
	servers := vms.NewInMemoryServerStore()

	bad := `
cameras:
  - name: no id here
`
	if err := Load(writeSeed(t, bad), cameras, servers); err == nil {
		t.Error("expected error for camera without id")
	}
}
