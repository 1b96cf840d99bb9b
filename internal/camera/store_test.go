package camera

import "testing"

func vmsCamera(id ID, serverID, monitorID string) Camera {
	return Camera{
		ID: id,
		StreamConfig: &StreamConfig{
			Type: StreamConfigVMS,
			VMS:  &VMSConfig{ServerID: serverID, MonitorID: monitorID, Provider: "shinobi"},
		},
	}
}

func TestInMemoryStore_PutGet(t *testing.T) {
	s := NewInMemoryStore()

	if _, ok := s.Get("c1"); ok {
		t.Error("expected miss on empty store")
	}

	s.Put(Camera{ID: "c1", CompanyID: "t1", Name: "lobby"})
	cam, ok := s.Get("c1")
	if !ok || cam.Name != "lobby" {
		t.Errorf("expected lobby camera, got ok=%v cam=%+v", ok, cam)
	}

	// Put replaces
	s.Put(Camera{ID: "c1", CompanyID: "t1", Name: "entrance"})
	cam, _ = s.Get("c1")
	if cam.Name != "entrance" {
		t.Errorf("expected replacement, got %q", cam.Name)
	}
}

func TestInMemoryStore_List_sorted(t *testing.T) {
	s := NewInMemoryStore()
	s.Put(Camera{ID: "c2"})
	s.Put(Camera{ID: "c1"})
	s.Put(Camera{ID: "c3"})

	list := s.List()
	if len(list) != 3 {
		t.Fatalf("expected 3 cameras, got %d", len(list))
	}
	if list[0].ID != "c1" || list[2].ID != "c3" {
		t.Errorf("expected sorted by id, got %v %v %v", list[0].ID, list[1].ID, list[2].ID)
	}
}

func TestInMemoryStore_FindByVMSLink(t *testing.T) {
	s := NewInMemoryStore()
	s.Put(vmsCamera("c1", "srv1", "m1"))
	s.Put(vmsCamera("c2", "srv1", "m2"))
	s.Put(Camera{ID: "c3", StreamConfig: &StreamConfig{
		Type:       StreamConfigDirectRTSP,
		DirectRTSP: &DirectRTSPConfig{RTSPURL: "rtsp://cam.local/s"},
	}})

	cam, ok := s.FindByVMSLink("srv1", "m2")
	if !ok || cam.ID != "c2" {
		t.Errorf("expected c2, got ok=%v id=%v", ok, cam.ID)
	}

	if _, ok := s.FindByVMSLink("srv1", "m9"); ok {
		t.Error("expected miss for unlinked monitor")
	}
	if _, ok := s.FindByVMSLink("srv2", "m1"); ok {
		t.Error("expected miss for other server")
	}
}
