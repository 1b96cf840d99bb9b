package camera

import "testing"

func TestStreamConfig_Validate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     StreamConfig
		wantErr bool
	}{
		{
			name: "direct rtsp ok",
			cfg: StreamConfig{
				Type:       StreamConfigDirectRTSP,
				DirectRTSP: &DirectRTSPConfig{RTSPURL: "rtsp://cam.local/stream"},
			},
		},
		{
			name: "direct rtsp with udp transport",
			cfg: StreamConfig{
				Type:       StreamConfigDirectRTSP,
				DirectRTSP: &DirectRTSPConfig{RTSPURL: "rtsp://cam.local/stream", Transport: "udp"},
			},
		},
		{
			name:    "direct rtsp missing variant",
			cfg:     StreamConfig{Type: StreamConfigDirectRTSP},
			wantErr: true,
		},
		{
			name: "direct rtsp missing url",
			cfg: StreamConfig{
				Type:       StreamConfigDirectRTSP,
				DirectRTSP: &DirectRTSPConfig{},
			},
			wantErr: true,
		},
		{
			name: "direct rtsp bad transport",
			cfg: StreamConfig{
				Type:       StreamConfigDirectRTSP,
				DirectRTSP: &DirectRTSPConfig{RTSPURL: "rtsp://cam.local/stream", Transport: "sctp"},
			},
			wantErr: true,
		},
		{
			name: "both variants set",
			cfg: StreamConfig{
				Type:       StreamConfigDirectRTSP,
				DirectRTSP: &DirectRTSPConfig{RTSPURL: "rtsp://cam.local/stream"},
				VMS:        &VMSConfig{ServerID: "srv1", MonitorID: "m1"},
			},
			wantErr: true,
		},
		{
			name: "vms ok",
			cfg: StreamConfig{
				Type: StreamConfigVMS,
				VMS:  &VMSConfig{ServerID: "srv1", MonitorID: "m1", Provider: "shinobi"},
			},
		},
		{
			name: "vms missing monitor",
			cfg: StreamConfig{
				Type: StreamConfigVMS,
				VMS:  &VMSConfig{ServerID: "srv1"},
			},
			wantErr: true,
		},
		{
			name:    "unknown type",
			cfg:     StreamConfig{Type: "webrtc"},
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
