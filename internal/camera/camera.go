package camera

import "fmt"

// ID uniquely identifies a camera.
type ID string

// CompanyID identifies the tenant that owns a camera.
type CompanyID string

// StreamConfigType selects which mechanism produces a camera's stream.
type StreamConfigType string

const (
	// StreamConfigDirectRTSP means this service supervises an ffmpeg
	// pipeline reading the camera's RTSP feed.
	StreamConfigDirectRTSP StreamConfigType = "direct-rtsp"

	// StreamConfigVMS means a third-party video server produces the
	// stream and a VMS adapter synthesizes the URLs.
	StreamConfigVMS StreamConfigType = "vms"
)

// DirectRTSPConfig is the direct-rtsp variant of StreamConfig.
type DirectRTSPConfig struct {
	RTSPURL   string `json:"rtspUrl" yaml:"rtspUrl"`
	Transport string `json:"transport,omitempty" yaml:"transport,omitempty"` // "tcp" (default) or "udp"
}

// VMSConfig is the vms variant of StreamConfig.
type VMSConfig struct {
	ServerID  string `json:"serverId" yaml:"serverId"`
	MonitorID string `json:"monitorId" yaml:"monitorId"`
	Provider  string `json:"provider" yaml:"provider"`
}

// StreamConfig is a two-variant tagged union. Exactly one of DirectRTSP
// or VMS is set, matching Type. Switching variants invalidates any
// previously issued token or running pipeline for the camera.
type StreamConfig struct {
	Type       StreamConfigType  `json:"type" yaml:"type"`
	DirectRTSP *DirectRTSPConfig `json:"directRtsp,omitempty" yaml:"directRtsp,omitempty"`
	VMS        *VMSConfig        `json:"vms,omitempty" yaml:"vms,omitempty"`
}

// Validate checks that exactly one variant is active and its required
// fields are present.
func (c *StreamConfig) Validate() error {
	switch c.Type {
	case StreamConfigDirectRTSP:
		if c.DirectRTSP == nil || c.VMS != nil {
			return fmt.Errorf("stream config type %q requires exactly the directRtsp variant", c.Type)
		}
		if c.DirectRTSP.RTSPURL == "" {
			return fmt.Errorf("direct-rtsp stream config requires rtspUrl")
		}
		if t := c.DirectRTSP.Transport; t != "" && t != "tcp" && t != "udp" {
			return fmt.Errorf("direct-rtsp transport must be tcp or udp, got %q", t)
		}
		return nil
	case StreamConfigVMS:
		if c.VMS == nil || c.DirectRTSP != nil {
			return fmt.Errorf("stream config type %q requires exactly the vms variant", c.Type)
		}
		if c.VMS.ServerID == "" || c.VMS.MonitorID == "" {
			return fmt.Errorf("vms stream config requires serverId and monitorId")
		}
		return nil
	default:
		return fmt.Errorf("unknown stream config type %q", c.Type)
	}
}

// Camera is a referenced copy of a platform camera record. The platform
// core owns cameras; this subsystem only reads identity, tenant, and
// stream configuration, and rewrites StreamConfig on VMS link changes.
type Camera struct {
	ID           ID            `json:"id" yaml:"id"`
	CompanyID    CompanyID     `json:"companyId" yaml:"companyId"`
	Name         string        `json:"name" yaml:"name"`
	Location     string        `json:"location,omitempty" yaml:"location,omitempty"`
	StreamConfig *StreamConfig `json:"streamConfig,omitempty" yaml:"streamConfig,omitempty"`
}
