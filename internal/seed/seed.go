// Package seed loads the referenced camera records and VMS server
// profiles this subsystem works with from a YAML file. The platform
// core is the system of record; the seed file stands in for its
// provisioning API.
package seed

import (
	"fmt"
	"os"

	"camstream/internal/camera"
	"camstream/internal/vms"

	"gopkg.in/yaml.v3"
)

// File is the top-level seed file shape.
type File struct {
	Cameras []camera.Camera `yaml:"cameras"`
	Servers []vms.Server    `yaml:"vmsServers"`
}

// Load reads path and populates the camera and server stores. A
// missing file is not an error: the service starts empty and cameras
// arrive via VMS import. Malformed entries fail the whole load.
func Load(path string, cameras camera.Store, servers vms.ServerStore) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read seed file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	for i := range f.Cameras {
		cam := f.Cameras[i]
		if cam.ID == "" {
			return fmt.Errorf("seed camera %d: id is required", i)
		}
		if cam.StreamConfig != nil {
			if err := cam.StreamConfig.Validate(); err != nil {
				return fmt.Errorf("seed camera %s: %w", cam.ID, err)
			}
		}
		cameras.Put(cam)
	}

	for i := range f.Servers {
		srv := f.Servers[i]
		if srv.ID == "" || srv.BaseURL == "" {
			return fmt.Errorf("seed vms server %d: id and baseUrl are required", i)
		}
		servers.Put(srv)
	}

	return nil
}
