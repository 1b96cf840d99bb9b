// Package vms provides uniform operations over heterogeneous
// third-party video servers. Each provider kind maps to one Adapter
// implementation; provider branching never happens outside the
// Registry.
package vms

import (
	"context"
	"errors"
	"fmt"
)

// Provider is the closed enumeration of supported VMS provider kinds.
type Provider string

// ProviderShinobi is the Shinobi-style HTTP API provider.
const ProviderShinobi Provider = "shinobi"

// ErrUnsupportedProvider is returned at the registry boundary for an
// unknown provider kind, before any network call is attempted.
var ErrUnsupportedProvider = errors.New("unsupported vms provider")

// Server is a tenant-scoped connection profile for one VMS instance.
type Server struct {
	ID        string   `json:"id" yaml:"id"`
	CompanyID string   `json:"companyId" yaml:"companyId"`
	Name      string   `json:"name" yaml:"name"`
	Provider  Provider `json:"provider" yaml:"provider"`
	BaseURL   string   `json:"baseUrl" yaml:"baseUrl"`
	APIKey    string   `json:"apiKey" yaml:"apiKey"`
	GroupKey  string   `json:"groupKey" yaml:"groupKey"`
}

// Monitor is a provider's record of a single managed camera feed.
type Monitor struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// ProbeResult is the structured outcome of an advisory connectivity
// test. Probe failures are results, not errors.
type ProbeResult struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	MonitorCount int    `json:"monitorCount,omitempty"`
}

// StreamURLs are the provider-hosted playback URLs for one monitor.
type StreamURLs struct {
	HLS      string `json:"hlsUrl"`
	Embed    string `json:"embedUrl"`
	Snapshot string `json:"snapshotUrl"`
}

// Adapter is the capability set every provider implementation exposes.
// TestConnection is advisory and reports failure as a result;
// DiscoverMonitors is strict and returns an error when the provider
// cannot be reached; StreamURLs is pure URL synthesis.
type Adapter interface {
	TestConnection(ctx context.Context, srv Server) ProbeResult
	DiscoverMonitors(ctx context.Context, srv Server) ([]Monitor, error)
	StreamURLs(srv Server, monitorID string) StreamURLs
}

// Registry maps provider kinds to adapters. Unknown kinds fail closed.
type Registry struct {
	adapters map[Provider]Adapter
}

// NewRegistry returns a registry with the given adapters registered.
func NewRegistry(adapters map[Provider]Adapter) *Registry {
	if adapters == nil {
		adapters = make(map[Provider]Adapter)
	}
	return &Registry{adapters: adapters}
}

// Adapter returns the adapter for the provider kind, or
// ErrUnsupportedProvider.
func (r *Registry) Adapter(p Provider) (Adapter, error) {
	a, ok := r.adapters[p]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, p)
	}
	return a, nil
}
