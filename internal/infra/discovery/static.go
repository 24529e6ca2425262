// Package discovery resolves the candidate servers of a server type.
package discovery

import (
	"context"
	"slices"
	"sync"
)

// Static serves candidates from an in-memory registry, typically loaded from config.
type Static struct {
	mu      sync.RWMutex
	servers map[string][]string
}

// NewStatic creates a registry from serverType -> ordered server IDs.
func NewStatic(servers map[string][]string) *Static {
	s := &Static{servers: make(map[string][]string, len(servers))}
	for serverType, ids := range servers {
		s.servers[serverType] = slices.Clone(ids)
	}
	return s
}

// DiscoverServers returns a copy of the candidates for serverType.
func (s *Static) DiscoverServers(ctx context.Context, serverType string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.servers[serverType]), nil
}

// Register appends serverID to serverType unless already present.
func (s *Static) Register(serverType, serverID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.servers[serverType], serverID) {
		return
	}
	s.servers[serverType] = append(s.servers[serverType], serverID)
}

// Deregister removes serverID from serverType.
func (s *Static) Deregister(serverType, serverID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.servers[serverType] = slices.DeleteFunc(s.servers[serverType], func(id string) bool {
		return id == serverID
	})
}
