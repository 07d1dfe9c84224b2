package server

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/autopeer-io/rentfleet/pkg/log"
)

// Server defines the common interface for all long-running components
// (HTTP listener, MQTT publisher, telemetry workers).
type Server interface {
	Start(ctx context.Context) error
}

// Func adapts a plain function to the Server interface.
type Func func(ctx context.Context) error

func (f Func) Start(ctx context.Context) error { return f(ctx) }

// Manager manages the lifecycle of all servers of one process.
type Manager struct {
	servers []Server
}

// NewManager creates a manager for the given servers.
func NewManager(servers ...Server) *Manager {
	return &Manager{servers: servers}
}

// Add registers another server. Must be called before Start.
func (m *Manager) Add(s Server) {
	m.servers = append(m.servers, s)
}

// Start launches all servers in parallel and waits for termination.
// The first server to fail cancels the others.
func (m *Manager) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, s := range m.servers {
		g.Go(func() error {
			return s.Start(ctx)
		})
	}

	log.Info("All servers starting...", "count", len(m.servers))
	return g.Wait()
}
