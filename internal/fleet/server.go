package fleet

import (
	"context"

	"github.com/autopeer-io/rentfleet/internal/pkg/server"
	"github.com/autopeer-io/rentfleet/pkg/log"
)

// Server is the running cars service.
type Server struct {
	manager *server.Manager
	svc     *Service
}

// Run blocks until ctx is cancelled or a component fails, then stops every drive.
func (s *Server) Run(ctx context.Context) error {
	defer func() {
		s.svc.Shutdown()
		log.Info("Cars service stopped")
	}()

	log.Info("Starting cars service", "vehicles", len(s.svc.List()))
	return s.manager.Start(ctx)
}
