package mobile

import (
	"context"

	"github.com/autopeer-io/rentfleet/internal/pkg/server"
	"github.com/autopeer-io/rentfleet/pkg/log"
)

// Server is the running mobile service.
type Server struct {
	manager *server.Manager
	svc     *Service
}

func (s *Server) Run(ctx context.Context) error {
	defer s.svc.Shutdown()

	log.Info("Starting mobile service")
	err := s.manager.Start(ctx)
	log.Info("Mobile service stopped")
	return err
}
