package server

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/autopeer-io/rentfleet/pkg/log"
	"github.com/autopeer-io/rentfleet/pkg/options"
)

// HTTPServer runs an http.Handler until its context is cancelled.
type HTTPServer struct {
	server  *http.Server
	options *options.HttpOptions
}

var _ Server = (*HTTPServer)(nil)

func NewHTTPServer(opts *options.HttpOptions, handler http.Handler) *HTTPServer {
	return &HTTPServer{
		server: &http.Server{
			Addr:              opts.Addr,
			Handler:           handler,
			ReadHeaderTimeout: opts.Timeout,
		},
		options: opts,
	}
}

func (s *HTTPServer) Start(ctx context.Context) error {
	ln, err := net.Listen(s.options.Network, s.server.Addr)
	if err != nil {
		return err
	}
	log.Info("Starting HTTP Server", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("Shutting down HTTP Server", "addr", s.server.Addr)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.options.ShutdownTimeout)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	}
}
