// Package mobile is the mobile-client service: it drives a client's trip
// through the cars service and confirms prepayments and invoices with the
// payment system, turning each asynchronous answer into a synchronous reply.
package mobile

import (
	"context"

	"github.com/autopeer-io/rentfleet/internal/authority"
	"github.com/autopeer-io/rentfleet/internal/handoff"
	"github.com/autopeer-io/rentfleet/internal/pkg/server"
	"github.com/autopeer-io/rentfleet/internal/rendezvous"
	"github.com/autopeer-io/rentfleet/pkg/options"
)

type Config struct {
	HttpOptions       *options.HttpOptions
	HandoffOptions    *options.HandoffOptions
	ManagementOptions *options.UpstreamOptions
	CarsOptions       *options.UpstreamOptions
	PaymentOptions    *options.UpstreamOptions
}

// NewServer assembles the mobile service.
func (cfg *Config) NewServer(_ context.Context) (*Server, error) {
	// 1. Outbound adapters
	management := authority.NewManagement(cfg.ManagementOptions)
	cars := authority.NewCars(cfg.CarsOptions)
	payment := authority.NewPayment(cfg.PaymentOptions)

	// 2. Brokers, owned by this server
	payments := rendezvous.NewBroker[handoff.PaymentDecision](nil)
	finals := rendezvous.NewBroker[handoff.FinalInvoice](nil)

	// 3. Core
	svc := NewService(management, cars, payment, payments, finals,
		handoff.NewOptions("", cfg.HandoffOptions), cfg.HandoffOptions.CallbackURL)

	// 4. Ingress
	manager := server.NewManager(server.NewHTTPServer(cfg.HttpOptions, NewHandler(svc).Router()))
	manager.Add(server.Func(func(ctx context.Context) error {
		<-ctx.Done()
		svc.Shutdown()
		return nil
	}))

	return &Server{manager: manager, svc: svc}, nil
}
