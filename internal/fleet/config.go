// Package fleet is the cars service: the vehicle registry, its state
// machines and drives, the access handoff and settlement on stop.
package fleet

import (
	"context"
	"fmt"
	"net/http"

	"github.com/autopeer-io/rentfleet/internal/authority"
	"github.com/autopeer-io/rentfleet/internal/handoff"
	"github.com/autopeer-io/rentfleet/internal/pkg/server"
	"github.com/autopeer-io/rentfleet/internal/rendezvous"
	"github.com/autopeer-io/rentfleet/internal/telemetry"
	"github.com/autopeer-io/rentfleet/internal/vehicle"
	"github.com/autopeer-io/rentfleet/pkg/options"
)

type Config struct {
	HttpOptions       *options.HttpOptions
	MqttOptions       *options.MqttOptions
	S3Options         *options.S3Options
	CatalogOptions    *options.CatalogOptions
	SimulatorOptions  *options.SimulatorOptions
	HandoffOptions    *options.HandoffOptions
	TelemetryOptions  *options.TelemetryOptions
	ManagementOptions *options.UpstreamOptions
}

// NewServer loads the catalog and assembles the cars service.
func (cfg *Config) NewServer(ctx context.Context) (*Server, error) {
	// 1. Vehicle catalog
	specs, err := vehicle.LoadCatalog(ctx, cfg.CatalogOptions.Source, cfg.S3Options)
	if err != nil {
		return nil, err
	}
	registry, err := vehicle.NewRegistry(specs, nil)
	if err != nil {
		return nil, err
	}

	// 2. Outbound adapters
	management := authority.NewManagement(cfg.ManagementOptions)

	// 3. Telemetry sinks, each drained by its own worker
	var (
		sinks   telemetry.Multi
		workers []server.Server
		stream  *telemetry.Stream
	)
	if cfg.TelemetryOptions.ReportHTTP {
		q := telemetry.NewQueue("http", management, cfg.TelemetryOptions.QueueSize)
		sinks = append(sinks, q)
		workers = append(workers, q)
	}
	if cfg.MqttOptions.Enabled {
		mq, err := telemetry.NewMQTTSink(cfg.MqttOptions, cfg.TelemetryOptions.QueueSize)
		if err != nil {
			return nil, fmt.Errorf("failed to init mqtt telemetry: %w", err)
		}
		sinks = append(sinks, mq)
		workers = append(workers, mq)
	}
	if cfg.TelemetryOptions.Stream {
		stream = telemetry.NewStream(registry.List)
		sinks = append(sinks, stream)
		workers = append(workers, stream)
	}

	// 4. Core
	simulator := vehicle.NewSimulator(cfg.SimulatorOptions, sinks, nil, nil)
	access := rendezvous.NewBroker[handoff.AccessDecision](nil)
	svc := NewService(registry, simulator, access, management,
		handoff.NewOptions(handoff.KindAccess, cfg.HandoffOptions), cfg.HandoffOptions.CallbackURL)

	// 5. Ingress
	var streamHandler http.Handler
	if stream != nil {
		streamHandler = stream
	}
	handler := NewHandler(svc, streamHandler)

	manager := server.NewManager(server.NewHTTPServer(cfg.HttpOptions, handler.Router()))
	for _, w := range workers {
		manager.Add(w)
	}
	// Release blocked occupy calls first so the HTTP server can drain.
	manager.Add(server.Func(func(ctx context.Context) error {
		<-ctx.Done()
		access.Close()
		return nil
	}))

	return &Server{manager: manager, svc: svc}, nil
}
