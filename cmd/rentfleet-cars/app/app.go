package app

import (
	"fmt"

	genericapiserver "k8s.io/apiserver/pkg/server"

	"github.com/autopeer-io/rentfleet/cmd/rentfleet-cars/app/options"
	"github.com/autopeer-io/rentfleet/pkg/app"
	"github.com/autopeer-io/rentfleet/pkg/log"
)

const (
	commandName = "rentfleet-cars"
	commandDesc = `The rentfleet cars service owns the vehicle fleet. It reserves vehicles
once the management service grants access, simulates telemetry for running
vehicles and settles every finished trip with the management service.`
)

func NewApp() *app.App {
	opts := options.NewServerOptions()
	application := app.NewApp(
		commandName,
		"Launch the rentfleet cars service",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithRunFunc(run(opts)),
	)
	return application
}

func run(opts *options.ServerOptions) app.RunFunc {
	return func() error {
		log.Init(opts.Log)
		defer log.Sync()

		ctx := genericapiserver.SetupSignalContext()

		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		srv, err := cfg.NewServer(ctx)
		if err != nil {
			return fmt.Errorf("failed to create cars service: %w", err)
		}

		return srv.Run(ctx)
	}
}
