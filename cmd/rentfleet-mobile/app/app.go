package app

import (
	"fmt"

	genericapiserver "k8s.io/apiserver/pkg/server"

	"github.com/autopeer-io/rentfleet/cmd/rentfleet-mobile/app/options"
	"github.com/autopeer-io/rentfleet/pkg/app"
	"github.com/autopeer-io/rentfleet/pkg/log"
)

const (
	commandName = "rentfleet-mobile"
	commandDesc = `The rentfleet mobile service is the backend of the client app. It starts
and stops drives through the cars service and confirms prepayments and final
invoices with the payment system, answering each request once the matching
callback has arrived.`
)

func NewApp() *app.App {
	opts := options.NewServerOptions()
	return app.NewApp(
		commandName,
		"Launch the rentfleet mobile service",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithRunFunc(run(opts)),
	)
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
			return fmt.Errorf("failed to create mobile service: %w", err)
		}

		return srv.Run(ctx)
	}
}
