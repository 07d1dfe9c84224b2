package options

import (
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/rentfleet/internal/mobile"
	"github.com/autopeer-io/rentfleet/pkg/app"
	"github.com/autopeer-io/rentfleet/pkg/log"
	"github.com/autopeer-io/rentfleet/pkg/options"
)

type ServerOptions struct {
	HttpOptions       *options.HttpOptions     `json:"http" mapstructure:"http"`
	HandoffOptions    *options.HandoffOptions  `json:"handoff" mapstructure:"handoff"`
	ManagementOptions *options.UpstreamOptions `json:"management" mapstructure:"management"`
	CarsOptions       *options.UpstreamOptions `json:"cars" mapstructure:"cars"`
	PaymentOptions    *options.UpstreamOptions `json:"payment" mapstructure:"payment"`
	Log               *log.Options             `json:"log" mapstructure:"log"`
}

var _ app.NamedFlagSetOptions = (*ServerOptions)(nil)

func NewServerOptions() *ServerOptions {
	o := &ServerOptions{
		HttpOptions:       options.NewHttpOptions(),
		HandoffOptions:    options.NewHandoffOptions(),
		ManagementOptions: options.NewUpstreamOptions("management", "http://management:8000"),
		CarsOptions:       options.NewUpstreamOptions("cars", "http://cars:8000"),
		PaymentOptions:    options.NewUpstreamOptions("payment", "http://payment-system:8000"),
		Log:               log.NewOptions(),
	}
	// Stopping a drive includes the cars service's settlement call.
	o.CarsOptions.Timeout = o.HandoffOptions.Timeout

	return o
}

func (o *ServerOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.HttpOptions.AddFlags(fss.FlagSet("http"))
	o.HandoffOptions.AddFlags(fss.FlagSet("handoff"))
	o.ManagementOptions.AddFlags(fss.FlagSet("management"))
	o.CarsOptions.AddFlags(fss.FlagSet("cars"))
	o.PaymentOptions.AddFlags(fss.FlagSet("payment"))
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

func (o *ServerOptions) Complete() error {
	return nil
}

func (o *ServerOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.HttpOptions.Validate()...)
	errs = append(errs, o.HandoffOptions.Validate()...)
	errs = append(errs, o.ManagementOptions.Validate()...)
	errs = append(errs, o.CarsOptions.Validate()...)
	errs = append(errs, o.PaymentOptions.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return utilerrors.NewAggregate(errs)
}

func (o *ServerOptions) Config() (*mobile.Config, error) {
	return &mobile.Config{
		HttpOptions:       o.HttpOptions,
		HandoffOptions:    o.HandoffOptions,
		ManagementOptions: o.ManagementOptions,
		CarsOptions:       o.CarsOptions,
		PaymentOptions:    o.PaymentOptions,
	}, nil
}
