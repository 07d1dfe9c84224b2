package options

import (
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/rentfleet/internal/fleet"
	"github.com/autopeer-io/rentfleet/pkg/app"
	"github.com/autopeer-io/rentfleet/pkg/log"
	"github.com/autopeer-io/rentfleet/pkg/options"
)

type ServerOptions struct {
	HttpOptions       *options.HttpOptions      `json:"http" mapstructure:"http"`
	MqttOptions       *options.MqttOptions      `json:"mqtt" mapstructure:"mqtt"`
	S3Options         *options.S3Options        `json:"s3" mapstructure:"s3"`
	CatalogOptions    *options.CatalogOptions   `json:"catalog" mapstructure:"catalog"`
	SimulatorOptions  *options.SimulatorOptions `json:"simulator" mapstructure:"simulator"`
	HandoffOptions    *options.HandoffOptions   `json:"handoff" mapstructure:"handoff"`
	TelemetryOptions  *options.TelemetryOptions `json:"telemetry" mapstructure:"telemetry"`
	ManagementOptions *options.UpstreamOptions  `json:"management" mapstructure:"management"`
	Log               *log.Options              `json:"log" mapstructure:"log"`
}

var _ app.NamedFlagSetOptions = (*ServerOptions)(nil)

func NewServerOptions() *ServerOptions {
	return &ServerOptions{
		HttpOptions:       options.NewHttpOptions(),
		MqttOptions:       options.NewMqttOptions(),
		S3Options:         options.NewS3Options(),
		CatalogOptions:    options.NewCatalogOptions(),
		SimulatorOptions:  options.NewSimulatorOptions(),
		HandoffOptions:    options.NewHandoffOptions(),
		TelemetryOptions:  options.NewTelemetryOptions(),
		ManagementOptions: options.NewUpstreamOptions("management", "http://management:8000"),
		Log:               log.NewOptions(),
	}
}

func (o *ServerOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.HttpOptions.AddFlags(fss.FlagSet("http"))
	o.CatalogOptions.AddFlags(fss.FlagSet("catalog"))
	o.S3Options.AddFlags(fss.FlagSet("s3"))
	o.SimulatorOptions.AddFlags(fss.FlagSet("simulator"))
	o.HandoffOptions.AddFlags(fss.FlagSet("handoff"))
	o.ManagementOptions.AddFlags(fss.FlagSet("management"))
	o.TelemetryOptions.AddFlags(fss.FlagSet("telemetry"))
	o.MqttOptions.AddFlags(fss.FlagSet("mqtt"))
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

func (o *ServerOptions) Complete() error {
	return nil
}

func (o *ServerOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.HttpOptions.Validate()...)
	errs = append(errs, o.CatalogOptions.Validate()...)
	errs = append(errs, o.S3Options.Validate()...)
	errs = append(errs, o.SimulatorOptions.Validate()...)
	errs = append(errs, o.HandoffOptions.Validate()...)
	errs = append(errs, o.ManagementOptions.Validate()...)
	errs = append(errs, o.TelemetryOptions.Validate()...)
	errs = append(errs, o.MqttOptions.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return utilerrors.NewAggregate(errs)
}

func (o *ServerOptions) Config() (*fleet.Config, error) {
	return &fleet.Config{
		HttpOptions:       o.HttpOptions,
		MqttOptions:       o.MqttOptions,
		S3Options:         o.S3Options,
		CatalogOptions:    o.CatalogOptions,
		SimulatorOptions:  o.SimulatorOptions,
		HandoffOptions:    o.HandoffOptions,
		TelemetryOptions:  o.TelemetryOptions,
		ManagementOptions: o.ManagementOptions,
	}, nil
}
