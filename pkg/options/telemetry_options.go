package options

import (
	"errors"

	"github.com/spf13/pflag"
)

var _ IOptions = (*TelemetryOptions)(nil)

// TelemetryOptions selects where simulator snapshots are delivered.
type TelemetryOptions struct {
	// ReportHTTP posts every snapshot to the management service.
	ReportHTTP bool `json:"report-http" mapstructure:"report-http"`

	// QueueSize bounds the number of snapshots buffered per async sink;
	// snapshots beyond it are dropped.
	QueueSize int `json:"queue-size" mapstructure:"queue-size"`

	// Stream enables the websocket endpoint /vehicle/telemetry/stream.
	Stream bool `json:"stream" mapstructure:"stream"`
}

func NewTelemetryOptions() *TelemetryOptions {
	return &TelemetryOptions{
		ReportHTTP: true,
		QueueSize:  256,
		Stream:     true,
	}
}

func (o *TelemetryOptions) Validate() []error {
	if o.QueueSize < 1 {
		return []error{errors.New("--telemetry.queue-size must be at least 1")}
	}
	return nil
}

func (o *TelemetryOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.BoolVar(&o.ReportHTTP, "telemetry.report-http", o.ReportHTTP, "Post telemetry snapshots to the management service.")
	fs.IntVar(&o.QueueSize, "telemetry.queue-size", o.QueueSize, "Snapshots buffered per asynchronous sink before dropping.")
	fs.BoolVar(&o.Stream, "telemetry.stream", o.Stream, "Serve live telemetry over a websocket.")
}
