package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	genericapiserver "k8s.io/apiserver/pkg/server"

	"github.com/autopeer-io/rentfleet/internal/vehicle"
	"github.com/autopeer-io/rentfleet/pkg/mqtt"
	"github.com/autopeer-io/rentfleet/pkg/mqtt/topic"
	"github.com/autopeer-io/rentfleet/pkg/options"
)

func newWatchCommand() *cobra.Command {
	opts := options.NewMqttOptions()
	opts.Enabled = true

	cmd := &cobra.Command{
		Use:   "watch [VEHICLE]",
		Short: "Follow live telemetry published to the MQTT broker",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if errs := opts.Validate(); len(errs) > 0 {
				return errs[0]
			}

			cfg := opts.ToClientConfig()
			if cfg.ClientID == "" {
				cfg.ClientID = "rentfleetctl-" + uuid.NewString()[:8]
			}
			client, err := mqtt.NewClient(cfg)
			if err != nil {
				return err
			}

			ctx := genericapiserver.SetupSignalContext()
			if err := client.Start(ctx); err != nil {
				return err
			}
			defer client.Disconnect(cmd.Context())

			if err := client.AwaitConnection(ctx); err != nil {
				return err
			}

			topics := topic.NewTopicBuilder(opts.TopicRoot)
			filter := topics.TelemetryWildcard()
			if len(args) == 1 {
				filter = topics.Telemetry(args[0])
			}

			p := &telemetryPrinter{out: cmd.OutOrStdout()}
			if err := client.Subscribe(ctx, filter, opts.QoS, p.handle); err != nil {
				return err
			}

			<-ctx.Done()
			return nil
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}

// telemetryPrinter writes one line per received snapshot.
type telemetryPrinter struct {
	mu  sync.Mutex
	out io.Writer
}

func (p *telemetryPrinter) handle(subject string, payload []byte) {
	var st vehicle.Status
	if err := json.Unmarshal(payload, &st); err != nil {
		fmt.Fprintf(os.Stderr, "skipping malformed message on %s: %v\n", subject, err)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "%-10s speed=%5.1f km/h position=(%.2f,%.2f) trip=%.2fs occupant=%s\n",
		st.Name, st.Speed, st.Position.X, st.Position.Y, st.TripTime, orDash(st.Occupant))
}
