package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/autopeer-io/rentfleet/internal/vehicle"
	"github.com/autopeer-io/rentfleet/pkg/log"
	pkgmqtt "github.com/autopeer-io/rentfleet/pkg/mqtt"
	"github.com/autopeer-io/rentfleet/pkg/mqtt/topic"
	"github.com/autopeer-io/rentfleet/pkg/options"
)

// MQTTSink publishes snapshots to {root}/telemetry/{vehicle}.
type MQTTSink struct {
	*Queue
	client pkgmqtt.Client
	topics *topic.TopicBuilder
	qos    int
}

// NewMQTTSink creates the sink and its dedicated egress client. The
// connection is opened by Start.
func NewMQTTSink(opts *options.MqttOptions, queueSize int) (*MQTTSink, error) {
	cfg := opts.ToClientConfig()
	if cfg.ClientID == "" {
		hostname, _ := os.Hostname()
		cfg.ClientID = fmt.Sprintf("rentfleet-cars-%s", hostname)
	}

	client, err := pkgmqtt.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return newMQTTSink(client, topic.NewTopicBuilder(opts.TopicRoot), opts.QoS, queueSize), nil
}

func newMQTTSink(client pkgmqtt.Client, topics *topic.TopicBuilder, qos, queueSize int) *MQTTSink {
	s := &MQTTSink{client: client, topics: topics, qos: qos}
	s.Queue = NewQueue("mqtt", ReporterFunc(s.publish), queueSize)
	return s
}

// Start connects to the broker and drains the queue until ctx is done.
func (s *MQTTSink) Start(ctx context.Context) error {
	if err := s.client.Start(ctx); err != nil {
		return fmt.Errorf("failed to start mqtt client: %w", err)
	}
	defer func() {
		// ctx is already cancelled here
		s.client.Disconnect(context.Background())
	}()

	return s.Queue.Start(ctx)
}

func (s *MQTTSink) publish(ctx context.Context, status vehicle.Status) error {
	payload, err := json.Marshal(status)
	if err != nil {
		return err
	}
	t := s.topics.Telemetry(status.Name)
	log.Debug("Publishing telemetry", "topic", t)
	return s.client.Publish(ctx, t, s.qos, false, payload)
}
