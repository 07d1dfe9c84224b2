package topic

import (
	"fmt"
	"strings"
)

// Topic segments shared by publishers and consumers of fleet data.
// Changing these values breaks existing subscribers.
const (
	// SuffixTelemetry carries per-tick snapshots of a running vehicle.
	// Structure: {root}/telemetry/{vehicle}
	SuffixTelemetry = "telemetry"
)

// TopicBuilder encapsulates the logic for constructing MQTT topic strings.
type TopicBuilder struct {
	// root is the base namespace for all topics (e.g., "rentfleet/v1").
	root string
}

// NewTopicBuilder creates a new instance of TopicBuilder with the specified root namespace.
func NewTopicBuilder(root string) *TopicBuilder {
	return &TopicBuilder{root: strings.TrimSuffix(root, "/")}
}

// Telemetry returns the topic a vehicle's snapshots are published on.
func (b *TopicBuilder) Telemetry(vehicle string) string {
	return b.build(SuffixTelemetry, strings.ToLower(vehicle))
}

// TelemetryWildcard subscribes to every vehicle's telemetry.
func (b *TopicBuilder) TelemetryWildcard() string {
	return b.build(SuffixTelemetry, "+")
}

// build constructs {root}/{suffix}/{identifier}.
func (b *TopicBuilder) build(suffix, id string) string {
	return fmt.Sprintf("%s/%s/%s", b.root, suffix, id)
}
