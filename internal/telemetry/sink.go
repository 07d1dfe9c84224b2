// Package telemetry delivers vehicle snapshots produced by the simulator to
// the management service, the MQTT broker and websocket subscribers.
package telemetry

import (
	"context"

	"github.com/autopeer-io/rentfleet/internal/vehicle"
)

// Sink receives snapshots. Implementations never block the caller for long
// and swallow delivery failures.
type Sink interface {
	Emit(ctx context.Context, status vehicle.Status)
}

var _ vehicle.Sink = (Sink)(nil)

// Multi fans every snapshot out to all sinks in order.
type Multi []Sink

func (m Multi) Emit(ctx context.Context, status vehicle.Status) {
	for _, s := range m {
		s.Emit(ctx, status)
	}
}

// Nop discards snapshots.
type Nop struct{}

func (Nop) Emit(context.Context, vehicle.Status) {}
