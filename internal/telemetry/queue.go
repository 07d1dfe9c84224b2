package telemetry

import (
	"context"

	"github.com/autopeer-io/rentfleet/internal/pkg/metrics"
	"github.com/autopeer-io/rentfleet/internal/vehicle"
	"github.com/autopeer-io/rentfleet/pkg/log"
)

// Reporter delivers a single snapshot synchronously.
type Reporter interface {
	Report(ctx context.Context, status vehicle.Status) error
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, status vehicle.Status) error

func (f ReporterFunc) Report(ctx context.Context, status vehicle.Status) error {
	return f(ctx, status)
}

// Queue is an asynchronous Sink: Emit enqueues without blocking and drops
// the snapshot when the queue is full; Start drains it through a Reporter.
type Queue struct {
	name     string
	reporter Reporter
	ch       chan vehicle.Status
}

// NewQueue returns a queue holding up to size snapshots. name labels metrics.
func NewQueue(name string, reporter Reporter, size int) *Queue {
	return &Queue{
		name:     name,
		reporter: reporter,
		ch:       make(chan vehicle.Status, max(size, 1)),
	}
}

func (q *Queue) Emit(_ context.Context, status vehicle.Status) {
	select {
	case q.ch <- status:
	default:
		metrics.TelemetryEmitted.WithLabelValues(q.name, "dropped").Inc()
		log.Debug("Telemetry queue full, dropping snapshot", "sink", q.name, "vehicle", status.Name)
	}
}

// Start delivers queued snapshots until ctx is done. Queued snapshots are
// discarded on exit.
func (q *Queue) Start(ctx context.Context) error {
	log.Info("Telemetry sink started", "sink", q.name, "queue", cap(q.ch))
	for {
		select {
		case <-ctx.Done():
			return nil
		case status := <-q.ch:
			if err := q.reporter.Report(ctx, status); err != nil {
				metrics.TelemetryEmitted.WithLabelValues(q.name, "failed").Inc()
				log.Warn("Failed to deliver telemetry", "sink", q.name, "vehicle", status.Name, "error", err.Error())
				continue
			}
			metrics.TelemetryEmitted.WithLabelValues(q.name, "sent").Inc()
		}
	}
}
