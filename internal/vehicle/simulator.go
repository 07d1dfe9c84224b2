package vehicle

import (
	"context"
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"k8s.io/utils/clock"

	"github.com/autopeer-io/rentfleet/internal/pkg/metrics"
	"github.com/autopeer-io/rentfleet/pkg/log"
	"github.com/autopeer-io/rentfleet/pkg/options"
)

// Sink receives telemetry snapshots. Emit must not block for long and never
// fails the caller; delivery is best-effort.
type Sink interface {
	Emit(ctx context.Context, status Status)
}

// RandomSource draws uniform values in [0, 1).
type RandomSource interface {
	Float64() float64
}

// Simulator runs one drive goroutine per running vehicle.
type Simulator struct {
	opts  *options.SimulatorOptions
	sink  Sink
	clock clock.WithTicker

	rndMu sync.Mutex
	rnd   RandomSource

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
	active atomic.Int32
}

// NewSimulator creates a simulator. A nil clock or random source falls back
// to the real ones.
func NewSimulator(opts *options.SimulatorOptions, sink Sink, clk clock.WithTicker, rnd RandomSource) *Simulator {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Simulator{
		opts:   opts,
		sink:   sink,
		clock:  clk,
		rnd:    rnd,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Drive spawns the drive goroutine for trip. A nil trip (vehicle already
// running) is ignored.
func (s *Simulator) Drive(v *Vehicle, trip *Trip) {
	if trip == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		log.Warn("Simulator is shut down, not driving", "vehicle", v.Name())
		return
	}

	s.wg.Add(1)
	s.active.Add(1)
	metrics.ActiveDrives.Inc()
	go s.drive(v, trip)
}

// Active returns the number of live drive goroutines.
func (s *Simulator) Active() int {
	return int(s.active.Load())
}

// Shutdown stops every drive and waits for the goroutines to exit.
func (s *Simulator) Shutdown() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

func (s *Simulator) drive(v *Vehicle, trip *Trip) {
	defer func() {
		metrics.ActiveDrives.Dec()
		s.active.Add(-1)
		s.wg.Done()
	}()

	logger := log.WithValues("vehicle", v.Name(), "trip", trip.ID)
	logger.Debug("Drive started")

	ticker := s.clock.NewTicker(s.opts.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-trip.Done():
			logger.Debug("Drive finished")
			return
		case <-s.ctx.Done():
			return
		case <-ticker.C():
		}

		speed, dx, dy := s.draw()
		status, ok := v.advance(trip, speed, dx, dy)
		if !ok {
			logger.Debug("Trip ended before tick applied")
			return
		}
		logger.Debug("Telemetry tick", "speed", status.Speed, "x", status.Position.X, "y", status.Position.Y)

		if s.sink != nil {
			s.sink.Emit(s.ctx, status)
		}
	}
}

func (s *Simulator) draw() (speed, dx, dy float64) {
	s.rndMu.Lock()
	defer s.rndMu.Unlock()

	speed = s.opts.SpeedMin + s.rnd.Float64()*(s.opts.SpeedMax-s.opts.SpeedMin)
	dx = (2*s.rnd.Float64() - 1) * s.opts.MaxStep
	dy = (2*s.rnd.Float64() - 1) * s.opts.MaxStep
	return speed, dx, dy
}
