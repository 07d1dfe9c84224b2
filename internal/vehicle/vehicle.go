// Package vehicle holds the runtime model of the fleet: the per-vehicle
// state machine, the registry loaded from the catalog and the telemetry
// simulator that drives running vehicles.
package vehicle

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/looplab/fsm"
	"k8s.io/utils/clock"

	"github.com/autopeer-io/rentfleet/internal/pkg/httputil"
	"github.com/autopeer-io/rentfleet/internal/pkg/metrics"
	fsmutil "github.com/autopeer-io/rentfleet/internal/pkg/util/fsm"
)

// Position is a point on the simulated map.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Status is an immutable snapshot of a vehicle taken under its lock.
type Status struct {
	Name           string   `json:"name"`
	Phase          Phase    `json:"phase"`
	Running        bool     `json:"running"`
	Speed          float64  `json:"speed"`
	Position       Position `json:"position"`
	Occupant       *string  `json:"occupant"`
	TripTime       float64  `json:"trip_time"`
	Tariff         *string  `json:"tariff"`
	AirConditioner bool     `json:"has_air_conditioner"`
	Heater         bool     `json:"has_heater"`
	Navigator      bool     `json:"has_navigator"`
}

// Trip identifies one Running period. Done is closed when the trip ends.
type Trip struct {
	ID   uint64
	done chan struct{}
}

// Done returns a channel closed once the trip is over.
func (t *Trip) Done() <-chan struct{} {
	return t.done
}

// Vehicle is the mutable runtime record of one car. Every field below mu is
// guarded by it, including the phase machine.
type Vehicle struct {
	name           string
	airConditioner bool
	heater         bool
	navigator      bool
	clock          clock.PassiveClock

	mu        sync.Mutex
	machine   *fsm.FSM
	speed     float64
	position  Position
	occupant  string
	tariff    string
	tripStart time.Time
	trip      *Trip
	tripSeq   uint64
	// settling is the trip claimed by BeginSettle, if any.
	settling *Trip
}

// New returns an idle vehicle described by spec.
func New(spec Spec, clk clock.PassiveClock) *Vehicle {
	if clk == nil {
		clk = clock.RealClock{}
	}
	v := &Vehicle{
		name:           spec.Name,
		airConditioner: spec.AirConditioner,
		heater:         spec.Heater,
		navigator:      spec.Navigator,
		clock:          clk,
	}
	v.machine = v.newMachine()
	return v
}

// Name returns the catalog name of the vehicle.
func (v *Vehicle) Name() string {
	return v.name
}

// Reserve holds an idle vehicle for occupant at the given tariff. Reserving
// again for the same occupant succeeds without changes.
func (v *Vehicle) Reserve(occupant, tariff string) (string, error) {
	if occupant == "" {
		return "", httputil.Validationf("occupant must not be empty")
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.phase() != PhaseIdle {
		if v.occupant != occupant {
			metrics.VehicleTransitions.WithLabelValues(EventReserve, "rejected").Inc()
			return "", fmt.Errorf("reserve %s: %w", v.name, ErrBusy)
		}
		metrics.VehicleTransitions.WithLabelValues(EventReserve, "noop").Inc()
		return v.reservedMessage(), nil
	}

	if err := v.fire(EventReserve, occupant, tariff); err != nil {
		return "", err
	}
	return v.reservedMessage(), nil
}

// Release drops a reservation held by occupant that was never started.
func (v *Vehicle) Release(occupant string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch {
	case v.phase() == PhaseIdle:
		return nil
	case v.occupant != occupant:
		return fmt.Errorf("release %s: %w", v.name, ErrBusy)
	case v.phase() == PhaseRunning:
		return fmt.Errorf("release %s: trip in progress: %w", v.name, ErrBusy)
	}
	return v.fire(EventRelease)
}

// Start begins a trip on a reserved vehicle and returns the new Trip the
// caller must drive. An already running vehicle returns a nil Trip and the
// in-progress message without resetting the trip clock.
func (v *Vehicle) Start() (string, *Trip, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch v.phase() {
	case PhaseRunning:
		metrics.VehicleTransitions.WithLabelValues(EventStart, "noop").Inc()
		return fmt.Sprintf("%s trip is already in progress.", v.name), nil, nil
	case PhaseIdle:
		metrics.VehicleTransitions.WithLabelValues(EventStart, "rejected").Inc()
		return "", nil, fmt.Errorf("start %s: %w", v.name, ErrNotReserved)
	}

	if err := v.fire(EventStart); err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("%s trip started.", v.name), v.trip, nil
}

// Stop ends the current trip. Settlement, if any, is the caller's business
// and must happen before Stop.
func (v *Vehicle) Stop() (string, error) {
	return v.halt(EventStop)
}

// EmergencyStop ends the current trip with the same effect as Stop.
func (v *Vehicle) EmergencyStop() (string, error) {
	return v.halt(EventEmergency)
}

func (v *Vehicle) halt(event string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.phase() != PhaseRunning {
		metrics.VehicleTransitions.WithLabelValues(event, "noop").Inc()
		return v.parkedMessage(), nil
	}

	if err := v.fire(event); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s trip finished.", v.name), nil
}

// BeginSettle claims the live trip for settlement and returns its snapshot.
// A parked vehicle returns a nil Trip with the parked message. Only one claim
// per trip is granted; the holder must call StopTrip or AbortSettle.
func (v *Vehicle) BeginSettle() (Status, *Trip, string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.phase() != PhaseRunning {
		metrics.VehicleTransitions.WithLabelValues(EventStop, "noop").Inc()
		return Status{}, nil, v.parkedMessage(), nil
	}
	if v.settling != nil {
		metrics.VehicleTransitions.WithLabelValues(EventStop, "rejected").Inc()
		return Status{}, nil, "", fmt.Errorf("stop %s: %w", v.name, ErrSettling)
	}
	v.settling = v.trip
	return v.snapshot(), v.trip, "", nil
}

// AbortSettle drops the claim on trip after a failed settlement.
func (v *Vehicle) AbortSettle(trip *Trip) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.settling == trip {
		v.settling = nil
	}
}

// StopTrip ends trip if it is still the live trip. A trip that already ended
// leaves the vehicle untouched and returns the parked message.
func (v *Vehicle) StopTrip(trip *Trip) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if trip == nil || v.trip != trip || v.phase() != PhaseRunning {
		if v.settling == trip {
			v.settling = nil
		}
		metrics.VehicleTransitions.WithLabelValues(EventStop, "noop").Inc()
		return v.parkedMessage(), nil
	}

	if err := v.fire(EventStop); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s trip finished.", v.name), nil
}

// Status returns a consistent snapshot of the vehicle.
func (v *Vehicle) Status() Status {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshot()
}

// Occupant reports who holds the vehicle, if anyone.
func (v *Vehicle) Occupant() (string, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.occupant, v.occupant != ""
}

// advance applies one telemetry tick if trip is still the live trip.
func (v *Vehicle) advance(trip *Trip, speed, dx, dy float64) (Status, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.trip != trip || v.phase() != PhaseRunning {
		return Status{}, false
	}
	v.speed = speed
	v.position.X += dx
	v.position.Y += dy
	return v.snapshot(), true
}

func (v *Vehicle) snapshot() Status {
	phase := v.phase()
	s := Status{
		Name:           v.name,
		Phase:          phase,
		Running:        phase == PhaseRunning,
		Speed:          v.speed,
		Position:       v.position,
		AirConditioner: v.airConditioner,
		Heater:         v.heater,
		Navigator:      v.navigator,
	}
	if v.occupant != "" {
		occupant := v.occupant
		s.Occupant = &occupant
	}
	if v.tariff != "" {
		tariff := v.tariff
		s.Tariff = &tariff
	}
	if s.Running {
		elapsed := v.clock.Since(v.tripStart).Seconds()
		s.TripTime = math.Round(elapsed*100) / 100
	}
	return s
}

func (v *Vehicle) parkedMessage() string {
	return fmt.Sprintf("%s is parked.", v.name)
}

func (v *Vehicle) reservedMessage() string {
	return fmt.Sprintf("%s reserved by %s.", v.name, v.occupant)
}

func (v *Vehicle) phase() Phase {
	return Phase(v.machine.Current())
}

func (v *Vehicle) fire(event string, args ...any) error {
	if err := v.machine.Event(context.Background(), event, args...); err != nil {
		metrics.VehicleTransitions.WithLabelValues(event, "rejected").Inc()
		return fmt.Errorf("%s %s: %w", event, v.name, fsmutil.Unwrap(err))
	}
	metrics.VehicleTransitions.WithLabelValues(event, "ok").Inc()
	return nil
}
