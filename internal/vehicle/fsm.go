package vehicle

import (
	"context"
	"time"

	"github.com/looplab/fsm"

	fsmutil "github.com/autopeer-io/rentfleet/internal/pkg/util/fsm"
)

// Phase is the lifecycle state of a vehicle.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseReserved Phase = "reserved"
	PhaseRunning  Phase = "running"
)

const (
	EventReserve = "reserve"
	EventStart   = "start"
	EventStop    = "stop"
	// EventEmergency ends a trip without settlement.
	EventEmergency = "emergency"
	// EventRelease drops a reservation that never started.
	EventRelease = "release"
)

// newMachine builds the phase machine of v. All events are fired with v.mu held.
func (v *Vehicle) newMachine() *fsm.FSM {
	events := fsm.Events{
		{Name: EventReserve, Src: []string{string(PhaseIdle)}, Dst: string(PhaseReserved)},
		{Name: EventStart, Src: []string{string(PhaseReserved)}, Dst: string(PhaseRunning)},
		{Name: EventStop, Src: []string{string(PhaseRunning)}, Dst: string(PhaseIdle)},
		{Name: EventEmergency, Src: []string{string(PhaseRunning)}, Dst: string(PhaseIdle)},
		{Name: EventRelease, Src: []string{string(PhaseReserved)}, Dst: string(PhaseIdle)},
	}

	callbacks := fsm.Callbacks{
		// Guards (before_...): reject a transition whose preconditions do not hold
		"before_" + EventStart: fsmutil.WrapGuard(v.guardStart),

		// Side-Effects (enter_...): set fields upon entering a phase
		"enter_" + string(PhaseReserved): fsmutil.WrapEvent(v.enterReserved),
		"enter_" + string(PhaseRunning):  fsmutil.WrapEvent(v.enterRunning),
		"enter_" + string(PhaseIdle):     fsmutil.WrapEvent(v.enterIdle),
	}

	return fsm.NewFSM(string(PhaseIdle), events, callbacks)
}

// enterReserved expects Args = [occupant, tariff].
func (v *Vehicle) enterReserved(_ context.Context, e *fsm.Event) error {
	v.occupant = e.Args[0].(string)
	v.tariff = e.Args[1].(string)
	return nil
}

// guardStart refuses to run a vehicle nobody holds.
func (v *Vehicle) guardStart(_ context.Context, _ *fsm.Event) error {
	if v.occupant == "" {
		return ErrNotReserved
	}
	return nil
}

func (v *Vehicle) enterRunning(_ context.Context, _ *fsm.Event) error {
	v.tripStart = v.clock.Now()
	v.tripSeq++
	v.trip = &Trip{ID: v.tripSeq, done: make(chan struct{})}
	return nil
}

func (v *Vehicle) enterIdle(_ context.Context, _ *fsm.Event) error {
	v.speed = 0
	v.occupant = ""
	v.tariff = ""
	v.tripStart = time.Time{}
	v.settling = nil
	if v.trip != nil {
		close(v.trip.done)
		v.trip = nil
	}
	return nil
}
