package vehicle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/autopeer-io/rentfleet/internal/pkg/httputil"
)

func newTestVehicle(t *testing.T) (*Vehicle, *clocktesting.FakeClock) {
	t.Helper()
	clk := clocktesting.NewFakeClock(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	return New(Spec{Name: "Volvo", AirConditioner: true, Navigator: true}, clk), clk
}

func TestVehicleLifecycle(t *testing.T) {
	v, clk := newTestVehicle(t)

	msg, err := v.Reserve("Ivan", "Standard")
	require.NoError(t, err)
	assert.Equal(t, "Volvo reserved by Ivan.", msg)

	st := v.Status()
	assert.Equal(t, PhaseReserved, st.Phase)
	assert.False(t, st.Running)
	require.NotNil(t, st.Occupant)
	assert.Equal(t, "Ivan", *st.Occupant)
	require.NotNil(t, st.Tariff)
	assert.Equal(t, "Standard", *st.Tariff)

	msg, trip, err := v.Start()
	require.NoError(t, err)
	require.NotNil(t, trip)
	assert.Equal(t, "Volvo trip started.", msg)

	clk.Step(1500 * time.Millisecond)
	st = v.Status()
	assert.True(t, st.Running)
	assert.Equal(t, 1.5, st.TripTime)

	msg, err = v.Stop()
	require.NoError(t, err)
	assert.Equal(t, "Volvo trip finished.", msg)

	select {
	case <-trip.Done():
	default:
		t.Fatal("trip not closed by stop")
	}

	st = v.Status()
	assert.Equal(t, PhaseIdle, st.Phase)
	assert.False(t, st.Running)
	assert.Nil(t, st.Occupant)
	assert.Nil(t, st.Tariff)
	assert.Zero(t, st.Speed)
	assert.Zero(t, st.TripTime)
	assert.True(t, st.AirConditioner)
	assert.False(t, st.Heater)
	assert.True(t, st.Navigator)
}

func TestStartWhileRunningKeepsTripClock(t *testing.T) {
	v, clk := newTestVehicle(t)
	_, err := v.Reserve("Ivan", "Standard")
	require.NoError(t, err)
	_, first, err := v.Start()
	require.NoError(t, err)

	clk.Step(3 * time.Second)

	msg, second, err := v.Start()
	require.NoError(t, err)
	assert.Nil(t, second)
	assert.Equal(t, "Volvo trip is already in progress.", msg)
	assert.Equal(t, 3.0, v.Status().TripTime)

	v.mu.Lock()
	assert.Same(t, first, v.trip)
	v.mu.Unlock()
}

func TestStopWhenParked(t *testing.T) {
	v, _ := newTestVehicle(t)

	for _, stop := range []func() (string, error){v.Stop, v.EmergencyStop} {
		msg, err := stop()
		require.NoError(t, err)
		assert.Equal(t, "Volvo is parked.", msg)
	}

	st := v.Status()
	assert.Equal(t, PhaseIdle, st.Phase)
	assert.Zero(t, st.Speed)
	assert.Zero(t, st.TripTime)
}

func TestStopWhileReservedIsParked(t *testing.T) {
	v, _ := newTestVehicle(t)
	_, err := v.Reserve("Ivan", "Standard")
	require.NoError(t, err)

	msg, err := v.Stop()
	require.NoError(t, err)
	assert.Equal(t, "Volvo is parked.", msg)
	assert.Equal(t, PhaseReserved, v.Status().Phase)
}

func TestStartRequiresReservation(t *testing.T) {
	v, _ := newTestVehicle(t)

	_, trip, err := v.Start()
	assert.ErrorIs(t, err, ErrNotReserved)
	assert.Nil(t, trip)
	assert.Equal(t, PhaseIdle, v.Status().Phase)
}

func TestReserve(t *testing.T) {
	tests := []struct {
		name     string
		occupant string
		wantErr  error
	}{
		{"same occupant is idempotent", "Ivan", nil},
		{"other occupant is busy", "Olga", ErrBusy},
		{"empty occupant", "", httputil.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, _ := newTestVehicle(t)
			_, err := v.Reserve("Ivan", "Standard")
			require.NoError(t, err)

			_, err = v.Reserve(tt.occupant, "Premium")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			st := v.Status()
			require.NotNil(t, st.Occupant)
			assert.Equal(t, "Ivan", *st.Occupant)
			assert.Equal(t, "Standard", *st.Tariff)
		})
	}
}

func TestReserveWhileRunningBySameOccupant(t *testing.T) {
	v, _ := newTestVehicle(t)
	_, err := v.Reserve("Ivan", "Standard")
	require.NoError(t, err)
	_, _, err = v.Start()
	require.NoError(t, err)

	msg, err := v.Reserve("Ivan", "Standard")
	require.NoError(t, err)
	assert.Equal(t, "Volvo reserved by Ivan.", msg)
	assert.Equal(t, PhaseRunning, v.Status().Phase)

	_, err = v.Reserve("Olga", "Standard")
	assert.ErrorIs(t, err, ErrBusy)
}

func TestRelease(t *testing.T) {
	v, _ := newTestVehicle(t)
	require.NoError(t, v.Release("Ivan"))

	_, err := v.Reserve("Ivan", "Standard")
	require.NoError(t, err)
	assert.ErrorIs(t, v.Release("Olga"), ErrBusy)

	require.NoError(t, v.Release("Ivan"))
	st := v.Status()
	assert.Equal(t, PhaseIdle, st.Phase)
	assert.Nil(t, st.Occupant)

	_, err = v.Reserve("Olga", "Premium")
	assert.NoError(t, err)
}

func TestAdvanceIgnoresStaleTrip(t *testing.T) {
	v, _ := newTestVehicle(t)
	_, err := v.Reserve("Ivan", "Standard")
	require.NoError(t, err)
	_, stale, err := v.Start()
	require.NoError(t, err)
	_, err = v.Stop()
	require.NoError(t, err)

	_, ok := v.advance(stale, 50, 1, 1)
	assert.False(t, ok)

	_, err = v.Reserve("Ivan", "Standard")
	require.NoError(t, err)
	_, live, err := v.Start()
	require.NoError(t, err)

	_, ok = v.advance(stale, 50, 1, 1)
	assert.False(t, ok)
	assert.Zero(t, v.Status().Speed)

	st, ok := v.advance(live, 50, 1, -1)
	require.True(t, ok)
	assert.Equal(t, 50.0, st.Speed)
	assert.Equal(t, Position{X: 1, Y: -1}, st.Position)
}

func TestBeginSettleClaimsTripOnce(t *testing.T) {
	v, _ := newTestVehicle(t)

	_, err := v.Reserve("Ivan", "Standard")
	require.NoError(t, err)
	_, trip, err := v.Start()
	require.NoError(t, err)

	st, claimed, _, err := v.BeginSettle()
	require.NoError(t, err)
	assert.Same(t, trip, claimed)
	assert.True(t, st.Running)

	_, again, _, err := v.BeginSettle()
	assert.ErrorIs(t, err, ErrSettling)
	assert.Nil(t, again)

	v.AbortSettle(claimed)
	_, claimed, _, err = v.BeginSettle()
	require.NoError(t, err)
	assert.Same(t, trip, claimed)

	msg, err := v.StopTrip(claimed)
	require.NoError(t, err)
	assert.Equal(t, "Volvo trip finished.", msg)
	assert.Equal(t, PhaseIdle, v.Status().Phase)

	_, parked, msg, err := v.BeginSettle()
	require.NoError(t, err)
	assert.Nil(t, parked)
	assert.Equal(t, "Volvo is parked.", msg)
}

func TestStopTripIgnoresEndedTrip(t *testing.T) {
	v, _ := newTestVehicle(t)

	_, err := v.Reserve("Ivan", "Standard")
	require.NoError(t, err)
	_, first, err := v.Start()
	require.NoError(t, err)
	_, _, _, err = v.BeginSettle()
	require.NoError(t, err)

	_, err = v.EmergencyStop()
	require.NoError(t, err)
	_, err = v.Reserve("Petr", "Economy")
	require.NoError(t, err)
	_, second, err := v.Start()
	require.NoError(t, err)

	msg, err := v.StopTrip(first)
	require.NoError(t, err)
	assert.Equal(t, "Volvo is parked.", msg)

	st := v.Status()
	assert.True(t, st.Running)
	require.NotNil(t, st.Occupant)
	assert.Equal(t, "Petr", *st.Occupant)

	_, claimed, _, err := v.BeginSettle()
	require.NoError(t, err)
	assert.Same(t, second, claimed)
}
