package fleet

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/autopeer-io/rentfleet/internal/handoff"
	"github.com/autopeer-io/rentfleet/internal/pkg/metrics"
	"github.com/autopeer-io/rentfleet/internal/rendezvous"
	"github.com/autopeer-io/rentfleet/internal/vehicle"
	v1 "github.com/autopeer-io/rentfleet/pkg/apis/fleet/v1"
	"github.com/autopeer-io/rentfleet/pkg/log"
)

// Management is the part of the management service the cars service calls.
type Management interface {
	RequestAccess(ctx context.Context, person, callbackURL string) error
	Settle(ctx context.Context, occupant string, status vehicle.Status) error
}

// Service implements the vehicle operations of the cars service.
type Service struct {
	registry    *vehicle.Registry
	simulator   *vehicle.Simulator
	access      *rendezvous.Broker[handoff.AccessDecision]
	management  Management
	handoff     handoff.Options
	callbackURL string
}

// NewService wires the service. callbackURL is the externally reachable
// base URL of this process.
func NewService(
	registry *vehicle.Registry,
	simulator *vehicle.Simulator,
	access *rendezvous.Broker[handoff.AccessDecision],
	management Management,
	opts handoff.Options,
	callbackURL string,
) *Service {
	return &Service{
		registry:    registry,
		simulator:   simulator,
		access:      access,
		management:  management,
		handoff:     opts,
		callbackURL: strings.TrimSuffix(callbackURL, "/"),
	}
}

// Status returns the snapshot of one vehicle.
func (s *Service) Status(name string) (vehicle.Status, error) {
	v, err := s.registry.Find(name)
	if err != nil {
		return vehicle.Status{}, err
	}
	return v.Status(), nil
}

// List returns all vehicle snapshots in catalog order.
func (s *Service) List() []vehicle.Status {
	return s.registry.List()
}

// Start begins the trip of a reserved vehicle and spawns its drive.
func (s *Service) Start(name string) (string, error) {
	v, err := s.registry.Find(name)
	if err != nil {
		return "", err
	}

	msg, trip, err := v.Start()
	if err != nil {
		return "", err
	}
	s.simulator.Drive(v, trip)

	log.Info(msg, "vehicle", v.Name())
	return msg, nil
}

// Stop settles the trip with the management service, then stops the
// vehicle. A failed settlement leaves the vehicle running. Concurrent stops
// of one trip settle it once; the others get ErrSettling.
func (s *Service) Stop(ctx context.Context, name string) (string, error) {
	v, err := s.registry.Find(name)
	if err != nil {
		return "", err
	}

	status, trip, msg, err := v.BeginSettle()
	if err != nil || trip == nil {
		return msg, err
	}

	// The vehicle lock is not held across the settlement call.
	occupant := ""
	if status.Occupant != nil {
		occupant = *status.Occupant
	}
	if err := s.management.Settle(ctx, occupant, status); err != nil {
		v.AbortSettle(trip)
		log.Error(err, "Trip settlement failed, vehicle keeps running", "vehicle", v.Name(), "occupant", occupant)
		return "", err
	}

	msg, err = v.StopTrip(trip)
	if err != nil {
		return "", err
	}
	log.Info(msg, "vehicle", v.Name(), "occupant", occupant, "trip", trip.ID, "trip_time", status.TripTime)
	return msg, nil
}

// Emergency stops the vehicle without settlement.
func (s *Service) Emergency(name string) (string, error) {
	v, err := s.registry.Find(name)
	if err != nil {
		return "", err
	}

	msg, err := v.EmergencyStop()
	if err != nil {
		return "", err
	}
	log.Warn("Emergency stop", "vehicle", v.Name())
	return msg, nil
}

// Occupy asks the access authority which vehicle person may use and
// reserves it. A denial returns a response with Access false together with
// handoff.ErrAccessDenied.
func (s *Service) Occupy(ctx context.Context, person string) (*v1.OccupyResponse, error) {
	decision, err := handoff.Run(ctx, s.access, person, s.handoff, func(ctx context.Context) error {
		return s.management.RequestAccess(ctx, person, s.accessCallback(person))
	})
	if err != nil {
		return nil, err
	}

	if err := decision.Err(); err != nil {
		log.Info("Access denied", "client", person)
		return &v1.OccupyResponse{Access: false, Message: "Access to the vehicle is not granted."}, err
	}

	v, err := s.registry.Find(decision.Vehicle)
	if err != nil {
		return nil, err
	}

	hc := handoff.Context{Client: person, Vehicle: v.Name(), Tariff: decision.Tariff}
	msg, err := v.Reserve(hc.Client, hc.Tariff)
	if err != nil {
		return nil, err
	}

	log.Info("Vehicle reserved", hc.KeysAndValues()...)
	return &v1.OccupyResponse{Access: true, Vehicle: v.Name(), Message: msg}, nil
}

// DeliverAccess hands an access decision to the Occupy call waiting for person.
func (s *Service) DeliverAccess(person string, decision handoff.AccessDecision) error {
	if err := s.access.Fulfill(person, decision); err != nil {
		metrics.CallbacksTotal.WithLabelValues(handoff.KindAccess, "no_waiter").Inc()
		return err
	}
	metrics.CallbacksTotal.WithLabelValues(handoff.KindAccess, "delivered").Inc()
	return nil
}

// Ready reports whether the service can take traffic.
func (s *Service) Ready() error {
	if s.registry.Len() == 0 {
		return fmt.Errorf("vehicle catalog is empty")
	}
	return nil
}

// Shutdown fails pending handoffs and stops every drive.
func (s *Service) Shutdown() {
	s.access.Close()
	s.simulator.Shutdown()
}

func (s *Service) accessCallback(person string) string {
	return s.callbackURL + "/callback/access/" + url.PathEscape(person)
}
