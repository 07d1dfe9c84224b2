package mobile

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"k8s.io/utils/clock"

	"github.com/autopeer-io/rentfleet/internal/pkg/errno"
	"github.com/autopeer-io/rentfleet/internal/pkg/httputil"
	v1 "github.com/autopeer-io/rentfleet/pkg/apis/fleet/v1"
	"github.com/autopeer-io/rentfleet/pkg/log"
)

// defaultPollInterval spaces the free-vehicle queries of SelectVehicle.
const defaultPollInterval = time.Second

var (
	// ErrNoVehicles is returned when no vehicle became free in time.
	ErrNoVehicles = errno.New(http.StatusServiceUnavailable, "no_vehicles_available", "no vehicle is free for selection")

	// ErrNoTariffs is returned when the management service offers no tariff.
	ErrNoTariffs = errno.New(http.StatusServiceUnavailable, "no_tariffs_available", "no tariff is offered")
)

// Management is the part of the management service used to pick a vehicle
// and open its prepayment.
type Management interface {
	Cars(ctx context.Context) ([]string, error)
	Tariffs(ctx context.Context) ([]string, error)
	Select(ctx context.Context, brand string, req v1.SelectRequest) (json.RawMessage, error)
}

// SelectVehicle picks a free vehicle and a tariff at random for client and
// asks the management service to open the prepayment, which is returned as
// the management service sent it. While no vehicle is free the list is
// polled again until the handoff timeout runs out.
func (s *Service) SelectVehicle(ctx context.Context, client string, experience int) (json.RawMessage, error) {
	if client == "" {
		return nil, httputil.Validationf("name must not be empty")
	}
	if experience < 0 {
		return nil, httputil.Validationf("experience must not be negative, got %d", experience)
	}

	cars, err := s.freeCars(ctx)
	if err != nil {
		return nil, err
	}
	tariffs, err := s.management.Tariffs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tariffs: %w", err)
	}
	if len(tariffs) == 0 {
		return nil, ErrNoTariffs
	}

	brand := cars[s.pick(len(cars))]
	tariff := tariffs[s.pick(len(tariffs))]
	log.Info("Vehicle selected", "client", client, "vehicle", brand, "tariff", tariff)

	prepayment, err := s.management.Select(ctx, brand, v1.SelectRequest{
		ClientName: client,
		Experience: experience,
		Tariff:     tariff,
	})
	if err != nil {
		return nil, err
	}
	return prepayment, nil
}

func (s *Service) freeCars(ctx context.Context) ([]string, error) {
	clk := s.opts.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}
	deadline := clk.NewTimer(s.opts.Timeout)
	defer deadline.Stop()

	for {
		cars, err := s.management.Cars(ctx)
		if err != nil {
			return nil, fmt.Errorf("list free vehicles: %w", err)
		}
		if len(cars) > 0 {
			return cars, nil
		}

		log.Debug("No free vehicle yet, polling again", "interval", s.pollInterval)
		poll := clk.NewTimer(s.pollInterval)
		select {
		case <-poll.C():
		case <-deadline.C():
			poll.Stop()
			return nil, fmt.Errorf("after %s: %w", s.opts.Timeout, ErrNoVehicles)
		case <-ctx.Done():
			poll.Stop()
			return nil, ctx.Err()
		}
	}
}
