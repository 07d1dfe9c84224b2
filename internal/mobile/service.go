package mobile

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/autopeer-io/rentfleet/internal/handoff"
	"github.com/autopeer-io/rentfleet/internal/pkg/httputil"
	"github.com/autopeer-io/rentfleet/internal/pkg/metrics"
	"github.com/autopeer-io/rentfleet/internal/rendezvous"
	v1 "github.com/autopeer-io/rentfleet/pkg/apis/fleet/v1"
	"github.com/autopeer-io/rentfleet/pkg/log"
)

// Cars is the part of the cars service the mobile service drives.
type Cars interface {
	Occupy(ctx context.Context, person string) (*v1.OccupyResponse, error)
	Start(ctx context.Context, name string) (*v1.MessageResponse, error)
	Stop(ctx context.Context, name string) (*v1.MessageResponse, error)
}

// Payment confirms prepayments and invoices; outcomes arrive on /callback/payment.
type Payment interface {
	ConfirmPrepayment(ctx context.Context, id, callbackURL string) error
	ConfirmInvoice(ctx context.Context, id, callbackURL string) error
}

// Service orchestrates a client's vehicle selection, drive and payments.
type Service struct {
	management  Management
	cars        Cars
	payment     Payment
	payments    *rendezvous.Broker[handoff.PaymentDecision]
	finals      *rendezvous.Broker[handoff.FinalInvoice]
	opts        handoff.Options
	callbackURL string

	// pick returns a uniform index in [0, n).
	pick         func(n int) int
	pollInterval time.Duration
}

// NewService wires the service. opts.Kind is overridden per handoff.
func NewService(
	management Management,
	cars Cars,
	payment Payment,
	payments *rendezvous.Broker[handoff.PaymentDecision],
	finals *rendezvous.Broker[handoff.FinalInvoice],
	opts handoff.Options,
	callbackURL string,
) *Service {
	return &Service{
		management:  management,
		cars:        cars,
		payment:     payment,
		payments:    payments,
		finals:      finals,
		opts:        opts,
		callbackURL: strings.TrimSuffix(callbackURL, "/"),

		pick:         rand.IntN,
		pollInterval: defaultPollInterval,
	}
}

// StartDrive obtains access for client through the cars service and starts
// the granted vehicle.
func (s *Service) StartDrive(ctx context.Context, client string) (*v1.MessageResponse, error) {
	vehicle, err := s.occupy(ctx, client)
	if err != nil {
		return nil, err
	}

	resp, err := s.cars.Start(ctx, vehicle)
	if err != nil {
		return nil, fmt.Errorf("start %s for %s: %w", vehicle, client, err)
	}
	log.Info("Drive started", "client", client, "vehicle", vehicle)
	return resp, nil
}

// StopDrive stops the client's vehicle and waits for the final invoice the
// management side posts once the trip is settled.
func (s *Service) StopDrive(ctx context.Context, client string) (handoff.FinalInvoice, error) {
	vehicle, err := s.occupy(ctx, client)
	if err != nil {
		return handoff.FinalInvoice{}, err
	}

	// Once the stop went through, later attempts only wait again for the
	// invoice; a second stop would find the vehicle parked.
	stopped := false
	invoice, err := handoff.Run(ctx, s.finals, client, s.handoffOptions(handoff.KindFinal), func(ctx context.Context) error {
		if stopped {
			return nil
		}
		if _, err := s.cars.Stop(ctx, vehicle); err != nil {
			return err
		}
		stopped = true
		return nil
	})
	if err != nil {
		return handoff.FinalInvoice{}, err
	}

	log.Info("Drive finished", "client", client, "vehicle", vehicle)
	return invoice, nil
}

// Prepayment confirms prepayment id and returns the payment system's answer.
func (s *Service) Prepayment(ctx context.Context, id string) (handoff.PaymentDecision, error) {
	return s.pay(ctx, handoff.KindPrepayment, id, s.payment.ConfirmPrepayment)
}

// FinalPay confirms invoice id and returns the payment system's answer.
func (s *Service) FinalPay(ctx context.Context, id string) (handoff.PaymentDecision, error) {
	return s.pay(ctx, handoff.KindInvoice, id, s.payment.ConfirmInvoice)
}

func (s *Service) pay(ctx context.Context, kind, id string, confirm func(ctx context.Context, id, callbackURL string) error) (handoff.PaymentDecision, error) {
	if id == "" {
		return handoff.PaymentDecision{}, httputil.Validationf("id must not be empty")
	}

	decision, err := handoff.Run(ctx, s.payments, handoff.PaymentKey(kind, id), s.handoffOptions(kind), func(ctx context.Context) error {
		return confirm(ctx, id, s.callbackURL+"/callback/payment")
	})
	if err != nil {
		return handoff.PaymentDecision{}, err
	}
	if err := decision.Err(); err != nil {
		log.Warn("Payment not confirmed", "kind", kind, "id", id, "status", decision.Status)
		return decision, fmt.Errorf("%s %s is %q: %w", kind, id, decision.Status, err)
	}
	return decision, nil
}

// DeliverPayment hands a payment callback to the waiting Prepayment or FinalPay.
func (s *Service) DeliverPayment(d handoff.PaymentDecision) error {
	if d.Kind != handoff.KindPrepayment && d.Kind != handoff.KindInvoice {
		metrics.CallbacksTotal.WithLabelValues("payment", "invalid").Inc()
		return httputil.Validationf("kind must be %q or %q, got %q", handoff.KindPrepayment, handoff.KindInvoice, d.Kind)
	}
	if d.ID == "" {
		metrics.CallbacksTotal.WithLabelValues(d.Kind, "invalid").Inc()
		return httputil.Validationf("id must not be empty")
	}
	return deliver(s.payments, d.Kind, d.Key(), d)
}

// DeliverFinal hands a final invoice to the waiting StopDrive.
func (s *Service) DeliverFinal(f handoff.FinalInvoice) error {
	if f.Name == "" {
		metrics.CallbacksTotal.WithLabelValues(handoff.KindFinal, "invalid").Inc()
		return httputil.Validationf("name must not be empty")
	}
	return deliver(s.finals, handoff.KindFinal, f.Name, f)
}

// Ready always succeeds; the service holds no state worth probing.
func (s *Service) Ready() error {
	return nil
}

// Shutdown fails every pending handoff.
func (s *Service) Shutdown() {
	s.payments.Close()
	s.finals.Close()
}

func (s *Service) occupy(ctx context.Context, client string) (string, error) {
	if client == "" {
		return "", httputil.Validationf("name must not be empty")
	}
	occ, err := s.cars.Occupy(ctx, client)
	if err != nil {
		return "", fmt.Errorf("occupy for %s: %w", client, err)
	}
	if !occ.Access {
		return "", handoff.ErrAccessDenied
	}
	return occ.Vehicle, nil
}

func (s *Service) handoffOptions(kind string) handoff.Options {
	opts := s.opts
	opts.Kind = kind
	return opts
}

func deliver[T any](broker *rendezvous.Broker[T], kind, key string, payload T) error {
	if err := broker.Fulfill(key, payload); err != nil {
		metrics.CallbacksTotal.WithLabelValues(kind, "no_waiter").Inc()
		return err
	}
	metrics.CallbacksTotal.WithLabelValues(kind, "delivered").Inc()
	return nil
}
