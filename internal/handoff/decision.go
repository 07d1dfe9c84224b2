package handoff

import (
	"encoding/json"
	"net/http"

	"github.com/autopeer-io/rentfleet/internal/pkg/errno"
	v1 "github.com/autopeer-io/rentfleet/pkg/apis/fleet/v1"
)

var (
	// ErrAccessDenied is the authority's explicit refusal of a vehicle.
	ErrAccessDenied = errno.New(http.StatusNotFound, "access_denied", "access to the vehicle is not granted")

	// ErrPaymentFailed is a payment callback with any status but "paid".
	ErrPaymentFailed = errno.New(http.StatusPaymentRequired, "payment_failed", "payment was not confirmed")
)

// StatusPaid is the payment status that lets a sequence proceed.
const StatusPaid = "paid"

// Context threads the parties of one sequence through its steps.
type Context struct {
	Client  string
	Vehicle string
	Tariff  string
}

// KeysAndValues renders c for structured logging.
func (c Context) KeysAndValues() []any {
	return []any{"client", c.Client, "vehicle", c.Vehicle, "tariff", c.Tariff}
}

// AccessDecision is delivered to /callback/access/{person}.
type AccessDecision struct {
	Access  bool   `json:"access"`
	Vehicle string `json:"car,omitempty"`
	Tariff  string `json:"tariff,omitempty"`
}

// UnmarshalJSON accepts "vehicle" as an alias of "car".
func (d *AccessDecision) UnmarshalJSON(data []byte) error {
	type plain AccessDecision
	var aux struct {
		plain
		AltVehicle string `json:"vehicle"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*d = AccessDecision(aux.plain)
	if d.Vehicle == "" {
		d.Vehicle = aux.AltVehicle
	}
	return nil
}

// Err returns ErrAccessDenied unless access was granted.
func (d AccessDecision) Err() error {
	if !d.Access {
		return ErrAccessDenied
	}
	return nil
}

// PaymentDecision is delivered to /callback/payment.
type PaymentDecision struct {
	Kind   string `json:"kind"`
	ID     string `json:"id"`
	Status string `json:"status"`
	// Raw is the full callback body as received.
	Raw json.RawMessage `json:"-"`
}

// UnmarshalJSON accepts numeric ids and keeps the raw body.
func (d *PaymentDecision) UnmarshalJSON(data []byte) error {
	var aux struct {
		Kind   string `json:"kind"`
		ID     v1.ID  `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*d = PaymentDecision{
		Kind:   aux.Kind,
		ID:     string(aux.ID),
		Status: aux.Status,
		Raw:    append(json.RawMessage(nil), data...),
	}
	return nil
}

// MarshalJSON echoes the raw body when present.
func (d PaymentDecision) MarshalJSON() ([]byte, error) {
	if len(d.Raw) > 0 {
		return d.Raw, nil
	}
	type plain PaymentDecision
	return json.Marshal(plain(d))
}

// Key returns the broker key this decision fulfills.
func (d PaymentDecision) Key() string {
	return PaymentKey(d.Kind, d.ID)
}

// Err returns ErrPaymentFailed unless the status is paid.
func (d PaymentDecision) Err() error {
	if d.Status != StatusPaid {
		return ErrPaymentFailed
	}
	return nil
}

// PaymentKey returns the broker key of a prepayment or invoice confirmation.
func PaymentKey(kind, id string) string {
	return kind + "/" + id
}

// FinalInvoice is the opaque settlement result of a finished trip, keyed by
// client name.
type FinalInvoice struct {
	Name string
	Body json.RawMessage
}

// UnmarshalJSON keeps the whole body and extracts the client name.
func (f *FinalInvoice) UnmarshalJSON(data []byte) error {
	var aux struct {
		Name       string `json:"name"`
		ClientName string `json:"client_name"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	f.Name = aux.Name
	if f.Name == "" {
		f.Name = aux.ClientName
	}
	f.Body = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON writes the body unchanged.
func (f FinalInvoice) MarshalJSON() ([]byte, error) {
	if len(f.Body) == 0 {
		return []byte("null"), nil
	}
	return f.Body, nil
}
