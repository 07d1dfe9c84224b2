// Package v1 contains the JSON request and response bodies exchanged between
// the cars service, the mobile service and their external authorities.
package v1

import (
	"fmt"
	"strconv"
	"strings"
)

// MessageResponse is returned by the vehicle start, stop and emergency endpoints.
type MessageResponse struct {
	Message string `json:"message"`
}

// OccupyResponse is returned by POST /vehicle/occupy/{person}.
type OccupyResponse struct {
	// Access reports whether the access authority granted a vehicle.
	Access bool `json:"access"`

	// Vehicle is the name of the reserved vehicle.
	// +optional
	Vehicle string `json:"vehicle,omitempty"`

	// Message is a human readable outcome.
	Message string `json:"message"`

	// Error and Code are set when access was denied, matching the common
	// error body.
	// +optional
	Error string `json:"error,omitempty"`
	// +optional
	Code string `json:"code,omitempty"`
}

// AccessRequest asks the access authority for a decision about a client.
type AccessRequest struct {
	// CallbackURL is where the decision must be posted.
	CallbackURL string `json:"callback_url"`
}

// PaymentConfirmRequest asks the payment system to confirm a prepayment or
// invoice; the outcome is posted to CallbackURL.
type PaymentConfirmRequest struct {
	CallbackURL string `json:"callback_url"`
}

// DriveRequest is the body of /start_drive and /stop_drive.
type DriveRequest struct {
	// Name identifies the client.
	Name string `json:"name"`
}

// SelectVehicleRequest is the body of the mobile /cars call.
type SelectVehicleRequest struct {
	// Name identifies the client.
	Name string `json:"name"`
	// Experience is the client's driving experience in years.
	// +optional
	Experience int `json:"experience,omitempty"`
}

// SelectRequest asks the management service to hand a vehicle of the chosen
// brand to a client and open the prepayment for it.
type SelectRequest struct {
	ClientName string `json:"client_name"`
	Experience int    `json:"experience"`
	Tariff     string `json:"tariff"`
}

// PaymentRequest is the body of /prepayment and /final_pay.
type PaymentRequest struct {
	// ID is the prepayment or invoice id, as issued by the payment system.
	ID ID `json:"id"`
}

// ID is an identifier that may be sent as a JSON string or number.
type ID string

// UnmarshalJSON accepts "7", 7 and null.
func (id *ID) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	switch {
	case s == "null":
		*id = ""
	case strings.HasPrefix(s, `"`):
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return err
		}
		*id = ID(unquoted)
	default:
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return fmt.Errorf("id must be a string or number, got %s", s)
		}
		*id = ID(s)
	}
	return nil
}
