package authority

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/autopeer-io/rentfleet/internal/vehicle"
	v1 "github.com/autopeer-io/rentfleet/pkg/apis/fleet/v1"
	"github.com/autopeer-io/rentfleet/pkg/options"
)

// statusEnvelope is the {"status": ...} body used for settlement and telemetry.
type statusEnvelope struct {
	Status vehicle.Status `json:"status"`
}

// Management talks to the management service: access decisions, trip
// settlement, telemetry reports and, for the mobile service, vehicle
// selection.
type Management struct {
	c *client
}

// NewManagement creates a management client.
func NewManagement(opts *options.UpstreamOptions) *Management {
	return &Management{c: newClient("management", opts)}
}

// RequestAccess asks for an access decision about person. The decision is
// posted later to callbackURL.
func (m *Management) RequestAccess(ctx context.Context, person, callbackURL string) error {
	resp, err := m.c.do(ctx, http.MethodPost, "/access/"+segment(person), v1.AccessRequest{CallbackURL: callbackURL})
	if err != nil {
		return err
	}
	if !resp.ok() {
		return fmt.Errorf("access request for %q: %w: status %d", person, ErrUnavailable, resp.status)
	}
	return nil
}

// Settle reports the final snapshot of a trip for occupant. Any non-2xx
// answer is ErrSettlementFailed.
func (m *Management) Settle(ctx context.Context, occupant string, status vehicle.Status) error {
	resp, err := m.c.do(ctx, http.MethodPost, "/return/"+segment(occupant), statusEnvelope{Status: status})
	if err != nil {
		return err
	}
	if !resp.ok() {
		return fmt.Errorf("settle %s for %q: %w: status %d", status.Name, occupant, ErrSettlementFailed, resp.status)
	}
	return nil
}

// Report posts one telemetry snapshot.
func (m *Management) Report(ctx context.Context, status vehicle.Status) error {
	resp, err := m.c.do(ctx, http.MethodPost, "/telemetry/"+segment(status.Name), statusEnvelope{Status: status})
	if err != nil {
		return err
	}
	if !resp.ok() {
		return fmt.Errorf("telemetry for %s: status %d", status.Name, resp.status)
	}
	return nil
}

// Cars lists the brands of the vehicles free for selection.
func (m *Management) Cars(ctx context.Context) ([]string, error) {
	var out []string
	if err := m.get(ctx, "/cars", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Tariffs lists the tariffs a client may pick.
func (m *Management) Tariffs(ctx context.Context) ([]string, error) {
	var out []string
	if err := m.get(ctx, "/tariff", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Select hands a vehicle of brand to the client and returns the prepayment
// the management service opened, unchanged.
func (m *Management) Select(ctx context.Context, brand string, req v1.SelectRequest) (json.RawMessage, error) {
	resp, err := m.c.do(ctx, http.MethodPost, "/select/car/"+segment(brand), req)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, fmt.Errorf("select %s for %q: %w: status %d", brand, req.ClientName, ErrUnavailable, resp.status)
	}
	if !json.Valid(resp.body) {
		return nil, fmt.Errorf("select %s for %q: %w: malformed prepayment %s", brand, req.ClientName, ErrUnavailable, truncate(resp.body))
	}
	return json.RawMessage(resp.body), nil
}

func (m *Management) get(ctx context.Context, path string, out any) error {
	resp, err := m.c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if !resp.ok() {
		return fmt.Errorf("management %s: %w: status %d", path, ErrUnavailable, resp.status)
	}
	if err := resp.decode(out); err != nil {
		return fmt.Errorf("management %s: %w: %v", path, ErrUnavailable, err)
	}
	return nil
}
