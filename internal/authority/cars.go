package authority

import (
	"context"
	"net/http"

	"github.com/autopeer-io/rentfleet/internal/vehicle"
	v1 "github.com/autopeer-io/rentfleet/pkg/apis/fleet/v1"
	"github.com/autopeer-io/rentfleet/pkg/options"
)

// Cars is a client of the cars service. Error answers come back as coded
// errors carrying the cars service's status and code.
type Cars struct {
	c *client
}

// NewCars creates a cars service client.
func NewCars(opts *options.UpstreamOptions) *Cars {
	return &Cars{c: newClient("cars", opts)}
}

// Occupy runs the access handoff for person on the cars service.
func (c *Cars) Occupy(ctx context.Context, person string) (*v1.OccupyResponse, error) {
	out := &v1.OccupyResponse{}
	if err := c.call(ctx, http.MethodPost, "/vehicle/occupy/"+segment(person), out); err != nil {
		return nil, err
	}
	return out, nil
}

// Start begins a trip on the named vehicle.
func (c *Cars) Start(ctx context.Context, name string) (*v1.MessageResponse, error) {
	return c.message(ctx, "/vehicle/start/"+segment(name))
}

// Stop ends a trip with settlement.
func (c *Cars) Stop(ctx context.Context, name string) (*v1.MessageResponse, error) {
	return c.message(ctx, "/vehicle/stop/"+segment(name))
}

// Emergency ends a trip without settlement.
func (c *Cars) Emergency(ctx context.Context, name string) (*v1.MessageResponse, error) {
	return c.message(ctx, "/vehicle/emergency/"+segment(name))
}

// Status returns one vehicle's snapshot.
func (c *Cars) Status(ctx context.Context, name string) (*vehicle.Status, error) {
	out := &vehicle.Status{}
	if err := c.call(ctx, http.MethodGet, "/vehicle/status/"+segment(name), out); err != nil {
		return nil, err
	}
	return out, nil
}

// List returns every vehicle's snapshot.
func (c *Cars) List(ctx context.Context) ([]vehicle.Status, error) {
	var out []vehicle.Status
	if err := c.call(ctx, http.MethodGet, "/vehicle/status/all", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Cars) message(ctx context.Context, path string) (*v1.MessageResponse, error) {
	out := &v1.MessageResponse{}
	if err := c.call(ctx, http.MethodPost, path, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Cars) call(ctx context.Context, method, path string, out any) error {
	resp, err := c.c.do(ctx, method, path, nil)
	if err != nil {
		return err
	}
	if !resp.ok() {
		return resp.remoteError()
	}
	return resp.decode(out)
}
