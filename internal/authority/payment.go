package authority

import (
	"context"
	"fmt"
	"net/http"

	"github.com/autopeer-io/rentfleet/internal/handoff"
	v1 "github.com/autopeer-io/rentfleet/pkg/apis/fleet/v1"
	"github.com/autopeer-io/rentfleet/pkg/options"
)

// Payment talks to the payment system.
type Payment struct {
	c *client
}

// NewPayment creates a payment system client.
func NewPayment(opts *options.UpstreamOptions) *Payment {
	return &Payment{c: newClient("payment", opts)}
}

// ConfirmPrepayment asks the payment system to confirm prepayment id.
func (p *Payment) ConfirmPrepayment(ctx context.Context, id, callbackURL string) error {
	return p.confirm(ctx, "/prepayment/"+segment(id)+"/confirm", id, callbackURL)
}

// ConfirmInvoice asks the payment system to confirm invoice id.
func (p *Payment) ConfirmInvoice(ctx context.Context, id, callbackURL string) error {
	return p.confirm(ctx, "/invoices/"+segment(id)+"/confirm", id, callbackURL)
}

// confirm maps a 4xx to ErrPaymentFailed: the payment system knows the id
// but will not confirm it.
func (p *Payment) confirm(ctx context.Context, path, id, callbackURL string) error {
	resp, err := p.c.do(ctx, http.MethodPost, path, v1.PaymentConfirmRequest{CallbackURL: callbackURL})
	if err != nil {
		return err
	}
	switch {
	case resp.ok():
		return nil
	case resp.status < http.StatusInternalServerError:
		return fmt.Errorf("confirm %q: %w: status %d", id, handoff.ErrPaymentFailed, resp.status)
	default:
		return fmt.Errorf("confirm %q: %w: status %d", id, ErrUnavailable, resp.status)
	}
}
