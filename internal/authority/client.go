// Package authority contains the HTTP clients for the external services the
// fleet talks to: the management (access and settlement) service, the
// payment system and, from the mobile service, the cars service.
package authority

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/autopeer-io/rentfleet/internal/pkg/errno"
	"github.com/autopeer-io/rentfleet/internal/pkg/httputil"
	"github.com/autopeer-io/rentfleet/pkg/log"
	"github.com/autopeer-io/rentfleet/pkg/options"
)

var (
	// ErrUnavailable is returned when an authority cannot be reached or
	// answers with a server error.
	ErrUnavailable = errno.New(http.StatusBadGateway, "authority_unavailable", "authority service unavailable")

	// ErrSettlementFailed is returned when the management service refuses a
	// trip settlement.
	ErrSettlementFailed = errno.New(http.StatusBadGateway, "settlement_failed", "trip settlement failed")
)

// client is a small JSON-over-HTTP client bound to one base URL.
type client struct {
	name string
	base string
	http *http.Client
}

func newClient(name string, opts *options.UpstreamOptions) *client {
	return &client{
		name: name,
		base: strings.TrimSuffix(opts.URL, "/"),
		http: &http.Client{Timeout: opts.Timeout},
	}
}

// response is a completed exchange with a non-transport outcome.
type response struct {
	status int
	body   []byte
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

// decode unmarshals a successful body into out.
func (r *response) decode(out any) error {
	if out == nil || len(r.body) == 0 {
		return nil
	}
	return json.Unmarshal(r.body, out)
}

// remoteError rebuilds the coded error a rentfleet service answered with, so
// the status and code propagate unchanged.
func (r *response) remoteError() error {
	var body httputil.ErrorResponse
	if err := json.Unmarshal(r.body, &body); err != nil || body.Code == "" {
		return fmt.Errorf("unexpected status %d: %s", r.status, truncate(r.body))
	}
	return errno.New(r.status, body.Code, body.Error)
}

// do sends a request to base+path. Transport failures wrap ErrUnavailable.
func (c *client) do(ctx context.Context, method string, path string, in any) (*response, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if id := httputil.RequestIDFrom(ctx); id != "" {
		req.Header.Set(httputil.HeaderRequestID, id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w: %v", c.name, path, ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w: %v", c.name, path, ErrUnavailable, err)
	}

	log.Debug("Authority call", "service", c.name, "method", method, "path", path, "status", resp.StatusCode)
	return &response{status: resp.StatusCode, body: data}, nil
}

// segment escapes one path element.
func segment(s string) string {
	return url.PathEscape(s)
}

func truncate(b []byte) string {
	const limit = 256
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}
