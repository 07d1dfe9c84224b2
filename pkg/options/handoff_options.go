package options

import (
	"errors"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*HandoffOptions)(nil)

// HandoffOptions controls how long a request handler waits for an
// asynchronous decision from an authority and how often it may retry.
type HandoffOptions struct {
	// Timeout bounds a single wait for the authority's callback.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// MaxAttempts is the total number of open/request/await rounds.
	MaxAttempts int `json:"max-attempts" mapstructure:"max-attempts"`

	// RetryInterval is the pause between attempts.
	RetryInterval time.Duration `json:"retry-interval" mapstructure:"retry-interval"`

	// CallbackURL is the externally reachable base URL of this process,
	// handed to authorities so they know where to deliver decisions.
	CallbackURL string `json:"callback-url" mapstructure:"callback-url"`
}

func NewHandoffOptions() *HandoffOptions {
	return &HandoffOptions{
		Timeout:       30 * time.Second,
		MaxAttempts:   1,
		RetryInterval: 500 * time.Millisecond,
		CallbackURL:   "http://localhost:8000",
	}
}

func (o *HandoffOptions) Validate() []error {
	errs := []error{}

	if o.Timeout <= 0 {
		errs = append(errs, errors.New("--handoff.timeout must be positive"))
	}
	if o.MaxAttempts < 1 {
		errs = append(errs, errors.New("--handoff.max-attempts must be at least 1"))
	}
	if o.RetryInterval < 0 {
		errs = append(errs, errors.New("--handoff.retry-interval must not be negative"))
	}
	if err := ValidateURL(o.CallbackURL); err != nil {
		errs = append(errs, err)
	}

	return errs
}

func (o *HandoffOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.DurationVar(&o.Timeout, "handoff.timeout", o.Timeout, "How long to wait for an authority callback before giving up.")
	fs.IntVar(&o.MaxAttempts, "handoff.max-attempts", o.MaxAttempts, "Total attempts (open wait, request, await) per handoff.")
	fs.DurationVar(&o.RetryInterval, "handoff.retry-interval", o.RetryInterval, "Pause between handoff attempts.")
	fs.StringVar(&o.CallbackURL, "handoff.callback-url", o.CallbackURL, "Externally reachable base URL authorities call back on.")
}
