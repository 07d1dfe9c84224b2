package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*UpstreamOptions)(nil)

// UpstreamOptions describes one remote HTTP service this process calls
// (management/authority, payment system, cars service). The flag prefix is
// the upstream's name, e.g. --management.url.
type UpstreamOptions struct {
	name string

	// URL is the base URL of the remote service.
	URL string `json:"url" mapstructure:"url"`

	// Timeout bounds every single call to the remote service.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

// NewUpstreamOptions creates options for the upstream called name.
func NewUpstreamOptions(name, defaultURL string) *UpstreamOptions {
	return &UpstreamOptions{
		name:    name,
		URL:     defaultURL,
		Timeout: 10 * time.Second,
	}
}

func (o *UpstreamOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errs := []error{}
	if err := ValidateURL(o.URL); err != nil {
		errs = append(errs, fmt.Errorf("--%s.url: %w", o.name, err))
	}
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("--%s.timeout must be positive", o.name))
	}
	return errs
}

func (o *UpstreamOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.URL, o.name+".url", o.URL, fmt.Sprintf("Base URL of the %s service.", o.name))
	fs.DurationVar(&o.Timeout, o.name+".timeout", o.Timeout, fmt.Sprintf("Timeout for a single call to the %s service.", o.name))
}
