package options

import (
	"errors"

	"github.com/spf13/pflag"
)

var _ IOptions = (*CatalogOptions)(nil)

// CatalogOptions points at the static vehicle catalog loaded at startup.
type CatalogOptions struct {
	// Source is a file path, a file:// URL or an s3://bucket/key URL.
	Source string `json:"source" mapstructure:"source"`
}

func NewCatalogOptions() *CatalogOptions {
	return &CatalogOptions{
		Source: "data/cars.json",
	}
}

func (o *CatalogOptions) Validate() []error {
	if o.Source == "" {
		return []error{errors.New("--catalog.source must not be empty")}
	}
	return nil
}

func (o *CatalogOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Source, "catalog.source", o.Source, "Vehicle catalog location: a file path, file:// or s3://bucket/key (JSON or YAML).")
}
