package options

import (
	"errors"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*SimulatorOptions)(nil)

// SimulatorOptions tunes the per-vehicle telemetry simulator.
type SimulatorOptions struct {
	TickInterval time.Duration `json:"tick-interval" mapstructure:"tick-interval"`
	SpeedMin     float64       `json:"speed-min" mapstructure:"speed-min"`
	SpeedMax     float64       `json:"speed-max" mapstructure:"speed-max"`
	MaxStep      float64       `json:"max-step" mapstructure:"max-step"`
}

func NewSimulatorOptions() *SimulatorOptions {
	return &SimulatorOptions{
		TickInterval: time.Second,
		SpeedMin:     10,
		SpeedMax:     100,
		MaxStep:      2,
	}
}

func (o *SimulatorOptions) Validate() []error {
	errs := []error{}

	if o.TickInterval <= 0 {
		errs = append(errs, errors.New("--simulator.tick-interval must be positive"))
	}
	if o.SpeedMin <= 0 || o.SpeedMax < o.SpeedMin {
		errs = append(errs, errors.New("--simulator.speed-min must be positive and not above --simulator.speed-max"))
	}
	if o.MaxStep < 0 {
		errs = append(errs, errors.New("--simulator.max-step must not be negative"))
	}

	return errs
}

func (o *SimulatorOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.DurationVar(&o.TickInterval, "simulator.tick-interval", o.TickInterval, "Interval between telemetry ticks of a running vehicle.")
	fs.Float64Var(&o.SpeedMin, "simulator.speed-min", o.SpeedMin, "Lower bound of the simulated speed (km/h).")
	fs.Float64Var(&o.SpeedMax, "simulator.speed-max", o.SpeedMax, "Upper bound of the simulated speed (km/h).")
	fs.Float64Var(&o.MaxStep, "simulator.max-step", o.MaxStep, "Maximum position change per axis per tick.")
}
