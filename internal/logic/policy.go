package logic

import (
	"fmt"
	"time"
)

// BoundPolicy selects the temperature limits applied each tick.
type BoundPolicy string

const (
	// BoundClamp keeps temperature inside [temp_min, temp_max] of the stage.
	BoundClamp BoundPolicy = "clamp"
	// BoundDrift only enforces temp_max; temperature may fall to 0.
	BoundDrift BoundPolicy = "drift"
)

// HeaterPolicy selects how heater intensity is derived.
type HeaterPolicy string

const (
	HeaterHysteresis   HeaterPolicy = "hysteresis"
	HeaterProportional HeaterPolicy = "proportional"
)

// ReignitePolicy selects when an extinguished flame comes back on.
type ReignitePolicy string

const (
	// ReigniteThreshold relights below temp_max*(1-tolerance).
	ReigniteThreshold ReignitePolicy = "threshold"
	// ReigniteDerivative relights whenever temperature fell since the last tick.
	ReigniteDerivative ReignitePolicy = "derivative"
)

// StageEntryPolicy selects the temperature a stage starts from when advancing.
type StageEntryPolicy string

const (
	// EntryReset starts the new stage at its temp_min.
	EntryReset StageEntryPolicy = "reset"
	// EntryCarry keeps the previous temperature, limited to the new stage bounds.
	EntryCarry StageEntryPolicy = "carry"
)

// Policy is the set of behaviour switches chosen at startup.
type Policy struct {
	Bounds            BoundPolicy
	Heater            HeaterPolicy
	Reignite          ReignitePolicy
	StageEntry        StageEntryPolicy
	ToleranceFraction float64 // hysteresis band as a fraction of temp_max
	ProportionalBase  float64 // full intensity at temp_min, 0..1
}

// DefaultPolicy returns hysteresis control with strict clamping.
func DefaultPolicy() Policy {
	return Policy{
		Bounds:            BoundClamp,
		Heater:            HeaterHysteresis,
		Reignite:          ReigniteThreshold,
		StageEntry:        EntryReset,
		ToleranceFraction: 0.05,
		ProportionalBase:  1.0,
	}
}

// Validate rejects unknown policy names and out-of-range fractions.
func (p Policy) Validate() error {
	switch p.Bounds {
	case BoundClamp, BoundDrift:
	default:
		return fmt.Errorf("unknown bound policy %q", p.Bounds)
	}
	switch p.Heater {
	case HeaterHysteresis, HeaterProportional:
	default:
		return fmt.Errorf("unknown heater policy %q", p.Heater)
	}
	switch p.Reignite {
	case ReigniteThreshold, ReigniteDerivative:
	default:
		return fmt.Errorf("unknown reignite policy %q", p.Reignite)
	}
	switch p.StageEntry {
	case EntryReset, EntryCarry:
	default:
		return fmt.Errorf("unknown stage entry policy %q", p.StageEntry)
	}
	if p.ToleranceFraction < 0 || p.ToleranceFraction >= 1 {
		return fmt.Errorf("tolerance fraction %v outside [0, 1)", p.ToleranceFraction)
	}
	if p.ProportionalBase < 0 || p.ProportionalBase > 1 {
		return fmt.Errorf("proportional base %v outside [0, 1]", p.ProportionalBase)
	}
	return nil
}

// Limits returns the temperature bounds for a stage under this policy.
func (p Policy) Limits(s StageSpec) (lo, hi float64) {
	if p.Bounds == BoundDrift {
		return 0, s.TempMax
	}
	return s.TempMin, s.TempMax
}

// Settings bundles everything the Machine and Controller need besides the recipe.
type Settings struct {
	Policy      Policy
	Model       TemperatureModel
	Debounce    time.Duration
	AlarmPeriod time.Duration
	AlarmPulse  time.Duration
}

// DefaultSettings returns the reference tuning.
func DefaultSettings() Settings {
	return Settings{
		Policy:      DefaultPolicy(),
		Model:       DefaultTemperatureModel(),
		Debounce:    50 * time.Millisecond,
		AlarmPeriod: time.Second,
		AlarmPulse:  250 * time.Millisecond,
	}
}

// Validate checks every nested setting.
func (s Settings) Validate() error {
	if err := s.Policy.Validate(); err != nil {
		return err
	}
	if err := s.Model.Validate(); err != nil {
		return err
	}
	if s.Debounce < 0 {
		return fmt.Errorf("negative debounce window %v", s.Debounce)
	}
	if s.AlarmPeriod <= 0 {
		return fmt.Errorf("alarm period must be > 0, got %v", s.AlarmPeriod)
	}
	if s.AlarmPulse < 0 || s.AlarmPulse > s.AlarmPeriod {
		return fmt.Errorf("alarm pulse %v must be within [0, %v]", s.AlarmPulse, s.AlarmPeriod)
	}
	return nil
}
