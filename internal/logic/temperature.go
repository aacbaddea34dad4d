package logic

import "fmt"

// TemperatureModel integrates joystick deflection into a simulated temperature.
type TemperatureModel struct {
	Deadzone  int     // deflections with |d| < Deadzone count as zero
	FullScale float64 // ADC full scale, 4095 for a 12-bit converter
	Gain      float64 // degrees per tick at full deflection
}

// DefaultTemperatureModel matches a 12-bit joystick with a 200 count deadzone.
func DefaultTemperatureModel() TemperatureModel {
	return TemperatureModel{
		Deadzone:  200,
		FullScale: 4095,
		Gain:      0.5,
	}
}

// Validate rejects a model that would divide by zero or invert the deadzone.
func (m TemperatureModel) Validate() error {
	if m.FullScale <= 0 {
		return fmt.Errorf("full scale must be > 0, got %v", m.FullScale)
	}
	if m.Deadzone < 0 {
		return fmt.Errorf("negative deadzone %d", m.Deadzone)
	}
	return nil
}

// Steering applies the deadzone to a raw deflection (sample minus centre).
func (m TemperatureModel) Steering(deflection int) int {
	d := deflection
	if d < 0 {
		d = -d
	}
	if d < m.Deadzone {
		return 0
	}
	return deflection
}

// Step advances temp by one tick of deflection and clamps it to [lo, hi].
func (m TemperatureModel) Step(temp float64, deflection int, lo, hi float64) float64 {
	temp += float64(m.Steering(deflection)) / m.FullScale * m.Gain
	return clamp(temp, lo, hi)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
