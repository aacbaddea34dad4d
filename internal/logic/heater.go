package logic

// HeaterCommand is the abstract heater actuation for one tick.
type HeaterCommand struct {
	Active    bool
	Intensity float64 // 0..1
}

// Threshold is the temperature below which a threshold-reignite flame relights.
func (p Policy) Threshold(s StageSpec) float64 {
	return s.TempMax - s.TempMax*p.ToleranceFraction
}

// Heat updates FlameActive and Intensity in c from the current temperature.
// previous is the temperature before this tick's integration step.
//
// The flame always goes out at temp_max. Between the relight condition and
// temp_max the previous flame state holds.
func (p Policy) Heat(c *RuntimeContext, s StageSpec, previous float64) HeaterCommand {
	t := c.Temperature
	switch {
	case t >= s.TempMax:
		c.FlameActive = false
	case p.relight(t, previous, s):
		c.FlameActive = true
	}

	if !c.FlameActive {
		c.Intensity = 0
		return HeaterCommand{}
	}

	c.Intensity = p.Intensity(t, s)
	return HeaterCommand{Active: true, Intensity: c.Intensity}
}

// Intensity is the actuator level for a lit flame at temperature t.
// Hysteresis control is on/off; proportional control fades linearly from
// ProportionalBase at temp_min to zero at temp_max.
func (p Policy) Intensity(t float64, s StageSpec) float64 {
	if p.Heater != HeaterProportional {
		return 1
	}
	progress := clamp((t-s.TempMin)/(s.TempMax-s.TempMin), 0, 1)
	return p.ProportionalBase * (1 - progress)
}

func (p Policy) relight(t, previous float64, s StageSpec) bool {
	if p.Reignite == ReigniteDerivative {
		return t < previous
	}
	return t < p.Threshold(s)
}
