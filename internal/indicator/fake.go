package indicator

// FakeSink records every call for tests.
type FakeSink struct {
	Heater      bool
	Intensity   float64
	Lamp        bool
	Alarm       bool
	Flame       bool
	FlameFrame  int
	HeaterCalls int

	// LampChanges counts lamp transitions.
	LampChanges int
	// AlarmStarts counts alarm off->on transitions.
	AlarmStarts int

	// Err, if set, is returned by every setter.
	Err    error
	Closed bool
}

// NewFakeSink creates an empty FakeSink.
func NewFakeSink() *FakeSink {
	return &FakeSink{}
}

func (f *FakeSink) SetHeater(active bool, intensity float64) error {
	f.HeaterCalls++
	f.Heater, f.Intensity = active, intensity
	return f.Err
}

func (f *FakeSink) SetCompletionLamp(on bool) error {
	if on != f.Lamp {
		f.LampChanges++
	}
	f.Lamp = on
	return f.Err
}

func (f *FakeSink) SetAlarm(active bool) error {
	if active && !f.Alarm {
		f.AlarmStarts++
	}
	f.Alarm = active
	return f.Err
}

func (f *FakeSink) SetFlameAnimation(active bool, intensity float64, frame int) error {
	f.Flame, f.FlameFrame = active, frame
	return f.Err
}

func (f *FakeSink) Close() error {
	f.Closed = true
	return nil
}
