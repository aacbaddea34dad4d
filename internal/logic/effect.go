package logic

import "time"

// Effect is a time-sliced output that is on for Duration after Start.
// It is polled each tick instead of blocking the loop.
type Effect struct {
	Start    time.Time
	Duration time.Duration
}

// Active reports whether now falls inside the effect window.
func (e Effect) Active(now time.Time) bool {
	if e.Start.IsZero() || now.Before(e.Start) {
		return false
	}
	return now.Sub(e.Start) < e.Duration
}

// Alarm blinks the completion lamp every Period and sounds the buzzer for
// Pulse each time the lamp turns on.
type Alarm struct {
	Period time.Duration
	Pulse  time.Duration

	lamp       bool
	lastToggle time.Time
	buzzer     Effect
}

// NewAlarm returns a silent alarm.
func NewAlarm(period, pulse time.Duration) Alarm {
	return Alarm{Period: period, Pulse: pulse}
}

// Update toggles the lamp when a period has passed. The first call toggles
// immediately.
func (a *Alarm) Update(now time.Time) {
	if !a.lastToggle.IsZero() && now.Sub(a.lastToggle) < a.Period {
		return
	}
	a.lamp = !a.lamp
	a.lastToggle = now
	if a.lamp {
		a.buzzer = Effect{Start: now, Duration: a.Pulse}
	}
}

// Lamp reports the completion lamp level.
func (a *Alarm) Lamp() bool {
	return a.lamp
}

// Sounding reports whether the buzzer pulse is in progress at now.
func (a *Alarm) Sounding(now time.Time) bool {
	return a.buzzer.Active(now)
}

// Stop silences the alarm and restarts its phase.
func (a *Alarm) Stop() {
	*a = NewAlarm(a.Period, a.Pulse)
}
