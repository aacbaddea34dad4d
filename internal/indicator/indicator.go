// Package indicator drives the controller's physical outputs: heater LED,
// completion lamp, buzzer and flame LED.
package indicator

import (
	"errors"
	"fmt"

	"github.com/sweeney/mash-controller/internal/logic"
)

// Sink receives actuator commands. Calls never block.
type Sink interface {
	SetHeater(active bool, intensity float64) error
	SetCompletionLamp(on bool) error
	SetAlarm(active bool) error
	SetFlameAnimation(active bool, intensity float64, frame int) error
	Close() error
}

// Default line offsets on gpiochip0.
const (
	DefaultPinHeater = 13
	DefaultPinLamp   = 11
	DefaultPinBuzzer = 21
	DefaultPinFlame  = 12
)

// Pins names the chip and line offsets of the outputs.
type Pins struct {
	Chip   string
	Heater int
	Lamp   int
	Buzzer int
	Flame  int
}

// Apply dispatches every actuator command in cmds to sink. Render commands
// are ignored; they belong to the display. All commands are attempted and
// the errors joined.
func Apply(sink Sink, cmds []logic.Command) error {
	var errs []error
	for _, c := range cmds {
		var err error
		switch c := c.(type) {
		case logic.CmdHeater:
			err = sink.SetHeater(c.Heater.Active, c.Heater.Intensity)
		case logic.CmdCompletionLamp:
			err = sink.SetCompletionLamp(c.On)
		case logic.CmdAlarm:
			err = sink.SetAlarm(c.Active)
		case logic.CmdFlameAnimation:
			err = sink.SetFlameAnimation(c.Active, c.Intensity, c.Frame)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", c, err))
		}
	}
	return errors.Join(errs...)
}

// flameLit is the flame LED level for an animation frame. The last frame of
// each cycle is dark so a lit flame flickers.
func flameLit(active bool, intensity float64, frame int) bool {
	return active && intensity > 0 && frame != 3
}
