//go:build linux

package indicator

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

type output struct {
	name  string
	line  *gpiocdev.Line
	value int
}

func (o *output) set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if v == o.value {
		return nil
	}
	if err := o.line.SetValue(v); err != nil {
		return fmt.Errorf("set %s: %w", o.name, err)
	}
	o.value = v
	return nil
}

// RealSink drives output lines through the Linux GPIO character device.
// The heater LED is on/off; intensity only matters to the flame animation.
type RealSink struct {
	chip    *gpiocdev.Chip
	heater  *output
	lamp    *output
	buzzer  *output
	flame   *output
	outputs []*output
}

// NewRealSink requests the four output lines, all driven low.
func NewRealSink(pins Pins) (*RealSink, error) {
	chip, err := gpiocdev.NewChip(pins.Chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", pins.Chip, err)
	}

	s := &RealSink{chip: chip}
	request := func(name string, offset int) (*output, error) {
		line, err := chip.RequestLine(offset, gpiocdev.AsOutput(0), gpiocdev.WithConsumer("mash-"+name))
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("request %s pin %d: %w", name, offset, err)
		}
		o := &output{name: name, line: line}
		s.outputs = append(s.outputs, o)
		return o, nil
	}

	if s.heater, err = request("heater", pins.Heater); err != nil {
		return nil, err
	}
	if s.lamp, err = request("lamp", pins.Lamp); err != nil {
		return nil, err
	}
	if s.buzzer, err = request("buzzer", pins.Buzzer); err != nil {
		return nil, err
	}
	if s.flame, err = request("flame", pins.Flame); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *RealSink) SetHeater(active bool, intensity float64) error {
	return s.heater.set(active)
}

func (s *RealSink) SetCompletionLamp(on bool) error {
	return s.lamp.set(on)
}

func (s *RealSink) SetAlarm(active bool) error {
	return s.buzzer.set(active)
}

func (s *RealSink) SetFlameAnimation(active bool, intensity float64, frame int) error {
	return s.flame.set(flameLit(active, intensity, frame))
}

// Close drives every output low and releases the lines.
func (s *RealSink) Close() error {
	var errs []error
	for _, o := range s.outputs {
		if err := o.set(false); err != nil {
			errs = append(errs, err)
		}
		if err := o.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s pin: %w", o.name, err))
		}
	}
	s.outputs = nil
	if s.chip != nil {
		if err := s.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		s.chip = nil
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
