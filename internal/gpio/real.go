//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealReader reads buttons from actual hardware using the Linux GPIO
// character device and the joystick from an AxisReader.
type RealReader struct {
	chip    *gpiocdev.Chip
	advance *gpiocdev.Line
	sel     *gpiocdev.Line
	reset   *gpiocdev.Line
	axes    AxisReader
}

// NewRealReader requests the three button lines as inputs with pull-ups.
func NewRealReader(pins Pins, axes AxisReader) (*RealReader, error) {
	if axes == nil {
		return nil, fmt.Errorf("no joystick axis reader")
	}
	chip, err := gpiocdev.NewChip(pins.Chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", pins.Chip, err)
	}

	r := &RealReader{chip: chip, axes: axes}
	request := func(name string, offset int) (*gpiocdev.Line, error) {
		line, err := chip.RequestLine(offset, gpiocdev.AsInput, gpiocdev.WithPullUp,
			gpiocdev.WithConsumer("mash-"+name))
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("request %s pin %d: %w", name, offset, err)
		}
		return line, nil
	}

	if r.advance, err = request("advance", pins.Advance); err != nil {
		return nil, err
	}
	if r.sel, err = request("select", pins.Select); err != nil {
		return nil, err
	}
	if r.reset, err = request("reset", pins.Reset); err != nil {
		return nil, err
	}
	return r, nil
}

// Read returns raw button levels (1 = released) and both axes.
func (r *RealReader) Read() (Sample, error) {
	var s Sample
	var err error
	if s.Advance, err = level(r.advance); err != nil {
		return Sample{}, fmt.Errorf("read advance pin: %w", err)
	}
	if s.Select, err = level(r.sel); err != nil {
		return Sample{}, fmt.Errorf("read select pin: %w", err)
	}
	if s.Reset, err = level(r.reset); err != nil {
		return Sample{}, fmt.Errorf("read reset pin: %w", err)
	}
	if s.X, err = r.axes.ReadAxis(AxisX); err != nil {
		return Sample{}, fmt.Errorf("read axis X: %w", err)
	}
	if s.Y, err = r.axes.ReadAxis(AxisY); err != nil {
		return Sample{}, fmt.Errorf("read axis Y: %w", err)
	}
	return s, nil
}

// ReadAxis reads one joystick axis.
func (r *RealReader) ReadAxis(a Axis) (int, error) {
	return r.axes.ReadAxis(a)
}

func level(l *gpiocdev.Line) (bool, error) {
	v, err := l.Value()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// Close releases GPIO resources. Lines are put back to input with pull-up
// first so the buttons idle high after exit.
func (r *RealReader) Close() error {
	var errs []error

	lines := []struct {
		name string
		line *gpiocdev.Line
	}{{"advance", r.advance}, {"select", r.sel}, {"reset", r.reset}}
	for _, l := range lines {
		if l.line == nil {
			continue
		}
		if err := l.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullUp); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s pin: %w", l.name, err))
		}
		if err := l.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s pin: %w", l.name, err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
