// Package gpio provides controller input reading with hardware abstraction.
// The real implementation uses the Linux GPIO character device for buttons
// and an AxisReader for the analog joystick.
// The fake implementation allows testing without hardware.
package gpio

// Axis identifies an analog joystick axis.
type Axis int

const (
	AxisX Axis = iota
	AxisY      // steers the temperature
)

func (a Axis) String() string {
	if a == AxisX {
		return "X"
	}
	return "Y"
}

// Sample is one raw reading of every input. Button levels are raw:
// true = high = released (buttons are active-low with pull-ups).
type Sample struct {
	Advance bool
	Select  bool
	Reset   bool
	X       int
	Y       int
}

// Released returns a sample with every button up and the stick at (x, y).
func Released(x, y int) Sample {
	return Sample{Advance: true, Select: true, Reset: true, X: x, Y: y}
}

// Axis returns the raw value of one axis.
func (s Sample) Axis(a Axis) int {
	if a == AxisX {
		return s.X
	}
	return s.Y
}

// AxisReader reads one raw analog sample.
type AxisReader interface {
	ReadAxis(a Axis) (int, error)
}

// Reader reads controller inputs.
type Reader interface {
	AxisReader

	// Read returns one raw sample of every input.
	Read() (Sample, error)

	// Close releases GPIO resources.
	Close() error
}

// Default line offsets on gpiochip0.
const (
	DefaultPinAdvance = 5
	DefaultPinSelect  = 6
	DefaultPinReset   = 22
)

// Pins names the chip and line offsets of the three buttons.
type Pins struct {
	Chip    string
	Advance int
	Select  int
	Reset   int
}
