package logic

import "time"

// Button identifies a discrete input.
type Button int

const (
	ButtonAdvance Button = iota // "A"
	ButtonSelect                // "B", also back
	ButtonReset                 // joystick push
)

func (b Button) String() string {
	switch b {
	case ButtonAdvance:
		return "A"
	case ButtonSelect:
		return "B"
	case ButtonReset:
		return "RESET"
	}
	return "UNKNOWN"
}

// Debouncer turns one raw active-low level into press edges.
// true is the released (high) level.
type Debouncer struct {
	window time.Duration
	// Raw is the last sampled level.
	Raw bool
	// Stable is the debounced level.
	Stable bool
	// Since is the time Raw last changed.
	Since time.Time
}

// NewDebouncer returns a debouncer that starts released.
func NewDebouncer(window time.Duration) Debouncer {
	return Debouncer{window: window, Raw: true, Stable: true}
}

// Update samples raw at now and reports a press edge. A level must hold for
// longer than the window before it replaces Stable; a press is reported once
// per stable high->low transition.
func (d *Debouncer) Update(raw bool, now time.Time) bool {
	if raw != d.Raw {
		d.Raw = raw
		d.Since = now
		return false
	}
	if d.Raw == d.Stable || now.Sub(d.Since) <= d.window {
		return false
	}
	d.Stable = d.Raw
	return !d.Stable
}

// Input is one raw sample of every controller input.
type Input struct {
	Advance bool // raw levels, true = released
	Select  bool
	Reset   bool
	Axis    int // raw steering axis sample
	Time    time.Time
}

// Edges are the presses detected on one tick.
type Edges struct {
	Advance bool
	Select  bool
	Reset   bool
}

// Any reports whether any button was pressed.
func (e Edges) Any() bool {
	return e.Advance || e.Select || e.Reset
}

// Buttons debounces the three inputs independently.
type Buttons struct {
	advance Debouncer
	sel     Debouncer
	reset   Debouncer
}

// NewButtons creates debouncers sharing one window.
func NewButtons(window time.Duration) *Buttons {
	return &Buttons{
		advance: NewDebouncer(window),
		sel:     NewDebouncer(window),
		reset:   NewDebouncer(window),
	}
}

// Process samples all buttons at in.Time.
func (b *Buttons) Process(in Input) Edges {
	return Edges{
		Advance: b.advance.Update(in.Advance, in.Time),
		Select:  b.sel.Update(in.Select, in.Time),
		Reset:   b.reset.Update(in.Reset, in.Time),
	}
}

// State returns the debouncer for a button.
func (b *Buttons) State(btn Button) Debouncer {
	switch btn {
	case ButtonAdvance:
		return b.advance
	case ButtonSelect:
		return b.sel
	case ButtonReset:
		return b.reset
	}
	panic("logic: unknown button " + btn.String())
}
