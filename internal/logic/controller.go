package logic

import "fmt"

// Controller debounces raw inputs and feeds the Machine.
type Controller struct {
	buttons *Buttons
	machine *Machine
	center  int
}

// NewController creates a controller. center is the calibrated joystick rest
// value and never changes afterwards.
func NewController(recipe Recipe, s Settings, center int) (*Controller, error) {
	m, err := NewMachine(recipe, s)
	if err != nil {
		return nil, err
	}
	if center < 0 {
		return nil, fmt.Errorf("negative axis centre %d", center)
	}
	return &Controller{
		buttons: NewButtons(s.Debounce),
		machine: m,
		center:  center,
	}, nil
}

// Process runs one tick.
func (c *Controller) Process(in Input) Result {
	edges := c.buttons.Process(in)
	return c.machine.Step(edges, in.Axis-c.center, in.Time)
}

// Machine exposes the state machine for read-only queries.
func (c *Controller) Machine() *Machine {
	return c.machine
}

// Buttons exposes debouncer state.
func (c *Controller) Buttons() *Buttons {
	return c.buttons
}

// Center returns the calibrated axis centre.
func (c *Controller) Center() int {
	return c.center
}
