package logic

import (
	"fmt"
	"time"
)

// flameFrames is the length of the flame animation cycle.
const flameFrames = 4

// Result is everything one tick produced.
type Result struct {
	State    ProcessState
	Context  RuntimeContext
	Commands []Command
	Events   []Event
}

// Machine is the Menu/Running process state machine. It is the only writer
// of its RuntimeContext. Not safe for concurrent use.
type Machine struct {
	recipe Recipe
	policy Policy
	model  TemperatureModel

	state ProcessState
	ctx   RuntimeContext
	alarm Alarm
}

// NewMachine creates a machine in Menu(0).
func NewMachine(recipe Recipe, s Settings) (*Machine, error) {
	if err := recipe.Validate(); err != nil {
		return nil, fmt.Errorf("invalid recipe: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return &Machine{
		recipe: append(Recipe(nil), recipe...),
		policy: s.Policy,
		model:  s.Model,
		state:  Menu(0),
		alarm:  NewAlarm(s.AlarmPeriod, s.AlarmPulse),
	}, nil
}

// State returns the current process state.
func (m *Machine) State() ProcessState {
	return m.state
}

// Context returns a copy of the runtime context.
func (m *Machine) Context() RuntimeContext {
	return m.ctx
}

// Recipe returns a copy of the stage table.
func (m *Machine) Recipe() Recipe {
	return append(Recipe(nil), m.recipe...)
}

// Stage returns the stage selected in Menu or active in Running.
func (m *Machine) Stage() StageSpec {
	return m.stageAt(m.state.Index)
}

// Timing reports whether a stage timer is counting toward its hold duration.
func (m *Machine) Timing() bool {
	return m.state.IsRunning() && m.ctx.TimerRunning && !m.ctx.TimerFinished
}

// Step consumes one tick of button edges and joystick deflection
// (sample minus calibrated centre). At most one transition fires per tick,
// with priority Reset, Select, Advance. A tick that transitions does not
// also regulate.
func (m *Machine) Step(e Edges, deflection int, now time.Time) Result {
	var events []Event
	moved := m.transition(e, now, &events)
	if !moved && m.state.IsRunning() {
		events = m.regulate(deflection, now, events)
	}
	m.ctx.TotalElapsed = totalElapsed(&m.ctx, now)

	res := Result{
		State:    m.state,
		Context:  m.ctx,
		Commands: m.commands(now),
		Events:   events,
	}

	if m.ctx.FlameActive {
		m.ctx.FlameFrame = (m.ctx.FlameFrame + 1) % flameFrames
	} else {
		m.ctx.FlameFrame = 0
	}
	return res
}

func (m *Machine) transition(e Edges, now time.Time, events *[]Event) bool {
	if e.Reset {
		*events = append(*events, m.event(EventReset, now))
		m.toMenu()
		return true
	}
	if m.state.Mode == ModeMenu {
		return m.menu(e, now, events)
	}
	return m.running(e, now, events)
}

func (m *Machine) menu(e Edges, now time.Time, events *[]Event) bool {
	switch {
	case e.Select:
		i := m.state.Index
		if m.ctx.TotalTimerStart.IsZero() {
			m.ctx.TotalTimerStart = now
		}
		m.enter(i, m.stageAt(i).TempMin)
		*events = append(*events, m.event(EventProcessStarted, now), m.event(EventStageStarted, now))
	case e.Advance:
		m.state = Menu((m.state.Index + 1) % len(m.recipe))
	default:
		return false
	}
	return true
}

func (m *Machine) running(e Edges, now time.Time, events *[]Event) bool {
	i := m.state.Index
	switch {
	case e.Select:
		*events = append(*events, m.event(EventProcessAborted, now))
		m.toMenu()
	case e.Advance && m.ctx.TimerFinished:
		if i == len(m.recipe)-1 {
			*events = append(*events, m.event(EventProcessComplete, now))
			m.toMenu()
			return true
		}
		next := m.stageAt(i + 1)
		temp := next.TempMin
		if m.policy.StageEntry == EntryCarry {
			lo, hi := m.policy.Limits(next)
			temp = clamp(m.ctx.Temperature, lo, hi)
		}
		m.enter(i+1, temp)
		*events = append(*events, m.event(EventStageStarted, now))
	default:
		return false
	}
	return true
}

// enter starts stage i with a fresh context, keeping only the total timer.
func (m *Machine) enter(i int, temp float64) {
	s := m.stageAt(i)
	m.ctx = RuntimeContext{
		Temperature:     temp,
		FlameActive:     true,
		Intensity:       m.policy.Intensity(temp, s),
		TotalTimerStart: m.ctx.TotalTimerStart,
	}
	m.state = Running(i)
	m.alarm.Stop()
}

func (m *Machine) toMenu() {
	m.state = Menu(0)
	m.ctx = RuntimeContext{}
	m.alarm.Stop()
}

func (m *Machine) regulate(deflection int, now time.Time, events []Event) []Event {
	s := m.Stage()
	lo, hi := m.policy.Limits(s)

	previous := m.ctx.Temperature
	m.ctx.Temperature = m.model.Step(previous, deflection, lo, hi)
	m.policy.Heat(&m.ctx, s, previous)

	reached, finished := advanceStageTimer(&m.ctx, s, now)
	if reached {
		events = append(events, m.event(EventTargetReached, now))
	}
	if finished {
		events = append(events, m.event(EventStageFinished, now))
	}
	if m.ctx.TimerFinished {
		m.alarm.Update(now)
	}
	return events
}

func (m *Machine) commands(now time.Time) []Command {
	var lamp, sounding bool
	if m.state.IsRunning() && m.ctx.TimerFinished {
		lamp = m.alarm.Lamp()
		sounding = m.alarm.Sounding(now)
	}
	return []Command{
		CmdRender{State: m.state, Context: m.ctx, Stage: m.Stage()},
		CmdHeater{Heater: HeaterCommand{Active: m.ctx.FlameActive, Intensity: m.ctx.Intensity}},
		CmdCompletionLamp{On: lamp},
		CmdAlarm{Active: sounding},
		CmdFlameAnimation{Active: m.ctx.FlameActive, Intensity: m.ctx.Intensity, Frame: m.ctx.FlameFrame},
	}
}

func (m *Machine) event(t EventType, now time.Time) Event {
	s := m.Stage()
	return Event{
		Timestamp:    now,
		Type:         t,
		Stage:        s.Name,
		StageIndex:   m.state.Index,
		Temperature:  m.ctx.Temperature,
		StageElapsed: stageElapsed(&m.ctx, now),
		TotalElapsed: totalElapsed(&m.ctx, now),
	}
}

// stageAt panics on an out-of-range index: that is a state machine defect.
func (m *Machine) stageAt(i int) StageSpec {
	if i < 0 || i >= len(m.recipe) {
		panic(fmt.Sprintf("logic: stage index %d out of range [0, %d)", i, len(m.recipe)))
	}
	return m.recipe[i]
}
