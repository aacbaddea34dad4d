// Package status provides a thread-safe status tracker for the mash controller.
// It is read by HTTP handlers, the websocket feed and heartbeat publishing.
package status

import (
	"slices"
	"sync"
	"time"

	"github.com/sweeney/mash-controller/internal/display"
	"github.com/sweeney/mash-controller/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	TickMs       int64
	TimingTickMs int64
	DebounceMs   int64
	HeartbeatMs  int64
	Broker       string
	HTTPAddr     string
	Bounds       string
	Heater       string
	Reignite     string
	StageEntry   string
}

// EventCounts counts process events since startup.
type EventCounts struct {
	ProcessStarted  int
	StageStarted    int
	TargetReached   int
	StageFinished   int
	ProcessComplete int
	ProcessAborted  int
	Reset           int
}

func (c *EventCounts) add(t logic.EventType) {
	switch t {
	case logic.EventProcessStarted:
		c.ProcessStarted++
	case logic.EventStageStarted:
		c.StageStarted++
	case logic.EventTargetReached:
		c.TargetReached++
	case logic.EventStageFinished:
		c.StageFinished++
	case logic.EventProcessComplete:
		c.ProcessComplete++
	case logic.EventProcessAborted:
		c.ProcessAborted++
	case logic.EventReset:
		c.Reset++
	}
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	State         logic.ProcessState
	Context       logic.RuntimeContext
	Stage         logic.StageSpec
	Recipe        logic.Recipe
	Lamp          bool
	Alarm         bool
	Display       []string
	Center        int
	Counts        EventCounts
	LastEvent     *logic.Event
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time, recipe,
// calibrated joystick centre and config.
func NewTracker(startTime time.Time, recipe logic.Recipe, center int, cfg Config) *Tracker {
	r := slices.Clone(recipe)
	var first logic.StageSpec
	if len(r) > 0 {
		first = r[0]
	}
	return &Tracker{
		snap: Snapshot{
			State:     logic.Menu(0),
			Stage:     first,
			Recipe:    r,
			Display:   display.Lines(logic.Menu(0), logic.RuntimeContext{}, first),
			Center:    center,
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update records one tick's result. Called from runLoop on every tick.
// It reports whether anything a viewer would see has changed.
func (t *Tracker) Update(res logic.Result) bool {
	stage := t.stage(res)
	var lamp, alarm bool
	for _, c := range res.Commands {
		switch c := c.(type) {
		case logic.CmdCompletionLamp:
			lamp = c.On
		case logic.CmdAlarm:
			alarm = c.Active
		}
	}
	lines := display.Lines(res.State, res.Context, stage)

	t.mu.Lock()
	defer t.mu.Unlock()

	changed := len(res.Events) > 0 ||
		res.State != t.snap.State ||
		lamp != t.snap.Lamp ||
		alarm != t.snap.Alarm ||
		!slices.Equal(lines, t.snap.Display)

	t.snap.State = res.State
	t.snap.Context = res.Context
	t.snap.Stage = stage
	t.snap.Lamp = lamp
	t.snap.Alarm = alarm
	t.snap.Display = lines
	for _, e := range res.Events {
		t.snap.Counts.add(e.Type)
	}
	if n := len(res.Events); n > 0 {
		last := res.Events[n-1]
		t.snap.LastEvent = &last
	}
	return changed
}

// stage returns the stage rendered in res, falling back to the recipe.
func (t *Tracker) stage(res logic.Result) logic.StageSpec {
	for _, c := range res.Commands {
		if r, ok := c.(logic.CmdRender); ok {
			return r.Stage
		}
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if i := res.State.Index; i >= 0 && i < len(t.snap.Recipe) {
		return t.snap.Recipe[i]
	}
	return logic.StageSpec{}
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Recipe = slices.Clone(t.snap.Recipe)
	s.Display = slices.Clone(t.snap.Display)
	if t.snap.LastEvent != nil {
		e := *t.snap.LastEvent
		s.LastEvent = &e
	}
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
